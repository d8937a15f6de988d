package middleware

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"quix/internal/domain/models"
	"quix/internal/httputil"
)

type fakeVerifier struct {
	tokens map[string]string
}

func (f *fakeVerifier) VerifyToken(token string) (*models.Claims, error) {
	sub, ok := f.tokens[token]
	if !ok {
		return nil, errors.New("bad token")
	}
	return &models.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: sub}, Role: "authenticated"}, nil
}

func (f *fakeVerifier) Close() error { return nil }

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(httputil.Actor(r.Context())))
	})
}

func TestAuthMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	verifier := &fakeVerifier{tokens: map[string]string{"good": "u1"}}

	tests := []struct {
		name     string
		verifier *fakeVerifier
		path     string
		header   string
		value    string
		wantCode int
		wantBody string
	}{
		{name: "bearer token", verifier: verifier, path: "/api/files", header: "Authorization", value: "Bearer good", wantCode: http.StatusOK, wantBody: "u1"},
		{name: "invalid token", verifier: verifier, path: "/api/files", header: "Authorization", value: "Bearer nope", wantCode: http.StatusUnauthorized},
		{name: "missing token", verifier: verifier, path: "/api/files", wantCode: http.StatusUnauthorized},
		{name: "dev header ignored with verifier", verifier: verifier, path: "/api/files", header: DevUserHeader, value: "u2", wantCode: http.StatusUnauthorized},
		{name: "health is open", verifier: verifier, path: "/health", wantCode: http.StatusOK},
		{name: "dev header", path: "/api/files", header: DevUserHeader, value: "u2", wantCode: http.StatusOK, wantBody: "u2"},
		{name: "dev without header", path: "/api/files", wantCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var h http.Handler
			if tt.verifier != nil {
				h = AuthMiddleware(tt.verifier, logger)(echoUser())
			} else {
				h = AuthMiddleware(nil, logger)(echoUser())
			}

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	h := Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	h.ServeHTTP(rec, httputil.WithActor(req, "u1"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Contains(t, logs.String(), `"actor_id":"u1"`)
	assert.Contains(t, logs.String(), `"panic":"boom"`)
}

func TestRecovery_ReraisesAbort(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/files", nil))
	})
}

func TestAuthThenRecovery(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	h := AuthMiddleware(nil, logger)(Recovery(logger)(panicking))

	req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	req.Header.Set(DevUserHeader, "u7")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, logs.String(), `"actor_id":"u7"`)
}
