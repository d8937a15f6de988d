package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"quix/internal/domain"
)

// RespondJSON writes a JSON response with the given status code.
// The body is marshaled before headers are sent, so an encoding failure
// still produces a clean 500.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		RespondError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}

// ProblemDetail represents an RFC 7807 Problem Details response. Extra
// members are flattened next to the standard ones.
type ProblemDetail struct {
	Type   string                 `json:"type"`
	Title  string                 `json:"title"`
	Status int                    `json:"status"`
	Detail string                 `json:"detail,omitempty"`
	Extra  map[string]interface{} `json:"-"`
}

func (p ProblemDetail) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, len(p.Extra)+4)
	for k, v := range p.Extra {
		m[k] = v
	}
	m["type"] = p.Type
	m["title"] = p.Title
	m["status"] = p.Status
	if p.Detail != "" {
		m["detail"] = p.Detail
	}
	return json.Marshal(m)
}

// RespondError writes a problem document with a status and a detail only
func RespondError(w http.ResponseWriter, status int, detail string) {
	writeProblem(w, newProblem(status, detail))
}

// RespondProblem maps err onto a problem document. A rejected batch names
// the offending action (action_id, action_type, action_index); a missing or
// duplicate record names its aggregate. Unclassified errors become an
// opaque 500.
func RespondProblem(w http.ResponseWriter, err error) {
	status := StatusOf(err)
	detail := err.Error()
	if status == http.StatusInternalServerError {
		detail = "internal server error"
	}

	p := newProblem(status, detail)
	p.Extra = problemExtras(err)
	writeProblem(w, p)
}

// StatusOf resolves the HTTP status of an error returned by the event bus,
// the read services or ParseJSON
func StatusOf(err error) int {
	var httpErr domain.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode()
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func problemExtras(err error) map[string]interface{} {
	extras := map[string]interface{}{}

	var actionErr *domain.ActionError
	if errors.As(err, &actionErr) {
		extras["action_id"] = actionErr.ActionID
		extras["action_type"] = actionErr.ActionType
		extras["action_index"] = actionErr.Index
	}

	var missing *domain.AggregateNotFoundError
	var duplicate *domain.DuplicateIDError
	var orphan *domain.ParentNotFoundError
	switch {
	case errors.As(err, &missing):
		extras["aggregate_kind"] = missing.Kind
		extras["aggregate_id"] = missing.ID
	case errors.As(err, &duplicate):
		extras["aggregate_kind"] = duplicate.Kind
		extras["aggregate_id"] = duplicate.ID
	case errors.As(err, &orphan):
		extras["aggregate_kind"] = "file"
		extras["aggregate_id"] = orphan.ID
		extras["parent_id"] = orphan.ParentID
	}

	if len(extras) == 0 {
		return nil
	}
	return extras
}

func newProblem(status int, detail string) ProblemDetail {
	return ProblemDetail{
		Type:   errorTypeFromStatus(status),
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	}
}

func writeProblem(w http.ResponseWriter, p ProblemDetail) {
	payload, err := json.Marshal(p)
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	w.Write(payload)
}

// errorTypeFromStatus returns the RFC 7807 type URI for a status code
func errorTypeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "https://datatracker.ietf.org/doc/html/rfc7231#section-6.5.1"
	case http.StatusUnauthorized:
		return "https://datatracker.ietf.org/doc/html/rfc7235#section-3.1"
	case http.StatusForbidden:
		return "https://datatracker.ietf.org/doc/html/rfc7231#section-6.5.3"
	case http.StatusNotFound:
		return "https://datatracker.ietf.org/doc/html/rfc7231#section-6.5.4"
	case http.StatusConflict:
		return "https://datatracker.ietf.org/doc/html/rfc7231#section-6.5.8"
	case http.StatusRequestEntityTooLarge:
		return "https://datatracker.ietf.org/doc/html/rfc7231#section-6.5.11"
	case http.StatusUnprocessableEntity:
		return "https://datatracker.ietf.org/doc/html/rfc4918#section-11.2"
	case http.StatusInternalServerError:
		return "https://datatracker.ietf.org/doc/html/rfc7231#section-6.6.1"
	default:
		return "about:blank"
	}
}
