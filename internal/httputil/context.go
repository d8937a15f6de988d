package httputil

import (
	"context"
	"net/http"
)

type actorKey struct{}

// WithActor stamps the authenticated actor on the request. Batches emitted
// and reads made by the request are scoped to this id.
func WithActor(r *http.Request, actorID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), actorKey{}, actorID))
}

// Actor returns the actor stamped by the auth middleware, or "" if none
func Actor(ctx context.Context) string {
	actorID, _ := ctx.Value(actorKey{}).(string)
	return actorID
}
