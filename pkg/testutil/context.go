// Package testutil provides helpers shared by handler and integration tests.
package testutil

import (
	"net/http"
	"time"

	"expedientes/pkg/domain"
	"expedientes/pkg/requestcontext"
)

// WithActor injects an authenticated actor into the request context,
// simulating what the auth middleware does for a valid bearer token.
func WithActor(req *http.Request, actor domain.Actor) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), actor))
}

// WithTime pins the request clock so handlers under test produce
// deterministic timestamps.
func WithTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}
