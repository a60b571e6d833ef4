package testutil

import (
	"net/http"

	"donationpool/pkg/domain"
	"donationpool/pkg/requestcontext"
)

// WithCaller puts caller on the request context, as the auth middleware
// would for an authenticated request.
func WithCaller(req *http.Request, caller domain.Address) *http.Request {
	return req.WithContext(requestcontext.WithCaller(req.Context(), caller))
}

func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
