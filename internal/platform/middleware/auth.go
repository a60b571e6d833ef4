package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"donationpool/pkg/domain"
	dErrors "donationpool/pkg/domain-errors"
	"donationpool/pkg/platform/httputil"
	"donationpool/pkg/requestcontext"
)

// JWTValidator defines the interface for validating caller tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*CallerClaims, error)
}

// CallerClaims is what the middleware needs from a validated token.
type CallerClaims struct {
	Caller domain.Address
	JTI    string
}

// RequireCaller rejects requests without a valid bearer token and stores the
// token's caller on the request context.
func RequireCaller(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Missing or invalid Authorization header"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Invalid or expired token"))
				return
			}

			ctx = requestcontext.WithCaller(ctx, claims.Caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
