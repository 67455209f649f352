package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

type credentialCtxKey struct{}

type remoteAddrCtxKey struct{}

// FromContext retrieves the bearer credential from context.
func FromContext(ctx context.Context) string {
	if credential, ok := ctx.Value(credentialCtxKey{}).(string); ok {
		return credential
	}
	return ""
}

// FromRemoteAddr retrieves the remote address from context.
func FromRemoteAddr(ctx context.Context) string {
	if addr, ok := ctx.Value(remoteAddrCtxKey{}).(string); ok {
		return addr
	}
	return ""
}

// Middleware extracts the staff credential from the Authorization header.
// It does not validate the credential; handlers pass it to the moderation processor.
type Middleware struct {
	logger *zap.Logger
}

// New creates a new auth middleware.
func New(logger *zap.Logger) *Middleware {
	return &Middleware{
		logger: logger.Named("auth_middleware"),
	}
}

// AsRESTMiddleware returns a bunrouter middleware handler for credential extraction.
func (m *Middleware) AsRESTMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		ctx := context.WithValue(req.Context(), remoteAddrCtxKey{}, req.RemoteAddr)

		if credential, ok := bearerToken(req.Header.Get("Authorization")); ok {
			ctx = context.WithValue(ctx, credentialCtxKey{}, credential)
		} else {
			m.logger.Debug("Request without bearer credential",
				zap.String("addr", req.RemoteAddr),
				zap.String("path", req.URL.Path))
		}

		return next(w, req.WithContext(ctx))
	}
}

// bearerToken parses "Bearer <token>".
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}
