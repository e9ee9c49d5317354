package identity

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// AuthService looks up the authenticated user for a request. It is an
// opaque collaborator; any error means "not signed in".
type AuthService interface {
	CurrentUser(ctx context.Context) (string, error)
}

// Resolver produces an identity for the acting user, in priority order:
// authenticated-session lookup, previously cached identifier, freshly
// generated temporary identifier. A generated identifier is cached so the
// same anonymous user keeps one identity for the life of the process.
type Resolver struct {
	auth   AuthService // nil when running without an auth backend
	logger *slog.Logger

	mu     sync.Mutex
	cached string
}

func NewResolver(auth AuthService, logger *slog.Logger) *Resolver {
	return &Resolver{
		auth:   auth,
		logger: logger,
	}
}

// Resolve never fails: an unreachable auth backend degrades to the cached
// or generated identity.
func (r *Resolver) Resolve(ctx context.Context) string {
	if r.auth != nil {
		userID, err := r.auth.CurrentUser(ctx)
		if err == nil && userID != "" {
			return userID
		}
		if err != nil && r.logger != nil {
			r.logger.Debug("auth lookup failed, falling back", "error", err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cached == "" {
		r.cached = "guest-" + uuid.NewString()
	}
	return r.cached
}
