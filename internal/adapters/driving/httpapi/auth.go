package httpapi

import (
	"net/http"
	"strings"
	"sync"

	"github.com/custodia-labs/deskfind/internal/core/domain"
)

// Authenticator resolves the requesting principal. The rest of the API only
// ever sees the principal email; swapping in a real identity provider is a
// one-interface change.
type Authenticator interface {
	// Principal returns the authenticated principal's email, or
	// domain.ErrUnauthenticated.
	Principal(r *http.Request) (string, error)
}

// StaticTokenAuthenticator maps bearer tokens to principal emails. Suitable
// for single-box deployments and tests.
type StaticTokenAuthenticator struct {
	mu     sync.RWMutex
	tokens map[string]string
}

var _ Authenticator = (*StaticTokenAuthenticator)(nil)

// NewStaticTokenAuthenticator creates an authenticator over a token->email map.
func NewStaticTokenAuthenticator(tokens map[string]string) *StaticTokenAuthenticator {
	copied := make(map[string]string, len(tokens))
	for k, v := range tokens {
		copied[k] = v
	}
	return &StaticTokenAuthenticator{tokens: copied}
}

// Register adds or replaces a token binding.
func (a *StaticTokenAuthenticator) Register(token, email string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tokens[token] = email
}

// Principal resolves the Authorization bearer token.
func (a *StaticTokenAuthenticator) Principal(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", domain.ErrUnauthenticated
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	email, ok := a.tokens[token]
	if !ok {
		return "", domain.ErrUnauthenticated
	}
	return email, nil
}
