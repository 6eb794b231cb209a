//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"sync"

	"github.com/kathra-project/sourcemanager/internal/domain/repositories"
)

// StubCredentialRepository implements repositories.CredentialRepository
// with canned tokens. It is safe for concurrent use so the token
// refresher can be tested against it.
type StubCredentialRepository struct {
	Tokens map[string]string
	Err    error

	mu sync.Mutex
	// spy: usernames requested, in call order
	Requested []string
}

var _ repositories.CredentialRepository = (*StubCredentialRepository)(nil)

func (c *StubCredentialRepository) Token(_ context.Context, username string) (string, error) {
	c.mu.Lock()
	c.Requested = append(c.Requested, username)
	c.mu.Unlock()
	if c.Err != nil {
		return "", c.Err
	}
	if token, ok := c.Tokens[username]; ok {
		return token, nil
	}
	return "stub-token", nil
}

// RequestedUsers returns a snapshot of the usernames requested so far.
func (c *StubCredentialRepository) RequestedUsers() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.Requested...)
}
