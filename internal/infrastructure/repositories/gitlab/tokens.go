package gitlab

import (
	"context"
	"fmt"
	"sync"

	logger "github.com/sirupsen/logrus"
	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/kathra-project/sourcemanager/config"
	"github.com/kathra-project/sourcemanager/internal/domain/entities"
)

// reservedTokenName identifies the impersonation tokens owned by this
// service. Tokens with any other name are never touched.
const reservedTokenName = "KathraGitlabSourceManager"

var tokenScopes = []string{"api", "read_user"}

// TokenDelegate obtains impersonation tokens for platform users through
// the admin client, creating one lazily when none exists. Token values
// are cached per username for the delegate's lifetime.
type TokenDelegate struct {
	admin *gl.Client

	mu    sync.Mutex
	cache map[string]string
}

// NewTokenDelegate builds a delegate with its own admin client.
func NewTokenDelegate(cfg *config.Config) (*TokenDelegate, error) {
	admin, err := gl.NewClient(cfg.GitLab.APIToken, gl.WithBaseURL(cfg.GitLab.URL))
	if err != nil {
		return nil, fmt.Errorf("failed to create gitlab admin client: %w", err)
	}
	return &TokenDelegate{admin: admin, cache: map[string]string{}}, nil
}

// Token returns the impersonation token for username. An existing
// non-revoked token carrying the reserved name is reused when its value
// is retrievable; otherwise it is rotated, since GitLab only reveals a
// token's value at creation time. May create a long-lived provider token
// as a side effect, keeping token provisioning lazy and idempotent.
func (d *TokenDelegate) Token(ctx context.Context, username string) (string, error) {
	d.mu.Lock()
	if cached, ok := d.cache[username]; ok {
		d.mu.Unlock()
		return cached, nil
	}
	d.mu.Unlock()

	user, err := d.lookupUser(ctx, username)
	if err != nil {
		return "", err
	}

	token, err := d.obtainToken(ctx, user)
	if err != nil {
		return "", err
	}

	d.mu.Lock()
	d.cache[username] = token
	d.mu.Unlock()
	return token, nil
}

func (d *TokenDelegate) lookupUser(ctx context.Context, username string) (*gl.User, error) {
	users, resp, err := d.admin.Users.ListUsers(
		&gl.ListUsersOptions{Username: gl.Ptr(username)},
		gl.WithContext(ctx),
	)
	if err != nil {
		return nil, mapAPIError(resp, err, "", fmt.Sprintf("failed to look up provider account for %q", username))
	}
	for _, user := range users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, entities.NewError(entities.ErrNotFound, "",
		fmt.Sprintf("no provider account found for username %q", username), nil)
}

func (d *TokenDelegate) obtainToken(ctx context.Context, user *gl.User) (string, error) {
	tokens, resp, err := d.admin.Users.GetAllImpersonationTokens(
		user.ID,
		&gl.GetAllImpersonationTokensOptions{State: gl.Ptr("active")},
		gl.WithContext(ctx),
	)
	if err != nil {
		return "", mapAPIError(resp, err, "",
			fmt.Sprintf("failed to list impersonation tokens for %q", user.Username))
	}

	for _, token := range tokens {
		if token.Name != reservedTokenName || token.Revoked {
			continue
		}
		if token.Token != "" {
			return token.Token, nil
		}
		// The value of a pre-existing token is not retrievable; rotate it.
		logger.Infof("Rotating impersonation token %d for user %q", token.ID, user.Username)
		if _, revokeErr := d.admin.Users.RevokeImpersonationToken(
			user.ID, token.ID, gl.WithContext(ctx),
		); revokeErr != nil {
			logger.Warnf("Failed to revoke stale impersonation token %d for %q: %v",
				token.ID, user.Username, revokeErr)
		}
		break
	}

	created, resp, err := d.admin.Users.CreateImpersonationToken(
		user.ID,
		&gl.CreateImpersonationTokenOptions{
			Name:   gl.Ptr(reservedTokenName),
			Scopes: &tokenScopes,
		},
		gl.WithContext(ctx),
	)
	if err != nil {
		return "", mapAPIError(resp, err, "",
			fmt.Sprintf("failed to create impersonation token for %q", user.Username))
	}
	if created.Token == "" {
		return "", entities.NewError(entities.ErrTransport, "",
			fmt.Sprintf("provider returned an empty impersonation token for %q", user.Username), nil)
	}
	return created.Token, nil
}
