package gitlab

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/kathra-project/sourcemanager/config"
	"github.com/kathra-project/sourcemanager/internal/domain/entities"
	"github.com/kathra-project/sourcemanager/internal/domain/repositories"
)

const (
	providerName = "gitlab"
	perPage      = 100
)

// GitLabRepository implements repositories.ProviderRepository against a
// GitLab instance. It holds two clients: an admin client authenticated
// with the platform API token, and a lazily created user client
// authenticated with the acting user's impersonation token.
type GitLabRepository struct {
	baseURL  string
	admin    *gl.Client
	session  entities.Session
	delegate repositories.CredentialRepository

	userOnce sync.Once
	user     *gl.Client
	userErr  error
}

// NewGitLabRepository creates a provider repository for the acting-user
// session. The user client is only built on first use, so construction
// never touches the network.
func NewGitLabRepository(
	cfg *config.Config,
	session entities.Session,
	delegate repositories.CredentialRepository,
) (*GitLabRepository, error) {
	admin, err := gl.NewClient(cfg.GitLab.APIToken, gl.WithBaseURL(cfg.GitLab.URL))
	if err != nil {
		return nil, fmt.Errorf("failed to create gitlab admin client: %w", err)
	}
	return &GitLabRepository{
		baseURL:  cfg.GitLab.URL,
		admin:    admin,
		session:  session,
		delegate: delegate,
	}, nil
}

// userClient returns the client acting as the session user, creating it
// on first use via the credential delegate.
func (r *GitLabRepository) userClient(ctx context.Context) (*gl.Client, error) {
	r.userOnce.Do(func() {
		token, err := r.delegate.Token(ctx, r.session.CallerName())
		if err != nil {
			r.userErr = err
			return
		}
		r.user, r.userErr = gl.NewClient(token, gl.WithBaseURL(r.baseURL))
	})
	return r.user, r.userErr
}

// httpStatus extracts the remote response code from a client-go result.
func httpStatus(resp *gl.Response, err error) int {
	if resp != nil && resp.Response != nil {
		return resp.StatusCode
	}
	var er *gl.ErrorResponse
	if errors.As(err, &er) && er.Response != nil {
		return er.Response.StatusCode
	}
	return 0
}

// isNameTaken reports whether a creation failure means the name was
// already claimed, either cleanly (409) or as a validation error (400
// with a "has already been taken" message). The two are indistinguishable
// from the response code alone when a concurrent caller won the race.
func isNameTaken(resp *gl.Response, err error) bool {
	status := httpStatus(resp, err)
	if status == 409 {
		return true
	}
	return status == 400 && err != nil && strings.Contains(err.Error(), "has already been taken")
}

// mapAPIError converts a provider failure into the platform taxonomy.
func mapAPIError(resp *gl.Response, err error, path, msg string) error {
	switch httpStatus(resp, err) {
	case 404:
		return entities.NewError(entities.ErrNotFound, path, msg, err)
	case 403:
		return entities.NewError(entities.ErrForbidden, path, msg, err)
	case 409:
		return entities.NewError(entities.ErrConflict, path, msg, err)
	default:
		return entities.NewError(entities.ErrTransport, path, msg, err)
	}
}
