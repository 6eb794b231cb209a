package gitlab

import (
	"context"
	"fmt"
	"strconv"

	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/kathra-project/sourcemanager/internal/domain/entities"
)

// ResolveDeployKeys maps deploy-key titles to their remote numeric ids.
// Every title must resolve; the first missing one fails the whole batch
// with a NotFound error naming it, so a typo never leaves an orphaned
// repository behind.
func (r *GitLabRepository) ResolveDeployKeys(ctx context.Context, titles []string) ([]entities.DeployKey, error) {
	byTitle := map[string]int64{}
	opts := &gl.ListInstanceDeployKeysOptions{
		ListOptions: gl.ListOptions{PerPage: perPage},
	}
	for {
		keys, resp, err := r.admin.DeployKeys.ListAllDeployKeys(opts, gl.WithContext(ctx))
		if err != nil {
			return nil, mapAPIError(resp, err, "", "failed to list deploy keys")
		}
		for _, key := range keys {
			byTitle[key.Title] = key.ID
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	resolved := make([]entities.DeployKey, 0, len(titles))
	for _, title := range titles {
		id, ok := byTitle[title]
		if !ok {
			return nil, entities.NewError(entities.ErrNotFound, "",
				fmt.Sprintf("unable to find deploy key %q", title), nil)
		}
		resolved = append(resolved, entities.DeployKey{Title: title, ID: id})
	}
	return resolved, nil
}

// EnableDeployKey enables an already resolved deploy key on a repository.
func (r *GitLabRepository) EnableDeployKey(
	ctx context.Context,
	repo *entities.SourceRepository,
	key entities.DeployKey,
) error {
	id, err := strconv.ParseInt(repo.ProviderID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid project provider id %q: %w", repo.ProviderID, err)
	}
	_, resp, err := r.admin.DeployKeys.EnableDeployKey(id, key.ID, gl.WithContext(ctx))
	if err != nil {
		return mapAPIError(resp, err, repo.Path,
			fmt.Sprintf("failed to enable deploy key %q", key.Title))
	}
	return nil
}

// CreateDeployKey registers a new deploy key on the repository at path.
func (r *GitLabRepository) CreateDeployKey(ctx context.Context, path, title, publicKey string) error {
	repo, err := r.FindProject(ctx, path)
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(repo.ProviderID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid project provider id %q: %w", repo.ProviderID, err)
	}
	_, resp, err := r.admin.DeployKeys.AddDeployKey(
		id,
		&gl.AddDeployKeyOptions{
			Title: gl.Ptr(title),
			Key:   gl.Ptr(publicKey),
		},
		gl.WithContext(ctx),
	)
	if err != nil {
		return mapAPIError(resp, err, path, fmt.Sprintf("failed to create deploy key %q", title))
	}
	return nil
}
