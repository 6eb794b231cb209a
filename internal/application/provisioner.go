package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/kathra-project/sourcemanager/internal/domain/entities"
)

const (
	defaultBranch   = "master"
	secondaryBranch = "dev"

	branchEnsureAttempts = 5
)

//nolint:gochecknoglobals // overridable backoff base, see export_test.go
var branchEnsureBaseWait = 250 * time.Millisecond

// CreateSourceRepository provisions the repository at path: resolves the
// requested deploy keys up front, ensures the parent folder hierarchy,
// creates the project (reusing a same-named sibling when the provider
// reports the name as taken), enables the deploy keys and finally
// guarantees the secondary branch exists.
func (s *SourceManagerService) CreateSourceRepository(
	ctx context.Context,
	path string,
	deployKeyTitles []string,
) (*entities.SourceRepository, error) {
	if err := s.guardPath(path); err != nil {
		return nil, err
	}

	slash := strings.LastIndex(path, "/")
	if slash <= 0 || slash == len(path)-1 {
		return nil, entities.NewError(entities.ErrProvisioning, path,
			"a source repository path must contain a parent folder and a name", nil)
	}
	parentPath, name := path[:slash], path[slash+1:]

	// Resolving keys before creating anything keeps a typo from
	// leaving a half-provisioned repository behind.
	keys, err := s.provider.ResolveDeployKeys(ctx, deployKeyTitles)
	if err != nil {
		return nil, err
	}

	parent, err := s.provider.EnsureHierarchy(ctx, parentPath)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, entities.NewError(entities.ErrProvisioning, path,
			fmt.Sprintf("unable to resolve the parent folder %q", parentPath), nil)
	}

	repo, err := s.provider.CreateProject(ctx, parent, name)
	switch {
	case err == nil:
	case entities.IsKind(err, entities.ErrConflict):
		logger.Infof("Source repository %q already exists, reusing it", path)
		repo, err = s.provider.FindProjectInFolder(ctx, parent, name)
		if err != nil {
			return nil, err
		}
	default:
		return nil, entities.NewError(entities.ErrProvisioning, path,
			"unable to create the source repository", err)
	}

	for _, key := range keys {
		if err := s.provider.EnableDeployKey(ctx, repo, key); err != nil {
			return nil, err
		}
	}

	if err := s.ensureSecondaryBranch(ctx, repo.Path); err != nil {
		return nil, err
	}
	return repo, nil
}

// ensureSecondaryBranch converges on the secondary branch existing,
// tolerating the provider racing with itself: each failed creation is
// followed by a fresh existence check before backing off and retrying.
func (s *SourceManagerService) ensureSecondaryBranch(ctx context.Context, path string) error {
	var lastErr error
	for attempt := 0; attempt < branchEnsureAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(branchEnsureWait(attempt)):
			}
		}

		_, lastErr = s.provider.CreateBranch(ctx, path, secondaryBranch, defaultBranch)
		if lastErr == nil {
			return nil
		}
		if _, err := s.provider.BranchHead(ctx, path, secondaryBranch); err == nil {
			logger.Infof("Branch %q already exists on %q", secondaryBranch, path)
			return nil
		}
		logger.Warnf("Branch %q creation on %q failed (%d/%d): %v",
			secondaryBranch, path, attempt+1, branchEnsureAttempts, lastErr)
	}
	return entities.NewError(entities.ErrProvisioning, path,
		fmt.Sprintf("unable to create the %q branch after retries", secondaryBranch), lastErr)
}

// branchEnsureWait returns the backoff before retry attempt (1-based):
// the base wait before the first retry, doubling each retry after.
func branchEnsureWait(attempt int) time.Duration {
	return branchEnsureBaseWait * (1 << (attempt - 1))
}
