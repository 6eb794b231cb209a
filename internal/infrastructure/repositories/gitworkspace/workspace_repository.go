package gitworkspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"

	"github.com/kathra-project/sourcemanager/config"
	"github.com/kathra-project/sourcemanager/internal/domain/entities"
	"github.com/kathra-project/sourcemanager/internal/domain/repositories"
)

const workdirPrefix = "sourcemanager-workdir-"

// GitWorkspaceRepository allocates disposable working directories for
// clone/modify/commit/push workflows.
type GitWorkspaceRepository struct {
	root           string
	keepAfterGit   bool
	createAttempts int
	mailDomain     string
}

// NewGitWorkspaceRepository creates the workspace factory from the
// service configuration.
func NewGitWorkspaceRepository(cfg *config.Config) *GitWorkspaceRepository {
	return &GitWorkspaceRepository{
		root:           cfg.Workspace.Root,
		keepAfterGit:   cfg.Workspace.KeepAfterGit,
		createAttempts: cfg.Workspace.CreateAttempts,
		mailDomain:     cfg.MailDomain,
	}
}

// NewSession allocates a fresh working directory and wraps it in a
// single-use session.
func (r *GitWorkspaceRepository) NewSession() (repositories.WorkspaceSession, error) {
	workDir, err := r.createWorkingFolder()
	if err != nil {
		return nil, err
	}
	return &Session{
		workDir:    workDir,
		keep:       r.keepAfterGit,
		mailDomain: r.mailDomain,
	}, nil
}

// createWorkingFolder allocates a unique directory under the workspace
// root, retrying name generation on collision and force-clearing a stale
// collision before the last attempt reuses it.
func (r *GitWorkspaceRepository) createWorkingFolder() (string, error) {
	workDir := filepath.Join(r.root, workdirPrefix+uuid.NewString())
	for attempt := 1; attempt <= r.createAttempts; attempt++ {
		if _, err := os.Stat(workDir); os.IsNotExist(err) {
			break
		}
		if attempt == r.createAttempts {
			logger.Warnf("Working folder %q still collides after %d attempts, clearing it", workDir, attempt)
			if err := os.RemoveAll(workDir); err != nil {
				return "", entities.NewError(entities.ErrIO, "",
					fmt.Sprintf("failed to clear stale working folder %q", workDir), err)
			}
			break
		}
		workDir = filepath.Join(r.root, workdirPrefix+uuid.NewString())
	}

	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", entities.NewError(entities.ErrIO, "",
			fmt.Sprintf("failed to create working folder %q", workDir), err)
	}
	return workDir, nil
}
