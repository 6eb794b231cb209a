package repositories

import (
	"context"

	"github.com/kathra-project/sourcemanager/internal/domain/entities"
)

// Credentials authenticate the version-control transport (clone, push)
// as the acting user.
type Credentials struct {
	Username string
	Token    string
}

// WorkspaceSession is a stateful, single-use scope over one ephemeral
// working directory. Sessions are never shared across requests; Close
// must be called regardless of outcome.
type WorkspaceSession interface {
	// Clone checks out the project under the working directory. When
	// branch matches an existing remote head only that branch is cloned;
	// when includeTags is set and branch matches a tag, the default
	// branch is cloned and the tag checked out; otherwise the default
	// branch is cloned and locally renamed to branch.
	Clone(ctx context.Context, project, branch string, creds Credentials, url string, includeTags bool) error

	// ReplaceContent deletes all checked-out content except the
	// version-control metadata directory.
	ReplaceContent() error
	// Unpack extracts a zip archive over the checked-out tree.
	Unpack(archivePath string) error
	// CopyFile copies a single file into targetPath (may be empty or
	// end with a slash for a directory target) inside the tree.
	CopyFile(srcPath, targetPath string) error
	// ReadFile reads a file from the checked-out tree.
	ReadFile(relPath string) ([]byte, error)

	// Commit stages all changes including deletions and commits them
	// with author and committer identity derived from username. Fails
	// with a NoChanges error when the tree has no uncommitted or
	// untracked changes.
	Commit(username, message string) (*entities.Commit, error)
	// Tag creates or force-moves a lightweight tag at HEAD.
	Tag(name string, force bool) error

	Push(ctx context.Context, creds Credentials) error
	PushTags(ctx context.Context, creds Credentials, force bool) error

	// Close removes the working directory (best effort, configurable).
	Close()
}

// WorkspaceRepository allocates disposable workspace sessions.
type WorkspaceRepository interface {
	NewSession() (WorkspaceSession, error)
}
