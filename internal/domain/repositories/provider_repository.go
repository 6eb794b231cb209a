package repositories

import (
	"context"

	"github.com/kathra-project/sourcemanager/internal/domain/entities"
)

// ProviderRepository is the remote hosting provider surface consumed by
// the application layer. Every call is a synchronous, blocking network
// call; implementations must tolerate being executed concurrently by
// another instance of this same service (race-safe by re-verification,
// not by locking).
type ProviderRepository interface {
	// Folder hierarchy
	GetFolder(ctx context.Context, path string) (*entities.Folder, error)
	ListFolders(ctx context.Context) ([]entities.Folder, error)
	// EnsureHierarchy resolves the deepest existing ancestor of path and
	// creates every missing segment beneath it, parent before child. A
	// provider conflict during segment creation is treated as
	// success-via-race and resolved by re-fetching the group.
	EnsureHierarchy(ctx context.Context, path string) (*entities.Folder, error)

	// Projects
	CreateProject(ctx context.Context, parent *entities.Folder, name string) (*entities.SourceRepository, error)
	FindProject(ctx context.Context, path string) (*entities.SourceRepository, error)
	FindProjectInFolder(ctx context.Context, parent *entities.Folder, name string) (*entities.SourceRepository, error)
	ListProjects(ctx context.Context, folderPath string) ([]entities.SourceRepository, error)
	DeleteProject(ctx context.Context, path string) error

	// Branches, tags and history
	CreateBranch(ctx context.Context, path, branch, ref string) (string, error)
	// BranchHead returns the head commit id of branch, or a NotFound
	// error when the branch does not resolve.
	BranchHead(ctx context.Context, path, branch string) (string, error)
	ListBranches(ctx context.Context, path string) ([]string, error)
	ListTags(ctx context.Context, path string) ([]string, error)
	ListCommits(ctx context.Context, path, branch string) ([]entities.Commit, error)

	// Memberships
	AddMember(ctx context.Context, membership entities.Membership) error
	RemoveMember(ctx context.Context, membership entities.Membership) error
	ListMembers(ctx context.Context, path string) ([]entities.Membership, error)

	// Deploy keys
	ResolveDeployKeys(ctx context.Context, titles []string) ([]entities.DeployKey, error)
	EnableDeployKey(ctx context.Context, repo *entities.SourceRepository, key entities.DeployKey) error
	CreateDeployKey(ctx context.Context, path, title, publicKey string) error
}
