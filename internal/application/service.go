package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/kathra-project/sourcemanager/internal/domain/entities"
	"github.com/kathra-project/sourcemanager/internal/domain/repositories"
)

const defaultCommitMessage = "Update autogenerated components"

// SourceManagerService exposes the repository provisioning and
// synchronization operations consumed by the API layer. One instance
// serves one acting-user session.
type SourceManagerService struct {
	provider   repositories.ProviderRepository
	delegate   repositories.CredentialRepository
	workspaces repositories.WorkspaceRepository
	session    entities.Session
	rootGroup  string
}

// NewSourceManagerService creates a service bound to one session.
func NewSourceManagerService(
	provider repositories.ProviderRepository,
	delegate repositories.CredentialRepository,
	workspaces repositories.WorkspaceRepository,
	session entities.Session,
	rootGroup string,
) *SourceManagerService {
	return &SourceManagerService{
		provider:   provider,
		delegate:   delegate,
		workspaces: workspaces,
		session:    session,
		rootGroup:  rootGroup,
	}
}

// guardPath rejects any repository path outside the managed namespace,
// regardless of remote state.
func (s *SourceManagerService) guardPath(path string) error {
	if path == s.rootGroup || strings.HasPrefix(path, s.rootGroup+"/") {
		return nil
	}
	return entities.NewError(entities.ErrUnauthorized, path,
		fmt.Sprintf("unauthorized to operate outside the %q namespace", s.rootGroup), nil)
}

// credentials builds the transport credentials of the acting user.
func (s *SourceManagerService) credentials(ctx context.Context) (repositories.Credentials, error) {
	username := s.session.CallerName()
	token, err := s.delegate.Token(ctx, username)
	if err != nil {
		return repositories.Credentials{}, err
	}
	return repositories.Credentials{Username: username, Token: token}, nil
}

// CreateFolder idempotently creates the folder hierarchy at path.
func (s *SourceManagerService) CreateFolder(ctx context.Context, path string) (*entities.Folder, error) {
	return s.provider.EnsureHierarchy(ctx, path)
}

// GetFolder resolves an existing folder.
func (s *SourceManagerService) GetFolder(ctx context.Context, path string) (*entities.Folder, error) {
	return s.provider.GetFolder(ctx, path)
}

// ListFolders returns the folders accessible to the acting user.
func (s *SourceManagerService) ListFolders(ctx context.Context) ([]entities.Folder, error) {
	return s.provider.ListFolders(ctx)
}

// ListSourceRepositories returns the repositories inside a folder.
func (s *SourceManagerService) ListSourceRepositories(ctx context.Context, folderPath string) ([]entities.SourceRepository, error) {
	return s.provider.ListProjects(ctx, folderPath)
}

// DeleteSourceRepository removes the repository at path.
func (s *SourceManagerService) DeleteSourceRepository(ctx context.Context, path string) error {
	if err := s.guardPath(path); err != nil {
		return err
	}
	return s.provider.DeleteProject(ctx, path)
}

// CreateBranch creates a branch from ref (defaulting to the primary
// branch) in the repository at path.
func (s *SourceManagerService) CreateBranch(ctx context.Context, path, branch, ref string) (string, error) {
	if err := s.guardPath(path); err != nil {
		return "", err
	}
	if ref == "" {
		ref = defaultBranch
	}
	return s.provider.CreateBranch(ctx, path, branch, ref)
}

// ListBranches returns the branch names of the repository at path,
// followed by its tags.
func (s *SourceManagerService) ListBranches(ctx context.Context, path string) ([]string, error) {
	if err := s.guardPath(path); err != nil {
		return nil, err
	}
	branches, err := s.provider.ListBranches(ctx, path)
	if err != nil {
		return nil, err
	}
	tags, err := s.provider.ListTags(ctx, path)
	if err != nil {
		return nil, err
	}
	return append(branches, tags...), nil
}

// ListCommits returns the history of branch in the repository at path.
func (s *SourceManagerService) ListCommits(ctx context.Context, path, branch string) ([]entities.Commit, error) {
	if err := s.guardPath(path); err != nil {
		return nil, err
	}
	return s.provider.ListCommits(ctx, path, branch)
}

// CommitOptions describe a CreateCommit payload.
type CommitOptions struct {
	PayloadPath    string // Local file (or zip archive) to commit
	TargetPath     string // Location inside the tree for a plain file
	Unpack         bool   // Treat the payload as an archive
	Tag            string // Optional tag to set and force-push
	ReplaceContent bool   // Wipe tracked content before applying the payload
	Message        string // Commit message, defaulted when empty
}

// CreateCommit clones the repository, applies the payload, commits as
// the acting user and pushes, optionally force-moving a tag. A working
// tree with no changes fails with a NoChanges error and performs no push.
func (s *SourceManagerService) CreateCommit(
	ctx context.Context,
	path, branch string,
	opts CommitOptions,
) (*entities.Commit, error) {
	if err := s.guardPath(path); err != nil {
		return nil, err
	}
	repo, err := s.provider.FindProject(ctx, path)
	if err != nil {
		return nil, err
	}
	creds, err := s.credentials(ctx)
	if err != nil {
		return nil, err
	}

	workspace, err := s.workspaces.NewSession()
	if err != nil {
		return nil, err
	}
	defer workspace.Close()

	if err := workspace.Clone(ctx, repo.Name, branch, creds, repo.HTTPURL, false); err != nil {
		return nil, err
	}
	if opts.ReplaceContent {
		if err := workspace.ReplaceContent(); err != nil {
			return nil, err
		}
	}
	if opts.Unpack {
		if err := workspace.Unpack(opts.PayloadPath); err != nil {
			return nil, err
		}
	} else {
		if err := workspace.CopyFile(opts.PayloadPath, opts.TargetPath); err != nil {
			return nil, err
		}
	}

	message := opts.Message
	if message == "" {
		message = defaultCommitMessage
	}
	commit, err := workspace.Commit(s.session.CallerName(), message)
	if err != nil {
		return nil, err
	}
	if err := workspace.Push(ctx, creds); err != nil {
		return nil, err
	}
	if opts.Tag != "" {
		// An existing tag is updated and forced.
		if err := workspace.Tag(opts.Tag, true); err != nil {
			return nil, err
		}
		if err := workspace.PushTags(ctx, creds, true); err != nil {
			return nil, err
		}
	}
	return commit, nil
}

// GetFile returns the content of a single file at the given branch.
func (s *SourceManagerService) GetFile(ctx context.Context, path, branch, filePath string) ([]byte, error) {
	if path == "" || branch == "" || filePath == "" {
		return nil, errors.New("path, branch and filePath must be specified")
	}
	if err := s.guardPath(path); err != nil {
		return nil, err
	}
	repo, err := s.provider.FindProject(ctx, path)
	if err != nil {
		return nil, err
	}
	creds, err := s.credentials(ctx)
	if err != nil {
		return nil, err
	}

	workspace, err := s.workspaces.NewSession()
	if err != nil {
		return nil, err
	}
	defer workspace.Close()

	if err := workspace.Clone(ctx, repo.Name, branch, creds, repo.HTTPURL, true); err != nil {
		return nil, err
	}
	return workspace.ReadFile(filePath)
}

// AddMemberships grants access for every entry according to the batch
// policy: FailFast stops silently at the first not-found or conflict
// entry (the historical behavior), Continue processes all entries and
// returns the collected failures.
func (s *SourceManagerService) AddMemberships(
	ctx context.Context,
	memberships []entities.Membership,
	policy entities.BatchPolicy,
) error {
	return s.eachMembership(ctx, memberships, policy, s.provider.AddMember)
}

// DeleteMemberships revokes access for every entry under the same batch
// policy as AddMemberships.
func (s *SourceManagerService) DeleteMemberships(
	ctx context.Context,
	memberships []entities.Membership,
	policy entities.BatchPolicy,
) error {
	return s.eachMembership(ctx, memberships, policy, s.provider.RemoveMember)
}

func (s *SourceManagerService) eachMembership(
	ctx context.Context,
	memberships []entities.Membership,
	policy entities.BatchPolicy,
	apply func(context.Context, entities.Membership) error,
) error {
	if policy == "" {
		policy = entities.BatchFailFast
	}

	var failures []error
	for _, membership := range memberships {
		err := apply(ctx, membership)
		if err == nil {
			continue
		}
		if policy == entities.BatchFailFast {
			if entities.IsKind(err, entities.ErrNotFound) || entities.IsKind(err, entities.ErrConflict) {
				logger.Warnf("Stopping membership batch at %q: %v", membership.MemberName, err)
				return nil
			}
			return err
		}
		failures = append(failures, fmt.Errorf("member %q: %w", membership.MemberName, err))
	}
	return errors.Join(failures...)
}

// GetMemberships lists the human access grants at path.
func (s *SourceManagerService) GetMemberships(ctx context.Context, path string) ([]entities.Membership, error) {
	return s.provider.ListMembers(ctx, path)
}

// CreateDeployKey registers a new deploy key on the repository at path.
func (s *SourceManagerService) CreateDeployKey(ctx context.Context, path, title, publicKey string) error {
	if err := s.guardPath(path); err != nil {
		return err
	}
	return s.provider.CreateDeployKey(ctx, path, title, publicKey)
}
