//go:build integration || unit || test

// Package repositorydoubles provides test doubles (spies, stubs, dummies) for
// repository interfaces. These are hand-crafted implementations — no mock frameworks.
package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"fmt"

	"github.com/kathra-project/sourcemanager/internal/domain/entities"
	"github.com/kathra-project/sourcemanager/internal/domain/repositories"
)

// SpyProviderRepository implements repositories.ProviderRepository as a
// configurable spy. Configure the response fields for the methods your test
// exercises, then inspect the call-tracking fields to verify behavior.
type SpyProviderRepository struct {
	// --- folders ---
	Folder         *entities.Folder
	FolderErr      error
	Folders        []entities.Folder
	ListFoldersErr error
	// spy: paths passed to EnsureHierarchy
	EnsuredPaths []string

	// --- projects ---
	Repo             *entities.SourceRepository
	FindProjectErr   error
	CreatedRepo      *entities.SourceRepository
	CreateProjectErr error
	SiblingRepo      *entities.SourceRepository
	FindSiblingErr   error
	Repos            []entities.SourceRepository
	ListProjectsErr  error
	DeleteProjectErr error
	// spy: names passed to CreateProject, paths passed to DeleteProject
	CreatedNames []string
	DeletedPaths []string

	// --- branches ---
	// CreateBranchErrs is consumed one entry per call; a nil entry or an
	// exhausted slice means success. BranchHeadErrs works the same way.
	CreateBranchErrs []error
	BranchHeadErrs   []error
	Head             string
	Branches         []string
	ListBranchesErr  error
	Tags             []string
	ListTagsErr      error
	Commits          []entities.Commit
	ListCommitsErr   error
	// spy: call counters
	CreateBranchCalls int
	BranchHeadCalls   int

	// --- members ---
	Memberships    []entities.Membership
	ListMembersErr error
	// MemberErrs maps a member name to the error its mutation returns.
	MemberErrs map[string]error
	// spy: member names passed to Add/RemoveMember
	AddedMembers   []string
	RemovedMembers []string

	// --- deploy keys ---
	Keys         []entities.DeployKey
	ResolveErr   error
	EnableErr    error
	CreateKeyErr error
	// spy: titles resolved, keys enabled
	ResolvedTitles []string
	EnabledKeys    []entities.DeployKey
}

var _ repositories.ProviderRepository = (*SpyProviderRepository)(nil)

func (p *SpyProviderRepository) GetFolder(_ context.Context, path string) (*entities.Folder, error) {
	if p.FolderErr != nil {
		return nil, p.FolderErr
	}
	if p.Folder != nil {
		return p.Folder, nil
	}
	return &entities.Folder{Path: path, ProviderID: "1"}, nil
}

func (p *SpyProviderRepository) ListFolders(_ context.Context) ([]entities.Folder, error) {
	return p.Folders, p.ListFoldersErr
}

func (p *SpyProviderRepository) EnsureHierarchy(_ context.Context, path string) (*entities.Folder, error) {
	p.EnsuredPaths = append(p.EnsuredPaths, path)
	if p.FolderErr != nil {
		return nil, p.FolderErr
	}
	if p.Folder != nil {
		return p.Folder, nil
	}
	return &entities.Folder{Path: path, ProviderID: "1"}, nil
}

func (p *SpyProviderRepository) CreateProject(
	_ context.Context, parent *entities.Folder, name string,
) (*entities.SourceRepository, error) {
	p.CreatedNames = append(p.CreatedNames, name)
	if p.CreateProjectErr != nil {
		return nil, p.CreateProjectErr
	}
	if p.CreatedRepo != nil {
		return p.CreatedRepo, nil
	}
	path := parent.Path + "/" + name
	return &entities.SourceRepository{
		Name:    name,
		Path:    path,
		HTTPURL: fmt.Sprintf("https://gitlab.example.com/%s.git", path),
	}, nil
}

func (p *SpyProviderRepository) FindProject(_ context.Context, path string) (*entities.SourceRepository, error) {
	if p.FindProjectErr != nil {
		return nil, p.FindProjectErr
	}
	if p.Repo != nil {
		return p.Repo, nil
	}
	return &entities.SourceRepository{
		Name:    path,
		Path:    path,
		HTTPURL: fmt.Sprintf("https://gitlab.example.com/%s.git", path),
	}, nil
}

func (p *SpyProviderRepository) FindProjectInFolder(
	_ context.Context, _ *entities.Folder, _ string,
) (*entities.SourceRepository, error) {
	return p.SiblingRepo, p.FindSiblingErr
}

func (p *SpyProviderRepository) ListProjects(_ context.Context, _ string) ([]entities.SourceRepository, error) {
	return p.Repos, p.ListProjectsErr
}

func (p *SpyProviderRepository) DeleteProject(_ context.Context, path string) error {
	p.DeletedPaths = append(p.DeletedPaths, path)
	return p.DeleteProjectErr
}

func (p *SpyProviderRepository) CreateBranch(_ context.Context, _, branch, _ string) (string, error) {
	p.CreateBranchCalls++
	if err := consume(&p.CreateBranchErrs); err != nil {
		return "", err
	}
	return branch, nil
}

func (p *SpyProviderRepository) BranchHead(_ context.Context, _, _ string) (string, error) {
	p.BranchHeadCalls++
	if err := consume(&p.BranchHeadErrs); err != nil {
		return "", err
	}
	if p.Head != "" {
		return p.Head, nil
	}
	return "0000000000000000000000000000000000000000", nil
}

func (p *SpyProviderRepository) ListBranches(_ context.Context, _ string) ([]string, error) {
	return p.Branches, p.ListBranchesErr
}

func (p *SpyProviderRepository) ListTags(_ context.Context, _ string) ([]string, error) {
	return p.Tags, p.ListTagsErr
}

func (p *SpyProviderRepository) ListCommits(_ context.Context, _, _ string) ([]entities.Commit, error) {
	return p.Commits, p.ListCommitsErr
}

func (p *SpyProviderRepository) AddMember(_ context.Context, membership entities.Membership) error {
	p.AddedMembers = append(p.AddedMembers, membership.MemberName)
	return p.MemberErrs[membership.MemberName]
}

func (p *SpyProviderRepository) RemoveMember(_ context.Context, membership entities.Membership) error {
	p.RemovedMembers = append(p.RemovedMembers, membership.MemberName)
	return p.MemberErrs[membership.MemberName]
}

func (p *SpyProviderRepository) ListMembers(_ context.Context, _ string) ([]entities.Membership, error) {
	return p.Memberships, p.ListMembersErr
}

func (p *SpyProviderRepository) ResolveDeployKeys(_ context.Context, titles []string) ([]entities.DeployKey, error) {
	p.ResolvedTitles = append(p.ResolvedTitles, titles...)
	return p.Keys, p.ResolveErr
}

func (p *SpyProviderRepository) EnableDeployKey(
	_ context.Context, _ *entities.SourceRepository, key entities.DeployKey,
) error {
	p.EnabledKeys = append(p.EnabledKeys, key)
	return p.EnableErr
}

func (p *SpyProviderRepository) CreateDeployKey(_ context.Context, _, _, _ string) error {
	return p.CreateKeyErr
}

// consume pops the first entry of a sequenced error slice.
func consume(errs *[]error) error {
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	*errs = (*errs)[1:]
	return err
}
