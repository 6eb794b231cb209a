package gitlab

import (
	"context"
	"fmt"
	"strconv"

	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/kathra-project/sourcemanager/internal/domain/entities"
)

// CreateProject creates a repository under the given parent folder. The
// caller already resolved (or created) the parent; a name conflict here
// is surfaced as a Conflict error for the provisioner to recover from.
func (r *GitLabRepository) CreateProject(
	ctx context.Context,
	parent *entities.Folder,
	name string,
) (*entities.SourceRepository, error) {
	client, err := r.userClient(ctx)
	if err != nil {
		return nil, err
	}
	namespaceID, err := strconv.ParseInt(parent.ProviderID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid folder provider id %q: %w", parent.ProviderID, err)
	}

	project, resp, err := client.Projects.CreateProject(
		&gl.CreateProjectOptions{
			Name:        gl.Ptr(name),
			Path:        gl.Ptr(name),
			NamespaceID: gl.Ptr(namespaceID),
		},
		gl.WithContext(ctx),
	)
	if err != nil {
		path := parent.Path + "/" + name
		if isNameTaken(resp, err) {
			return nil, entities.NewError(entities.ErrConflict, path,
				"a source repository with the same name already exists at the requested path", err)
		}
		return nil, mapAPIError(resp, err, path, "failed to create source repository")
	}
	return repositoryFromProject(project), nil
}

// FindProject resolves a repository path to its remote project.
func (r *GitLabRepository) FindProject(ctx context.Context, path string) (*entities.SourceRepository, error) {
	project, resp, err := r.admin.Projects.GetProject(path, &gl.GetProjectOptions{}, gl.WithContext(ctx))
	if err != nil {
		return nil, mapAPIError(resp, err, path, "failed to get source repository")
	}
	return repositoryFromProject(project), nil
}

// FindProjectInFolder looks up a sibling project by name under parent,
// used to recover from a creation race.
func (r *GitLabRepository) FindProjectInFolder(
	ctx context.Context,
	parent *entities.Folder,
	name string,
) (*entities.SourceRepository, error) {
	repos, err := r.ListProjects(ctx, parent.Path)
	if err != nil {
		return nil, err
	}
	for i := range repos {
		if repos[i].Name == name {
			return &repos[i], nil
		}
	}
	return nil, entities.NewError(entities.ErrNotFound, parent.Path+"/"+name,
		fmt.Sprintf("no source repository named %q under folder %q", name, parent.Path), nil)
}

// ListProjects returns the repositories directly inside a folder.
func (r *GitLabRepository) ListProjects(ctx context.Context, folderPath string) ([]entities.SourceRepository, error) {
	client, err := r.userClient(ctx)
	if err != nil {
		return nil, err
	}

	var repos []entities.SourceRepository
	opts := &gl.ListGroupProjectsOptions{
		ListOptions: gl.ListOptions{PerPage: perPage},
	}
	for {
		projects, resp, listErr := client.Groups.ListGroupProjects(folderPath, opts, gl.WithContext(ctx))
		if listErr != nil {
			return nil, mapAPIError(resp, listErr, folderPath, "failed to list source repositories in folder")
		}
		for _, project := range projects {
			repos = append(repos, *repositoryFromProject(project))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return repos, nil
}

// DeleteProject removes the repository at path as the acting user.
func (r *GitLabRepository) DeleteProject(ctx context.Context, path string) error {
	repo, err := r.FindProject(ctx, path)
	if err != nil {
		return err
	}
	client, err := r.userClient(ctx)
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(repo.ProviderID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid project provider id %q: %w", repo.ProviderID, err)
	}
	resp, err := client.Projects.DeleteProject(id, &gl.DeleteProjectOptions{}, gl.WithContext(ctx))
	if err != nil {
		return mapAPIError(resp, err, path, "failed to delete source repository")
	}
	return nil
}

func repositoryFromProject(project *gl.Project) *entities.SourceRepository {
	return &entities.SourceRepository{
		Name:       project.Path,
		Path:       project.PathWithNamespace,
		Provider:   providerName,
		ProviderID: strconv.FormatInt(project.ID, 10),
		HTTPURL:    project.HTTPURLToRepo,
		SSHURL:     project.SSHURLToRepo,
		WebURL:     project.WebURL,
	}
}
