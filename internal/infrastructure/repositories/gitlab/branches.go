package gitlab

import (
	"context"
	"sort"
	"strings"
	"time"

	gl "gitlab.com/gitlab-org/api/client-go"
	"golang.org/x/mod/semver"

	"github.com/kathra-project/sourcemanager/internal/domain/entities"
)

// CreateBranch creates branch from ref in the repository at path, acting
// as the session user. Returns the created branch name.
func (r *GitLabRepository) CreateBranch(ctx context.Context, path, branch, ref string) (string, error) {
	client, err := r.userClient(ctx)
	if err != nil {
		return "", err
	}
	created, resp, err := client.Branches.CreateBranch(
		path,
		&gl.CreateBranchOptions{
			Branch: gl.Ptr(branch),
			Ref:    gl.Ptr(ref),
		},
		gl.WithContext(ctx),
	)
	if err != nil {
		return "", mapAPIError(resp, err, path, "failed to create branch "+branch)
	}
	return created.Name, nil
}

// BranchHead returns the head commit id of branch, or a NotFound error
// when the branch or its head commit does not resolve.
func (r *GitLabRepository) BranchHead(ctx context.Context, path, branch string) (string, error) {
	client, err := r.userClient(ctx)
	if err != nil {
		return "", err
	}
	found, resp, err := client.Branches.GetBranch(path, branch, gl.WithContext(ctx))
	if err != nil {
		return "", mapAPIError(resp, err, path, "failed to get branch "+branch)
	}
	if found.Commit == nil || found.Commit.ID == "" {
		return "", entities.NewError(entities.ErrNotFound, path,
			"branch "+branch+" has no resolvable head commit", nil)
	}
	return found.Commit.ID, nil
}

// ListBranches returns the branch names of the repository at path.
func (r *GitLabRepository) ListBranches(ctx context.Context, path string) ([]string, error) {
	client, err := r.userClient(ctx)
	if err != nil {
		return nil, err
	}

	var branches []string
	opts := &gl.ListBranchesOptions{
		ListOptions: gl.ListOptions{PerPage: perPage},
	}
	for {
		page, resp, listErr := client.Branches.ListBranches(path, opts, gl.WithContext(ctx))
		if listErr != nil {
			return nil, mapAPIError(resp, listErr, path, "failed to list branches")
		}
		for _, branch := range page {
			branches = append(branches, branch.Name)
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return branches, nil
}

// ListTags returns the tag names of the repository at path, newest
// version first.
func (r *GitLabRepository) ListTags(ctx context.Context, path string) ([]string, error) {
	client, err := r.userClient(ctx)
	if err != nil {
		return nil, err
	}

	var tags []string
	opts := &gl.ListTagsOptions{
		ListOptions: gl.ListOptions{PerPage: perPage},
	}
	for {
		page, resp, listErr := client.Tags.ListTags(path, opts, gl.WithContext(ctx))
		if listErr != nil {
			return nil, mapAPIError(resp, listErr, path, "failed to list tags")
		}
		for _, tag := range page {
			tags = append(tags, tag.Name)
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	sortVersionsDescending(tags)
	return tags, nil
}

// ListCommits returns the history of branch in the repository at path.
func (r *GitLabRepository) ListCommits(ctx context.Context, path, branch string) ([]entities.Commit, error) {
	client, err := r.userClient(ctx)
	if err != nil {
		return nil, err
	}

	var commits []entities.Commit
	opts := &gl.ListCommitsOptions{
		ListOptions: gl.ListOptions{PerPage: perPage},
		RefName:     gl.Ptr(branch),
	}
	for {
		page, resp, listErr := client.Commits.ListCommits(path, opts, gl.WithContext(ctx))
		if listErr != nil {
			return nil, mapAPIError(resp, listErr, path, "failed to list commits on branch "+branch)
		}
		for _, commit := range page {
			commits = append(commits, commitFromGitLab(commit))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return commits, nil
}

func commitFromGitLab(commit *gl.Commit) entities.Commit {
	var createdAt time.Time
	if commit.CreatedAt != nil {
		createdAt = *commit.CreatedAt
	}
	return entities.Commit{
		ID:             commit.ID,
		ShortID:        commit.ShortID,
		AuthorName:     commit.AuthorName,
		AuthorEmail:    commit.AuthorEmail,
		CommitterName:  commit.CommitterName,
		CommitterEmail: commit.CommitterEmail,
		Message:        commit.Message,
		Title:          commit.Title,
		CreatedAt:      createdAt,
	}
}

// --- version sorting ---

func sortVersionsDescending(versions []string) {
	sort.Slice(versions, func(i, j int) bool {
		v1 := normalizeVersion(versions[i])
		v2 := normalizeVersion(versions[j])
		if semver.IsValid(v1) && semver.IsValid(v2) {
			return semver.Compare(v1, v2) > 0
		}
		return versions[i] > versions[j]
	})
}

func normalizeVersion(version string) string {
	if strings.HasPrefix(version, "v") {
		return version
	}
	return "v" + version
}
