package gitlab

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	logger "github.com/sirupsen/logrus"
	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/kathra-project/sourcemanager/internal/domain/entities"
)

// GetFolder resolves a folder path to an existing remote group.
func (r *GitLabRepository) GetFolder(ctx context.Context, path string) (*entities.Folder, error) {
	client, err := r.userClient(ctx)
	if err != nil {
		return nil, err
	}
	group, resp, err := client.Groups.GetGroup(path, &gl.GetGroupOptions{}, gl.WithContext(ctx))
	if err != nil {
		return nil, mapAPIError(resp, err, path, "failed to get folder")
	}
	return folderFromGroup(group), nil
}

// ListFolders returns every folder the acting user can access.
func (r *GitLabRepository) ListFolders(ctx context.Context) ([]entities.Folder, error) {
	client, err := r.userClient(ctx)
	if err != nil {
		return nil, err
	}

	var folders []entities.Folder
	opts := &gl.ListGroupsOptions{
		ListOptions: gl.ListOptions{PerPage: perPage},
	}
	for {
		groups, resp, listErr := client.Groups.ListGroups(opts, gl.WithContext(ctx))
		if listErr != nil {
			return nil, mapAPIError(resp, listErr, "", "failed to list folders")
		}
		for _, group := range groups {
			folders = append(folders, *folderFromGroup(group))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return folders, nil
}

// EnsureHierarchy walks from the full path upward to the deepest existing
// group, then creates every missing segment beneath it, parent before
// child. Correctness under concurrent callers relies on conflict
// re-fetch, not locking: a segment creation that loses a creation race is
// resolved by re-fetching the group at its expected full path.
func (r *GitLabRepository) EnsureHierarchy(ctx context.Context, path string) (*entities.Folder, error) {
	client, err := r.userClient(ctx)
	if err != nil {
		return nil, err
	}

	segments := strings.Split(strings.Trim(path, "/"), "/")
	depth := len(segments)

	var existing *gl.Group
	for depth > 0 {
		prefix := strings.Join(segments[:depth], "/")
		group, resp, getErr := client.Groups.GetGroup(prefix, &gl.GetGroupOptions{}, gl.WithContext(ctx))
		if getErr == nil {
			existing = group
			break
		}
		if httpStatus(resp, getErr) != 404 {
			return nil, mapAPIError(resp, getErr, prefix, "failed to probe folder")
		}
		depth--
	}

	if depth == len(segments) {
		// The full path already exists, nothing to create.
		return folderFromGroup(existing), nil
	}

	current := existing
	for i := depth; i < len(segments); i++ {
		fullPath := strings.Join(segments[:i+1], "/")
		current, err = r.createSegment(ctx, client, fullPath, segments[i], current)
		if err != nil {
			return nil, err
		}
	}
	return folderFromGroup(current), nil
}

// createSegment creates one nested group under parent, recovering from a
// same-path creation race by re-fetching the group.
func (r *GitLabRepository) createSegment(
	ctx context.Context,
	client *gl.Client,
	fullPath, name string,
	parent *gl.Group,
) (*gl.Group, error) {
	opts := &gl.CreateGroupOptions{
		Name: gl.Ptr(name),
		Path: gl.Ptr(name),
	}
	if parent != nil {
		opts.ParentID = gl.Ptr(parent.ID)
	}

	group, resp, err := client.Groups.CreateGroup(opts, gl.WithContext(ctx))
	if err == nil {
		return group, nil
	}

	switch {
	case isNameTaken(resp, err):
		// A concurrent caller created the identical segment moments
		// earlier; re-fetch and use it.
		logger.Infof("Folder %q already created concurrently, reusing it", fullPath)
		refetched, refResp, refErr := client.Groups.GetGroup(
			fullPath, &gl.GetGroupOptions{}, gl.WithContext(ctx),
		)
		if refErr != nil {
			return nil, mapAPIError(refResp, refErr, fullPath,
				"failed to resolve folder after a creation conflict")
		}
		return refetched, nil
	case httpStatus(resp, err) == 403:
		return nil, entities.NewError(entities.ErrForbidden, fullPath,
			fmt.Sprintf("forbidden to create folder %q, please verify your permissions in the source repository provider", fullPath),
			err)
	default:
		return nil, mapAPIError(resp, err, fullPath, "failed to create folder")
	}
}

func folderFromGroup(group *gl.Group) *entities.Folder {
	return &entities.Folder{
		Path:       group.FullPath,
		ProviderID: strconv.FormatInt(group.ID, 10),
	}
}
