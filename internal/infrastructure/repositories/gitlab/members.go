package gitlab

import (
	"context"
	"fmt"

	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/kathra-project/sourcemanager/internal/domain/entities"
)

// AddMember grants access to the repository or folder at the membership
// path. The path is tried as a repository first; when no repository
// resolves there, the grant falls back to the folder (group) scope.
func (r *GitLabRepository) AddMember(ctx context.Context, membership entities.Membership) error {
	user, err := r.findUser(ctx, membership.MemberName)
	if err != nil {
		return err
	}

	_, err = r.FindProject(ctx, membership.Path)
	switch {
	case err == nil:
		_, resp, addErr := r.admin.ProjectMembers.AddProjectMember(
			membership.Path,
			&gl.AddProjectMemberOptions{
				UserID:      gl.Ptr(user.ID),
				AccessLevel: gl.Ptr(roleToAccessLevel(membership.Role, false)),
			},
			gl.WithContext(ctx),
		)
		if addErr != nil {
			return mapAPIError(resp, addErr, membership.Path,
				fmt.Sprintf("failed to add member %q to repository", membership.MemberName))
		}
		return nil
	case entities.IsKind(err, entities.ErrNotFound):
		_, resp, addErr := r.admin.GroupMembers.AddGroupMember(
			membership.Path,
			&gl.AddGroupMemberOptions{
				UserID:      gl.Ptr(user.ID),
				AccessLevel: gl.Ptr(roleToAccessLevel(membership.Role, true)),
			},
			gl.WithContext(ctx),
		)
		if addErr != nil {
			return mapAPIError(resp, addErr, membership.Path,
				fmt.Sprintf("failed to add member %q to folder", membership.MemberName))
		}
		return nil
	default:
		return err
	}
}

// RemoveMember revokes access at the membership path, repository first
// with a folder fallback.
func (r *GitLabRepository) RemoveMember(ctx context.Context, membership entities.Membership) error {
	user, err := r.findUser(ctx, membership.MemberName)
	if err != nil {
		return err
	}

	_, err = r.FindProject(ctx, membership.Path)
	switch {
	case err == nil:
		resp, delErr := r.admin.ProjectMembers.DeleteProjectMember(
			membership.Path, user.ID, gl.WithContext(ctx),
		)
		if delErr != nil {
			return mapAPIError(resp, delErr, membership.Path,
				fmt.Sprintf("failed to remove member %q from repository", membership.MemberName))
		}
		return nil
	case entities.IsKind(err, entities.ErrNotFound):
		resp, delErr := r.admin.GroupMembers.RemoveGroupMember(
			membership.Path, user.ID, nil, gl.WithContext(ctx),
		)
		if delErr != nil {
			return mapAPIError(resp, delErr, membership.Path,
				fmt.Sprintf("failed to remove member %q from folder", membership.MemberName))
		}
		return nil
	default:
		return err
	}
}

// ListMembers returns the human access grants at path, resolving a
// repository first and falling back to the folder scope.
func (r *GitLabRepository) ListMembers(ctx context.Context, path string) ([]entities.Membership, error) {
	_, err := r.FindProject(ctx, path)
	switch {
	case err == nil:
		return r.listProjectMembers(ctx, path)
	case entities.IsKind(err, entities.ErrNotFound):
		memberships, groupErr := r.listGroupMembers(ctx, path)
		if entities.IsKind(groupErr, entities.ErrNotFound) {
			return nil, entities.NewError(entities.ErrNotFound, path,
				"unable to find a source repository or folder at "+path, groupErr)
		}
		return memberships, groupErr
	default:
		return nil, err
	}
}

func (r *GitLabRepository) listProjectMembers(ctx context.Context, path string) ([]entities.Membership, error) {
	var memberships []entities.Membership
	opts := &gl.ListProjectMembersOptions{
		ListOptions: gl.ListOptions{PerPage: perPage},
	}
	for {
		members, resp, err := r.admin.ProjectMembers.ListProjectMembers(path, opts, gl.WithContext(ctx))
		if err != nil {
			return nil, mapAPIError(resp, err, path, "failed to list repository members")
		}
		for _, member := range members {
			memberships = append(memberships, entities.Membership{
				MemberName: member.Username,
				MemberType: entities.MemberTypeUser,
				Role:       accessLevelToRole(member.AccessLevel),
				Path:       path,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return memberships, nil
}

func (r *GitLabRepository) listGroupMembers(ctx context.Context, path string) ([]entities.Membership, error) {
	var memberships []entities.Membership
	opts := &gl.ListGroupMembersOptions{
		ListOptions: gl.ListOptions{PerPage: perPage},
	}
	for {
		members, resp, err := r.admin.Groups.ListGroupMembers(path, opts, gl.WithContext(ctx))
		if err != nil {
			return nil, mapAPIError(resp, err, path, "failed to list folder members")
		}
		for _, member := range members {
			memberships = append(memberships, entities.Membership{
				MemberName: member.Username,
				MemberType: entities.MemberTypeUser,
				Role:       accessLevelToRole(member.AccessLevel),
				Path:       path,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return memberships, nil
}

// findUser resolves a platform username to its provider account.
func (r *GitLabRepository) findUser(ctx context.Context, username string) (*gl.User, error) {
	users, resp, err := r.admin.Users.ListUsers(
		&gl.ListUsersOptions{Username: gl.Ptr(username)},
		gl.WithContext(ctx),
	)
	if err != nil {
		return nil, mapAPIError(resp, err, "", fmt.Sprintf("failed to look up member %q", username))
	}
	for _, user := range users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, entities.NewError(entities.ErrNotFound, "",
		fmt.Sprintf("unable to find member %q", username), nil)
}

// --- role mapping ---

// roleToAccessLevel maps the platform role vocabulary to provider access
// levels. MANAGER maps to Owner on folders and Maintainer on
// repositories.
func roleToAccessLevel(role entities.Role, group bool) gl.AccessLevelValue {
	switch role {
	case entities.RoleGuest:
		return gl.ReporterPermissions
	case entities.RoleContributor:
		return gl.DeveloperPermissions
	case entities.RoleManager:
		if group {
			return gl.OwnerPermissions
		}
		return gl.MaintainerPermissions
	}
	return gl.GuestPermissions
}

// accessLevelToRole is the reverse mapping used when listing grants.
func accessLevelToRole(level gl.AccessLevelValue) entities.Role {
	switch {
	case level <= gl.ReporterPermissions:
		return entities.RoleGuest
	case level == gl.DeveloperPermissions:
		return entities.RoleContributor
	default:
		return entities.RoleManager
	}
}
