//go:build unit

package gitlab_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/kathra-project/sourcemanager/internal/domain/entities"
	"github.com/kathra-project/sourcemanager/internal/infrastructure/repositories/gitlab"
)

func response(status int) *gl.Response {
	return &gl.Response{Response: &http.Response{StatusCode: status}}
}

func TestIsNameTaken(t *testing.T) {
	t.Parallel()

	t.Run("should treat a conflict status as taken", func(t *testing.T) {
		// given / when / then
		assert.True(t, gitlab.IsNameTaken(response(409), errors.New("conflict")))
	})

	t.Run("should treat a validation failure naming the clash as taken", func(t *testing.T) {
		// given
		err := errors.New("400 {message: {name: [has already been taken]}}")

		// when / then
		assert.True(t, gitlab.IsNameTaken(response(400), err))
	})

	t.Run("should not treat other validation failures as taken", func(t *testing.T) {
		// given
		err := errors.New("400 {message: {path: [is invalid]}}")

		// when / then
		assert.False(t, gitlab.IsNameTaken(response(400), err))
		assert.False(t, gitlab.IsNameTaken(response(500), errors.New("boom")))
	})
}

func TestMapAPIError(t *testing.T) {
	t.Parallel()

	t.Run("should map provider statuses onto the error taxonomy", func(t *testing.T) {
		tests := []struct {
			status int
			kind   entities.ErrorKind
		}{
			{status: 404, kind: entities.ErrNotFound},
			{status: 403, kind: entities.ErrForbidden},
			{status: 409, kind: entities.ErrConflict},
			{status: 500, kind: entities.ErrTransport},
			{status: 0, kind: entities.ErrTransport},
		}
		for _, test := range tests {
			// given / when
			err := gitlab.MapAPIError(response(test.status), errors.New("remote failure"),
				"kathra-projects/app", "operation failed")

			// then
			assert.True(t, entities.IsKind(err, test.kind), "status %d", test.status)
		}
	})
}

func TestRoleMapping(t *testing.T) {
	t.Parallel()

	t.Run("should map roles to repository and folder access levels", func(t *testing.T) {
		// given / when / then
		assert.Equal(t, gl.ReporterPermissions, gitlab.RoleToAccessLevel(entities.RoleGuest, false))
		assert.Equal(t, gl.DeveloperPermissions, gitlab.RoleToAccessLevel(entities.RoleContributor, false))
		assert.Equal(t, gl.MaintainerPermissions, gitlab.RoleToAccessLevel(entities.RoleManager, false))
		assert.Equal(t, gl.OwnerPermissions, gitlab.RoleToAccessLevel(entities.RoleManager, true))
	})

	t.Run("should round-trip roles through repository access levels", func(t *testing.T) {
		for _, role := range []entities.Role{entities.RoleGuest, entities.RoleContributor, entities.RoleManager} {
			// given / when
			level := gitlab.RoleToAccessLevel(role, false)

			// then
			assert.Equal(t, role, gitlab.AccessLevelToRole(level))
		}
	})

	t.Run("should classify owner levels as manager", func(t *testing.T) {
		// given / when / then
		assert.Equal(t, entities.RoleManager, gitlab.AccessLevelToRole(gl.OwnerPermissions))
		assert.Equal(t, entities.RoleGuest, gitlab.AccessLevelToRole(gl.GuestPermissions))
	})
}

func TestSortVersionsDescending(t *testing.T) {
	t.Parallel()

	t.Run("should order semantic versions newest first", func(t *testing.T) {
		// given
		versions := []string{"1.2.0", "v2.0.0", "1.10.1", "0.9.0"}

		// when
		gitlab.SortVersionsDescending(versions)

		// then
		assert.Equal(t, []string{"v2.0.0", "1.10.1", "1.2.0", "0.9.0"}, versions)
	})
}
