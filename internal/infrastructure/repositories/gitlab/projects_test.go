//go:build unit

package gitlab_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kathra-project/sourcemanager/internal/domain/entities"
)

func (f *fakeGroupAPI) createProject(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string `json:"name"`
		Path        string `json:"path"`
		NamespaceID int64  `json:"namespace_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	namespace := ""
	for path, id := range f.groups {
		if id == body.NamespaceID {
			namespace = path
			break
		}
	}
	fullPath := namespace + "/" + body.Path

	if _, taken := f.projects[fullPath]; taken {
		// GitLab reports a same-path project as a validation failure,
		// not a clean conflict.
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"message":{"path":["has already been taken"]}}`)
		return
	}

	f.projectCreations++
	id := f.nextID
	f.nextID++
	f.projects[fullPath] = id
	w.WriteHeader(http.StatusCreated)
	fmt.Fprint(w, projectJSON(id, fullPath))
}

func (f *fakeGroupAPI) listProjects(w http.ResponseWriter, groupPath string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var entries []string
	for path, id := range f.projects {
		if strings.HasPrefix(path, groupPath+"/") && !strings.Contains(strings.TrimPrefix(path, groupPath+"/"), "/") {
			entries = append(entries, projectJSON(id, path))
		}
	}
	fmt.Fprintf(w, "[%s]", strings.Join(entries, ","))
}

func projectJSON(id int64, fullPath string) string {
	name := fullPath[strings.LastIndex(fullPath, "/")+1:]
	return fmt.Sprintf(
		`{"id":%d,"path":%q,"path_with_namespace":%q,"http_url_to_repo":"https://git.example.org/%s.git","web_url":"https://git.example.org/%s"}`,
		id, name, fullPath, fullPath, fullPath,
	)
}

func TestCreateProject(t *testing.T) {
	t.Parallel()

	t.Run("should create the project beneath a freshly ensured hierarchy", func(t *testing.T) {
		// given
		api := newFakeGroupAPI("kathra-projects")
		repository := newProviderRepository(t, api)
		folder, err := repository.EnsureHierarchy(context.Background(), "kathra-projects/DT")
		require.NoError(t, err)

		// when
		repo, err := repository.CreateProject(context.Background(), folder, "testProject")

		// then
		require.NoError(t, err)
		assert.Equal(t, "testProject", repo.Name)
		assert.Equal(t, "kathra-projects/DT/testProject", repo.Path)
		assert.NotEmpty(t, repo.HTTPURL)
		assert.Equal(t, 1, api.projectCreations)
	})

	t.Run("should surface a second creation as a conflict recoverable through the folder listing", func(t *testing.T) {
		// given
		api := newFakeGroupAPI("kathra-projects")
		repository := newProviderRepository(t, api)
		folder, err := repository.EnsureHierarchy(context.Background(), "kathra-projects/DT")
		require.NoError(t, err)
		created, err := repository.CreateProject(context.Background(), folder, "testProject")
		require.NoError(t, err)

		// when
		_, createErr := repository.CreateProject(context.Background(), folder, "testProject")
		recovered, findErr := repository.FindProjectInFolder(context.Background(), folder, "testProject")

		// then
		require.Error(t, createErr)
		assert.True(t, entities.IsKind(createErr, entities.ErrConflict))
		require.NoError(t, findErr)
		assert.Equal(t, created.ProviderID, recovered.ProviderID)
		assert.Equal(t, 1, api.projectCreations)
	})

	t.Run("should fail not found when no sibling carries the name", func(t *testing.T) {
		// given
		api := newFakeGroupAPI("kathra-projects")
		repository := newProviderRepository(t, api)
		folder, err := repository.EnsureHierarchy(context.Background(), "kathra-projects/DT")
		require.NoError(t, err)

		// when
		_, err = repository.FindProjectInFolder(context.Background(), folder, "ghost")

		// then
		require.Error(t, err)
		assert.True(t, entities.IsKind(err, entities.ErrNotFound))
	})
}
