//go:build unit

package gitworkspace_test

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kathra-project/sourcemanager/config"
	"github.com/kathra-project/sourcemanager/internal/domain/entities"
	"github.com/kathra-project/sourcemanager/internal/domain/repositories"
	"github.com/kathra-project/sourcemanager/internal/infrastructure/repositories/gitworkspace"
)

func newWorkspaceRepository(t *testing.T) repositories.WorkspaceRepository {
	t.Helper()
	return gitworkspace.NewGitWorkspaceRepository(&config.Config{
		MailDomain: "kathra.org",
		Workspace: config.WorkspaceConfig{
			Root:           t.TempDir(),
			CreateAttempts: 3,
		},
	})
}

// seedRemote builds a bare repository with a master branch holding
// README.md, optionally a dev branch holding dev.txt and a lightweight
// tag at the master head.
func seedRemote(t *testing.T, withDev bool, tag string) string {
	t.Helper()

	srcDir := t.TempDir()
	repo, err := git.PlainInit(srcDir, false)
	require.NoError(t, err)
	worktree, err := repo.Worktree()
	require.NoError(t, err)

	signature := &object.Signature{Name: "seed", Email: "seed@example.com", When: time.Now()}
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "README.md"), []byte("# seed\n"), 0o644))
	_, err = worktree.Add("README.md")
	require.NoError(t, err)
	_, err = worktree.Commit("initial", &git.CommitOptions{Author: signature, Committer: signature})
	require.NoError(t, err)

	if withDev {
		require.NoError(t, worktree.Checkout(&git.CheckoutOptions{
			Branch: plumbing.NewBranchReferenceName("dev"),
			Create: true,
		}))
		require.NoError(t, os.WriteFile(filepath.Join(srcDir, "dev.txt"), []byte("dev\n"), 0o644))
		_, err = worktree.Add("dev.txt")
		require.NoError(t, err)
		_, err = worktree.Commit("dev content", &git.CommitOptions{Author: signature, Committer: signature})
		require.NoError(t, err)
		require.NoError(t, worktree.Checkout(&git.CheckoutOptions{
			Branch: plumbing.NewBranchReferenceName("master"),
		}))
	}

	if tag != "" {
		head, headErr := repo.Head()
		require.NoError(t, headErr)
		_, err = repo.CreateTag(tag, head.Hash(), nil)
		require.NoError(t, err)
	}

	bareDir := filepath.Join(t.TempDir(), "remote.git")
	bare, err := git.PlainClone(bareDir, true, &git.CloneOptions{URL: srcDir})
	require.NoError(t, err)
	if withDev {
		// The bare clone stores the source's branches as remote-tracking
		// refs; promote dev to a real head so the remote advertises it.
		tracking, refErr := bare.Reference(plumbing.NewRemoteReferenceName("origin", "dev"), true)
		require.NoError(t, refErr)
		require.NoError(t, bare.Storer.SetReference(
			plumbing.NewHashReference(plumbing.NewBranchReferenceName("dev"), tracking.Hash())))
		_, refErr = bare.Reference(plumbing.NewBranchReferenceName("dev"), true)
		require.NoError(t, refErr)
	}
	return bareDir
}

func openSession(t *testing.T) repositories.WorkspaceSession {
	t.Helper()
	session, err := newWorkspaceRepository(t).NewSession()
	require.NoError(t, err)
	t.Cleanup(session.Close)
	return session
}

func remoteBranchHash(t *testing.T, remote, branch string) plumbing.Hash {
	t.Helper()
	repo, err := git.PlainOpen(remote)
	require.NoError(t, err)
	ref, err := repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	require.NoError(t, err)
	return ref.Hash()
}

func TestSessionClone(t *testing.T) {
	t.Parallel()

	t.Run("should clone an existing branch directly", func(t *testing.T) {
		// given
		remote := seedRemote(t, true, "")
		session := openSession(t)

		// when
		err := session.Clone(context.Background(), "proj", "dev", repositories.Credentials{}, remote, false)

		// then
		require.NoError(t, err)
		content, err := session.ReadFile("dev.txt")
		require.NoError(t, err)
		assert.Equal(t, "dev\n", string(content))
	})

	t.Run("should check out a tag when tags are included", func(t *testing.T) {
		// given
		remote := seedRemote(t, false, "v1.0.0")
		session := openSession(t)

		// when
		err := session.Clone(context.Background(), "proj", "v1.0.0", repositories.Credentials{}, remote, true)

		// then
		require.NoError(t, err)
		_, err = session.ReadFile("README.md")
		assert.NoError(t, err)
	})

	t.Run("should bootstrap a missing branch from the default branch", func(t *testing.T) {
		// given
		remote := seedRemote(t, false, "")
		session := openSession(t)
		require.NoError(t,
			session.Clone(context.Background(), "proj", "feature", repositories.Credentials{}, remote, false))

		// when
		require.NoError(t, session.CopyFile(writePayload(t, "feature.txt", "x"), ""))
		_, err := session.Commit("jdoe", "bootstrap feature")
		require.NoError(t, err)
		err = session.Push(context.Background(), repositories.Credentials{})

		// then
		require.NoError(t, err)
		assert.NotEqual(t, plumbing.ZeroHash, remoteBranchHash(t, remote, "feature"))
	})
}

func TestSessionCommit(t *testing.T) {
	t.Parallel()

	t.Run("should fail with a no-changes error on a clean tree", func(t *testing.T) {
		// given
		remote := seedRemote(t, false, "")
		session := openSession(t)
		require.NoError(t,
			session.Clone(context.Background(), "proj", "master", repositories.Credentials{}, remote, false))

		// when
		commit, err := session.Commit("jdoe", "nothing")

		// then
		require.Error(t, err)
		assert.True(t, entities.IsKind(err, entities.ErrNoChanges))
		assert.Nil(t, commit)
	})

	t.Run("should commit with the caller identity and push the new head", func(t *testing.T) {
		// given
		remote := seedRemote(t, false, "")
		session := openSession(t)
		require.NoError(t,
			session.Clone(context.Background(), "proj", "master", repositories.Credentials{}, remote, false))
		require.NoError(t, session.CopyFile(writePayload(t, "generated.txt", "content"), ""))

		// when
		commit, err := session.Commit("jdoe", "Update autogenerated components")
		require.NoError(t, err)
		pushErr := session.Push(context.Background(), repositories.Credentials{})

		// then
		require.NoError(t, pushErr)
		assert.Equal(t, "jdoe", commit.AuthorName)
		assert.Equal(t, "jdoe@kathra.org", commit.AuthorEmail)
		assert.Equal(t, "jdoe@kathra.org", commit.CommitterEmail)
		assert.Len(t, commit.ShortID, 8)
		assert.Equal(t, "Update autogenerated components", commit.Title)
		assert.Equal(t, commit.ID, remoteBranchHash(t, remote, "master").String())
	})

	t.Run("should commit deletions after content replacement", func(t *testing.T) {
		// given
		remote := seedRemote(t, false, "")
		session := openSession(t)
		require.NoError(t,
			session.Clone(context.Background(), "proj", "master", repositories.Credentials{}, remote, false))

		// when
		require.NoError(t, session.ReplaceContent())
		_, err := session.Commit("jdoe", "wipe")

		// then
		require.NoError(t, err)
		_, err = session.ReadFile("README.md")
		assert.True(t, entities.IsKind(err, entities.ErrNotFound))
	})
}

func TestSessionTag(t *testing.T) {
	t.Parallel()

	t.Run("should refuse to move an existing tag without force", func(t *testing.T) {
		// given
		remote := seedRemote(t, false, "")
		session := openSession(t)
		require.NoError(t,
			session.Clone(context.Background(), "proj", "master", repositories.Credentials{}, remote, false))
		require.NoError(t, session.Tag("v1.0.0", false))

		// when
		err := session.Tag("v1.0.0", false)

		// then
		assert.Error(t, err)
	})

	t.Run("should force-move a tag to the new head and push it", func(t *testing.T) {
		// given
		remote := seedRemote(t, false, "")
		session := openSession(t)
		require.NoError(t,
			session.Clone(context.Background(), "proj", "master", repositories.Credentials{}, remote, false))
		require.NoError(t, session.Tag("v1.0.0", false))
		require.NoError(t, session.CopyFile(writePayload(t, "next.txt", "next"), ""))
		commit, err := session.Commit("jdoe", "next version")
		require.NoError(t, err)

		// when
		require.NoError(t, session.Tag("v1.0.0", true))
		require.NoError(t, session.Push(context.Background(), repositories.Credentials{}))
		pushErr := session.PushTags(context.Background(), repositories.Credentials{}, true)

		// then
		require.NoError(t, pushErr)
		repo, openErr := git.PlainOpen(remote)
		require.NoError(t, openErr)
		ref, refErr := repo.Reference(plumbing.NewTagReferenceName("v1.0.0"), true)
		require.NoError(t, refErr)
		assert.Equal(t, commit.ID, ref.Hash().String())
	})
}

func TestSessionUnpack(t *testing.T) {
	t.Parallel()

	t.Run("should extract an archive over the checked-out tree", func(t *testing.T) {
		// given
		remote := seedRemote(t, false, "")
		session := openSession(t)
		require.NoError(t,
			session.Clone(context.Background(), "proj", "master", repositories.Credentials{}, remote, false))
		archive := writeArchive(t, map[string]string{
			"swagger.yml":     "openapi: 3.0.0\n",
			"src/main/API.md": "docs\n",
		})

		// when
		err := session.Unpack(archive)

		// then
		require.NoError(t, err)
		content, err := session.ReadFile("src/main/API.md")
		require.NoError(t, err)
		assert.Equal(t, "docs\n", string(content))
	})

	t.Run("should reject archive entries escaping the tree", func(t *testing.T) {
		// given
		remote := seedRemote(t, false, "")
		session := openSession(t)
		require.NoError(t,
			session.Clone(context.Background(), "proj", "master", repositories.Credentials{}, remote, false))
		archive := writeArchive(t, map[string]string{"../evil.txt": "nope"})

		// when
		err := session.Unpack(archive)

		// then
		require.Error(t, err)
		assert.True(t, entities.IsKind(err, entities.ErrIO))
	})
}

func TestSessionCopyFile(t *testing.T) {
	t.Parallel()

	t.Run("should place the payload according to the target path", func(t *testing.T) {
		// given
		remote := seedRemote(t, false, "")
		session := openSession(t)
		require.NoError(t,
			session.Clone(context.Background(), "proj", "master", repositories.Credentials{}, remote, false))
		payload := writePayload(t, "swagger.yml", "openapi: 3.0.0\n")

		tests := []struct {
			target string
			expect string
		}{
			{target: "", expect: "swagger.yml"},
			{target: "api/", expect: "api/swagger.yml"},
			{target: "renamed.yml", expect: "renamed.yml"},
			{target: "api/v1/spec.yml", expect: "api/v1/spec.yml"},
		}
		for _, test := range tests {
			// when
			err := session.CopyFile(payload, test.target)

			// then
			require.NoError(t, err)
			content, readErr := session.ReadFile(test.expect)
			require.NoError(t, readErr)
			assert.Equal(t, "openapi: 3.0.0\n", string(content))
		}
	})

	t.Run("should fail reading a file that does not exist", func(t *testing.T) {
		// given
		remote := seedRemote(t, false, "")
		session := openSession(t)
		require.NoError(t,
			session.Clone(context.Background(), "proj", "master", repositories.Credentials{}, remote, false))

		// when
		_, err := session.ReadFile("missing.txt")

		// then
		assert.True(t, entities.IsKind(err, entities.ErrNotFound))
	})
}

func TestGitWorkspaceRepositoryNewSession(t *testing.T) {
	t.Parallel()

	t.Run("should allocate distinct working directories", func(t *testing.T) {
		// given
		repository := newWorkspaceRepository(t)

		// when
		first, err := repository.NewSession()
		require.NoError(t, err)
		second, err := repository.NewSession()
		require.NoError(t, err)
		defer first.Close()
		defer second.Close()

		// then
		firstDir := first.(interface{ WorkDir() string }).WorkDir()
		secondDir := second.(interface{ WorkDir() string }).WorkDir()
		assert.NotEqual(t, firstDir, secondDir)
		assert.DirExists(t, firstDir)
		assert.DirExists(t, secondDir)
	})

	t.Run("should remove the working directory on close", func(t *testing.T) {
		// given
		repository := newWorkspaceRepository(t)
		session, err := repository.NewSession()
		require.NoError(t, err)
		workDir := session.(interface{ WorkDir() string }).WorkDir()

		// when
		session.Close()

		// then
		assert.NoDirExists(t, workDir)
	})
}

// --- helpers ---

func writePayload(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeArchive(t *testing.T, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "payload.zip")
	out, err := os.Create(path)
	require.NoError(t, err)
	writer := zip.NewWriter(out)
	for name, content := range files {
		entry, entryErr := writer.Create(name)
		require.NoError(t, entryErr)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	require.NoError(t, out.Close())
	return path
}
