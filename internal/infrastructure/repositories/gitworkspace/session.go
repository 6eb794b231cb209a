package gitworkspace

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
	gitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/memory"
	logger "github.com/sirupsen/logrus"

	"github.com/kathra-project/sourcemanager/internal/domain/entities"
	"github.com/kathra-project/sourcemanager/internal/domain/repositories"
)

const gitRemote = "origin"

// Session owns one ephemeral working directory for a single
// clone/modify/commit/push workflow. It is not safe for concurrent use
// and must be Closed regardless of outcome.
type Session struct {
	workDir    string
	projectDir string
	repo       *git.Repository
	keep       bool
	mailDomain string
}

// WorkDir exposes the session's working directory.
func (s *Session) WorkDir() string { return s.workDir }

// Clone checks out the project from url into the working directory,
// deciding the strategy from the remote refs: an existing remote head is
// cloned alone; an existing tag (when includeTags is set) is checked out
// after a default clone; an unknown name bootstraps a new branch by
// renaming the default branch locally.
func (s *Session) Clone(
	ctx context.Context,
	project, branch string,
	creds repositories.Credentials,
	url string,
	includeTags bool,
) error {
	auth := basicAuth(creds)

	refs, err := listRemoteRefs(ctx, url, auth)
	if err != nil {
		return err
	}

	branchRef := plumbing.NewBranchReferenceName(branch)
	tagRef := plumbing.NewTagReferenceName(branch)
	var branchExists, tagExists bool
	for _, ref := range refs {
		if ref.Name() == branchRef {
			branchExists = true
			break
		}
		if includeTags && ref.Name() == tagRef {
			tagExists = true
			break
		}
	}

	dir := filepath.Join(s.workDir, project)

	switch {
	case branchExists:
		s.repo, err = cloneWithRetries(ctx, dir, &git.CloneOptions{
			URL:           url,
			Auth:          auth,
			ReferenceName: branchRef,
			SingleBranch:  true,
		})
		if err != nil {
			return err
		}
	case tagExists:
		s.repo, err = cloneWithRetries(ctx, dir, &git.CloneOptions{URL: url, Auth: auth})
		if err != nil {
			return err
		}
		worktree, wtErr := s.repo.Worktree()
		if wtErr != nil {
			return fmt.Errorf("failed to open worktree: %w", wtErr)
		}
		if coErr := worktree.Checkout(&git.CheckoutOptions{Branch: tagRef}); coErr != nil {
			return fmt.Errorf("failed to check out tag %q: %w", branch, coErr)
		}
	default:
		s.repo, err = cloneWithRetries(ctx, dir, &git.CloneOptions{URL: url, Auth: auth})
		if err != nil {
			return err
		}
		if renameErr := renameCurrentBranch(s.repo, branchRef); renameErr != nil {
			return fmt.Errorf("failed to bootstrap branch %q: %w", branch, renameErr)
		}
	}

	s.projectDir = dir
	return nil
}

// renameCurrentBranch moves the checked-out branch to newName, used when
// the requested branch does not exist remotely yet.
func renameCurrentBranch(repo *git.Repository, newName plumbing.ReferenceName) error {
	head, err := repo.Head()
	if err != nil {
		return err
	}
	if head.Name() == newName {
		return nil
	}
	if err := repo.Storer.SetReference(plumbing.NewHashReference(newName, head.Hash())); err != nil {
		return err
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return err
	}
	if err := worktree.Checkout(&git.CheckoutOptions{Branch: newName}); err != nil {
		return err
	}
	return repo.Storer.RemoveReference(head.Name())
}

// ReplaceContent deletes everything in the checked-out tree except the
// version-control metadata directory.
func (s *Session) ReplaceContent() error {
	entries, err := os.ReadDir(s.projectDir)
	if err != nil {
		return entities.NewError(entities.ErrIO, "", "failed to read checked-out tree", err)
	}
	for _, entry := range entries {
		if entry.Name() == git.GitDirName {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.projectDir, entry.Name())); err != nil {
			return entities.NewError(entities.ErrIO, "",
				fmt.Sprintf("failed to delete %q from checked-out tree", entry.Name()), err)
		}
	}
	return nil
}

// Unpack extracts a zip archive over the checked-out tree.
func (s *Session) Unpack(archivePath string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return entities.NewError(entities.ErrIO, "",
			fmt.Sprintf("failed to open archive %q", archivePath), err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		if err := s.unpackEntry(file); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) unpackEntry(file *zip.File) error {
	// Reject entries escaping the tree.
	dest := filepath.Join(s.projectDir, filepath.FromSlash(file.Name))
	if !strings.HasPrefix(dest, filepath.Clean(s.projectDir)+string(os.PathSeparator)) {
		return entities.NewError(entities.ErrIO, "",
			fmt.Sprintf("archive entry %q escapes the working tree", file.Name), nil)
	}

	if file.FileInfo().IsDir() {
		return os.MkdirAll(dest, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return entities.NewError(entities.ErrIO, "", "failed to create archive target directory", err)
	}

	src, err := file.Open()
	if err != nil {
		return entities.NewError(entities.ErrIO, "",
			fmt.Sprintf("failed to read archive entry %q", file.Name), err)
	}
	defer src.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, file.Mode())
	if err != nil {
		return entities.NewError(entities.ErrIO, "",
			fmt.Sprintf("failed to create %q", dest), err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return entities.NewError(entities.ErrIO, "",
			fmt.Sprintf("failed to extract %q", file.Name), err)
	}
	return nil
}

// CopyFile copies a single file into the checked-out tree. targetPath
// may be empty (tree root), a directory (trailing slash), a bare file
// name, or a subpath ending in the destination file name.
func (s *Session) CopyFile(srcPath, targetPath string) error {
	name := filepath.Base(srcPath)
	destDir := s.projectDir

	if targetPath != "" {
		dir, file := path.Split(targetPath)
		if file != "" {
			name = file
		}
		if dir != "" {
			destDir = filepath.Join(destDir, filepath.FromSlash(dir))
		}
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return entities.NewError(entities.ErrIO, "", "failed to create target directory", err)
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return entities.NewError(entities.ErrIO, "",
			fmt.Sprintf("failed to open payload %q", srcPath), err)
	}
	defer src.Close()

	dest := filepath.Join(destDir, name)
	out, err := os.Create(dest)
	if err != nil {
		return entities.NewError(entities.ErrIO, "",
			fmt.Sprintf("failed to create %q", dest), err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return entities.NewError(entities.ErrIO, "",
			fmt.Sprintf("failed to copy payload into %q", dest), err)
	}
	return nil
}

// ReadFile reads a file from the checked-out tree.
func (s *Session) ReadFile(relPath string) ([]byte, error) {
	full := filepath.Join(s.projectDir, filepath.FromSlash(relPath))
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return nil, entities.NewError(entities.ErrNotFound, "",
			fmt.Sprintf("file %q not found in repository", relPath), err)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, entities.NewError(entities.ErrIO, "",
			fmt.Sprintf("failed to read %q", relPath), err)
	}
	return data, nil
}

// Commit stages every change including deletions and commits with the
// caller's synthesized identity. A clean tree fails with a NoChanges
// error before anything is staged.
func (s *Session) Commit(username, message string) (*entities.Commit, error) {
	worktree, err := s.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to open worktree: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to read worktree status: %w", err)
	}
	if status.IsClean() {
		return nil, entities.NewError(entities.ErrNoChanges, "",
			"no changes detected, aborting request", nil)
	}

	if err := worktree.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return nil, fmt.Errorf("failed to stage changes: %w", err)
	}

	identity := &object.Signature{
		Name:  username,
		Email: username + "@" + s.mailDomain,
		When:  time.Now(),
	}
	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author:    identity,
		Committer: identity,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	commit, err := s.repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("failed to read back commit %s: %w", hash, err)
	}
	return commitFromObject(commit), nil
}

// Tag creates a lightweight tag at HEAD, force-moving an existing one
// when requested.
func (s *Session) Tag(name string, force bool) error {
	head, err := s.repo.Head()
	if err != nil {
		return fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	_, err = s.repo.CreateTag(name, head.Hash(), nil)
	if errors.Is(err, git.ErrTagExists) && force {
		if delErr := s.repo.DeleteTag(name); delErr != nil {
			return fmt.Errorf("failed to move tag %q: %w", name, delErr)
		}
		_, err = s.repo.CreateTag(name, head.Hash(), nil)
	}
	if err != nil {
		return fmt.Errorf("failed to create tag %q: %w", name, err)
	}
	return nil
}

// Push sends all local branches and tags to the remote.
func (s *Session) Push(ctx context.Context, creds repositories.Credentials) error {
	return s.push(ctx, creds, []gitcfg.RefSpec{
		"refs/heads/*:refs/heads/*",
		"refs/tags/*:refs/tags/*",
	})
}

// PushTags sends only tags, optionally forced.
func (s *Session) PushTags(ctx context.Context, creds repositories.Credentials, force bool) error {
	spec := gitcfg.RefSpec("refs/tags/*:refs/tags/*")
	if force {
		spec = "+refs/tags/*:refs/tags/*"
	}
	return s.push(ctx, creds, []gitcfg.RefSpec{spec})
}

func (s *Session) push(ctx context.Context, creds repositories.Credentials, specs []gitcfg.RefSpec) error {
	auth := basicAuth(creds)
	_, err := withTransportRetries(ctx, "push", func() (struct{}, error) {
		pushErr := s.repo.PushContext(ctx, &git.PushOptions{
			RemoteName: gitRemote,
			Auth:       auth,
			RefSpecs:   specs,
		})
		if errors.Is(pushErr, git.NoErrAlreadyUpToDate) {
			pushErr = nil
		}
		return struct{}{}, pushErr
	})
	return err
}

// Close removes the working directory unless the session is configured
// to keep it. Deletion failures are swallowed: cleanup is best effort
// and never masks the primary operation's outcome.
func (s *Session) Close() {
	if s.keep {
		logger.Debugf("Keeping working folder %q", s.workDir)
		return
	}
	if err := os.RemoveAll(s.workDir); err != nil {
		logger.Warnf("Failed to delete working folder %q: %v", s.workDir, err)
	}
}

// --- transport helpers ---

func basicAuth(creds repositories.Credentials) transport.AuthMethod {
	if creds.Username == "" && creds.Token == "" {
		return nil
	}
	return &githttp.BasicAuth{Username: creds.Username, Password: creds.Token}
}

func listRemoteRefs(ctx context.Context, url string, auth transport.AuthMethod) ([]*plumbing.Reference, error) {
	remote := git.NewRemote(memory.NewStorage(), &gitcfg.RemoteConfig{
		Name: gitRemote,
		URLs: []string{url},
	})
	return withTransportRetries(ctx, "ls-remote", func() ([]*plumbing.Reference, error) {
		return remote.ListContext(ctx, &git.ListOptions{Auth: auth})
	})
}

func cloneWithRetries(ctx context.Context, dir string, opts *git.CloneOptions) (*git.Repository, error) {
	return withTransportRetries(ctx, "clone", func() (*git.Repository, error) {
		repo, err := git.PlainCloneContext(ctx, dir, false, opts)
		if err != nil {
			// A failed clone can leave partial state behind.
			_ = os.RemoveAll(dir)
		}
		return repo, err
	})
}

func commitFromObject(commit *object.Commit) *entities.Commit {
	id := commit.Hash.String()
	title := commit.Message
	if idx := strings.IndexByte(title, '\n'); idx != -1 {
		title = title[:idx]
	}
	return &entities.Commit{
		ID:             id,
		ShortID:        id[:8],
		AuthorName:     commit.Author.Name,
		AuthorEmail:    commit.Author.Email,
		CommitterName:  commit.Committer.Name,
		CommitterEmail: commit.Committer.Email,
		Message:        commit.Message,
		Title:          strings.TrimSpace(title),
		CreatedAt:      commit.Committer.When,
	}
}
