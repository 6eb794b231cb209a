//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/kathra-project/sourcemanager/internal/domain/entities"
	"github.com/kathra-project/sourcemanager/internal/domain/repositories"
)

// SpyWorkspaceSession implements repositories.WorkspaceSession as a
// configurable spy recording the orchestration order of a commit flow.
type SpyWorkspaceSession struct {
	// --- Clone ---
	CloneErr error
	// spy: clone arguments
	ClonedBranch      string
	ClonedURL         string
	ClonedWithTags    bool
	ClonedCredentials repositories.Credentials

	// --- content mutation ---
	ReplaceErr error
	UnpackErr  error
	CopyErr    error
	// spy
	ReplaceCalled bool
	UnpackedPath  string
	CopiedSource  string
	CopiedTarget  string

	// --- ReadFile ---
	FileContent []byte
	ReadErr     error

	// --- Commit ---
	CreatedCommit *entities.Commit
	CommitErr     error
	// spy
	CommittedUser    string
	CommittedMessage string

	// --- Tag / Push ---
	TagErr      error
	PushErr     error
	PushTagsErr error
	// spy
	TaggedName      string
	TaggedForce     bool
	Pushed          bool
	PushedTags      bool
	PushedTagsForce bool

	// --- Close ---
	Closed bool
}

var _ repositories.WorkspaceSession = (*SpyWorkspaceSession)(nil)

func (s *SpyWorkspaceSession) Clone(
	_ context.Context, _, branch string, creds repositories.Credentials, url string, includeTags bool,
) error {
	s.ClonedBranch = branch
	s.ClonedURL = url
	s.ClonedWithTags = includeTags
	s.ClonedCredentials = creds
	return s.CloneErr
}

func (s *SpyWorkspaceSession) ReplaceContent() error {
	s.ReplaceCalled = true
	return s.ReplaceErr
}

func (s *SpyWorkspaceSession) Unpack(archivePath string) error {
	s.UnpackedPath = archivePath
	return s.UnpackErr
}

func (s *SpyWorkspaceSession) CopyFile(sourcePath, targetPath string) error {
	s.CopiedSource = sourcePath
	s.CopiedTarget = targetPath
	return s.CopyErr
}

func (s *SpyWorkspaceSession) ReadFile(_ string) ([]byte, error) {
	return s.FileContent, s.ReadErr
}

func (s *SpyWorkspaceSession) Commit(username, message string) (*entities.Commit, error) {
	s.CommittedUser = username
	s.CommittedMessage = message
	if s.CommitErr != nil {
		return nil, s.CommitErr
	}
	if s.CreatedCommit != nil {
		return s.CreatedCommit, nil
	}
	return &entities.Commit{ID: "deadbeefdeadbeef", ShortID: "deadbeef", Message: message}, nil
}

func (s *SpyWorkspaceSession) Tag(name string, force bool) error {
	s.TaggedName = name
	s.TaggedForce = force
	return s.TagErr
}

func (s *SpyWorkspaceSession) Push(_ context.Context, _ repositories.Credentials) error {
	s.Pushed = true
	return s.PushErr
}

func (s *SpyWorkspaceSession) PushTags(_ context.Context, _ repositories.Credentials, force bool) error {
	s.PushedTags = true
	s.PushedTagsForce = force
	return s.PushTagsErr
}

func (s *SpyWorkspaceSession) Close() {
	s.Closed = true
}

// StubWorkspaceRepository hands out a fixed session.
type StubWorkspaceRepository struct {
	Session    *SpyWorkspaceSession
	SessionErr error
}

var _ repositories.WorkspaceRepository = (*StubWorkspaceRepository)(nil)

func (r *StubWorkspaceRepository) NewSession() (repositories.WorkspaceSession, error) {
	if r.SessionErr != nil {
		return nil, r.SessionErr
	}
	return r.Session, nil
}
