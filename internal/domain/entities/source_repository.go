package entities

// SourceRepository is the platform abstraction over a hosting provider
// project. Path is parent folder plus name and is unique; ProviderID is
// assigned by the remote and immutable once set.
type SourceRepository struct {
	Name       string
	Path       string
	Provider   string // Fixed backend identifier, "gitlab"
	ProviderID string
	HTTPURL    string
	SSHURL     string
	WebURL     string
}
