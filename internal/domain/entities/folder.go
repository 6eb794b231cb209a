package entities

// Folder is the platform abstraction over a hosting provider group.
// Path is the slash-delimited hierarchical identifier and is unique.
type Folder struct {
	Path       string
	ProviderID string // Opaque remote group identifier
}
