package entities

import "time"

// Commit is a single revision, produced by a local commit or read from
// remote history, never mutated afterward.
type Commit struct {
	ID             string // Full hash
	ShortID        string // Abbreviated hash, 8 characters
	AuthorName     string
	AuthorEmail    string
	CommitterName  string
	CommitterEmail string
	Message        string
	Title          string // First line of the message
	CreatedAt      time.Time
}
