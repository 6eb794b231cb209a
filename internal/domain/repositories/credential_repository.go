package repositories

import "context"

// CredentialRepository obtains a provider access token scoped to a
// specific platform user (an impersonation token), creating one if none
// exists. Implementations reuse a previously created token when a
// non-revoked one with the reserved name is found.
type CredentialRepository interface {
	Token(ctx context.Context, username string) (string, error)
}
