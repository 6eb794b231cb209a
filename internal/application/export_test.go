package application

import "time"

// SetBranchEnsureBaseWait overrides the branch retry backoff for testing.
func SetBranchEnsureBaseWait(wait time.Duration) {
	branchEnsureBaseWait = wait
}

// BranchEnsureBaseWait returns the current branch retry backoff base.
func BranchEnsureBaseWait() time.Duration {
	return branchEnsureBaseWait
}

// BranchEnsureWait exposes the backoff schedule for testing.
func BranchEnsureWait(attempt int) time.Duration {
	return branchEnsureWait(attempt)
}
