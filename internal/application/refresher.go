package application

import (
	"context"
	"time"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/kathra-project/sourcemanager/internal/domain/repositories"
)

const refreshConcurrency = 4

// TokenRefresher keeps the impersonation tokens of a fixed set of
// technical users warm by re-requesting them on a period. Individual
// refresh failures are logged and never stop the loop.
type TokenRefresher struct {
	delegate repositories.CredentialRepository
	users    []string
	interval time.Duration

	stop chan struct{}
	done chan struct{}
}

// NewTokenRefresher creates a refresher for the given technical users.
func NewTokenRefresher(delegate repositories.CredentialRepository, users []string, interval time.Duration) *TokenRefresher {
	return &TokenRefresher{
		delegate: delegate,
		users:    users,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the refresh loop. It refreshes once immediately, then
// on every interval tick until Stop is called or ctx is canceled.
func (t *TokenRefresher) Start(ctx context.Context) {
	go func() {
		defer close(t.done)
		if len(t.users) == 0 {
			logger.Debug("No technical users configured, token refresher idle")
			return
		}

		t.refreshAll(ctx)
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.stop:
				return
			case <-ticker.C:
				t.refreshAll(ctx)
			}
		}
	}()
}

// Stop terminates the refresh loop and waits for it to exit.
func (t *TokenRefresher) Stop() {
	close(t.stop)
	<-t.done
}

func (t *TokenRefresher) refreshAll(ctx context.Context) {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(refreshConcurrency)
	for _, username := range t.users {
		group.Go(func() error {
			if _, err := t.delegate.Token(groupCtx, username); err != nil {
				logger.Warnf("Token refresh for %q failed: %v", username, err)
			}
			return nil
		})
	}
	_ = group.Wait()
	logger.Debugf("Refreshed tokens for %d technical users", len(t.users))
}
