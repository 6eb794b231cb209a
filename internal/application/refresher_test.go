//go:build unit

package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kathra-project/sourcemanager/internal/application"
	doubles "github.com/kathra-project/sourcemanager/test/infrastructure/repositorydoubles"
)

func TestTokenRefresher(t *testing.T) {
	t.Parallel()

	t.Run("should refresh every technical user at least once", func(t *testing.T) {
		// given
		delegate := &doubles.StubCredentialRepository{}
		refresher := application.NewTokenRefresher(delegate, []string{"jenkins", "argo"}, time.Hour)

		// when
		refresher.Start(context.Background())
		require.Eventually(t, func() bool {
			return len(delegate.RequestedUsers()) >= 2
		}, time.Second, 5*time.Millisecond)
		refresher.Stop()

		// then
		assert.ElementsMatch(t, []string{"jenkins", "argo"}, delegate.RequestedUsers()[:2])
	})

	t.Run("should keep running when a refresh fails", func(t *testing.T) {
		// given
		delegate := &doubles.StubCredentialRepository{Err: errors.New("gitlab down")}
		refresher := application.NewTokenRefresher(delegate, []string{"jenkins"}, 5*time.Millisecond)

		// when
		refresher.Start(context.Background())
		require.Eventually(t, func() bool {
			return len(delegate.RequestedUsers()) >= 3
		}, time.Second, time.Millisecond)

		// then
		refresher.Stop()
	})

	t.Run("should stop promptly with no users configured", func(t *testing.T) {
		// given
		refresher := application.NewTokenRefresher(&doubles.StubCredentialRepository{}, nil, time.Hour)

		// when
		refresher.Start(context.Background())
		refresher.Stop()

		// then: Stop returned, nothing to assert
	})
}
