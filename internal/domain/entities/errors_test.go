//go:build unit

package entities_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kathra-project/sourcemanager/internal/domain/entities"
)

func TestErrors(t *testing.T) {
	t.Parallel()

	t.Run("should classify errors by kind through wrapping", func(t *testing.T) {
		// given
		cause := errors.New("404 not found")
		err := entities.NewError(entities.ErrNotFound, "kathra-projects/app", "unable to find project", cause)
		wrapped := fmt.Errorf("operation failed: %w", err)

		// when / then
		assert.True(t, entities.IsKind(wrapped, entities.ErrNotFound))
		assert.False(t, entities.IsKind(wrapped, entities.ErrConflict))
		assert.Equal(t, entities.ErrNotFound, entities.KindOf(wrapped))
		assert.ErrorIs(t, wrapped, cause)
	})

	t.Run("should include path and message in the rendering", func(t *testing.T) {
		// given
		err := entities.NewError(entities.ErrForbidden, "kathra-projects/app", "access denied", nil)

		// when / then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "kathra-projects/app")
		assert.Contains(t, err.Error(), "access denied")
	})

	t.Run("should report no kind for foreign errors", func(t *testing.T) {
		// given
		err := errors.New("plain")

		// when / then
		assert.False(t, entities.IsKind(err, entities.ErrNotFound))
		assert.Empty(t, entities.KindOf(err))
	})
}
