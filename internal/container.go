package internal

import (
	"github.com/kathra-project/sourcemanager/internal/domain/entities"
	"github.com/kathra-project/sourcemanager/internal/infrastructure/controllers"
	"go.uber.org/dig"
)

// RegisterProviders registers all internal providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	// Register all layers (bottom-up: domain entities -> controllers)
	if err := entities.RegisterProviders(container); err != nil {
		return err
	}
	if err := controllers.RegisterProviders(container); err != nil {
		return err
	}

	// Register the main app internal
	if err := container.Provide(NewAppInternal); err != nil {
		return err
	}

	return nil
}
