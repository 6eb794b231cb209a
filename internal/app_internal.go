package internal

import (
	"github.com/kathra-project/sourcemanager/internal/domain/entities"
)

// AppInternal aggregates the controllers exposed as CLI subcommands.
type AppInternal struct {
	controllers *[]entities.Controller
}

// NewAppInternal creates the application context from the controller slice.
func NewAppInternal(controllers *[]entities.Controller) *AppInternal {
	return &AppInternal{controllers: controllers}
}

// GetControllers returns all registered controllers.
func (it *AppInternal) GetControllers() []entities.Controller {
	return *it.controllers
}
