package controllers

import (
	"github.com/kathra-project/sourcemanager/internal/domain/entities"
	"go.uber.org/dig"
)

// RegisterProviders registers all controller providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	// Register controller constructors
	if err := container.Provide(NewServiceFactory); err != nil {
		return err
	}
	if err := container.Provide(NewProvisionController); err != nil {
		return err
	}
	if err := container.Provide(NewPushController); err != nil {
		return err
	}
	if err := container.Provide(NewMembersController); err != nil {
		return err
	}
	if err := container.Provide(NewListController); err != nil {
		return err
	}
	if err := container.Provide(NewFileController); err != nil {
		return err
	}
	if err := container.Provide(NewRefreshController); err != nil {
		return err
	}
	if err := container.Provide(NewControllers); err != nil {
		return err
	}

	return nil
}

// NewControllers aggregates all controllers into a slice for the AppInternal.
func NewControllers(
	provisionController *ProvisionController,
	pushController *PushController,
	membersController *MembersController,
	listController *ListController,
	fileController *FileController,
	refreshController *RefreshController,
) *[]entities.Controller {
	return &[]entities.Controller{
		provisionController,
		pushController,
		membersController,
		listController,
		fileController,
		refreshController,
	}
}
