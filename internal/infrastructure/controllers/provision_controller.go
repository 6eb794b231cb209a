package controllers

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kathra-project/sourcemanager/internal/domain/entities"
)

// ProvisionController handles the "provision" subcommand.
type ProvisionController struct {
	factory *ServiceFactory
}

// NewProvisionController creates a new ProvisionController.
func NewProvisionController(factory *ServiceFactory) *ProvisionController {
	return &ProvisionController{factory: factory}
}

// GetBind returns the Cobra command metadata for the provision controller.
func (it *ProvisionController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "provision <repository-path>",
		Short: "Provision a source repository",
		Long: `Create the folder hierarchy and the source repository at the
given path, guarantee the "dev" branch exists and enable the
requested deploy keys.

The operation is idempotent: existing folders are reused and an
existing repository with the same name is adopted instead of
failing.`,
	}
}

// Execute provisions the repository at args[0].
func (it *ProvisionController) Execute(cmd *cobra.Command, args []string) {
	if len(args) != 1 {
		logger.Error("provision requires exactly one repository path")
		return
	}
	path := args[0]
	deployKeys, _ := cmd.Flags().GetStringArray("deploy-key")

	cfg, err := loadConfig(cmd)
	if err != nil {
		logger.Errorf("failed to load config: %v", err)
		return
	}
	service, err := it.factory.Build(cfg, actingUser(cmd))
	if err != nil {
		logger.Errorf("failed to build service: %v", err)
		return
	}

	repo, err := service.CreateSourceRepository(context.Background(), path, deployKeys)
	if err != nil {
		logger.Errorf("Provisioning of %q failed: %v", path, err)
		return
	}
	logger.Infof("Provisioned %s (%s)", repo.Path, repo.HTTPURL)
}

// AddFlags adds the provision-specific flags to the given Cobra command.
func (it *ProvisionController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringArray("deploy-key", nil,
		"Title of an existing deploy key to enable on the repository (repeatable)")
}
