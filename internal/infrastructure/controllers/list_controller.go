package controllers

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kathra-project/sourcemanager/internal/domain/entities"
)

// ListController handles the "list" subcommand.
type ListController struct {
	factory *ServiceFactory
}

// NewListController creates a new ListController.
func NewListController(factory *ServiceFactory) *ListController {
	return &ListController{factory: factory}
}

// GetBind returns the Cobra command metadata for the list controller.
func (it *ListController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "list [folder-path]",
		Short: "List folders or the repositories inside a folder",
		Long: `Without an argument, list every folder visible to the acting
user. With a folder path, list the source repositories it contains.
With --branches, list the branches and tags of a repository instead.`,
	}
}

// Execute lists folders, repositories or branches.
func (it *ListController) Execute(cmd *cobra.Command, args []string) {
	branchesOf, _ := cmd.Flags().GetString("branches")

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

	ctx := context.Background()
	switch {
	case branchesOf != "":
		branches, listErr := service.ListBranches(ctx, branchesOf)
		if listErr != nil {
			logger.Errorf("Listing branches of %q failed: %v", branchesOf, listErr)
			return
		}
		for _, branch := range branches {
			fmt.Println(branch)
		}
	case len(args) == 0:
		folders, listErr := service.ListFolders(ctx)
		if listErr != nil {
			logger.Errorf("Listing folders failed: %v", listErr)
			return
		}
		for _, folder := range folders {
			fmt.Println(folder.Path)
		}
	default:
		repos, listErr := service.ListSourceRepositories(ctx, args[0])
		if listErr != nil {
			logger.Errorf("Listing repositories of %q failed: %v", args[0], listErr)
			return
		}
		for _, repo := range repos {
			fmt.Printf("%s\t%s\n", repo.Path, repo.HTTPURL)
		}
	}
}

// AddFlags adds the list-specific flags to the given Cobra command.
func (it *ListController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().String("branches", "", "List the branches and tags of this repository path")
}
