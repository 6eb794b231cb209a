package controllers

import (
	"context"
	"os"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kathra-project/sourcemanager/internal/domain/entities"
)

// FileController handles the "get-file" subcommand.
type FileController struct {
	factory *ServiceFactory
}

// NewFileController creates a new FileController.
func NewFileController(factory *ServiceFactory) *FileController {
	return &FileController{factory: factory}
}

// GetBind returns the Cobra command metadata for the file controller.
func (it *FileController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "get-file <repository-path> <branch> <file>",
		Short: "Print the content of a file at a branch",
		Long: `Clone the repository at the given branch (or tag) and write the
content of the file to standard output.`,
	}
}

// Execute prints the file at args[2] from args[0]@args[1].
func (it *FileController) Execute(cmd *cobra.Command, args []string) {
	if len(args) != 3 {
		logger.Error("get-file requires a repository path, a branch and a file path")
		return
	}

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

	content, err := service.GetFile(context.Background(), args[0], args[1], args[2])
	if err != nil {
		logger.Errorf("Reading %s from %s@%s failed: %v", args[2], args[0], args[1], err)
		return
	}
	_, _ = os.Stdout.Write(content)
}
