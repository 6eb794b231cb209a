package controllers

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kathra-project/sourcemanager/internal/application"
	"github.com/kathra-project/sourcemanager/internal/domain/entities"
)

// PushController handles the "push" subcommand.
type PushController struct {
	factory *ServiceFactory
}

// NewPushController creates a new PushController.
func NewPushController(factory *ServiceFactory) *PushController {
	return &PushController{factory: factory}
}

// GetBind returns the Cobra command metadata for the push controller.
func (it *PushController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "push <repository-path>",
		Short: "Commit and push a payload to a repository branch",
		Long: `Clone the repository branch, apply a local file or archive to the
working tree, commit as the acting user and push.

With --unpack the payload is extracted as a zip archive, otherwise
it is copied to --target. With --tag the given tag is moved to the
new commit and force-pushed. A payload producing no change fails.`,
	}
}

// Execute commits the payload to the repository at args[0].
func (it *PushController) Execute(cmd *cobra.Command, args []string) {
	if len(args) != 1 {
		logger.Error("push requires exactly one repository path")
		return
	}
	path := args[0]
	branch, _ := cmd.Flags().GetString("branch")
	payload, _ := cmd.Flags().GetString("file")
	target, _ := cmd.Flags().GetString("target")
	unpack, _ := cmd.Flags().GetBool("unpack")
	tag, _ := cmd.Flags().GetString("tag")
	replace, _ := cmd.Flags().GetBool("replace")
	message, _ := cmd.Flags().GetString("message")

	if payload == "" {
		logger.Error("push requires --file")
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

	commit, err := service.CreateCommit(context.Background(), path, branch, application.CommitOptions{
		PayloadPath:    payload,
		TargetPath:     target,
		Unpack:         unpack,
		Tag:            tag,
		ReplaceContent: replace,
		Message:        message,
	})
	if err != nil {
		if entities.IsKind(err, entities.ErrNoChanges) {
			logger.Warnf("Nothing to commit on %s@%s", path, branch)
			return
		}
		logger.Errorf("Push to %q failed: %v", path, err)
		return
	}
	logger.Infof("Pushed %s to %s@%s", commit.ShortID, path, branch)
}

// AddFlags adds the push-specific flags to the given Cobra command.
func (it *PushController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().String("branch", "dev", "Branch to commit to")
	cmd.Flags().StringP("file", "f", "", "Local payload file or zip archive")
	cmd.Flags().String("target", "", "Destination path inside the tree for a plain file")
	cmd.Flags().Bool("unpack", false, "Extract the payload as a zip archive")
	cmd.Flags().String("tag", "", "Tag to set on the new commit and force-push")
	cmd.Flags().Bool("replace", false, "Wipe tracked content before applying the payload")
	cmd.Flags().StringP("message", "m", "", "Commit message")
}
