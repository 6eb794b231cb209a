package controllers

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kathra-project/sourcemanager/internal/domain/entities"
)

// RefreshController handles the "refresh-tokens" subcommand.
type RefreshController struct {
	factory *ServiceFactory
}

// NewRefreshController creates a new RefreshController.
func NewRefreshController(factory *ServiceFactory) *RefreshController {
	return &RefreshController{factory: factory}
}

// GetBind returns the Cobra command metadata for the refresh controller.
func (it *RefreshController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "refresh-tokens",
		Short: "Keep impersonation tokens of technical users refreshed",
		Long: `Run the token refresh loop for the technical users listed in the
configuration, on the configured interval, until interrupted.

Intended to run as a long-lived sidecar so that automated pipeline
accounts always hold a valid impersonation token.`,
	}
}

// Execute runs the refresh loop until SIGINT or SIGTERM.
func (it *RefreshController) Execute(cmd *cobra.Command, _ []string) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		logger.Errorf("failed to load config: %v", err)
		return
	}
	refresher, err := it.factory.BuildRefresher(cfg)
	if err != nil {
		logger.Errorf("failed to build refresher: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	refresher.Start(ctx)
	logger.Infof("Token refresher started (interval %s)", cfg.TokenRefresh.Interval.Std())

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals

	logger.Info("Stopping token refresher...")
	refresher.Stop()
}
