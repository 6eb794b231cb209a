package controllers

import (
	"github.com/spf13/cobra"

	"github.com/kathra-project/sourcemanager/config"
	"github.com/kathra-project/sourcemanager/internal/application"
	"github.com/kathra-project/sourcemanager/internal/domain/entities"
	"github.com/kathra-project/sourcemanager/internal/infrastructure/repositories/gitlab"
	"github.com/kathra-project/sourcemanager/internal/infrastructure/repositories/gitworkspace"
)

// ServiceFactory assembles a SourceManagerService for one acting user.
// Controllers build services at execution time because the config path
// and the acting user come from command flags.
type ServiceFactory struct{}

// NewServiceFactory creates a new ServiceFactory.
func NewServiceFactory() *ServiceFactory {
	return &ServiceFactory{}
}

// Build wires the provider, credential delegate and workspace layers
// into a service acting as username.
func (it *ServiceFactory) Build(cfg *config.Config, username string) (*application.SourceManagerService, error) {
	session := entities.StaticSession{Caller: username}
	delegate, err := gitlab.NewTokenDelegate(cfg)
	if err != nil {
		return nil, err
	}
	provider, err := gitlab.NewGitLabRepository(cfg, session, delegate)
	if err != nil {
		return nil, err
	}
	workspaces := gitworkspace.NewGitWorkspaceRepository(cfg)
	return application.NewSourceManagerService(provider, delegate, workspaces, session, cfg.RootGroup), nil
}

// BuildRefresher wires a token refresher for the configured technical users.
func (it *ServiceFactory) BuildRefresher(cfg *config.Config) (*application.TokenRefresher, error) {
	delegate, err := gitlab.NewTokenDelegate(cfg)
	if err != nil {
		return nil, err
	}
	return application.NewTokenRefresher(
		delegate,
		cfg.TokenRefresh.TechnicalUsers,
		cfg.TokenRefresh.Interval.Std(),
	), nil
}

// loadConfig resolves the config file from the --config flag or the
// default search locations.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		var err error
		path, err = config.FindConfigFile()
		if err != nil {
			return nil, err
		}
	}
	return config.Load(path)
}

// actingUser returns the username the operation runs as.
func actingUser(cmd *cobra.Command) string {
	username, _ := cmd.Flags().GetString("user")
	return username
}
