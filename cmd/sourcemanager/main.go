package main

import (
	"os"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kathra-project/sourcemanager/internal"
)

// flagBinder is implemented by controllers carrying subcommand flags.
type flagBinder interface {
	AddFlags(cmd *cobra.Command)
}

func buildRootCommand() *cobra.Command {
	//nolint:exhaustruct // Minimal Command initialization with required fields only
	cmd := &cobra.Command{
		Use:   "sourcemanager",
		Short: "Repository provisioning and synchronization engine",
		Long: `Manage GitLab-hosted source repositories for an automation platform:
create folder hierarchies, provision repositories with deploy keys,
commit and push generated content, and synchronize memberships.

Every operation runs as a platform user through a delegated
impersonation token, inside a single managed root group.`,
		PersistentPreRun: func(command *cobra.Command, _ []string) {
			if verbose, _ := command.Flags().GetBool("verbose"); verbose {
				logger.SetLevel(logger.DebugLevel)
			}
		},
		RunE: func(command *cobra.Command, _ []string) error {
			return command.Help()
		},
	}

	// Global persistent flags
	cmd.PersistentFlags().StringP("config", "c", "",
		"Path to config file (default: auto-detect)")
	cmd.PersistentFlags().StringP("user", "u", "",
		"Platform username the operation runs as")
	cmd.PersistentFlags().BoolP("verbose", "v", false,
		"Enable verbose output")

	return cmd
}

func addSubcommands(rootCmd *cobra.Command, appContext *internal.AppInternal) {
	for _, controller := range appContext.GetControllers() {
		bind := controller.GetBind()
		ctrl := controller // capture for closure
		//nolint:exhaustruct // Minimal Command initialization with required fields only
		subCmd := &cobra.Command{
			Use:   bind.Use,
			Short: bind.Short,
			Long:  bind.Long,
			Run: func(command *cobra.Command, arguments []string) {
				ctrl.Execute(command, arguments)
			},
		}

		// Add controller-specific flags
		if binder, ok := ctrl.(flagBinder); ok {
			binder.AddFlags(subCmd)
		}

		rootCmd.AddCommand(subCmd)
	}
}

func main() {
	//nolint:exhaustruct // Minimal TextFormatter initialization with required fields only
	logger.SetFormatter(&logger.TextFormatter{
		ForceColors:   true,
		FullTimestamp: true,
	})
	if os.Getenv("DEBUG") == "true" {
		logger.SetLevel(logger.DebugLevel)
	}

	cobraRoot := buildRootCommand()

	// Inject controllers via DIG
	appContext := injectAppContext()
	addSubcommands(cobraRoot, appContext)

	if err := cobraRoot.Execute(); err != nil {
		logger.Fatalf("Error executing 'sourcemanager': %s", err)
	}
}
