// Package cli implements the linkstash command-line interface, a thin
// surface over the reactive facade.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// exitUserError is the exit code for any failed command.
const exitUserError = 1

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	verbose   bool
}

var flags rootFlags

// NewRootCmd creates the top-level "linkstash" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "linkstash",
		Short: "Stash browser tabs into collections for later triage",
		Long: "Linkstash saves links into named collections, grouped by workspace.\n" +
			"The Inbox collection always exists and receives everything unsorted.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if flags.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: .linkstash)")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (default: .linkstash-db)")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVar(&flags.verbose, "verbose", false, "enable debug logging")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newStashCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newMoveCmd())
	root.AddCommand(newCollectionCmd())
	root.AddCommand(newWorkspaceCmd())
	root.AddCommand(newSettingsCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(exitUserError)
	}
}
