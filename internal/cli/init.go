package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/linkstash/internal/facade"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize linkstash storage",
		Long:  "Create configuration and data directories, initialize the storage backend, and ensure the Inbox and default workspace exist.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// withFacade runs Load, which ensures the reserved entities
			// and the one-shot workspace migration.
			return withFacade(cmd.Context(), func(f *facade.Facade) error {
				stats := f.Stats()
				fmt.Printf("linkstash initialized: %d collection(s), %d link(s)\n",
					stats.TotalCollections, stats.TotalLinks)
				return nil
			})
		},
	}
}
