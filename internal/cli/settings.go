package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/linkstash/internal/facade"
)

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFacade(cmd.Context(), func(f *facade.Facade) error {
				if flags.jsonMode {
					return json.NewEncoder(os.Stdout).Encode(f.State().Settings)
				}
				s := f.State().Settings
				fmt.Printf("replace-new-tab: %v\n", s.ReplaceNewTab)
				return nil
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set replace-new-tab <true|false>",
		Short: "Toggle whether the dashboard replaces the new-tab page",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] != "replace-new-tab" {
				return fmt.Errorf("unknown setting %q", args[0])
			}
			return withFacade(cmd.Context(), func(f *facade.Facade) error {
				s := f.State().Settings
				s.ReplaceNewTab = args[1] == "true"
				return f.UpdateSettings(cmd.Context(), s)
			})
		},
	})
	return cmd
}
