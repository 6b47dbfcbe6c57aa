package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/linkstash/internal/facade"
	"github.com/mesh-intelligence/linkstash/internal/tabs"
	"github.com/mesh-intelligence/linkstash/pkg/types"
)

func newStashCmd() *cobra.Command {
	var (
		title      string
		favicon    string
		collection string
	)

	cmd := &cobra.Command{
		Use:   "stash <url>",
		Short: "Save a link into a collection",
		Long:  "Save a link into the named collection, or into the Inbox when none is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// The CLI has no live browser; the argument stands in for
			// the host's current-tab query.
			provider := &tabs.Static{}
			if len(args) == 1 {
				provider.Tab = types.Tab{URL: args[0], Title: title, Favicon: favicon}
			}

			return withFacade(cmd.Context(), func(f *facade.Facade) error {
				link, err := f.StashTab(cmd.Context(), provider, collection)
				if err != nil {
					return err
				}
				if flags.jsonMode {
					return json.NewEncoder(os.Stdout).Encode(link)
				}
				fmt.Printf("stashed %s into %s\n", link.URL, link.CollectionID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "link title")
	cmd.Flags().StringVar(&favicon, "favicon", "", "favicon URL")
	cmd.Flags().StringVarP(&collection, "collection", "c", "", "target collection ID (default: inbox)")
	return cmd
}

func newMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <link-id> <collection-id>",
		Short: "Move a link to another collection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFacade(cmd.Context(), func(f *facade.Facade) error {
				if err := f.MoveLink(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Printf("moved %s to %s\n", args[0], args[1])
				return nil
			})
		},
	}
}
