package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/linkstash/internal/facade"
)

func newCollectionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collection",
		Aliases: []string{"col"},
		Short:   "Manage collections",
	}
	cmd.AddCommand(newCollectionCreateCmd())
	cmd.AddCommand(newCollectionRenameCmd())
	cmd.AddCommand(newCollectionDeleteCmd())
	cmd.AddCommand(newCollectionReorderCmd())
	return cmd
}

func newCollectionCreateCmd() *cobra.Command {
	var (
		color     string
		workspace string
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFacade(cmd.Context(), func(f *facade.Facade) error {
				col, err := f.AddCollection(cmd.Context(), args[0], color, workspace)
				if err != nil {
					return err
				}
				fmt.Printf("created collection %s (%s)\n", col.Name, col.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&color, "color", "", "hex color, e.g. #ff8800")
	cmd.Flags().StringVarP(&workspace, "workspace", "w", "", "workspace ID (default workspace when omitted)")
	return cmd
}

func newCollectionRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a collection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFacade(cmd.Context(), func(f *facade.Facade) error {
				if err := f.RenameCollection(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Printf("renamed %s to %q\n", args[0], args[1])
				return nil
			})
		},
	}
}

func newCollectionDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a collection; its links move to the Inbox",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFacade(cmd.Context(), func(f *facade.Facade) error {
				moved, err := f.RemoveCollection(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Printf("deleted %s, moved %d link(s) to the Inbox\n", args[0], moved)
				return nil
			})
		},
	}
}

func newCollectionReorderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <id>...",
		Short: "Set the display order of collections",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFacade(cmd.Context(), func(f *facade.Facade) error {
				if err := f.ReorderCollections(cmd.Context(), args); err != nil {
					return err
				}
				fmt.Println("collections reordered")
				return nil
			})
		},
	}
}
