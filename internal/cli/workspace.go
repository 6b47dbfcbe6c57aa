package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/linkstash/internal/facade"
	"github.com/mesh-intelligence/linkstash/internal/repo"
)

func newWorkspaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workspace",
		Aliases: []string{"ws"},
		Short:   "Manage workspaces",
	}
	cmd.AddCommand(newWorkspaceListCmd())
	cmd.AddCommand(newWorkspaceCreateCmd())
	cmd.AddCommand(newWorkspaceRenameCmd())
	cmd.AddCommand(newWorkspaceDeleteCmd())
	cmd.AddCommand(newWorkspaceReorderCmd())
	return cmd
}

func newWorkspaceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List workspaces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFacade(cmd.Context(), func(f *facade.Facade) error {
				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tCOLOR\tDESCRIPTION")
				for _, ws := range f.State().Workspaces {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", ws.ID, ws.Name, ws.Color, ws.Description)
				}
				return w.Flush()
			})
		},
	}
}

func newWorkspaceCreateCmd() *cobra.Command {
	var (
		description string
		color       string
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFacade(cmd.Context(), func(f *facade.Facade) error {
				ws, err := f.AddWorkspace(cmd.Context(), repo.WorkspaceInput{
					Name:        args[0],
					Description: description,
					Color:       color,
				})
				if err != nil {
					return err
				}
				fmt.Printf("created workspace %s (%s)\n", ws.Name, ws.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "workspace description")
	cmd.Flags().StringVar(&color, "color", "#6366f1", "hex color")
	return cmd
}

func newWorkspaceRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a workspace",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFacade(cmd.Context(), func(f *facade.Facade) error {
				if err := f.RenameWorkspace(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Printf("renamed %s to %q\n", args[0], args[1])
				return nil
			})
		},
	}
}

func newWorkspaceDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a workspace; its collections move to the default workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFacade(cmd.Context(), func(f *facade.Facade) error {
				moved, err := f.RemoveWorkspace(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Printf("deleted %s, moved %d collection(s)\n", args[0], moved)
				return nil
			})
		},
	}
}

func newWorkspaceReorderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <id>...",
		Short: "Set the display order of workspaces",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFacade(cmd.Context(), func(f *facade.Facade) error {
				if err := f.ReorderWorkspaces(cmd.Context(), args); err != nil {
					return err
				}
				fmt.Println("workspaces reordered")
				return nil
			})
		},
	}
}
