package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/linkstash/internal/facade"
)

func newListCmd() *cobra.Command {
	var showLinks bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List collections and their link counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFacade(cmd.Context(), func(f *facade.Facade) error {
				if flags.jsonMode {
					return json.NewEncoder(os.Stdout).Encode(f.State())
				}

				snap := f.State()
				counts := f.LinkCounts()
				groups := f.LinksByCollection()

				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tWORKSPACE\tLINKS")
				for _, c := range snap.Collections {
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", c.ID, c.Name, c.WorkspaceID, counts[c.ID])
					if showLinks {
						for _, l := range groups[c.ID] {
							fmt.Fprintf(w, "  %s\t%s\t%s\t\n", l.ID, l.Title, l.URL)
						}
					}
				}
				if err := w.Flush(); err != nil {
					return err
				}

				stats := f.Stats()
				fmt.Printf("\n%d links in %d collections", stats.TotalLinks, stats.TotalCollections)
				if !stats.LastSavedAt.IsZero() {
					fmt.Printf(", last saved %s", stats.LastSavedAt.Format("2006-01-02 15:04"))
				}
				fmt.Println()
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&showLinks, "links", "l", false, "show links under each collection")
	return cmd
}
