package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newCatalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the installable packages",
		Long: `List the catalog packages a request may select, with the framework
module each one registers. Packages without a module are installed but not
registered.`,
		Example: `  # Built-in catalog
  scaffolder catalog

  # Catalog from a config file, as JSON
  scaffolder catalog -c scaffolder.yaml --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			rows := a.catalog.Catalog().Entries()

			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), rows)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PACKAGE\tMODULE")
			for _, r := range rows {
				module := r.Module
				if module == "" {
					module = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\n", r.Package, module)
			}
			return tw.Flush()
		},
	}

	return cmd
}
