package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/narwhalmedia/fantasycards/internal/catalog/domain"
)

func newWarmCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "warm [kind...]",
		Short: "Aggregate catalogs and report their sizes",
		Long: `Aggregates the movie, tv and book catalogs (or only the kinds given) and
publishes a catalog.refreshed event for each to the configured broker.`,
		Example: `  catalog warm
  catalog warm books`,
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds := make([]domain.Kind, 0, len(args))
			for _, arg := range args {
				kind, err := domain.ParseKind(arg)
				if err != nil {
					return err
				}
				kinds = append(kinds, kind)
			}

			c, cleanup, err := root.bootstrap()
			if err != nil {
				return err
			}
			defer cleanup()

			counts, err := c.Service.Warm(cmd.Context(), kinds...)
			if err != nil {
				return err
			}
			for _, kind := range domain.Kinds {
				if n, ok := counts[kind]; ok {
					fmt.Fprintf(cmd.OutOrStdout(), "%-6s %d\n", kind, n)
				}
			}
			return nil
		},
	}
}
