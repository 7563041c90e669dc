package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/narwhalmedia/fantasycards/internal/catalog/service"
)

func newSearchCmd(root *rootOptions) *cobra.Command {
	var (
		scope  string
		output string
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search movies, TV and books by title",
		Example: `  catalog search "wheel of time"
  catalog search --type books -o json earthsea`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := service.ParseSearchScope(scope)
			if err != nil {
				return err
			}
			if output != "yaml" && output != "json" {
				return fmt.Errorf("unknown output format %q", output)
			}

			c, cleanup, err := root.bootstrap()
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := c.Service.Search(cmd.Context(), strings.Join(args, " "), sc)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if output == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(res)
		},
	}

	cmd.Flags().StringVarP(&scope, "type", "t", "all", "Catalogs to search: all, movies, tv or books")
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "Output format: yaml or json")

	return cmd
}
