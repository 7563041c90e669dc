package main

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/narwhalmedia/fantasycards/internal/container"
)

func newSitemapCmd(root *rootOptions) *cobra.Command {
	var (
		output string
		bucket string
	)

	cmd := &cobra.Command{
		Use:   "sitemap",
		Short: "Generate sitemap.xml",
		Long: `Generates the site's sitemap from the static pages, the first page of
fantasy movies and the fantasy book subject, then writes it to a local
file or uploads it to S3 when a bucket is configured.`,
		Example: `  catalog sitemap --output public/sitemap.xml
  catalog sitemap --bucket my-site-assets`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cleanup, err := root.bootstrap()
			if err != nil {
				return err
			}
			defer cleanup()

			cfg := c.Config.Sitemap
			if output != "" {
				cfg.Output = output
			}
			if bucket != "" {
				cfg.Bucket = bucket
			}

			ctx := cmd.Context()
			doc, err := c.Sitemap.Render(ctx)
			if err != nil {
				return err
			}

			store, key, err := container.NewSitemapStore(ctx, cfg, c.Logger)
			if err != nil {
				return err
			}
			if err := store.Put(ctx, key, "application/xml", bytes.NewReader(doc)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), store.Location(key))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Local output path (default from config)")
	cmd.Flags().StringVar(&bucket, "bucket", "", "S3 bucket to upload to instead of a local file")

	return cmd
}
