package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/internal/publish"
)

func publishCmd() *cobra.Command {
	var (
		bucket      string
		prefix      string
		region      string
		endpoint    string
		concurrency int
		dryRun      bool
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Upload the build output to S3",
		Long: `Upload the build output to an S3 bucket.

Hashed units and assets are uploaded first and cached forever;
index.html, manifest.json and units.json follow with no-cache.
Credentials are read from AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY.

Examples:
  waypoint publish --bucket=my-site --region=eu-west-1
  waypoint publish --endpoint=http://localhost:9000 --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			for dst, src := range map[*string]string{
				&cfg.Publish.Bucket:   bucket,
				&cfg.Publish.Prefix:   prefix,
				&cfg.Publish.Region:   region,
				&cfg.Publish.Endpoint: endpoint,
			} {
				if src != "" {
					*dst = src
				}
			}

			client, err := publish.NewS3Client(cfg.Publish)
			if err != nil {
				return err
			}
			p := publish.New(client, publish.Options{
				Bucket:      cfg.Publish.Bucket,
				Prefix:      cfg.Publish.Prefix,
				Concurrency: concurrency,
				DryRun:      dryRun,
				OnUpload: func(obj publish.Object) {
					info("%s (%s)", obj.Key, humanize.Bytes(uint64(obj.Size)))
				},
			})

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			result, err := p.Publish(ctx, cfg.OutputPath())
			if err != nil {
				return err
			}
			fmt.Println()
			verb := "Published"
			if dryRun {
				verb = "Would publish"
			}
			success("%s %d objects (%s) to s3://%s in %s", verb, len(result.Objects),
				humanize.Bytes(uint64(result.Bytes)), cfg.Publish.Bucket, result.Duration.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVar(&bucket, "bucket", "", "Destination bucket (default from waypoint.json)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Key prefix")
	cmd.Flags().StringVar(&region, "region", "", "Bucket region")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "S3-compatible endpoint URL")
	cmd.Flags().IntVar(&concurrency, "concurrency", publish.DefaultConcurrency, "Parallel uploads")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List what would be uploaded")

	return cmd
}
