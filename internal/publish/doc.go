// Package publish uploads a build output directory to an S3 bucket.
//
// Hashed load units and assets are uploaded first with an immutable
// Cache-Control header. index.html, manifest.json and units.json are
// uploaded last with no-cache, so a client never receives a shell that
// references a unit that is not there yet.
//
//	client, err := publish.NewS3Client(cfg.Publish)
//	p := publish.New(client, publish.Options{Bucket: cfg.Publish.Bucket})
//	result, err := p.Publish(ctx, cfg.OutputPath())
package publish
