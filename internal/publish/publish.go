package publish

import (
	"bytes"
	"context"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/waypoint/internal/errors"
)

// Cache-Control values.
const (
	CacheImmutable = "public, max-age=31536000, immutable"
	CacheNoCache   = "no-cache"
)

// DefaultConcurrency is the number of parallel uploads.
const DefaultConcurrency = 8

// PutObjectAPI is the part of *s3.Client the publisher uses.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Options configures a Publisher.
type Options struct {
	// Bucket is the destination bucket. Required.
	Bucket string

	// Prefix is prepended to every key.
	Prefix string

	// Concurrency bounds parallel uploads (default: DefaultConcurrency).
	Concurrency int

	// DryRun plans the upload without calling PutObject.
	DryRun bool

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// OnUpload is called after each object is uploaded.
	OnUpload func(obj Object)
}

// Object is one file of the build output and where it goes.
type Object struct {
	Key          string
	Path         string
	ContentType  string
	CacheControl string
	Size         int64
}

// Result summarizes a publish.
type Result struct {
	Objects  []Object
	Bytes    int64
	Duration time.Duration
}

// Publisher uploads build output.
type Publisher struct {
	client  PutObjectAPI
	options Options
	logger  *slog.Logger
}

// New creates a publisher that uploads through client.
func New(client PutObjectAPI, options Options) *Publisher {
	if options.Concurrency <= 0 {
		options.Concurrency = DefaultConcurrency
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		client:  client,
		options: options,
		logger:  logger.With("component", "publish"),
	}
}

// Plan lists the objects Publish would upload from outputDir, hashed files
// first and the shell and manifests last. Within each group keys are sorted.
func (p *Publisher) Plan(outputDir string) ([]Object, error) {
	if p.options.Bucket == "" {
		return nil, errors.New("E401").WithDetail("no bucket configured (publish.bucket or WAYPOINT_PUBLISH_BUCKET)")
	}
	if _, err := os.Stat(filepath.Join(outputDir, "units.json")); err != nil {
		return nil, errors.New("E401").
			WithDetailf("%s is not a build output", outputDir).
			WithSuggestion("Run 'waypoint build' first.").
			Wrap(err)
	}

	var objects []Object
	err := filepath.WalkDir(outputDir, func(file string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(outputDir, file)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		objects = append(objects, Object{
			Key:          p.key(rel),
			Path:         file,
			ContentType:  ContentType(rel),
			CacheControl: CacheControl(rel),
			Size:         info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, errors.New("E401").Wrap(err)
	}

	sort.Slice(objects, func(i, j int) bool {
		ri, rj := objects[i].CacheControl == CacheNoCache, objects[j].CacheControl == CacheNoCache
		if ri != rj {
			return !ri
		}
		return objects[i].Key < objects[j].Key
	})
	return objects, nil
}

func (p *Publisher) key(rel string) string {
	prefix := strings.Trim(p.options.Prefix, "/")
	if prefix == "" {
		return rel
	}
	return path.Join(prefix, rel)
}

// Publish uploads outputDir. Hashed files are uploaded in parallel; the
// no-cache files follow once every hashed file succeeded.
func (p *Publisher) Publish(ctx context.Context, outputDir string) (*Result, error) {
	start := time.Now()
	objects, err := p.Plan(outputDir)
	if err != nil {
		return nil, err
	}

	split := sort.Search(len(objects), func(i int) bool {
		return objects[i].CacheControl == CacheNoCache
	})

	var uploaded atomic.Int64
	for _, batch := range [][]Object{objects[:split], objects[split:]} {
		if err := p.upload(ctx, batch, &uploaded); err != nil {
			return nil, err
		}
	}

	result := &Result{
		Objects:  objects,
		Bytes:    uploaded.Load(),
		Duration: time.Since(start),
	}
	p.logger.Info("published",
		"bucket", p.options.Bucket,
		"objects", len(objects),
		"bytes", result.Bytes,
		"dry_run", p.options.DryRun)
	return result, nil
}

func (p *Publisher) upload(ctx context.Context, objects []Object, uploaded *atomic.Int64) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.options.Concurrency)
	for _, obj := range objects {
		obj := obj
		g.Go(func() error {
			if err := p.put(ctx, obj); err != nil {
				return err
			}
			uploaded.Add(obj.Size)
			if p.options.OnUpload != nil {
				p.options.OnUpload(obj)
			}
			return nil
		})
	}
	return g.Wait()
}

func (p *Publisher) put(ctx context.Context, obj Object) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.options.DryRun {
		p.logger.Debug("dry run", "key", obj.Key, "size", obj.Size)
		return nil
	}

	data, err := os.ReadFile(obj.Path)
	if err != nil {
		return errors.New("E401").Wrap(err)
	}
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(p.options.Bucket),
		Key:          aws.String(obj.Key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(obj.ContentType),
		CacheControl: aws.String(obj.CacheControl),
	})
	if err != nil {
		return errors.New("E401").WithDetailf("upload %s", obj.Key).Wrap(err)
	}
	p.logger.Debug("uploaded", "key", obj.Key, "size", obj.Size)
	return nil
}

// CacheControl returns the Cache-Control header for an output file.
// Everything under assets/ carries a content hash in its name.
func CacheControl(rel string) string {
	if strings.HasPrefix(rel, "assets/") {
		return CacheImmutable
	}
	return CacheNoCache
}

// ContentType returns the MIME type for an output file.
func ContentType(rel string) string {
	if ct := mime.TypeByExtension(path.Ext(rel)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
