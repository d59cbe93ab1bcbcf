package publish

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/waypoint/internal/config"
	"github.com/vango-dev/waypoint/internal/errors"
)

type put struct {
	Key          string
	Body         string
	ContentType  string
	CacheControl string
}

type fakeS3 struct {
	mu   sync.Mutex
	puts []put
	fail string
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	key := aws.ToString(in.Key)
	if key == f.fail {
		return nil, stderrors.New("access denied")
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, put{
		Key:          key,
		Body:         string(body),
		ContentType:  aws.ToString(in.ContentType),
		CacheControl: aws.ToString(in.CacheControl),
	})
	return &s3.PutObjectOutput{}, nil
}

func writeOutput(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range map[string]string{
		"index.html":                      "<!DOCTYPE html>",
		"manifest.json":                   "{}",
		"units.json":                      "{}",
		"assets/js/index-0a1b2c3d.js":     "/* index */\n",
		"assets/js/home-11223344.js":      "/* home */\n",
		"assets/images/logo-aabbccdd.png": "\x89PNG",
	} {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestPlanOrder(t *testing.T) {
	p := New(&fakeS3{}, Options{Bucket: "site", Prefix: "/docs/"})
	objects, err := p.Plan(writeOutput(t))
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		"docs/assets/images/logo-aabbccdd.png",
		"docs/assets/js/home-11223344.js",
		"docs/assets/js/index-0a1b2c3d.js",
		"docs/index.html",
		"docs/manifest.json",
		"docs/units.json",
	}
	if len(objects) != len(want) {
		t.Fatalf("Plan() = %d objects, want %d", len(objects), len(want))
	}
	for i, obj := range objects {
		if obj.Key != want[i] {
			t.Errorf("objects[%d].Key = %q, want %q", i, obj.Key, want[i])
		}
	}
}

func TestPublish(t *testing.T) {
	client := &fakeS3{}
	var mu sync.Mutex
	var seen []string
	p := New(client, Options{
		Bucket:      "site",
		Concurrency: 2,
		OnUpload: func(obj Object) {
			mu.Lock()
			seen = append(seen, obj.Key)
			mu.Unlock()
		},
	})

	result, err := p.Publish(context.Background(), writeOutput(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(client.puts) != 6 || len(seen) != 6 {
		t.Fatalf("puts = %d, callbacks = %d", len(client.puts), len(seen))
	}
	if result.Bytes == 0 {
		t.Error("Bytes not counted")
	}

	byKey := make(map[string]put)
	lastHashed, firstShell := -1, len(client.puts)
	for i, p := range client.puts {
		byKey[p.Key] = p
		if p.CacheControl == CacheImmutable {
			lastHashed = i
		} else if i < firstShell {
			firstShell = i
		}
	}
	if lastHashed > firstShell {
		t.Error("no-cache files uploaded before hashed files finished")
	}

	tests := []struct {
		key, cache, body string
	}{
		{"index.html", CacheNoCache, "<!DOCTYPE html>"},
		{"units.json", CacheNoCache, "{}"},
		{"assets/js/home-11223344.js", CacheImmutable, "/* home */\n"},
		{"assets/images/logo-aabbccdd.png", CacheImmutable, "\x89PNG"},
	}
	for _, tt := range tests {
		got, ok := byKey[tt.key]
		if !ok {
			t.Errorf("%s not uploaded", tt.key)
			continue
		}
		if got.ContentType != ContentType(tt.key) || got.CacheControl != tt.cache || got.Body != tt.body {
			t.Errorf("%s = %+v", tt.key, got)
		}
	}
	if ct := byKey["index.html"].ContentType; !strings.HasPrefix(ct, "text/html") {
		t.Errorf("index.html Content-Type = %q", ct)
	}
}

func TestPublishDryRun(t *testing.T) {
	client := &fakeS3{}
	p := New(client, Options{Bucket: "site", DryRun: true})
	result, err := p.Publish(context.Background(), writeOutput(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(client.puts) != 0 {
		t.Errorf("dry run uploaded %d objects", len(client.puts))
	}
	if len(result.Objects) != 6 {
		t.Errorf("Objects = %d", len(result.Objects))
	}
}

func TestPublishErrors(t *testing.T) {
	out := writeOutput(t)

	tests := []struct {
		name   string
		client *fakeS3
		opts   Options
		dir    string
	}{
		{"no bucket", &fakeS3{}, Options{}, out},
		{"not a build", &fakeS3{}, Options{Bucket: "site"}, t.TempDir()},
		{"upload fails", &fakeS3{fail: "assets/js/home-11223344.js"}, Options{Bucket: "site"}, out},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.client, tt.opts).Publish(context.Background(), tt.dir)
			if errors.Code(err) != "E401" {
				t.Fatalf("Publish() error = %v, want E401", err)
			}
			for _, p := range tt.client.puts {
				if p.CacheControl == CacheNoCache {
					t.Errorf("%s uploaded after a failure", p.Key)
				}
			}
		})
	}
}

func TestPublishCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client := &fakeS3{}
	_, err := New(client, Options{Bucket: "site"}).Publish(ctx, writeOutput(t))
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("Publish() error = %v, want context.Canceled", err)
	}
	if len(client.puts) != 0 {
		t.Errorf("uploaded %d objects after cancel", len(client.puts))
	}
}

func TestCacheControl(t *testing.T) {
	tests := map[string]string{
		"index.html":                    CacheNoCache,
		"manifest.json":                 CacheNoCache,
		"assets/js/vendor-12345678.js":  CacheImmutable,
		"assets/fonts/a-12345678.woff2": CacheImmutable,
	}
	for rel, want := range tests {
		if got := CacheControl(rel); got != want {
			t.Errorf("CacheControl(%q) = %q, want %q", rel, got, want)
		}
	}
	if got := ContentType("assets/misc/LICENSE-12345678"); got != "application/octet-stream" {
		t.Errorf("ContentType() = %q", got)
	}
}

func TestNewS3Client(t *testing.T) {
	if _, err := NewS3Client(config.PublishConfig{Bucket: "site"}); errors.Code(err) != "E401" {
		t.Errorf("missing region error = %v", err)
	}

	client, err := NewS3Client(config.PublishConfig{Region: "eu-west-1", Endpoint: "http://localhost:9000"})
	if err != nil {
		t.Fatal(err)
	}
	opts := client.Options()
	if opts.Region != "eu-west-1" || aws.ToString(opts.BaseEndpoint) != "http://localhost:9000" || !opts.UsePathStyle {
		t.Errorf("client options = %+v", opts)
	}

	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	if _, err := opts.Credentials.Retrieve(context.Background()); errors.Code(err) != "E401" {
		t.Errorf("missing credentials error = %v", err)
	}
}
