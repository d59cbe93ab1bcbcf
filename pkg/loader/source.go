package loader

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/vango-dev/waypoint/pkg/assets"
)

// Source reads a unit file by its path relative to the build output.
type Source interface {
	Open(ctx context.Context, file string) ([]byte, error)
}

// HTTPSource fetches unit files from a base URL.
type HTTPSource struct {
	client   *http.Client
	resolver assets.Resolver
}

// HTTPOption configures an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithHTTPClient sets the client used for fetches.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		s.client = c
	}
}

// NewHTTPSource creates a source rooted at baseURL.
func NewHTTPSource(baseURL string, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		client:   http.DefaultClient,
		resolver: assets.NewPassthroughResolver(baseURL),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// URL returns the URL file is fetched from.
func (s *HTTPSource) URL(file string) string {
	return s.resolver.Asset(file)
}

// Open implements Source.
func (s *HTTPSource) Open(ctx context.Context, file string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL(file), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", req.URL, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// FSSource reads unit files from a file system, normally a local dist/.
type FSSource struct {
	fsys fs.FS
}

// NewFSSource creates a source over fsys.
func NewFSSource(fsys fs.FS) *FSSource {
	return &FSSource{fsys: fsys}
}

// Open implements Source.
func (s *FSSource) Open(ctx context.Context, file string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := path.Clean(strings.TrimPrefix(file, "/"))
	return fs.ReadFile(s.fsys, name)
}
