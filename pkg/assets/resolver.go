package assets

import "strings"

// Resolver maps a source path to the URL it is served from.
type Resolver interface {
	// Asset resolves source to its full URL path, e.g.
	// "src/views/Home.vue" → "/depreanalyst/assets/js/home-1f2e3d4c.js".
	Asset(source string) string
}

type manifestResolver struct {
	manifest *Manifest
	prefix   string
}

// NewResolver creates a Resolver that looks sources up in m and prepends
// prefix. The prefix is normally the deploy base path or a CDN origin.
func NewResolver(m *Manifest, prefix string) Resolver {
	return &manifestResolver{
		manifest: m,
		prefix:   JoinBase(prefix),
	}
}

func (r *manifestResolver) Asset(source string) string {
	return r.prefix + r.manifest.Resolve(source)
}

type passthrough struct {
	prefix string
}

// NewPassthroughResolver returns paths unchanged apart from the prefix.
// Loaders use it to turn unit files, which are already hashed, into URLs.
func NewPassthroughResolver(prefix string) Resolver {
	return &passthrough{prefix: JoinBase(prefix)}
}

func (p *passthrough) Asset(source string) string {
	return p.prefix + strings.TrimPrefix(source, "/")
}

// JoinBase normalizes a base path or URL so that it ends in exactly one
// slash. An empty base becomes "/".
func JoinBase(base string) string {
	if base == "" {
		return "/"
	}
	return strings.TrimRight(base, "/") + "/"
}
