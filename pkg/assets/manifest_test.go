package assets

import (
	"os"
	"path/filepath"
	"testing"
)

func TestManifestResolve(t *testing.T) {
	m := NewManifest()
	m.Set("src/views/Home.vue", "assets/js/home-1f2e3d4c.js")
	m.Set("src/assets/logo.png", "assets/images/logo-a1b2c3d4.png")

	tests := []struct {
		name     string
		source   string
		expected string
	}{
		{"view", "src/views/Home.vue", "assets/js/home-1f2e3d4c.js"},
		{"image", "src/assets/logo.png", "assets/images/logo-a1b2c3d4.png"},
		{"missing entry returns original", "unknown.js", "unknown.js"},
		{"empty string returns empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Resolve(tt.source); got != tt.expected {
				t.Errorf("Resolve(%q) = %q, want %q", tt.source, got, tt.expected)
			}
		})
	}
}

func TestManifestSources(t *testing.T) {
	m := NewManifest()
	m.Set("b.js", "b-2.js")
	m.Set("a.js", "a-1.js")

	got := m.Sources()
	if len(got) != 2 || got[0] != "a.js" || got[1] != "b.js" {
		t.Errorf("Sources() = %v", got)
	}
	if !m.Has("a.js") || m.Has("c.js") {
		t.Error("Has() mismatch")
	}
}

func TestManifestAllIsCopy(t *testing.T) {
	m := NewManifest()
	m.Set("a.js", "a-1.js")

	all := m.All()
	all["c.js"] = "c-3.js"
	if m.Has("c.js") {
		t.Error("All() should return a copy")
	}
}

func TestManifestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")

	m := NewManifest()
	m.Set("src/views/Feedback.vue", "assets/js/feedback-0a0b0c0d.js")
	m.Set("src/assets/font.woff2", "assets/fonts/font-11223344.woff2")
	if err := m.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Len() != 2 {
		t.Errorf("Len() = %d, want 2", loaded.Len())
	}
	if got := loaded.Resolve("src/assets/font.woff2"); got != "assets/fonts/font-11223344.woff2" {
		t.Errorf("Resolve() = %q", got)
	}

	first, _ := os.ReadFile(path)
	if err := loaded.Save(path); err != nil {
		t.Fatal(err)
	}
	second, _ := os.ReadFile(path)
	if string(first) != string(second) {
		t.Error("saving the same manifest twice produced different files")
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Load() of missing file should fail")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("Load() of invalid JSON should fail")
	}

	m, err := Parse([]byte("null"))
	if err != nil || m.Len() != 0 {
		t.Errorf("Parse(null) = %v, %v", m, err)
	}
	m.Set("a", "b")
}

func TestResolvers(t *testing.T) {
	m := NewManifest()
	m.Set("src/views/Home.vue", "assets/js/home-1f2e3d4c.js")

	tests := []struct {
		name     string
		resolver Resolver
		source   string
		want     string
	}{
		{"manifest with base", NewResolver(m, "/depreanalyst/"), "src/views/Home.vue", "/depreanalyst/assets/js/home-1f2e3d4c.js"},
		{"manifest without trailing slash", NewResolver(m, "/depreanalyst"), "src/views/Home.vue", "/depreanalyst/assets/js/home-1f2e3d4c.js"},
		{"manifest empty base", NewResolver(m, ""), "src/views/Home.vue", "/assets/js/home-1f2e3d4c.js"},
		{"manifest missing", NewResolver(m, "/"), "other.js", "/other.js"},
		{"passthrough origin", NewPassthroughResolver("https://cdn.example.com/app"), "assets/js/vendor-vue-12345678.js", "https://cdn.example.com/app/assets/js/vendor-vue-12345678.js"},
		{"passthrough leading slash", NewPassthroughResolver("/"), "/assets/js/index.js", "/assets/js/index.js"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.resolver.Asset(tt.source); got != tt.want {
				t.Errorf("Asset(%q) = %q, want %q", tt.source, got, tt.want)
			}
		})
	}
}
