package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/waypoint/internal/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Dev.Port != DefaultPort {
		t.Errorf("Dev.Port = %d, want %d", cfg.Dev.Port, DefaultPort)
	}
	if cfg.Build.Output != DefaultOutput {
		t.Errorf("Build.Output = %q, want %q", cfg.Build.Output, DefaultOutput)
	}
	if cfg.Build.ChunkSizeWarningLimit != 500 || cfg.Build.AssetsInlineLimit != 4096 {
		t.Errorf("limits = %d kB / %d B", cfg.Build.ChunkSizeWarningLimit, cfg.Build.AssetsInlineLimit)
	}
	if cfg.Build.AssetCategories["jpeg"] != "images" || cfg.Build.AssetCategories["woff2"] != "fonts" {
		t.Errorf("AssetCategories = %v", cfg.Build.AssetCategories)
	}
	if _, ok := cfg.Build.AssetCategories["css"]; ok {
		t.Error("css should not have a default category")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := Load(tmpDir)
	if !stderrors.Is(err, errors.New("E141")) {
		t.Fatalf("missing config error = %v, want E141", err)
	}

	writeFile(t, tmpDir, ConfigFileName, `{
  "name": "Deep Reading Analyst",
  "base": "/depreanalyst-Vue/",
  "dev": {"port": 8080, "open": true},
  "build": {
    "output": "build",
    "manualChunks": {
      "vendor-vue": ["vue", "vue-router", "pinia"],
      "vendor-crypto": ["crypto-js", "dompurify"]
    }
  }
}
`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Name != "Deep Reading Analyst" {
		t.Errorf("Name = %q", cfg.Name)
	}
	if cfg.Dev.Port != 8080 || !cfg.Dev.Open {
		t.Errorf("Dev = %+v", cfg.Dev)
	}
	if cfg.Dev.Host != DefaultHost {
		t.Errorf("Dev.Host = %q, default not applied", cfg.Dev.Host)
	}
	if got := cfg.ManualChunkNames(); len(got) != 2 || got[0] != "vendor-crypto" {
		t.Errorf("ManualChunkNames() = %v", got)
	}
	if cfg.OutputPath() != filepath.Join(tmpDir, "build") {
		t.Errorf("OutputPath() = %q", cfg.OutputPath())
	}
	if cfg.RoutesPath() != filepath.Join(tmpDir, "routes.yaml") {
		t.Errorf("RoutesPath() = %q", cfg.RoutesPath())
	}
	if cfg.BasePath() != "/depreanalyst-Vue/" {
		t.Errorf("BasePath() = %q", cfg.BasePath())
	}
	if cfg.Build.AssetCategories == nil {
		t.Error("AssetCategories default not applied")
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ConfigFileName, `{"dev": `)

	_, err := Load(dir)
	if errors.Code(err) != "E120" {
		t.Errorf("error = %v, want E120", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		code   string
	}{
		{"bad port", func(c *Config) { c.Dev.Port = 70000 }, "E122"},
		{"bad mode", func(c *Config) { c.Mode = "staging" }, "E120"},
		{"relative base", func(c *Config) { c.Base = "docs/" }, "E120"},
		{"negative inline limit", func(c *Config) { c.Build.AssetsInlineLimit = -1 }, "E120"},
		{"module in two units", func(c *Config) {
			c.Build.ManualChunks = map[string][]string{"a": {"vue"}, "b": {"vue"}}
		}, "E301"},
		{"reserved unit name", func(c *Config) {
			c.Build.ManualChunks = map[string][]string{"vendor": {"vue"}}
		}, "E301"},
		{"url base ok", func(c *Config) { c.Base = "https://cdn.example.com/app/" }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.modify(cfg)
			err := cfg.Validate()
			if got := errors.Code(err); got != tt.code {
				t.Errorf("Validate() = %v, want code %q", err, tt.code)
			}
		})
	}
}

func TestBasePathByMode(t *testing.T) {
	cfg := New()
	cfg.Base = "/depreanalyst-Vue/"

	cfg.Mode = ModeDevelopment
	if cfg.BasePath() != "/" {
		t.Errorf("development BasePath() = %q, want /", cfg.BasePath())
	}
	if cfg.DevURL() != "http://localhost:3000/" {
		t.Errorf("DevURL() = %q", cfg.DevURL())
	}

	cfg.Mode = ModeProduction
	if cfg.BasePath() != "/depreanalyst-Vue/" {
		t.Errorf("production BasePath() = %q", cfg.BasePath())
	}
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)

	cfg := New()
	cfg.Name = "App"
	cfg.Publish.Bucket = "site"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatal(err)
	}
	if cfg.Path() != path || cfg.Dir() != dir {
		t.Errorf("Path() = %q, Dir() = %q", cfg.Path(), cfg.Dir())
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Name != "App" || loaded.Publish.Bucket != "site" {
		t.Errorf("reloaded = %+v", loaded)
	}

	loaded.Name = "Renamed"
	if err := loaded.Save(); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), `"Renamed"`) {
		t.Error("Save() did not write to the loaded path")
	}

	if err := New().Save(); err == nil {
		t.Error("Save() without a path should fail")
	}
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ConfigFileName, `{}`)
	nested := filepath.Join(root, "src", "views")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	got, err := FindProjectRoot(nested)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := filepath.Abs(root)
	if got != want {
		t.Errorf("FindProjectRoot() = %q, want %q", got, want)
	}

	if _, err := FindProjectRoot(t.TempDir()); errors.Code(err) != "E141" {
		t.Errorf("FindProjectRoot() outside project = %v", err)
	}
}
