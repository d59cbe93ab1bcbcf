package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/waypoint/internal/build"
	"github.com/vango-dev/waypoint/internal/config"
	"github.com/vango-dev/waypoint/internal/errors"
)

const defaultTestTimeout = 10 * time.Second

func newProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range map[string]string{
		config.ConfigFileName: `{"name": "Docs"}`,
		"routes.yaml": `routes:
  - {path: /, name: home, module: views/Home, meta: {title: Home}}
  - {path: /framework, name: framework, module: views/Framework, meta: {title: Framework}}
  - {path: '/:pathMatch(.*)*', name: not-found, redirect: /}
`,
		"modules.yaml": `modules:
  - {name: vue, kind: runtime, path: node_modules/vue.js}
  - {name: views/Home, kind: view, path: src/Home.js, imports: [vue]}
  - {name: views/Framework, kind: view, path: src/Framework.js, imports: [vue]}
  - {name: main, kind: entry, path: src/main.js, imports: [vue]}
`,
		"node_modules/vue.js": "export const vue = 1\n",
		"src/Home.js":         "export default 'home'\n",
		"src/Framework.js":    "export default 'framework'\n",
		"src/main.js":         "import 'vue'\n",
	} {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	previous := projectDir
	projectDir = dir
	t.Cleanup(func() { projectDir = previous })
	return dir
}

func buildProject(t *testing.T) {
	t.Helper()
	cfg, err := loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := build.New(cfg, build.Options{}).Build(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestRunNavigate(t *testing.T) {
	newProject(t)
	buildProject(t)

	var out bytes.Buffer
	steps := []string{"/framework", "/missing", "back", "forward"}
	if err := runNavigate(&out, "", defaultTestTimeout, steps); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != len(steps) {
		t.Fatalf("output:\n%s", out.String())
	}

	checks := []struct {
		line  int
		wants []string
	}{
		{0, []string{"framework", `title="Framework - Docs"`, "fetched=2"}},
		{1, []string{"-> /", "home", "redirects=1", "fetched=1"}},
		{2, []string{"-> /framework", "fetched=0"}},
		{3, []string{"-> /", "home", "fetched=0"}},
	}
	for _, c := range checks {
		for _, want := range c.wants {
			if !strings.Contains(lines[c.line], want) {
				t.Errorf("line %d = %q, missing %q", c.line, lines[c.line], want)
			}
		}
	}
}

func TestRunNavigateWithoutBuild(t *testing.T) {
	newProject(t)
	err := runNavigate(&bytes.Buffer{}, "", defaultTestTimeout, []string{"/"})
	if err == nil || !strings.Contains(err.Error(), "waypoint build") {
		t.Errorf("runNavigate() error = %v", err)
	}
}

func TestRunRoutes(t *testing.T) {
	newProject(t)

	var out bytes.Buffer
	if err := runRoutes(&out); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out.String(), "vendor") {
		t.Errorf("units listed before a build:\n%s", out.String())
	}

	buildProject(t)
	out.Reset()
	if err := runRoutes(&out); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"/framework", "not-found", "→ /", "vendor + framework"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestApplyMode(t *testing.T) {
	cfg := config.New()
	if err := applyMode(cfg, config.ModeDevelopment); err != nil {
		t.Fatal(err)
	}
	if err := applyMode(cfg, "staging"); err == nil {
		t.Error("applyMode() accepted an unknown mode")
	}
}

func TestRunCreate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "handbook")
	if err := runCreate(dir, "minimal", "", "/handbook/"); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "handbook" || cfg.BasePath() != "/handbook/" {
		t.Errorf("config = %q %q", cfg.Name, cfg.BasePath())
	}

	if err := runCreate(dir, "minimal", "", "/"); errors.Code(err) != "E140" {
		t.Errorf("existing directory error = %v", err)
	}
	if err := runCreate(filepath.Join(t.TempDir(), "x"), "blog", "", "/"); errors.Code(err) != "E145" {
		t.Errorf("unknown template error = %v", err)
	}
}

func TestIsValidProjectName(t *testing.T) {
	tests := map[string]bool{
		"handbook":   true,
		"my-docs":    true,
		"":           false,
		".hidden":    false,
		"with space": false,
		`back\slash`: false,
	}
	for name, want := range tests {
		if got := isValidProjectName(name); got != want {
			t.Errorf("isValidProjectName(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestWriteVersion(t *testing.T) {
	info := buildInfo{
		Version:   "v0.4.0",
		Commit:    "3f2a9c1d0b7e",
		Date:      "2026-10-01T12:00:00Z",
		Modified:  true,
		GoVersion: "go1.24.0",
		Platform:  "linux/amd64",
	}

	var buf bytes.Buffer
	if err := writeVersion(&buf, info, true, false); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "v0.4.0\n" {
		t.Errorf("short = %q", buf.String())
	}

	buf.Reset()
	if err := writeVersion(&buf, info, false, false); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"waypoint v0.4.0", "3f2a9c1d0b7e (modified)", "go1.24.0 linux/amd64"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output missing %q:\n%s", want, buf.String())
		}
	}

	buf.Reset()
	if err := writeVersion(&buf, info, false, true); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"commit": "3f2a9c1d0b7e"`) || !strings.Contains(buf.String(), `"modified": true`) {
		t.Errorf("json = %s", buf.String())
	}
}

func TestReadBuildInfoKeepsLinkerValues(t *testing.T) {
	oldVersion, oldCommit := version, commit
	t.Cleanup(func() { version, commit = oldVersion, oldCommit })
	version, commit = "v1.2.3", "abc123"

	info := readBuildInfo()
	if info.Version != "v1.2.3" || info.Commit != "abc123" {
		t.Errorf("readBuildInfo() = %+v, want linker values", info)
	}
	if info.GoVersion == "" || info.Platform == "" {
		t.Errorf("toolchain fields empty: %+v", info)
	}
}
