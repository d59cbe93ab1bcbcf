package templates

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"text/template"

	"github.com/vango-dev/waypoint/internal/errors"
)

// Config contains template configuration.
type Config struct {
	// ProjectName is the name of the project, also used as the app name
	// in document titles.
	ProjectName string

	// Description is a short project description.
	Description string

	// Base is the production base path.
	Base string
}

// Template represents a project template.
type Template struct {
	// Name is the template name.
	Name string

	// Description describes the template.
	Description string

	// Files is a map of relative paths to file contents.
	Files map[string]string
}

// Available templates.
var templates = map[string]*Template{
	"minimal": minimalTemplate(),
	"docs":    docsTemplate(),
}

// Get returns a template by name.
func Get(name string) (*Template, error) {
	tmpl, ok := templates[name]
	if !ok {
		return nil, errors.New("E145").
			WithDetail("Template '" + name + "' not found").
			WithSuggestion("Available templates: docs, minimal")
	}
	return tmpl, nil
}

// List returns all available template names, sorted.
func List() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create generates a project from the template.
func (t *Template) Create(dir string, cfg Config) error {
	if cfg.Base == "" {
		cfg.Base = "/"
	}
	for relPath, content := range t.Files {
		tmpl, err := template.New(relPath).Parse(content)
		if err != nil {
			return errors.Newf(errors.CategoryCLI, "invalid template %s: %v", relPath, err)
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, cfg); err != nil {
			return errors.Newf(errors.CategoryCLI, "template execute error %s: %v", relPath, err)
		}

		fullPath := filepath.Join(dir, filepath.FromSlash(relPath))
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(fullPath, buf.Bytes(), 0644); err != nil {
			return err
		}
	}
	return nil
}

const gitignore = `dist/
node_modules/.cache/
`

const routerRuntime = `// Minimal history router runtime. Replace with your framework's router.
export function createRouter(routes) {
  return { routes }
}
`

// minimalTemplate returns a single-page project with the fallback route.
func minimalTemplate() *Template {
	return &Template{
		Name:        "minimal",
		Description: "One view and the fallback route",
		Files: map[string]string{
			"waypoint.json": `{
  "name": "{{.ProjectName}}",
  "base": "{{.Base}}"
}
`,
			"routes.yaml": `routes:
  - path: /
    name: home
    module: views/Home
    meta:
      title: Home
      description: "{{.Description}}"

  # Unknown paths go home. Keep this entry last.
  - path: "/:pathMatch(.*)*"
    name: not-found
    redirect: /
`,
			"modules.yaml": `modules:
  - name: router
    kind: runtime
    path: vendor/router.js

  - name: views/Home
    kind: view
    path: src/views/Home.js
    imports: [router]

  - name: main
    kind: entry
    path: src/main.js
    imports: [router]
`,
			"vendor/router.js": routerRuntime,
			"src/main.js": `import { createRouter } from 'router'

createRouter([{ path: '/', component: () => import('./views/Home.js') }])
`,
			"src/views/Home.js": `export default {
  title: '{{.ProjectName}}',
  text: '{{.Description}}',
}
`,
			".gitignore": gitignore,
		},
	}
}

// docsTemplate returns a documentation site with several views, a manual
// runtime unit and static assets.
func docsTemplate() *Template {
	return &Template{
		Name:        "docs",
		Description: "Documentation site with guide pages and a shared runtime unit",
		Files: map[string]string{
			"waypoint.json": `{
  "name": "{{.ProjectName}}",
  "base": "{{.Base}}",
  "build": {
    "manualChunks": {
      "framework": ["router", "store"]
    },
    "chunkSizeWarningLimit": 500
  }
}
`,
			"routes.yaml": `routes:
  - path: /
    name: home
    module: views/Home
    meta:
      title: Home
      description: "{{.Description}}"

  - path: /guide
    name: guide
    module: views/Guide
    meta:
      title: Guide
      description: Getting started with {{.ProjectName}}

  - path: /reference
    name: reference
    module: views/Reference
    meta:
      title: Reference

  - path: "/:pathMatch(.*)*"
    name: not-found
    redirect: /
`,
			"modules.yaml": `modules:
  - {name: router, kind: runtime, path: vendor/router.js}
  - {name: store, kind: runtime, path: vendor/store.js, imports: [router]}
  - {name: markdown, kind: runtime, path: vendor/markdown.js}

  - {name: views/Home, kind: view, path: src/views/Home.js, imports: [router, store]}
  - {name: views/Guide, kind: view, path: src/views/Guide.js, imports: [router, markdown]}
  - {name: views/Reference, kind: view, path: src/views/Reference.js, imports: [router, markdown]}

  - {name: main, kind: entry, path: src/main.js, imports: [router, store]}

assets:
  - src/assets/style.css
  - src/assets/logo.svg
`,
			"vendor/router.js": routerRuntime,
			"vendor/store.js": `export function createStore(state) {
  return { state }
}
`,
			"vendor/markdown.js": `export function render(text) {
  return text
}
`,
			"src/main.js": `import { createRouter } from 'router'
import { createStore } from 'store'

createStore({})
createRouter([
  { path: '/', component: () => import('./views/Home.js') },
  { path: '/guide', component: () => import('./views/Guide.js') },
  { path: '/reference', component: () => import('./views/Reference.js') },
])
`,
			"src/views/Home.js": `export default { title: '{{.ProjectName}}', text: '{{.Description}}' }
`,
			"src/views/Guide.js": `import { render } from 'markdown'

export default { body: render('# Guide') }
`,
			"src/views/Reference.js": `import { render } from 'markdown'

export default { body: render('# Reference') }
`,
			"src/assets/style.css": `body { font-family: system-ui, sans-serif; max-width: 48rem; margin: 0 auto; }
`,
			"src/assets/logo.svg": `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 16 16"><circle cx="8" cy="8" r="7"/></svg>
`,
			"README.md": `# {{.ProjectName}}

{{.Description}}

## Development

    waypoint dev

## Build

    waypoint build
    waypoint routes
    waypoint navigate / /guide back
`,
			".gitignore": gitignore,
		},
	}
}
