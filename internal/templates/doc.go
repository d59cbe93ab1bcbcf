// Package templates provides project scaffolding templates.
//
// # Available Templates
//
//   - minimal: one view and the fallback route
//   - docs: documentation site with guide pages and a shared runtime unit
//
// # Usage
//
//	tmpl, err := templates.Get("docs")
//	if err := tmpl.Create(projectDir, templates.Config{ProjectName: "handbook"}); err != nil {
//	    log.Fatal(err)
//	}
//
// # Template Variables
//
//	{{.ProjectName}}  - Name of the project
//	{{.Description}}  - Project description
//	{{.Base}}         - Production base path
package templates
