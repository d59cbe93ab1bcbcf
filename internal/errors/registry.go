package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Suggestion string
}

var registry = map[string]ErrorTemplate{
	// Configuration and CLI (E120-E149)

	"E120": {
		Category:   CategoryConfig,
		Message:    "Invalid waypoint.json",
		Suggestion: "Check the file for JSON syntax errors and unknown values.",
	},
	"E121": {
		Category:   CategoryConfig,
		Message:    "Missing configuration",
		Suggestion: "Run the command from a project directory that contains waypoint.json.",
	},
	"E122": {
		Category:   CategoryConfig,
		Message:    "Invalid port",
		Suggestion: "Use a port between 1 and 65535.",
	},
	"E123": {
		Category: CategoryConfig,
		Message:  "Invalid environment override",
	},
	"E140": {
		Category: CategoryCLI,
		Message:  "Directory already exists",
	},
	"E141": {
		Category:   CategoryCLI,
		Message:    "Not a waypoint project",
		Suggestion: "Create a waypoint.json or pass --dir.",
	},
	"E142": {
		Category: CategoryCLI,
		Message:  "Build output failed",
	},
	"E145": {
		Category: CategoryCLI,
		Message:  "Unknown template",
	},
	"E147": {
		Category:   CategoryCLI,
		Message:    "Invalid project name",
		Suggestion: "Use lowercase letters, numbers, and hyphens.",
	},

	// Route table (E200-E219)

	"E201": {
		Category:   CategoryRoute,
		Message:    "Duplicate route name",
		Suggestion: "Give every route a unique name.",
	},
	"E202": {
		Category:   CategoryRoute,
		Message:    "Duplicate route path",
		Suggestion: "Each path may appear once; remove or rename the duplicate.",
	},
	"E203": {
		Category:   CategoryRoute,
		Message:    "Multiple wildcard routes",
		Suggestion: "Keep a single catch-all route as the last entry.",
	},
	"E204": {
		Category:   CategoryRoute,
		Message:    "Invalid route pattern",
		Suggestion: "Paths must be absolute, canonical and free of query strings and dynamic segments.",
	},
	"E205": {
		Category:   CategoryRoute,
		Message:    "Invalid route redirect",
		Suggestion: "The catch-all route must redirect to a registered path, normally /.",
	},
	"E206": {
		Category: CategoryRoute,
		Message:  "Invalid routes.yaml",
	},

	// Modules and partitioning (E300-E319)

	"E301": {
		Category:   CategoryBuild,
		Message:    "Partitioner misconfiguration",
		Suggestion: "Every module named in build.manualChunks must be a runtime module listed in modules.yaml, and may appear in one unit only.",
	},
	"E302": {
		Category: CategoryBuild,
		Message:  "Invalid modules.yaml",
	},
	"E303": {
		Category: CategoryBuild,
		Message:  "Module source unreadable",
	},

	// Publishing (E400-E419)

	"E401": {
		Category:   CategoryPublish,
		Message:    "Publish failed",
		Suggestion: "Check the bucket, region and credentials.",
	},
}

// GetAllCodes returns all registered error codes, sorted.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
