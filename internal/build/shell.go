package build

import (
	"bytes"
	"html/template"

	"github.com/vango-dev/waypoint/pkg/assets"
)

var shellTemplate = template.Must(template.New("index.html").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<meta name="description" content="">
{{- range .Preload}}
<link rel="modulepreload" href="{{.}}">
{{- end}}
{{- if .Entry}}
<script type="module" src="{{.Entry}}"></script>
{{- end}}
</head>
<body>
<div id="app"></div>
</body>
</html>
`))

type shellData struct {
	Title   string
	Entry   string
	Preload []string
}

// RenderShell renders the index.html that boots the application: the entry
// unit as a module script and every runtime unit it imports as a
// modulepreload link, all under base. View units are never preloaded.
func RenderShell(title, base, entryUnit string, idx *assets.UnitIndex) ([]byte, error) {
	base = assets.JoinBase(base)
	data := shellData{Title: title}

	if _, ok := idx.Lookup(entryUnit); ok {
		closure, err := idx.Closure(entryUnit)
		if err != nil {
			return nil, err
		}
		for _, u := range closure {
			if u.Name == entryUnit {
				data.Entry = base + u.File
				continue
			}
			if u.Kind == assets.KindView {
				continue
			}
			data.Preload = append(data.Preload, base+u.File)
		}
	}

	var buf bytes.Buffer
	if err := shellTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
