package mapinfo

import (
	"bytes"
	"html/template"
	"os"
	"path/filepath"
)

// OverviewFile is the index page listing all exported worlds.
const OverviewFile = "index.html"

var overviewTmpl = template.Must(template.New("overview").Parse(`<html lang="en-US">
<head>
  <meta charset="UTF-8">
  <title>DayZ Maps</title>
</head>
<body>
  <h1>Maps:</h1>
  <table>
  <tbody>
{{- range .}}
    <tr>
      <td><a href="./{{.Name}}/index.html">{{.Title}}</a></td>
      <td><a href="./{{.Name}}/index.html"><img src="./{{.Name}}/preview.png" width="200" height="200"></a></td>
    </tr>
{{- end}}
  </tbody>
  </table>
</body>
</html>
`))

// OverviewEntry is one row of the index page.
type OverviewEntry struct {
	Name  string // Catalog name, also the world directory
	Title string // Link text
}

// OverviewEntries builds index rows for the worlds under root. The title is
// taken from each world's data.json when it has been exported.
func OverviewEntries(root string, worlds []string) []OverviewEntry {
	out := make([]OverviewEntry, 0, len(worlds))
	for _, name := range worlds {
		title := name
		if info, err := Read(filepath.Join(root, name)); err == nil && info.Title != "" {
			title = info.Title
		}
		out = append(out, OverviewEntry{Name: name, Title: title})
	}

	return out
}

// RenderOverview renders the index page.
func RenderOverview(worlds []OverviewEntry) ([]byte, error) {
	var buf bytes.Buffer
	if err := overviewTmpl.Execute(&buf, worlds); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// WriteOverview writes index.html into dir for the worlds exported there.
func WriteOverview(dir string, worlds []string) error {
	b, err := RenderOverview(OverviewEntries(dir, worlds))
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, OverviewFile), b, 0o644)
}
