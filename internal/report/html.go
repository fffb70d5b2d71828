package report

import (
	"html/template"
	"os"
	"path/filepath"

	"github.com/kvit-s/critbench/internal/model"
	"github.com/kvit-s/critbench/internal/valueformatter"
)

var groupIndexTemplate = template.Must(template.New("group").Parse(`<!DOCTYPE html>
<html><head><title>{{.GroupID}}</title></head>
<body>
<h1>{{.GroupID}}</h1>
<ul>
{{range .Benchmarks}}<li>{{.}}</li>
{{end}}
</ul>
</body></html>
`))

type groupIndexData struct {
	GroupID    string
	Benchmarks []string
}

// HTMLReport writes a minimal static index.html per group under
// reports/<directory_name>/, declared by the spec but intentionally not
// rendering SVG plots (see Plotter/NullPlotter).
type HTMLReport struct {
	BaseReport

	Plotter Plotter
}

// NewHTMLReport constructs an HTMLReport backed by a Plotter (NullPlotter by
// default).
func NewHTMLReport(plotter Plotter) *HTMLReport {
	if plotter == nil {
		plotter = NullPlotter{}
	}
	return &HTMLReport{Plotter: plotter}
}

func (h *HTMLReport) Summarize(ctx Context, groupID string, group *model.BenchmarkGroup, _ valueformatter.Formatter) {
	groupDirID := model.NewBenchmarkId(groupID, nil, nil, nil)
	dir := filepath.Join(ctx.OutputDirectory, filepath.FromSlash(groupDirID.DirectoryName))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return
	}

	benchmarks := make([]string, 0, len(group.Benchmarks))
	for _, b := range group.Benchmarks {
		benchmarks = append(benchmarks, b.ID.Title)
	}

	f, err := os.Create(filepath.Join(dir, "index.html"))
	if err != nil {
		return
	}
	defer f.Close()
	_ = groupIndexTemplate.Execute(f, groupIndexData{GroupID: groupID, Benchmarks: benchmarks})

	h.Plotter.Wait()
}

func (h *HTMLReport) FinalSummary(_ Context, _ *model.Model) {
	h.Plotter.Wait()
}
