package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"path/filepath"

	"github.com/Masterminds/sprig/v3"

	"github.com/sweqa/trx/internal/output"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

const defaultTemplate = "report.html.tmpl"

// DefaultTitle heads rendered pages.
const DefaultTitle = "Requirements traceability report"

// Renderer writes a report in one output format.
type Renderer interface {
	Render(w io.Writer, r *Report) error
}

// HTMLRenderer renders a report through an html/template with sprig functions.
type HTMLRenderer struct {
	Title string
	tmpl  *template.Template
	name  string
}

func funcMap() template.FuncMap {
	fm := sprig.FuncMap()
	fm["pct"] = func(v float64) string {
		return fmt.Sprintf("%.1f%%", v)
	}
	return fm
}

// NewHTMLRenderer returns a renderer using the embedded template.
func NewHTMLRenderer() (*HTMLRenderer, error) {
	tmpl, err := template.New(defaultTemplate).Funcs(funcMap()).ParseFS(templateFS, "templates/"+defaultTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing embedded template: %w", err)
	}
	return &HTMLRenderer{Title: DefaultTitle, tmpl: tmpl, name: defaultTemplate}, nil
}

// NewHTMLRendererFromFile returns a renderer using the template at path.
// The template receives .Title and .Report.
func NewHTMLRendererFromFile(path string) (*HTMLRenderer, error) {
	name := filepath.Base(path)
	tmpl, err := template.New(name).Funcs(funcMap()).ParseFiles(path)
	if err != nil {
		return nil, fmt.Errorf("parsing template %s: %w", path, err)
	}
	return &HTMLRenderer{Title: DefaultTitle, tmpl: tmpl, name: name}, nil
}

// Render implements Renderer.
func (h *HTMLRenderer) Render(w io.Writer, r *Report) error {
	data := struct {
		Title  string
		Report *Report
	}{h.Title, r}
	if err := h.tmpl.ExecuteTemplate(w, h.name, data); err != nil {
		return fmt.Errorf("rendering html: %w", err)
	}
	return nil
}

// StructuredRenderer encodes the report with an output formatter.
type StructuredRenderer struct {
	Formatter output.Formatter
}

// Render implements Renderer.
func (s StructuredRenderer) Render(w io.Writer, r *Report) error {
	return s.Formatter.FormatToWriter(w, r)
}

// RendererFor returns the renderer of a format.
func RendererFor(format output.Format) (Renderer, error) {
	if format == output.FormatHTML {
		return NewHTMLRenderer()
	}
	f, err := output.GetFormatter(format)
	if err != nil {
		return nil, err
	}
	return StructuredRenderer{Formatter: f}, nil
}
