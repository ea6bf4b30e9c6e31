// Package web serves the server-rendered pages: the feed, liked posts, post
// detail with per-post sharing metadata, the new post form and the auth pages.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"
)

//go:embed templates/*.html templates/partials/*.html
var templatesFS embed.FS

// Templates holds one parsed template set per page. Every set shares the
// layout and partials, and each page defines its own "content" block.
type Templates struct {
	pages    map[string]*template.Template
	partials *template.Template
}

var funcs = template.FuncMap{
	"timeAgo": timeAgo,
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
}

// NewTemplates parses all embedded templates.
func NewTemplates() (*Templates, error) {
	base, err := template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/layout.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	pageFiles, err := fs.Glob(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	pages := make(map[string]*template.Template, len(pageFiles))
	for _, file := range pageFiles {
		name := path.Base(file)
		if name == "layout.html" {
			continue
		}
		set, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("failed to clone templates for %q: %w", name, err)
		}
		if _, err := set.ParseFS(templatesFS, file); err != nil {
			return nil, fmt.Errorf("failed to parse template %q: %w", name, err)
		}
		pages[name] = set
	}

	return &Templates{pages: pages, partials: base}, nil
}

// Render renders a page inside the layout with the given status code.
// The page is rendered to a buffer first so a template error never leaves a
// half written response.
func (t *Templates) Render(w http.ResponseWriter, status int, name string, data interface{}) error {
	tmpl, ok := t.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("failed to execute template %q: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// RenderPartial renders a named partial (e.g. "feed_body") without the layout.
func (t *Templates) RenderPartial(w io.Writer, name string, data interface{}) error {
	if err := t.partials.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("failed to execute partial %q: %w", name, err)
	}
	return nil
}

func timeAgo(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	d := time.Since(ts)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d.Minutes()), "minute") + " ago"
	case d < 24*time.Hour:
		return plural(int(d.Hours()), "hour") + " ago"
	case d < 30*24*time.Hour:
		return plural(int(d.Hours()/24), "day") + " ago"
	default:
		return ts.Format("Jan 2, 2006")
	}
}

func plural(n int, unit string) string {
	s := fmt.Sprintf("%d %s", n, unit)
	if n != 1 {
		s += "s"
	}
	return strings.TrimSpace(s)
}
