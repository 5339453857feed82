// Package templates renders the HTML fragments pushed to map clients
// over SSE, such as the contribution feed.
package templates

import (
	"bytes"
	"html/template"
	"path/filepath"
	"sync"
	"time"

	"github.com/Rock-n-Donuts/infovelo-web/internal/service"
)

// funcMap exposes the domain color tables and a few formatting
// helpers to the fragment templates.
var funcMap = template.FuncMap{
	"statusColor": service.StatusColor,
	"kindColor":   service.KindColor,
	"iconSrc": func(typ string) string {
		return "/icons/" + typ + ".svg"
	},
	"reltime": func(t time.Time) string {
		d := time.Since(t)
		switch {
		case d < time.Minute:
			return "just now"
		case d < time.Hour:
			return t.Format("15:04")
		default:
			return t.Format("Jan 2 15:04")
		}
	},
}

// Renderer holds the parsed fragment templates.
type Renderer struct {
	templates *template.Template
	mu        sync.RWMutex
}

// New parses every *.html fragment under fragmentsDir.
func New(fragmentsDir string) (*Renderer, error) {
	tmpl, err := parse(fragmentsDir)
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: tmpl}, nil
}

// Render renders a named fragment to a string.
func (r *Renderer) Render(name string, data any) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Reload re-parses the fragments from disk, for dev hot-reload.
func (r *Renderer) Reload(fragmentsDir string) error {
	tmpl, err := parse(fragmentsDir)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.templates = tmpl
	r.mu.Unlock()

	return nil
}

func parse(fragmentsDir string) (*template.Template, error) {
	pattern := filepath.Join(fragmentsDir, "*.html")
	return template.New("").Funcs(funcMap).ParseGlob(pattern)
}
