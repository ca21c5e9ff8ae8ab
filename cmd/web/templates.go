package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/maht0rz/spartans-club-web/internal/observability"
	"github.com/maht0rz/spartans-club-web/internal/sections"
)

func (s *server) funcMap() template.FuncMap {
	return template.FuncMap{
		"now": time.Now,
		// json embeds v in a <script> block.
		"json": func(v any) (template.JS, error) {
			b, err := json.Marshal(v)
			if err != nil {
				return "", err
			}
			return template.JS(b), nil
		},
		// jsonld passes pre-marshalled JSON-LD through untouched.
		"jsonld":    func(s string) template.JS { return template.JS(s) },
		"sectionID": func(id sections.ID) string { return string(id) },
		"tel": func(phone string) string {
			return strings.NewReplacer(" ", "", "-", "").Replace(phone)
		},
		"add": func(a, b int) int { return a + b },
	}
}

// parseTemplates discovers every .tmpl below dir. ParseGlob doesn't support **.
func parseTemplates(dir string, funcs template.FuncMap) (*template.Template, error) {
	var files []string
	if err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(d.Name(), ".tmpl") {
			files = append(files, path)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no templates found under %s", dir)
	}
	return template.New("_root").Funcs(funcs).ParseFiles(files...)
}

// render executes the base layout into a buffer so a failing template never leaves a
// half-written page behind.
func (s *server) render(w http.ResponseWriter, r *http.Request, status int, data any) {
	t := s.tmpl.Load()
	if t == nil {
		http.Error(w, "template not initialized", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		observability.FromContext(r.Context()).Error("template exec failed", zap.Error(err))
		http.Error(w, "template exec error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
