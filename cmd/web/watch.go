package main

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const reloadDebounce = 150 * time.Millisecond

// watcher reloads templates, dictionaries and content when their files change in dev
// mode. Bursts of editor writes collapse into one reload per kind.
type watcher struct {
	fs     *fsnotify.Watcher
	s      *server
	logger *zap.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
}

func newWatcher(s *server, logger *zap.Logger) (*watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, root := range []string{s.cfg.Paths.Templates, s.cfg.Paths.Locales, s.cfg.Paths.Content} {
		// fsnotify is not recursive; add every directory below root.
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return fw.Add(path)
			}
			return nil
		})
		if err != nil {
			_ = fw.Close()
			return nil, err
		}
	}
	return &watcher{fs: fw, s: s, logger: logger, pending: map[string]*time.Timer{}}, nil
}

func (w *watcher) run(ctx context.Context) {
	defer w.fs.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if kind := w.kind(ev.Name); kind != "" {
				w.schedule(kind)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *watcher) kind(name string) string {
	paths := w.s.cfg.Paths
	switch {
	case within(name, paths.Templates) && strings.HasSuffix(name, ".tmpl"):
		return "templates"
	case within(name, paths.Locales) && strings.HasSuffix(name, ".json"):
		return "locales"
	case within(name, paths.Content) && (strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")):
		return "content"
	}
	return ""
}

func (w *watcher) schedule(kind string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[kind]; ok {
		t.Stop()
	}
	w.pending[kind] = time.AfterFunc(reloadDebounce, func() { w.reload(kind) })
}

func (w *watcher) reload(kind string) {
	var err error
	switch kind {
	case "templates":
		err = w.s.reloadTemplates()
	case "locales":
		err = w.s.reloadLocales()
	case "content":
		w.s.content.Invalidate()
	}
	if err != nil {
		// keep serving the previous version
		w.logger.Warn("reload failed", zap.String("kind", kind), zap.Error(err))
		return
	}
	w.logger.Info("reloaded", zap.String("kind", kind))
}

func within(name, dir string) bool {
	rel, err := filepath.Rel(dir, name)
	return err == nil && !strings.HasPrefix(rel, "..")
}
