package dev

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeType represents the type of file change.
type ChangeType int

const (
	ChangeTemplate ChangeType = iota
	ChangeScript
	ChangeConfig
	ChangeAsset
)

func (t ChangeType) String() string {
	switch t {
	case ChangeTemplate:
		return "template"
	case ChangeScript:
		return "script"
	case ChangeConfig:
		return "config"
	default:
		return "asset"
	}
}

// Change represents a detected file change.
type Change struct {
	Path    string
	Type    ChangeType
	Removed bool
}

// WatcherConfig configures the file watcher.
type WatcherConfig struct {
	// Paths are the files and directories to watch.
	Paths []string

	// Ignore patterns to skip (globs or path segments).
	Ignore []string

	// Debounce is the quiet period before changes are reported.
	Debounce time.Duration

	Logger *slog.Logger
}

// DefaultIgnore contains default patterns to ignore.
var DefaultIgnore = []string{
	".git",
	"node_modules",
	"*.tmp",
	"*.swp",
	"*~",
}

// Watcher reports file changes below a set of paths. Events arriving within
// the debounce window are coalesced into one report per path.
type Watcher struct {
	config   WatcherConfig
	logger   *slog.Logger
	onChange func([]Change)
	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
}

// NewWatcher creates a new file watcher.
func NewWatcher(config WatcherConfig) *Watcher {
	if config.Debounce == 0 {
		config.Debounce = 100 * time.Millisecond
	}
	if len(config.Ignore) == 0 {
		config.Ignore = DefaultIgnore
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		config: config,
		logger: logger.With("component", "watcher"),
	}
}

// OnChange sets the callback for file changes.
func (w *Watcher) OnChange(fn func([]Change)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Start watches until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	stopCh := w.stopCh
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	for _, p := range w.config.Paths {
		w.add(fw, p)
	}

	debounce := time.NewTimer(w.config.Debounce)
	debounce.Stop()
	pending := make(map[string]Change)
	var order []string

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.shouldIgnore(ev.Name) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					w.add(fw, ev.Name)
					continue
				}
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			if _, seen := pending[ev.Name]; !seen {
				order = append(order, ev.Name)
			}
			pending[ev.Name] = Change{
				Path:    ev.Name,
				Type:    classifyChange(ev.Name),
				Removed: ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename),
			}
			debounce.Reset(w.config.Debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)

		case <-debounce.C:
			changes := make([]Change, 0, len(order))
			for _, p := range order {
				changes = append(changes, pending[p])
			}
			pending = make(map[string]Change)
			order = nil

			w.mu.Lock()
			callback := w.onChange
			w.mu.Unlock()
			if callback != nil && len(changes) > 0 {
				callback(changes)
			}
		}
	}
}

// add watches p, and every directory below it when p is a directory.
// fsnotify watches are not recursive.
func (w *Watcher) add(fw *fsnotify.Watcher, p string) {
	info, err := os.Stat(p)
	if err != nil {
		w.logger.Debug("skip watch path", "path", p, "error", err)
		return
	}
	if !info.IsDir() {
		// Watch the parent so editors that replace files are still seen.
		w.watch(fw, filepath.Dir(p))
		return
	}
	filepath.WalkDir(p, func(sub string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if sub != p && w.shouldIgnore(sub) {
			return filepath.SkipDir
		}
		w.watch(fw, sub)
		return nil
	})
}

func (w *Watcher) watch(fw *fsnotify.Watcher, dir string) {
	for _, existing := range fw.WatchList() {
		if existing == dir {
			return
		}
	}
	if err := fw.Add(dir); err != nil {
		w.logger.Warn("watch failed", "path", dir, "error", err)
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		close(w.stopCh)
		w.running = false
	}
}

// IsRunning returns whether the watcher is running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// shouldIgnore checks if a path should be ignored.
func (w *Watcher) shouldIgnore(fullPath string) bool {
	name := filepath.Base(fullPath)
	normalized := filepath.ToSlash(fullPath)

	for _, pattern := range w.config.Ignore {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if name == pattern {
			return true
		}

		hasPathSep := strings.ContainsAny(pattern, `/\`)
		if strings.ContainsAny(pattern, "*?[") {
			if hasPathSep {
				if matched, _ := path.Match(filepath.ToSlash(pattern), normalized); matched {
					return true
				}
			} else if matched, _ := filepath.Match(pattern, name); matched {
				return true
			}
			continue
		}

		if hasPathSep {
			if pathMatchesSegments(normalized, filepath.ToSlash(pattern)) {
				return true
			}
			continue
		}
		if pathHasSegment(normalized, pattern) {
			return true
		}
	}
	return false
}

func pathHasSegment(p, segment string) bool {
	for _, part := range splitPathSegments(p) {
		if part == segment {
			return true
		}
	}
	return false
}

func pathMatchesSegments(p, pattern string) bool {
	pathParts := splitPathSegments(p)
	patternParts := splitPathSegments(pattern)
	if len(patternParts) == 0 || len(patternParts) > len(pathParts) {
		return false
	}
outer:
	for i := 0; i <= len(pathParts)-len(patternParts); i++ {
		for j := range patternParts {
			if pathParts[i+j] != patternParts[j] {
				continue outer
			}
		}
		return true
	}
	return false
}

func splitPathSegments(p string) []string {
	parts := strings.Split(p, "/")
	result := parts[:0]
	for _, part := range parts {
		if part != "" && part != "." {
			result = append(result, part)
		}
	}
	return result
}

// classifyChange determines the type of change based on file extension.
func classifyChange(p string) ChangeType {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".html", ".htm", ".tmpl":
		return ChangeTemplate
	case ".js":
		return ChangeScript
	case ".yaml", ".yml", ".toml", ".json":
		return ChangeConfig
	default:
		return ChangeAsset
	}
}
