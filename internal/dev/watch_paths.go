package dev

import (
	"path/filepath"
	"sort"

	"github.com/nimble-go/nimble/internal/config"
)

// CollectWatchPaths returns the files a running server depends on: the config
// file and every page template, script and dialog template.
func CollectWatchPaths(cfg *config.Config) []string {
	paths := []string{cfg.Path()}
	for _, page := range cfg.Pages {
		paths = append(paths, cfg.Resolve(page.Template), cfg.Resolve(page.Script))
		for _, tmpl := range page.Dialogs {
			paths = append(paths, cfg.Resolve(tmpl))
		}
	}

	unique := make([]string, 0, len(paths))
	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		clean := filepath.Clean(p)
		if _, ok := seen[clean]; ok {
			continue
		}
		seen[clean] = struct{}{}
		unique = append(unique, clean)
	}
	sort.Strings(unique)
	return unique
}
