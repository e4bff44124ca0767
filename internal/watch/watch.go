// Package watch re-runs generation when source or template files
// change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"rxgen/internal/project"
)

// debounce coalesces editor save bursts into one rebuild.
const debounce = 200 * time.Millisecond

// Watch observes every directory under root (honoring config excludes)
// and invokes run after each relevant change. It returns when ctx is
// cancelled.
func Watch(ctx context.Context, root string, cfg *project.Config, run func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer watcher.Close()

	addTree := func(base string) error {
		return filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			name := d.Name()
			if name != "." && strings.HasPrefix(name, ".") || name == "vendor" {
				return filepath.SkipDir
			}
			rel, relErr := filepath.Rel(root, path)
			if relErr == nil && cfg.Excluded(filepath.ToSlash(rel)) {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		})
	}
	if err := addTree(root); err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// New directories join the watch set as they appear.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					addTree(event.Name)
					continue
				}
			}
			if !relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				timer.Reset(debounce)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			if err := run(); err != nil {
				fmt.Printf("generation failed: %v\n", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Printf("watcher error: %v\n", err)
		}
	}
}

// relevant reports whether an event should trigger regeneration:
// writes, creates and removes of Go sources or templates, never the
// generator's own artifacts.
func relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	base := filepath.Base(event.Name)
	if project.IsGeneratedName(base) {
		return false
	}
	switch filepath.Ext(base) {
	case ".go", ".tmpl", ".gohtml", ".html", ".yaml":
		return true
	}
	return false
}
