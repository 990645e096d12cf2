// Package watch provides a filesystem watcher that feeds file changes into
// the per-cell parse caches, so the daemon's cached state precisely tracks
// what is on disk.
package watch

import (
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/thought-machine/celld/src/cli/logging"
	cellfs "github.com/thought-machine/celld/src/fs"
	"github.com/thought-machine/celld/src/parse"
)

var log = logging.Log

const debounceInterval = 50 * time.Millisecond

// A Watcher watches the roots of a set of cells and invalidates their cached
// parse state when files change.
type Watcher struct {
	watcher *fsnotify.Watcher
	states  []*parse.CellState
	dirs    map[string]struct{}
	stop    chan struct{}
	done    chan struct{}
}

// New creates a watcher over the given cell states and starts watching each
// cell's root recursively.
func New(states ...*parse.CellState) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		watcher: fsw,
		states:  states,
		dirs:    map[string]struct{}{},
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, state := range states {
		if err := w.addTree(state.CellRoot().String()); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Run processes events until Close is called. It never returns an error from
// individual events; those are logged and watching continues.
func (w *Watcher) Run() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			changed := map[string]struct{}{event.Name: {}}
			// Quick debounce; collect everything else arriving in the next brief period.
		outer:
			for {
				select {
				case event, ok := <-w.watcher.Events:
					if !ok {
						break outer
					}
					changed[event.Name] = struct{}{}
				case <-time.After(debounceInterval):
					break outer
				}
			}
			w.invalidateAll(changed)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Error("Error watching files: %s", err)
		case <-w.stop:
			return
		}
	}
}

// Close stops the watcher and waits for Run to return.
func (w *Watcher) Close() error {
	close(w.stop)
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *Watcher) invalidateAll(changed map[string]struct{}) {
	for name := range changed {
		path, err := cellfs.ExpandAbsPath(name)
		if err != nil {
			log.Error("Ignoring event for unresolvable path %s: %s", name, err)
			continue
		}
		// New directories need watches of their own before anything inside
		// them changes.
		if cellfs.IsDirectory(name) {
			if err := w.addTree(name); err != nil {
				log.Error("Failed to add watch on %s: %s", name, err)
			}
			continue
		}
		for _, state := range w.states {
			if !path.ContainedIn(state.CellRoot()) {
				continue
			}
			if n := state.InvalidatePath(path, true); n > 0 {
				log.Debug("Invalidated %d raw nodes for %s", n, path)
			}
		}
	}
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(name string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		} else if !entry.IsDir() {
			return nil
		} else if base := filepath.Base(name); name != root && len(base) > 1 && base[0] == '.' {
			return filepath.SkipDir // Don't descend into .git and friends.
		}
		if _, present := w.dirs[name]; !present {
			log.Debug("Adding watch on %s", name)
			w.dirs[name] = struct{}{}
			if err := w.watcher.Add(name); err != nil {
				return err
			}
		}
		return nil
	})
}
