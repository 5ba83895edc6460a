package world

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeKind describes the type of content change detected.
type ChangeKind int

const (
	ChangeModified ChangeKind = iota // Entry or manifest edited
	ChangeRemoved                    // Content file deleted
)

// Change represents a detected change in the world directory.
type Change struct {
	Kind    ChangeKind
	EntryID string // Derived from parsing the file (empty for the manifest or on removal)
	File    string // Absolute path
}

// Watcher monitors a world directory for content changes using
// fsnotify, so `validate --watch` can re-check edits as authors make
// them.
type Watcher struct {
	Dir     string
	Changes <-chan Change // Read-only external channel

	changes chan Change // Internal write channel
	done    chan struct{}
	watcher *fsnotify.Watcher
}

// NewWatcher creates a watcher for the given world directory.
func NewWatcher(dir string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ch := make(chan Change, 16)
	w := &Watcher{
		Dir:     dir,
		Changes: ch,
		changes: ch,
		done:    make(chan struct{}),
		watcher: fw,
	}
	return w, nil
}

// Start begins watching the manifest and the entries directory.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(w.Dir); err != nil {
		return err
	}
	if err := w.watcher.Add(filepath.Join(w.Dir, "entries")); err != nil {
		return err
	}

	go w.loop()
	return nil
}

// Stop closes the watcher and channels.
func (w *Watcher) Stop() {
	w.watcher.Close()
	<-w.done // Wait for loop to exit
	close(w.changes)
}

func (w *Watcher) loop() {
	defer close(w.done)

	// Debounce: track last event time per file.
	const debounce = 100 * time.Millisecond
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				for file := range pending {
					w.emitChange(file)
				}
				return
			}

			if !w.isContentFile(event.Name) {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) {
				pending[event.Name] = time.Now()
			}

		case _, ok := <-ticker.C:
			if !ok {
				return
			}
			now := time.Now()
			for file, t := range pending {
				if now.Sub(t) >= debounce {
					w.emitChange(file)
					delete(pending, file)
				}
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal for an authoring aid.
		}
	}
}

func (w *Watcher) isContentFile(name string) bool {
	base := filepath.Base(name)
	if base == "world.toml" {
		return true
	}
	return strings.HasSuffix(base, ".md")
}

func (w *Watcher) emitChange(file string) {
	if filepath.Base(file) == "world.toml" {
		w.changes <- Change{Kind: ChangeModified, File: file}
		return
	}

	entry, err := parseEntryFile(file)
	if err != nil {
		// File may have been removed mid-edit.
		w.changes <- Change{Kind: ChangeRemoved, File: file}
		return
	}

	w.changes <- Change{
		Kind:    ChangeModified,
		EntryID: entry.ID,
		File:    file,
	}
}
