package vault

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce batches bursts of file events into one rescan. Editors save
// through temp files and renames, producing several events per save.
const debounce = 200 * time.Millisecond

// Watch runs an fsnotify watcher over the vault until ctx is cancelled,
// rescanning after each burst of file events and handing every
// discovered change to onChange. Wire onChange to the engine's
// NoteChanged/NoteDeleted to keep cached directive results honest under
// external edits.
func (v *Vault) Watch(ctx context.Context, onChange func(Change)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, v.root); err != nil {
		return err
	}
	v.log.Info("vault: watching", slog.String("root", v.root))

	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			fire = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			v.log.Info("vault: watcher stopped")
			return nil

		case <-fire:
			changes, err := v.Rescan()
			if err != nil {
				v.log.Warn("vault: rescan failed", slog.String("error", err.Error()))
				continue
			}
			for _, change := range changes {
				v.log.Debug("vault: note changed on disk",
					slog.String("kind", change.Kind.String()),
					slog.String("id", change.ID))
				if onChange != nil {
					onChange(change)
				}
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						v.log.Warn("vault: watch new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					// Files moved in with the directory never get
					// their own events.
					schedule()
				}
			}
			if relevant(ev.Name) {
				schedule()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			v.log.Warn("vault: watch error", slog.String("error", err.Error()))
		}
	}
}

// relevant filters events down to note files. Temp files and other
// dotfiles never reach the rescan.
func relevant(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return strings.HasSuffix(base, ".md")
}

// addDirsRecursive watches root and every non-hidden directory under it.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && p != root {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}
