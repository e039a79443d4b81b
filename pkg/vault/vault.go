// Package vault is a file-backed note store: one Markdown file per
// note, named by the note's path, with a YAML frontmatter block
// carrying the note's identity and timestamps. It implements
// note.Store, so an engine can run directly against a directory of
// files, and a watcher that feeds external edits back as invalidation
// events.
package vault

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/thymelang/thyme/pkg/note"
)

// Vault is a note collection rooted at a directory. Safe for
// concurrent use; every mutation reaches the file system before the
// in-memory index, so a confirmed call is durable.
type Vault struct {
	root  string
	log   *slog.Logger
	clock func() time.Time

	mu    sync.RWMutex
	notes map[string]*note.Note
	paths map[string]string // normalized note path -> ID
	token uint64
}

// Option configures a Vault.
type Option func(*Vault)

// WithLogger sets the vault's logger.
func WithLogger(log *slog.Logger) Option {
	return func(v *Vault) { v.log = log }
}

// WithClock sets the timestamp source. Tests replace it.
func WithClock(clock func() time.Time) Option {
	return func(v *Vault) { v.clock = clock }
}

// Open loads every note under root. Files without a frontmatter block
// are adopted: they get an identity and are rewritten in place.
func Open(root string, opts ...Option) (*Vault, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("vault: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("vault: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault: root is not a directory: %s", abs)
	}

	v := &Vault{
		root:  abs,
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock: time.Now,
		notes: make(map[string]*note.Note),
		paths: make(map[string]string),
		token: 1,
	}
	for _, opt := range opts {
		opt(v)
	}
	if _, err := v.Rescan(); err != nil {
		return nil, err
	}
	return v, nil
}

// Root returns the vault's absolute root directory.
func (v *Vault) Root() string {
	return v.root
}

// All returns copies of every note in natural order.
func (v *Vault) All() []*note.Note {
	v.mu.RLock()
	defer v.mu.RUnlock()

	all := make([]*note.Note, 0, len(v.notes))
	for _, n := range v.notes {
		copy := *n
		all = append(all, &copy)
	}
	sort.Slice(all, func(i, j int) bool { return note.Compare(all[i], all[j]) < 0 })
	return all
}

// ByID returns a copy of the note with the given ID.
func (v *Vault) ByID(id string) (*note.Note, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	n, ok := v.notes[id]
	if !ok {
		return nil, false
	}
	copy := *n
	return &copy, true
}

// ByPath returns a copy of the note at the given path.
func (v *Vault) ByPath(path string) (*note.Note, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	id, ok := v.paths[note.NormalizePath(path)]
	if !ok {
		return nil, false
	}
	copy := *v.notes[id]
	return &copy, true
}

// Token returns the current collection token.
func (v *Vault) Token() uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.token
}

// Create writes a new note file and indexes it.
func (v *Vault) Create(ctx context.Context, path, content string) (*note.Note, error) {
	normalized := note.NormalizePath(path)
	if normalized == "" {
		return nil, fmt.Errorf("vault: create: empty path")
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if _, taken := v.paths[normalized]; taken {
		return nil, fmt.Errorf("vault: create: a note already exists at %q", normalized)
	}

	n := &note.Note{
		ID:        uuid.NewString(),
		Path:      normalized,
		Content:   content,
		CreatedAt: v.clock(),
	}
	mtime, err := v.writeFile(n)
	if err != nil {
		return nil, err
	}
	n.ModifiedAt = mtime
	v.notes[n.ID] = n
	v.paths[normalized] = n.ID
	v.token++

	copy := *n
	return &copy, nil
}

// UpdatePath moves a note's file to a new, free path.
func (v *Vault) UpdatePath(ctx context.Context, id, path string) error {
	normalized := note.NormalizePath(path)
	if normalized == "" {
		return fmt.Errorf("vault: update path: empty path")
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	n, ok := v.notes[id]
	if !ok {
		return fmt.Errorf("vault: update path: no note with id %q", id)
	}
	if existing, taken := v.paths[normalized]; taken && existing != id {
		return fmt.Errorf("vault: update path: a note already exists at %q", normalized)
	}

	oldFile := v.filePath(n.Path)
	newFile := v.filePath(normalized)
	if err := os.MkdirAll(filepath.Dir(newFile), 0o755); err != nil {
		return fmt.Errorf("vault: update path: %w", err)
	}
	if err := os.Rename(oldFile, newFile); err != nil {
		return fmt.Errorf("vault: update path: %w", err)
	}

	// A rename leaves the file's modification time alone, so the
	// index's ModifiedAt stays put too.
	delete(v.paths, n.Path)
	n.Path = normalized
	v.paths[normalized] = id
	v.token++
	return nil
}

// UpdateContent rewrites a note's file with new content.
func (v *Vault) UpdateContent(ctx context.Context, id, content string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.rewriteLocked(id, func(n *note.Note) { n.Content = content })
}

// Append adds text to the end of a note's file, byte for byte.
func (v *Vault) Append(ctx context.Context, id, text string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.rewriteLocked(id, func(n *note.Note) { n.Content += text })
}

// MarkViewed stamps the note's ViewedAt in its frontmatter.
func (v *Vault) MarkViewed(ctx context.Context, id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	n, ok := v.notes[id]
	if !ok {
		return fmt.Errorf("vault: mark viewed: no note with id %q", id)
	}
	viewedAt := v.clock()
	updated := *n
	updated.ViewedAt = viewedAt
	mtime, err := v.writeFile(&updated)
	if err != nil {
		return err
	}
	n.ViewedAt = viewedAt
	n.ModifiedAt = mtime
	v.token++
	return nil
}

// Delete removes a note's file and drops it from the index.
func (v *Vault) Delete(ctx context.Context, id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	n, ok := v.notes[id]
	if !ok {
		return fmt.Errorf("vault: delete: no note with id %q", id)
	}
	if err := os.Remove(v.filePath(n.Path)); err != nil {
		return fmt.Errorf("vault: delete: %w", err)
	}
	delete(v.paths, n.Path)
	delete(v.notes, id)
	v.token++
	return nil
}

// rewriteLocked applies change to a copy of the note, writes the file,
// and only then updates the index.
func (v *Vault) rewriteLocked(id string, change func(*note.Note)) error {
	n, ok := v.notes[id]
	if !ok {
		return fmt.Errorf("vault: no note with id %q", id)
	}
	updated := *n
	change(&updated)
	mtime, err := v.writeFile(&updated)
	if err != nil {
		return err
	}
	updated.ModifiedAt = mtime
	*n = updated
	v.token++
	return nil
}

// writeFile renders a note to its file: temp file, then rename. It
// returns the written file's modification time, which is the
// authoritative ModifiedAt for the index; anything else would make a
// later Rescan see a phantom edit.
func (v *Vault) writeFile(n *note.Note) (time.Time, error) {
	data, err := renderFile(frontmatter{ID: n.ID, Created: n.CreatedAt, Viewed: n.ViewedAt}, n.Content)
	if err != nil {
		return time.Time{}, err
	}
	target := v.filePath(n.Path)
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return time.Time{}, fmt.Errorf("vault: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".thyme-tmp-*")
	if err != nil {
		return time.Time{}, fmt.Errorf("vault: write: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return time.Time{}, fmt.Errorf("vault: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return time.Time{}, fmt.Errorf("vault: write: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return time.Time{}, fmt.Errorf("vault: write: %w", err)
	}
	info, err := os.Stat(target)
	if err != nil {
		return time.Time{}, fmt.Errorf("vault: write: %w", err)
	}
	return info.ModTime(), nil
}

// filePath maps a note path to its file under the vault root.
func (v *Vault) filePath(notePath string) string {
	return filepath.Join(v.root, filepath.FromSlash(notePath)+".md")
}

// notePath maps a file under the root back to a note path, or "" when
// the file is not a vault note.
func (v *Vault) notePath(file string) string {
	rel, err := filepath.Rel(v.root, file)
	if err != nil || strings.HasPrefix(rel, "..") {
		return ""
	}
	if !strings.HasSuffix(rel, ".md") {
		return ""
	}
	return note.NormalizePath(filepath.ToSlash(strings.TrimSuffix(rel, ".md")))
}

// ChangeKind says what a rescan found happened to a note.
type ChangeKind int

const (
	ChangeCreated ChangeKind = iota
	ChangeUpdated
	ChangeDeleted
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	default:
		return "deleted"
	}
}

// Change is one note-level difference a rescan discovered.
type Change struct {
	Kind ChangeKind
	ID   string
}

// Rescan reloads the vault from disk and reports what changed since
// the index was last current. External edits land here, through the
// watcher or an explicit call.
func (v *Vault) Rescan() ([]Change, error) {
	loaded, err := v.loadAll()
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	var changes []Change
	for id, n := range loaded {
		old, ok := v.notes[id]
		if !ok {
			changes = append(changes, Change{Kind: ChangeCreated, ID: id})
			continue
		}
		if old.Path != n.Path || old.Content != n.Content ||
			!old.ModifiedAt.Equal(n.ModifiedAt) || !old.ViewedAt.Equal(n.ViewedAt) {
			changes = append(changes, Change{Kind: ChangeUpdated, ID: id})
		}
	}
	for id := range v.notes {
		if _, ok := loaded[id]; !ok {
			changes = append(changes, Change{Kind: ChangeDeleted, ID: id})
		}
	}

	if len(changes) > 0 || len(v.notes) != len(loaded) {
		v.notes = loaded
		v.paths = make(map[string]string, len(loaded))
		for id, n := range loaded {
			v.paths[n.Path] = id
		}
		v.token++
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].ID < changes[j].ID })
	return changes, nil
}

// loadAll reads every note file under the root. Files without an
// identity are adopted and rewritten with one.
func (v *Vault) loadAll() (map[string]*note.Note, error) {
	loaded := make(map[string]*note.Note)
	err := filepath.WalkDir(v.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && p != v.root {
				return filepath.SkipDir
			}
			return nil
		}
		path := v.notePath(p)
		if path == "" || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		n, err := v.loadFile(p, path)
		if err != nil {
			v.log.Warn("vault: skipping unreadable note",
				slog.String("file", p), slog.String("error", err.Error()))
			return nil
		}
		if prev, dup := loaded[n.ID]; dup {
			v.log.Warn("vault: duplicate note id, keeping first",
				slog.String("id", n.ID),
				slog.String("kept", prev.Path), slog.String("ignored", n.Path))
			return nil
		}
		loaded[n.ID] = n
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("vault: scan: %w", err)
	}
	return loaded, nil
}

func (v *Vault) loadFile(file, path string) (*note.Note, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(file)
	if err != nil {
		return nil, err
	}
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}

	n := &note.Note{
		ID:         fm.ID,
		Path:       path,
		Content:    body,
		CreatedAt:  fm.Created,
		ModifiedAt: info.ModTime(),
		ViewedAt:   fm.Viewed,
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
		n.CreatedAt = info.ModTime()
		mtime, err := v.writeFile(n)
		if err != nil {
			return nil, err
		}
		n.ModifiedAt = mtime
		v.log.Info("vault: adopted note", slog.String("path", path), slog.String("id", n.ID))
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = info.ModTime()
	}
	return n, nil
}

var _ note.Store = (*Vault)(nil)
