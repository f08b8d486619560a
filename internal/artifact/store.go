// Package artifact manages the on-disk workspace for uploaded and encoded
// files. Every write goes to a server-chosen uuid-named file, never a
// client-supplied path. Each user owns one slot per artifact kind; writing a
// slot replaces its previous file.
package artifact

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	// KindEncodeInput is the carrier image uploaded for encoding.
	KindEncodeInput Kind = "enc-in"
	// KindEncodeOutput is the encoded artifact produced by a transform.
	KindEncodeOutput Kind = "enc-out"
	// KindDecodeInput is the artifact uploaded for decoding.
	KindDecodeInput Kind = "dec-in"
	// KindDecodeOutput is the message recovered by a decode.
	KindDecodeOutput Kind = "dec-out"
)

// Artifact identifies one stored file. Returned by Put and passed explicitly
// to whatever consumes the file next.
type Artifact struct {
	Path      string
	Kind      Kind
	Username  string
	WrittenAt time.Time
}

type slotKey struct {
	username string
	kind     Kind
}

// Store holds per-user artifact slots under a single workspace directory.
// Slot bookkeeping is in-memory; files left behind by a restart are reaped
// by PurgeOlderThan.
type Store struct {
	dir string

	mu    sync.Mutex
	slots map[slotKey]Artifact

	lmu   sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("artifact workspace: %w", err)
	}
	return &Store{
		dir:   dir,
		slots: make(map[slotKey]Artifact),
		locks: make(map[string]*sync.Mutex),
	}, nil
}

// Dir returns the workspace directory.
func (s *Store) Dir() string { return s.dir }

// WithUserLock runs fn while holding the user's slot lock, so an upload and
// its transform never interleave with another request for the same user.
func (s *Store) WithUserLock(username string, fn func() error) error {
	s.lmu.Lock()
	lock, ok := s.locks[username]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[username] = lock
	}
	s.lmu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	return fn()
}

// Put stores the contents of r as the user's slot of the given kind. The file
// is written to a temp path, synced, and renamed into place before the slot is
// swapped, so a failed write never clobbers the previous artifact. ext should
// include the dot (".png"); it may be empty.
func (s *Store) Put(username string, kind Kind, ext string, r io.Reader) (Artifact, error) {
	name := uuid.NewString() + ext
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return Artifact{}, fmt.Errorf("artifact write: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmp)
		return Artifact{}, fmt.Errorf("artifact write: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return Artifact{}, fmt.Errorf("artifact sync: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return Artifact{}, fmt.Errorf("artifact close: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return Artifact{}, fmt.Errorf("artifact rename: %w", err)
	}

	a := Artifact{Path: path, Kind: kind, Username: username, WrittenAt: time.Now()}

	s.mu.Lock()
	key := slotKey{username, kind}
	old, had := s.slots[key]
	s.slots[key] = a
	s.mu.Unlock()

	if had {
		os.Remove(old.Path)
	}
	return a, nil
}

// Get returns the user's current artifact of the given kind, if any.
func (s *Store) Get(username string, kind Kind) (Artifact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.slots[slotKey{username, kind}]
	return a, ok
}

// Open opens the artifact's file for reading.
func (s *Store) Open(a Artifact) (*os.File, error) {
	return os.Open(a.Path)
}

// PurgeOlderThan removes slots idle for longer than ttl, plus any workspace
// files no slot references (leftovers from a crash or restart). Returns the
// number of files removed.
func (s *Store) PurgeOlderThan(ttl time.Duration) (int, error) {
	cutoff := time.Now().Add(-ttl)
	removed := 0

	s.mu.Lock()
	referenced := make(map[string]bool, len(s.slots))
	for key, a := range s.slots {
		if a.WrittenAt.Before(cutoff) {
			delete(s.slots, key)
			if os.Remove(a.Path) == nil {
				removed++
			}
			continue
		}
		referenced[filepath.Base(a.Path)] = true
	}
	s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return removed, fmt.Errorf("artifact purge: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || referenced[e.Name()] {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if os.Remove(filepath.Join(s.dir, e.Name())) == nil {
			removed++
		}
	}
	return removed, nil
}
