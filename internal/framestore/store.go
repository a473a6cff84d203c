// Package framestore keeps the frames of one capture session on disk, one
// PNG file per frame, addressed by a zero-based index.
package framestore

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ivlev/text2video/internal/system"
)

const (
	frameInfix = "-Image-"
	frameExt   = ".png"
	tmpSuffix  = ".tmp"

	// DirName is the well-known subdirectory under the user cache dir.
	DirName = "text2video"
)

// DefaultDir returns <user cache dir>/text2video/frames.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", &StorageError{Op: "resolve", Path: "cache dir", Err: err}
	}
	return filepath.Join(base, DirName, "frames"), nil
}

type Options struct {
	// SessionID prefixes every frame file. A random UUID when empty.
	SessionID string
	// MinFreeBytes makes Reset warn when the filesystem has less room left.
	MinFreeBytes uint64
	Logger       *slog.Logger
}

// Store is the frame store of a single session. Its methods are safe to call
// from several goroutines, but only one session may use a directory at a
// time.
type Store struct {
	dir     string
	session string
	minFree uint64
	logger  *slog.Logger

	mu   sync.Mutex
	next int
}

// New prepares a store for dir. Nothing is touched on disk until the first
// Reset or Save.
func New(dir string, opts Options) (*Store, error) {
	if dir == "" {
		return nil, errors.New("frame store directory is empty")
	}
	session := opts.SessionID
	if session == "" {
		session = uuid.NewString()
	}
	if strings.ContainsAny(session, `/\`) || strings.Contains(session, frameInfix) {
		return nil, fmt.Errorf("invalid session id %q", session)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		dir:     dir,
		session: session,
		minFree: opts.MinFreeBytes,
		logger:  logger.With("session", session),
	}, nil
}

// Open attaches to frames a previous process left in dir for session, for
// example after a failed encode. The frames must be contiguous from 0.
func Open(dir, session string, logger *slog.Logger) (*Store, error) {
	s, err := New(dir, Options{SessionID: session, Logger: logger})
	if err != nil {
		return nil, err
	}
	indices, err := s.scan()
	if err != nil {
		return nil, err
	}
	for i := 0; i < len(indices); i++ {
		if _, ok := indices[i]; !ok {
			return nil, &StorageError{Op: "open", Path: dir,
				Err: fmt.Errorf("frame %d missing, %d frames on disk", i, len(indices))}
		}
	}
	s.next = len(indices)
	s.logger.Info("frame store opened", "dir", dir, "frames", s.next)
	return s, nil
}

// Sessions lists the session ids that have frames in dir, sorted.
func Sessions(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &StorageError{Op: "list", Path: dir, Err: err}
	}
	seen := make(map[string]struct{})
	var out []string
	for _, e := range entries {
		session, _, ok := strings.Cut(e.Name(), frameInfix)
		if e.IsDir() || !ok || !strings.HasSuffix(e.Name(), frameExt) {
			continue
		}
		if _, dup := seen[session]; !dup {
			seen[session] = struct{}{}
			out = append(out, session)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) Dir() string       { return s.dir }
func (s *Store) SessionID() string { return s.session }

// FramePath is the file that holds frame index.
func (s *Store) FramePath(index int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s%s%05d%s", s.session, frameInfix, index, frameExt))
}

// Reset starts a new session: the counter goes back to zero and the whole
// directory is emptied.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next = 0
	if err := s.ensureDir(); err != nil {
		return err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return &StorageError{Op: "reset", Path: s.dir, Err: err}
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(s.dir, e.Name())); err != nil {
			return &StorageError{Op: "reset", Path: s.dir, Err: err}
		}
	}

	if s.minFree > 0 {
		free, err := system.DiskFree(s.dir)
		if err != nil {
			s.logger.Warn("disk usage unavailable", "dir", s.dir, "error", err)
		} else if free < s.minFree {
			s.logger.Warn("low disk space for frame capture",
				"dir", s.dir, "free", system.FormatBytes(free), "want", system.FormatBytes(s.minFree))
		}
	}
	s.logger.Debug("frame store reset", "dir", s.dir, "removed", len(entries))
	return nil
}

// Save stores data as the next frame and returns its index. The file is
// written under a temporary name and renamed, so a reader never sees a
// partial frame.
func (s *Store) Save(data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureDir(); err != nil {
		return 0, err
	}
	path := s.FramePath(s.next)
	tmp := path + tmpSuffix
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		os.Remove(tmp)
		return 0, &StorageError{Op: "save", Path: path, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return 0, &StorageError{Op: "save", Path: path, Err: err}
	}

	index := s.next
	s.next++
	return index, nil
}

// Load returns the bytes of frame index of the current session.
func (s *Store) Load(index int) ([]byte, error) {
	s.mu.Lock()
	count := s.next
	s.mu.Unlock()

	path := s.FramePath(index)
	if index < 0 || index >= count {
		return nil, &FrameNotFoundError{Index: index, Path: path}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &FrameNotFoundError{Index: index, Path: path}
		}
		return nil, &StorageError{Op: "load", Path: path, Err: err}
	}
	return data, nil
}

// FrameCount is the number of frames saved since the last Reset.
func (s *Store) FrameCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// Purge deletes the session's frames and zeroes the counter. Other files in
// the directory, such as the encoded video, are left alone.
func (s *Store) Purge() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		s.next = 0
		return nil
	}
	if err != nil {
		return &StorageError{Op: "purge", Path: s.dir, Err: err}
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() || !s.isSessionFile(e.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			return &StorageError{Op: "purge", Path: s.dir, Err: err}
		}
		removed++
	}
	s.next = 0
	s.logger.Debug("frame store purged", "dir", s.dir, "removed", removed)
	return nil
}

func (s *Store) ensureDir() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return &StorageError{Op: "create", Path: s.dir, Err: err}
	}
	return nil
}

func (s *Store) isSessionFile(name string) bool {
	return strings.HasPrefix(name, s.session+frameInfix) &&
		(strings.HasSuffix(name, frameExt) || strings.HasSuffix(name, frameExt+tmpSuffix))
}

// scan collects the indices of the session's complete frames on disk.
func (s *Store) scan() (map[int]struct{}, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, &StorageError{Op: "open", Path: s.dir, Err: err}
	}
	prefix := s.session + frameInfix
	indices := make(map[int]struct{})
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, frameExt) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, prefix), frameExt))
		if err != nil || n < 0 {
			continue
		}
		indices[n] = struct{}{}
	}
	return indices, nil
}
