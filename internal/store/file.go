package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"dailybingo/internal/bingo"
)

// FileStore keeps each session in <dir>/<session id>.json.
type FileStore struct {
	dir     string
	timeout time.Duration
	log     *zap.SugaredLogger
}

// NewFileStore returns a store rooted at dir. Snapshots whose file is older
// than timeout are treated as absent; a zero timeout disables that check.
func NewFileStore(dir string, timeout time.Duration, log *zap.SugaredLogger) *FileStore {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &FileStore{dir: dir, timeout: timeout, log: log}
}

// Dir returns the directory holding session files.
func (s *FileStore) Dir() string {
	return s.dir
}

// SessionPath returns the file for sessionID, refusing ids that could
// resolve outside the store directory.
func (s *FileStore) SessionPath(sessionID string) (string, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, sessionID+".json")
	rel, err := filepath.Rel(s.dir, path)
	if err != nil || rel != filepath.Base(path) {
		return "", ErrInvalidSessionID
	}
	return path, nil
}

// Save writes the snapshot atomically via a temp file and rename.
func (s *FileStore) Save(_ context.Context, sessionID string, state bingo.State) error {
	path, err := s.SessionPath(sessionID)
	if err != nil {
		s.log.Warnf("Skipping save for invalid session ID %q", sessionID)
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create sessions directory: %w", err)
	}
	data, err := encode(state)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", sessionID, err)
	}
	tmp, err := os.CreateTemp(s.dir, sessionID+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write session %s: %w", sessionID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close session %s: %w", sessionID, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename session %s: %w", sessionID, err)
	}
	s.log.Debugf("Saved session file: %s", path)
	return nil
}

// Load reads a snapshot. Expired, corrupt and structurally invalid files are
// removed and reported as ErrNotFound.
func (s *FileStore) Load(_ context.Context, sessionID string) (*bingo.State, error) {
	path, err := s.SessionPath(sessionID)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("stat session %s: %w", sessionID, err)
	}
	if s.timeout > 0 {
		if age := time.Since(info.ModTime()); age > s.timeout {
			s.log.Infof("Session file is too old (%v, max: %v), removing: %s", age, s.timeout, path)
			s.remove(path)
			return nil, ErrNotFound
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", sessionID, err)
	}
	state, err := decode(data)
	if err != nil {
		s.log.Warnf("Session file %s is unusable, removing: %v", path, err)
		s.remove(path)
		return nil, ErrNotFound
	}
	return state, nil
}

// Cleanup removes session files last written before now minus maxAge.
func (s *FileStore) Cleanup(ctx context.Context, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read sessions directory: %w", err)
	}
	cutoff := time.Now().Add(-maxAge)
	removed, failed := 0, 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			return removed, ctx.Err()
		}
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			failed++
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			s.log.Warnf("Failed to remove old session file %s: %v", entry.Name(), err)
			failed++
			continue
		}
		removed++
	}
	s.log.Infof("Session cleanup completed: removed %d files, %d errors", removed, failed)
	return removed, nil
}

func (s *FileStore) remove(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.log.Warnf("Failed to remove session file %s: %v", path, err)
	}
}
