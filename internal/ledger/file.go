package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
)

const fileMode fs.FileMode = 0o644

// FileStore is an append-only ledger persisted as JSON lines. Every append is
// fsynced before it becomes visible. A failed append is truncated away so the
// file never holds a line the store did not acknowledge.
type FileStore struct {
	mu    sync.RWMutex
	file  *os.File
	size  int64
	count uint64
	tail  Entry
	empty bool

	syncFile func() error
	// set when a failed append could not be rolled back
	broken error
}

// NewFileStore opens (or creates) the ledger file at path and replays it.
func NewFileStore(path string) (*FileStore, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, fileMode)
	if err != nil {
		return nil, &StorageError{Op: "open", Err: err}
	}
	s := &FileStore{file: file, empty: true, syncFile: file.Sync}
	if err := s.replay(); err != nil {
		file.Close()
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, &StorageError{Op: "open", Err: err}
	}
	s.size = info.Size()
	return s, nil
}

func (s *FileStore) replay() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return &StorageError{Op: "replay", Err: err}
	}
	dec := json.NewDecoder(s.file)
	for {
		var entry Entry
		if err := dec.Decode(&entry); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return &StorageError{Op: "replay", Err: fmt.Errorf("entry %d: %w", s.count+1, err)}
		}
		if entry.Sequence != s.count+1 {
			return &StorageError{Op: "replay", Err: fmt.Errorf("sequence gap: expected %d, got %d", s.count+1, entry.Sequence)}
		}
		s.track(entry)
	}
}

func (s *FileStore) track(entry Entry) {
	s.count = entry.Sequence
	if s.empty || newer(entry, s.tail) {
		s.tail = entry
		s.empty = false
	}
}

// LastEntry returns the most recent entry recorded in the file.
func (s *FileStore) LastEntry(_ context.Context) (Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.empty {
		return Entry{}, false, nil
	}
	return s.tail, true, nil
}

// Append writes entry to the end of the file and syncs it to disk.
func (s *FileStore) Append(_ context.Context, entry Entry) error {
	if entry.BalanceAfter().IsNegative() {
		return ErrNegativeBalance
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.broken != nil {
		return &StorageError{Op: "append", Err: fmt.Errorf("ledger file left inconsistent: %w", s.broken)}
	}
	if entry.Sequence != s.count+1 {
		return ErrConcurrentModification
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return &StorageError{Op: "append", Err: err}
	}
	line = append(line, '\n')
	if _, err := s.file.Write(line); err != nil {
		return s.rollback("append", err)
	}
	if err := s.syncFile(); err != nil {
		return s.rollback("sync", err)
	}

	s.size += int64(len(line))
	s.track(entry)
	return nil
}

// rollback drops whatever part of the failed append reached the file.
func (s *FileStore) rollback(op string, cause error) error {
	if err := s.file.Truncate(s.size); err != nil {
		s.broken = err
		return &StorageError{Op: op, Err: errors.Join(cause, fmt.Errorf("truncate: %w", err))}
	}
	return &StorageError{Op: op, Err: cause}
}

// Close releases the underlying file.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
