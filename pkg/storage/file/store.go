// Package file persists the directory as a JSON array in a single file.
//
// Mutations are serialized inside the process and written atomically through
// a temporary file and rename. Writers in different processes are not
// coordinated: the last rename wins.
package file

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gstdirectory/pkg/directory"
)

// Store is a directory.Store backed by a JSON file.
type Store struct {
	path string

	mu sync.Mutex
	// checksum of the last content this process wrote
	lastWrite [sha256.Size]byte
}

var _ directory.Store = (*Store)(nil)

// NewStore returns a store for path, creating its parent directory.
// The file itself is created on the first write.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("file store: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, directory.NewStorageError("mkdir", err)
	}
	return &Store{path: path}, nil
}

// Path returns the data file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) List(ctx context.Context) ([]directory.Record, error) {
	s.mu.Lock()
	records, err := s.read()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	directory.SortRecords(records)
	return records, nil
}

func (s *Store) Insert(ctx context.Context, rec directory.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return err
	}
	if indexOf(records, rec.Key()) >= 0 {
		return directory.ErrDuplicateKey
	}
	return s.write(append(records, rec))
}

func (s *Store) Update(ctx context.Context, old directory.Key, rec directory.Record) (directory.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return directory.Record{}, err
	}
	i := indexOf(records, old)
	if i < 0 {
		return directory.Record{}, directory.ErrNotFound
	}
	if rec.Key() != old {
		if j := indexOf(records, rec.Key()); j >= 0 && j != i {
			return directory.Record{}, directory.ErrDuplicateKey
		}
	}
	prev := records[i]
	records[i] = rec
	if err := s.write(records); err != nil {
		return directory.Record{}, err
	}
	return prev, nil
}

func (s *Store) Delete(ctx context.Context, key directory.Key) (directory.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return directory.Record{}, err
	}
	i := indexOf(records, key)
	if i < 0 {
		return directory.Record{}, directory.ErrNotFound
	}
	prev := records[i]
	if err := s.write(append(records[:i], records[i+1:]...)); err != nil {
		return directory.Record{}, err
	}
	return prev, nil
}

func (s *Store) Close() error { return nil }

// read loads the file. A missing or empty file is an empty directory; a file
// that does not parse is a StorageError so it is never overwritten blindly.
func (s *Store) read() ([]directory.Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []directory.Record{}, nil
	}
	if err != nil {
		return nil, directory.NewStorageError("read", err)
	}
	return decode(data)
}

func decode(data []byte) ([]directory.Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []directory.Record{}, nil
	}

	var raw []directory.Record
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, directory.NewStorageError("decode", err)
	}

	// hand-edited files may carry lower-case or padded values, so the key
	// is checked again after normalizing
	records := make([]directory.Record, 0, len(raw))
	seen := make(map[directory.Key]int, len(raw))
	for i, r := range raw {
		rec := directory.NewRecord(r.City, r.Trader, r.GST)
		if first, ok := seen[rec.Key()]; ok {
			return nil, directory.NewStorageError("decode",
				fmt.Errorf("entries %d and %d share key %s", first, i, rec.Key()))
		}
		seen[rec.Key()] = i
		records = append(records, rec)
	}
	return records, nil
}

func encode(records []directory.Record) ([]byte, error) {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func (s *Store) write(records []directory.Record) error {
	data, err := encode(records)
	if err != nil {
		return directory.NewStorageError("encode", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*")
	if err != nil {
		return directory.NewStorageError("write", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return directory.NewStorageError("write", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return directory.NewStorageError("sync", err)
	}
	if err := tmp.Close(); err != nil {
		return directory.NewStorageError("close", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return directory.NewStorageError("rename", fmt.Errorf("replace %s: %w", s.path, err))
	}
	// callers hold s.mu, so the watcher compares against this sum only
	// after it is set
	s.lastWrite = sha256.Sum256(data)
	return nil
}

func indexOf(records []directory.Record, key directory.Key) int {
	for i, r := range records {
		if r.Key() == key {
			return i
		}
	}
	return -1
}
