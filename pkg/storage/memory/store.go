package memory

import (
	"context"
	"sync"

	"gstdirectory/pkg/directory"
)

// Store keeps records in process memory.
type Store struct {
	mu      sync.Mutex
	records []directory.Record
}

var _ directory.Store = (*Store)(nil)

func NewStore(seed ...directory.Record) *Store {
	records := make([]directory.Record, 0, len(seed))
	records = append(records, seed...)
	return &Store{records: records}
}

func (m *Store) List(ctx context.Context) ([]directory.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Copy to avoid race
	out := make([]directory.Record, len(m.records))
	copy(out, m.records)
	directory.SortRecords(out)
	return out, nil
}

func (m *Store) Insert(ctx context.Context, rec directory.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.indexOf(rec.Key()) >= 0 {
		return directory.ErrDuplicateKey
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *Store) Update(ctx context.Context, old directory.Key, rec directory.Record) (directory.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(old)
	if i < 0 {
		return directory.Record{}, directory.ErrNotFound
	}
	if rec.Key() != old {
		if j := m.indexOf(rec.Key()); j >= 0 && j != i {
			return directory.Record{}, directory.ErrDuplicateKey
		}
	}
	prev := m.records[i]
	m.records[i] = rec
	return prev, nil
}

func (m *Store) Delete(ctx context.Context, key directory.Key) (directory.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(key)
	if i < 0 {
		return directory.Record{}, directory.ErrNotFound
	}
	prev := m.records[i]
	m.records = append(m.records[:i], m.records[i+1:]...)
	return prev, nil
}

func (m *Store) Close() error { return nil }

func (m *Store) indexOf(key directory.Key) int {
	for i, r := range m.records {
		if r.Key() == key {
			return i
		}
	}
	return -1
}
