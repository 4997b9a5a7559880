package customize

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ItemStore is the durable storage contract for menu item records. Calls are
// single-attempt; the commit engine does not retry.
type ItemStore interface {
	// FetchItem looks up the record stored under key. The boolean reports
	// whether the record exists; absence is not an error.
	FetchItem(ctx context.Context, key int64) (ItemRecord, bool, error)
	// UpsertItem creates or updates a record and returns the storage key.
	// Keys at or below zero request creation of a new record.
	UpsertItem(ctx context.Context, menuID, key int64, record ItemRecord) (int64, error)
	// DeleteItem permanently removes the record stored under key, bypassing
	// any soft-delete semantics.
	DeleteItem(ctx context.Context, key int64) error
}

// ItemLister lists the records belonging to one menu.
type ItemLister interface {
	ListItems(ctx context.Context, menuID int64) ([]MenuItem, error)
}

// StorageError carries a collaborator-supplied code alongside the cause. The
// commit engine lifts Code into the Outcome instead of raising.
type StorageError struct {
	Op   string
	Code string
	Err  error
}

func (e *StorageError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err == nil {
		return fmt.Sprintf("customize: storage %s failed (%s)", e.Op, e.Code)
	}
	return fmt.Sprintf("customize: storage %s failed (%s): %v", e.Op, e.Code, e.Err)
}

func (e *StorageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// storageCode extracts the structured code when err carries one.
func storageCode(err error, fallback string) string {
	var storageErr *StorageError
	if errors.As(err, &storageErr) && storageErr.Code != "" {
		return storageErr.Code
	}
	return fallback
}

// MemoryItemStore is a mutex-guarded in-memory ItemStore and ItemLister for
// tests and examples.
type MemoryItemStore struct {
	mu      sync.RWMutex
	items   map[int64]ItemRecord
	nextKey int64
}

// NewMemoryItemStore builds an empty store. Created records receive keys
// starting at 1.
func NewMemoryItemStore() *MemoryItemStore {
	return &MemoryItemStore{
		items:   map[int64]ItemRecord{},
		nextKey: 1,
	}
}

// Seed inserts record under a fresh key and returns the key.
func (s *MemoryItemStore) Seed(record ItemRecord) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.nextKey
	s.nextKey++
	s.items[key] = record
	return key
}

// FetchItem implements ItemStore.
func (s *MemoryItemStore) FetchItem(_ context.Context, key int64) (ItemRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.items[key]
	return record, ok, nil
}

// UpsertItem implements ItemStore. The menu id on the stored record always
// follows the menuID argument.
func (s *MemoryItemStore) UpsertItem(_ context.Context, menuID, key int64, record ItemRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record.MenuID = menuID
	if key <= 0 {
		key = s.nextKey
		s.nextKey++
		s.items[key] = record
		return key, nil
	}
	if _, ok := s.items[key]; !ok {
		return 0, &StorageError{Op: "upsert", Code: "not_found", Err: fmt.Errorf("item %d does not exist", key)}
	}
	s.items[key] = record
	return key, nil
}

// DeleteItem implements ItemStore.
func (s *MemoryItemStore) DeleteItem(_ context.Context, key int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[key]; !ok {
		return &StorageError{Op: "delete", Code: "not_found", Err: fmt.Errorf("item %d does not exist", key)}
	}
	delete(s.items, key)
	return nil
}

// ListItems implements ItemLister, ordered by position with key as tiebreaker.
func (s *MemoryItemStore) ListItems(_ context.Context, menuID int64) ([]MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []MenuItem
	for key, record := range s.items {
		if record.MenuID != menuID {
			continue
		}
		out = append(out, MenuItem{Key: key, Record: record})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Record.Position == out[j].Record.Position {
			return out[i].Key < out[j].Key
		}
		return out[i].Record.Position < out[j].Record.Position
	})
	return out, nil
}
