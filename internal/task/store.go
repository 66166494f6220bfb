package task

import (
	"context"
	"fmt"
	"time"
)

// KeyPrefix namespaces task records in the cache.
const KeyPrefix = "task:"

// Key returns the cache key holding the record for id.
func Key(id string) string {
	return KeyPrefix + id
}

// Cache is the subset of the cache store the record store needs.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	SetJSONIfAbsent(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
}

// RecordStore persists task records in the cache with a fixed expiry.
// Every write refreshes the expiry.
type RecordStore struct {
	cache Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewRecordStore creates a RecordStore.
func NewRecordStore(cache Cache, ttl time.Duration) (*RecordStore, error) {
	if cache == nil {
		return nil, ErrNilCache
	}
	return &RecordStore{
		cache: cache,
		ttl:   ttl,
		now:   func() time.Time { return time.Now().UTC() },
	}, nil
}

// New builds the initial record for a task at the store's clock.
func (s *RecordStore) New(id string, typ Type, contextID string) Record {
	return NewRecord(id, typ, contextID, s.now())
}

// Create writes the initial record. It fails with ErrTaskExists when the id is taken.
func (s *RecordStore) Create(ctx context.Context, rec Record) error {
	ok, err := s.cache.SetJSONIfAbsent(ctx, Key(rec.TaskID), rec, s.ttl)
	if err != nil {
		return fmt.Errorf("failed to create task record: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskExists, rec.TaskID)
	}
	return nil
}

// Get returns the record for id, or ErrTaskNotFound when it is absent or expired.
func (s *RecordStore) Get(ctx context.Context, id string) (Record, error) {
	var rec Record
	found, err := s.cache.GetJSON(ctx, Key(id), &rec)
	if err != nil {
		return Record{}, fmt.Errorf("failed to get task record: %w", err)
	}
	if !found {
		return Record{}, ErrTaskNotFound
	}
	return rec, nil
}

// Update reads the record, applies fn and writes the result back.
// fn's error aborts the write. Only the owning processor calls Update, so
// the read-modify-write does not race with other writers.
func (s *RecordStore) Update(ctx context.Context, id string, fn func(*Record, time.Time) error) (Record, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if err := fn(&rec, s.now()); err != nil {
		return Record{}, err
	}
	if err := s.cache.SetJSON(ctx, Key(id), rec, s.ttl); err != nil {
		return Record{}, fmt.Errorf("failed to update task record: %w", err)
	}
	return rec, nil
}

// Reporter returns a Reporter bound to the record for id.
func (s *RecordStore) Reporter(id string) *Reporter {
	return &Reporter{store: s, id: id}
}

// Reporter is the write handle a processor uses for its own record.
type Reporter struct {
	store *RecordStore
	id    string
}

// TaskID returns the id of the record this reporter writes.
func (r *Reporter) TaskID() string {
	return r.id
}

// Advance records a non-terminal stage.
func (r *Reporter) Advance(ctx context.Context, status Status, progress int) error {
	_, err := r.store.Update(ctx, r.id, func(rec *Record, now time.Time) error {
		return rec.Advance(status, progress, now)
	})
	return err
}

// Complete records terminal success.
func (r *Reporter) Complete(ctx context.Context, result Result) error {
	_, err := r.store.Update(ctx, r.id, func(rec *Record, now time.Time) error {
		return rec.Complete(result, now)
	})
	return err
}

// Fail records terminal failure with message.
func (r *Reporter) Fail(ctx context.Context, message string) error {
	_, err := r.store.Update(ctx, r.id, func(rec *Record, now time.Time) error {
		return rec.Fail(message, now)
	})
	return err
}
