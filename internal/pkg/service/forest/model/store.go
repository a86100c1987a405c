package model

import (
	"context"
	"encoding/json"

	"github.com/cenkalti/backoff/v4"

	"github.com/grovekit/grove/internal/pkg/log"
	"github.com/grovekit/grove/internal/pkg/utils/errors"
)

// KV is a versioned value read from the backend.
type KV struct {
	Value   []byte
	Version int64
}

// Backend is the boundary to the underlying key-value store.
// The store's replication and heartbeat protocol are not this core's concern.
type Backend interface {
	// Get returns nil if the key does not exist.
	Get(ctx context.Context, key string) (*KV, error)
	// Update writes the value only if the current version matches, ok=false on conflict.
	// Version 0 requires that the key does not exist, the write creates it.
	Update(ctx context.Context, key string, value []byte, ifVersion int64) (ok bool, err error)
	Delete(ctx context.Context, key string) error
}

// ErrLockedByAnotherJob is returned when a job tries to lock a record held by a different job.
var ErrLockedByAnotherJob = errors.New("model record is locked by another job")

type Store struct {
	logger  log.Logger
	backend Backend
}

func NewStore(logger log.Logger, backend Backend) *Store {
	return &Store{logger: logger.AddPrefix("[model]"), backend: backend}
}

func (s *Store) Get(ctx context.Context, key string) (*Record, error) {
	kv, err := s.backend.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if kv == nil {
		return nil, nil
	}
	record := &Record{}
	if err := json.Unmarshal(kv.Value, record); err != nil {
		return nil, errors.PrefixErrorf(err, `cannot decode model record "%s"`, key)
	}
	return record, nil
}

// CreateLocked replaces any previous record under the key and locks the new
// one for the job, before any node starts writing.
//
// The write is version-checked against the read, so two jobs racing for the
// same key cannot both acquire the lock: the loser of the race re-reads the
// record and fails with ErrLockedByAnotherJob.
func (s *Store) CreateLocked(ctx context.Context, record *Record, jobID string) error {
	b := newUpdateBackoff()
	for {
		kv, err := s.backend.Get(ctx, record.Key)
		if err != nil {
			return err
		}

		var ifVersion int64
		if kv != nil {
			existing := &Record{}
			if err := json.Unmarshal(kv.Value, existing); err != nil {
				return errors.PrefixErrorf(err, `cannot decode model record "%s"`, record.Key)
			}
			if existing.IsLocked() && existing.LockedBy != jobID {
				return ErrLockedByAnotherJob
			}
			ifVersion = kv.Version
		}

		clone := record.Clone()
		clone.LockedBy = jobID
		value, err := json.Marshal(clone)
		if err != nil {
			return err
		}

		ok, err := s.backend.Update(ctx, clone.Key, value, ifVersion)
		if err != nil {
			return err
		}
		if ok {
			s.logger.Debugf(`lock acquired "%s" by job "%s"`, clone.Key, jobID)
			return nil
		}

		// Lost the race, re-read to see who holds the lock now
		delay := b.NextBackOff()
		if delay == backoff.Stop {
			return errors.Errorf(`cannot acquire lock on "%s"`, clone.Key)
		}
		s.logger.Debugf(`version conflict on "%s", retrying in %s`, clone.Key, delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeAfter(delay):
			// continue
		}
	}
}

// Unlock releases the job lock. It is idempotent: a record already unlocked,
// deleted, or locked by a different job is left untouched.
func (s *Store) Unlock(ctx context.Context, key, jobID string) error {
	err := s.AtomicUpdate(ctx, key, func(r *Record) {
		if r.LockedBy == jobID {
			r.LockedBy = ""
		}
	})
	if err != nil {
		return err
	}
	s.logger.Debugf(`lock released "%s" by job "%s"`, key, jobID)
	return nil
}

// AtomicUpdate runs the optimistic read-modify-write cycle.
//
// The mutator must be a pure function of the record, it may run multiple
// times. A version conflict is retried transparently. A record deleted or
// replaced concurrently is a true conflict and is treated as a silent no-op.
func (s *Store) AtomicUpdate(ctx context.Context, key string, mutate func(r *Record)) error {
	b := newUpdateBackoff()
	for {
		kv, err := s.backend.Get(ctx, key)
		if err != nil {
			return err
		}
		if kv == nil {
			// Record deleted concurrently
			return nil
		}

		record := &Record{}
		if err := json.Unmarshal(kv.Value, record); err != nil {
			return errors.PrefixErrorf(err, `cannot decode model record "%s"`, key)
		}
		mutate(record)

		value, err := json.Marshal(record)
		if err != nil {
			return err
		}
		ok, err := s.backend.Update(ctx, key, value, kv.Version)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		// Version conflict, wait and retry the whole cycle
		delay := b.NextBackOff()
		if delay == backoff.Stop {
			return errors.Errorf(`atomic update of "%s" did not converge`, key)
		}
		s.logger.Debugf(`version conflict on "%s", retrying in %s`, key, delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeAfter(delay):
			// continue
		}
	}
}

// Delete removes the record, used by cleanup of abandoned models.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, key)
}
