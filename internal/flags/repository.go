package flags

import (
	"context"
	"maps"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Repository is the storage behind a Store. List must return flags in
// insertion order.
type Repository interface {
	Insert(ctx context.Context, f Flag) error
	FindByID(ctx context.Context, id uuid.UUID) (Flag, error)
	List(ctx context.Context) ([]Flag, error)
	SaveAnalysis(ctx context.Context, id uuid.UUID, analysis string) error
}

type snapshot struct {
	flags []Flag
	index map[uuid.UUID]int
}

// MemoryRepository serialises writers on a mutex and publishes an immutable
// snapshot after every write, so readers never take the lock.
type MemoryRepository struct {
	mu   sync.Mutex
	snap atomic.Pointer[snapshot]
}

func NewMemoryRepository() *MemoryRepository {
	r := &MemoryRepository{}
	r.snap.Store(&snapshot{index: map[uuid.UUID]int{}})
	return r
}

func (r *MemoryRepository) Insert(_ context.Context, f Flag) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.snap.Load()
	next := &snapshot{
		flags: append(cur.flags[:len(cur.flags):len(cur.flags)], f),
		index: maps.Clone(cur.index),
	}
	next.index[f.ID] = len(next.flags) - 1
	r.snap.Store(next)
	return nil
}

func (r *MemoryRepository) FindByID(_ context.Context, id uuid.UUID) (Flag, error) {
	s := r.snap.Load()
	i, ok := s.index[id]
	if !ok {
		return Flag{}, ErrFlagNotFound
	}
	return s.flags[i], nil
}

// List returns the current snapshot. Callers must not modify it.
func (r *MemoryRepository) List(_ context.Context) ([]Flag, error) {
	return r.snap.Load().flags, nil
}

func (r *MemoryRepository) SaveAnalysis(_ context.Context, id uuid.UUID, analysis string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.snap.Load()
	i, ok := cur.index[id]
	if !ok {
		return ErrFlagNotFound
	}
	flags := make([]Flag, len(cur.flags))
	copy(flags, cur.flags)
	flags[i].AIAnalysis = analysis
	r.snap.Store(&snapshot{flags: flags, index: cur.index})
	return nil
}
