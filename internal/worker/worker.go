// Package worker defines the contract between the orchestrator and the
// domain workers, and ships reference workers backed by a catalog.Source.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/ShayCichocki/pharmint/internal/catalog"
	"github.com/ShayCichocki/pharmint/pkg/models"
)

// Worker produces one result envelope for a request snapshot.
//
// Business failures (no data, unreadable document) are reported as an
// envelope with status error. A non-nil error is a structural fault and
// aborts the request.
type Worker interface {
	ID() models.WorkerID
	Invoke(ctx context.Context, snap models.Snapshot) (models.ResultEnvelope, error)
}

// Func adapts a function to the Worker interface.
type Func struct {
	id models.WorkerID
	fn func(context.Context, models.Snapshot) (models.ResultEnvelope, error)
}

// NewFunc creates a Worker that calls fn.
func NewFunc(id models.WorkerID, fn func(context.Context, models.Snapshot) (models.ResultEnvelope, error)) Func {
	return Func{id: id, fn: fn}
}

func (f Func) ID() models.WorkerID { return f.id }

func (f Func) Invoke(ctx context.Context, snap models.Snapshot) (models.ResultEnvelope, error) {
	return f.fn(ctx, snap)
}

var (
	// ErrNotRegistered is returned by Resolve for an id with no worker.
	ErrNotRegistered = errors.New("worker not registered")
	// ErrDuplicate is returned when two workers share an id.
	ErrDuplicate = errors.New("worker already registered")
	// ErrInvalidID is returned when a worker reports an unknown id.
	ErrInvalidID = errors.New("invalid worker id")
)

// Registry maps worker ids to workers. Build it once, before handing it to
// an orchestrator; lookups are read-only afterwards.
type Registry struct {
	workers map[models.WorkerID]Worker
}

// NewRegistry creates a registry holding workers.
func NewRegistry(workers ...Worker) (*Registry, error) {
	r := &Registry{workers: make(map[models.WorkerID]Worker, len(workers))}
	for _, w := range workers {
		if err := r.Register(w); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds w. It rejects unknown and duplicate ids.
func (r *Registry) Register(w Worker) error {
	id := w.ID()
	if !id.Valid() {
		return fmt.Errorf("register %q: %w", id, ErrInvalidID)
	}
	if _, ok := r.workers[id]; ok {
		return fmt.Errorf("register %s: %w", id, ErrDuplicate)
	}
	r.workers[id] = w
	return nil
}

// Resolve returns the worker registered for id.
func (r *Registry) Resolve(id models.WorkerID) (Worker, error) {
	w, ok := r.workers[id]
	if !ok {
		return nil, fmt.Errorf("resolve %s: %w", id, ErrNotRegistered)
	}
	return w, nil
}

// IDs returns the registered ids, sorted.
func (r *Registry) IDs() []models.WorkerID {
	ids := make([]models.WorkerID, 0, len(r.workers))
	for id := range r.workers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Defaults returns the six reference data workers over src.
func Defaults(src catalog.Source) []Worker {
	return []Worker{
		NewMarket(src),
		NewTrade(src),
		NewPatent(src),
		NewClinical(src),
		NewInternal(src),
		NewWeb(src),
	}
}

// DefaultRegistry builds a registry of Defaults(src).
func DefaultRegistry(src catalog.Source) *Registry {
	r, err := NewRegistry(Defaults(src)...)
	if err != nil {
		// Defaults has fixed, distinct ids.
		panic(err)
	}
	return r
}
