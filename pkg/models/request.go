package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrAlreadyClassified is returned when entities and intent are set twice.
	ErrAlreadyClassified = errors.New("request already classified")
	// ErrAlreadyPlanned is returned when the worklist is set twice.
	ErrAlreadyPlanned = errors.New("request worklist already planned")
	// ErrNotPlanned is returned when a result is recorded before the worklist exists.
	ErrNotPlanned = errors.New("request worklist not planned")
	// ErrNotInWorklist is returned when a result is recorded for an id outside the worklist.
	ErrNotInWorklist = errors.New("worker not in worklist")
	// ErrAlreadyCompleted is returned when a worker's result is recorded twice.
	ErrAlreadyCompleted = errors.New("worker already completed")
)

// Entities are the structured fields the classifier extracts from a query.
// An empty string means the entity was not found.
type Entities struct {
	Subject   string `json:"subject,omitempty"`
	Condition string `json:"condition,omitempty"`
	Category  string `json:"category,omitempty"`
}

// Snapshot is the read-only view of a request handed to workers.
type Snapshot struct {
	RequestID      string
	RawQuery       string
	Entities       Entities
	Intent         Intent
	AttachmentPath string
}

// RequestState is the single record threaded through one request.
// Each field has exactly one writer: the classifier output is set through
// Classify, the worklist through Plan, and each worker result through Record.
// A RequestState is never shared between requests and is not safe for
// concurrent mutation.
type RequestState struct {
	id             string
	rawQuery       string
	attachmentPath string
	createdAt      time.Time

	classified bool
	entities   Entities
	intent     Intent

	planned  bool
	worklist []WorkerID

	completed []WorkerID
	done      map[WorkerID]struct{}
	results   map[WorkerID]ResultEnvelope
}

// NewRequestState creates the state for a fresh request.
func NewRequestState(rawQuery, attachmentPath string) *RequestState {
	return &RequestState{
		id:             uuid.New().String(),
		rawQuery:       rawQuery,
		attachmentPath: attachmentPath,
		createdAt:      time.Now(),
		intent:         IntentGeneral,
		done:           make(map[WorkerID]struct{}),
		results:        make(map[WorkerID]ResultEnvelope),
	}
}

func (s *RequestState) ID() string             { return s.id }
func (s *RequestState) RawQuery() string       { return s.rawQuery }
func (s *RequestState) AttachmentPath() string { return s.attachmentPath }
func (s *RequestState) CreatedAt() time.Time   { return s.createdAt }
func (s *RequestState) Entities() Entities     { return s.entities }
func (s *RequestState) Intent() Intent         { return s.intent }
func (s *RequestState) Classified() bool       { return s.classified }
func (s *RequestState) Planned() bool          { return s.planned }

// Classify sets the entities and intent. It succeeds once per request.
func (s *RequestState) Classify(entities Entities, intent Intent) error {
	if s.classified {
		return ErrAlreadyClassified
	}
	if !intent.Valid() {
		return fmt.Errorf("classify request: invalid intent %q", intent)
	}
	s.entities = entities
	s.intent = intent
	s.classified = true
	return nil
}

// Plan sets the worklist. It succeeds once per request; the slice is copied.
func (s *RequestState) Plan(worklist []WorkerID) error {
	if s.planned {
		return ErrAlreadyPlanned
	}
	s.worklist = append([]WorkerID(nil), worklist...)
	s.planned = true
	return nil
}

// Worklist returns a copy of the planned worklist.
func (s *RequestState) Worklist() []WorkerID {
	return append([]WorkerID(nil), s.worklist...)
}

// InWorklist reports whether id appears in the worklist.
func (s *RequestState) InWorklist(id WorkerID) bool {
	for _, w := range s.worklist {
		if w == id {
			return true
		}
	}
	return false
}

// IsCompleted reports whether id has a recorded result.
func (s *RequestState) IsCompleted(id WorkerID) bool {
	_, ok := s.done[id]
	return ok
}

// Completed returns the completed ids in completion order.
func (s *RequestState) Completed() []WorkerID {
	return append([]WorkerID(nil), s.completed...)
}

// Result returns the envelope recorded for id.
func (s *RequestState) Result(id WorkerID) (ResultEnvelope, bool) {
	env, ok := s.results[id]
	return env, ok
}

// Results returns a copy of all recorded envelopes.
func (s *RequestState) Results() map[WorkerID]ResultEnvelope {
	out := make(map[WorkerID]ResultEnvelope, len(s.results))
	for k, v := range s.results {
		out[k] = v
	}
	return out
}

// Pending returns the first worklist entry that has not completed.
func (s *RequestState) Pending() (WorkerID, bool) {
	for _, w := range s.worklist {
		if !s.IsCompleted(w) {
			return w, true
		}
	}
	return "", false
}

// AllCompleted reports whether every worklist entry has completed.
func (s *RequestState) AllCompleted() bool {
	_, pending := s.Pending()
	return !pending
}

// Record stores a worker's envelope and marks it completed in one step,
// keeping results and completed in lockstep.
func (s *RequestState) Record(id WorkerID, env ResultEnvelope) error {
	if !s.planned {
		return ErrNotPlanned
	}
	if !s.InWorklist(id) {
		return fmt.Errorf("record %s: %w", id, ErrNotInWorklist)
	}
	if s.IsCompleted(id) {
		return fmt.Errorf("record %s: %w", id, ErrAlreadyCompleted)
	}
	if env.Payload == nil {
		env.Payload = map[string]any{}
	}
	s.results[id] = env
	s.done[id] = struct{}{}
	s.completed = append(s.completed, id)
	return nil
}

// Snapshot returns the read-only view handed to workers.
func (s *RequestState) Snapshot() Snapshot {
	return Snapshot{
		RequestID:      s.id,
		RawQuery:       s.rawQuery,
		Entities:       s.entities,
		Intent:         s.intent,
		AttachmentPath: s.attachmentPath,
	}
}

// SearchKeys returns the distinct non-empty values of the given fields, in
// order. Workers use it to pick the best-available lookup key.
func (s Snapshot) SearchKeys(fields ...EntityField) []string {
	var keys []string
	seen := make(map[string]struct{})
	add := func(v string) {
		if v == "" {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		keys = append(keys, v)
	}
	for _, f := range fields {
		switch f {
		case FieldSubject:
			add(s.Entities.Subject)
		case FieldCondition:
			add(s.Entities.Condition)
		case FieldCategory:
			add(s.Entities.Category)
		case FieldQuery:
			add(s.RawQuery)
		}
	}
	return keys
}

// EntityField names a lookup-key source for Snapshot.SearchKeys.
type EntityField int

const (
	FieldSubject EntityField = iota
	FieldCondition
	FieldCategory
	FieldQuery
)
