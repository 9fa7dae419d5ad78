package orchestrator

import (
	"time"

	"github.com/ShayCichocki/pharmint/pkg/models"
)

// EventType represents the type of orchestrator event.
type EventType string

const (
	// EventRequestStarted indicates a request entered the init phase.
	EventRequestStarted EventType = "request_started"
	// EventClassified indicates entities and intent were extracted.
	EventClassified EventType = "classified"
	// EventPlanned indicates the worklist was set.
	EventPlanned EventType = "planned"
	// EventPhaseChanged indicates a phase transition.
	EventPhaseChanged EventType = "phase_changed"
	// EventWorkerStarted indicates a worker was dispatched.
	EventWorkerStarted EventType = "worker_started"
	// EventWorkerCompleted indicates a worker's envelope was recorded.
	EventWorkerCompleted EventType = "worker_completed"
	// EventWorkerFault indicates a structural fault aborted the run.
	EventWorkerFault EventType = "worker_fault"
	// EventFinalized indicates the artifact was produced.
	EventFinalized EventType = "finalized"
)

// Event is emitted as a request progresses.
type Event struct {
	Type      EventType
	RequestID string
	// Phase is the phase after the event.
	Phase Phase
	// Worker is set for worker events.
	Worker models.WorkerID
	// Status is the envelope status for EventWorkerCompleted.
	Status  models.Status
	Message string
	Error   error
	// Duration is the worker's run time for worker events.
	Duration  time.Duration
	Timestamp time.Time
}
