package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ShayCichocki/pharmint/internal/catalog"
	"github.com/ShayCichocki/pharmint/internal/classify"
	"github.com/ShayCichocki/pharmint/internal/decompose"
	"github.com/ShayCichocki/pharmint/internal/report"
	"github.com/ShayCichocki/pharmint/internal/worker"
	"github.com/ShayCichocki/pharmint/pkg/models"
)

var (
	// ErrEmptyQuery is returned by Handle for a blank query.
	ErrEmptyQuery = errors.New("query is empty")
	// ErrStructuralFault wraps every error that aborts a run: an unregistered
	// worker, a worker returning an error, or a worker panic.
	ErrStructuralFault = errors.New("structural fault")
	// ErrWorkerPanic is wrapped into the fault when a worker panics.
	ErrWorkerPanic = errors.New("worker panicked")
)

// Request is one research query.
type Request struct {
	Query          string
	AttachmentPath string
}

// Outcome is the result of driving a request to completion.
type Outcome struct {
	RequestID string
	State     *models.RequestState
	Phase     Phase
	// Steps counts dispatch attempts, including a faulted one.
	Steps int
	// Fault is the structural fault that aborted the run, if any.
	Fault       error
	Artifact    models.Artifact
	Transitions []Transition
}

// Orchestrator wires the classifier, planner, workers and finalizer. It holds
// no per-request state and is safe for concurrent use.
type Orchestrator struct {
	classifier Classifier
	planner    Planner
	resolver   Resolver
	finalizer  Finalizer
	logger     *zap.Logger
	recorder   Recorder
	emitter    *EventEmitter
	now        func() time.Time
}

// New creates an Orchestrator. Unset dependencies get defaults: the keyword
// classifier, the fixed decomposition table, the reference workers over the
// embedded catalog and a markdown report builder that does not write files.
func New(opts ...Option) *Orchestrator {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.classifier == nil {
		o.classifier = classify.New()
	}
	if o.planner == nil {
		o.planner = decompose.New()
	}
	if o.resolver == nil {
		mem, err := catalog.Default()
		if err != nil {
			o.logger.Warn("embedded catalog unavailable, workers will report misses", zap.Error(err))
			mem = catalog.NewMemory()
		}
		o.resolver = worker.DefaultRegistry(mem)
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.finalizer == nil {
		o.finalizer = report.NewBuilder(report.Config{Format: models.FormatMarkdown, Now: o.now}, o.logger)
	}
	if o.recorder == nil {
		o.recorder = nopRecorder{}
	}

	return &Orchestrator{
		classifier: o.classifier,
		planner:    o.planner,
		resolver:   o.resolver,
		finalizer:  o.finalizer,
		logger:     o.logger,
		recorder:   o.recorder,
		emitter:    o.emitter,
		now:        o.now,
	}
}

// Handle runs req to completion. It fails only for an empty query; worker
// faults are reported on the Outcome.
func (o *Orchestrator) Handle(ctx context.Context, req Request) (*Outcome, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, ErrEmptyQuery
	}
	return o.NewMachine(req).Run(ctx), nil
}

// NewMachine creates the per-request state machine in the init phase.
func (o *Orchestrator) NewMachine(req Request) *Machine {
	state := models.NewRequestState(req.Query, req.AttachmentPath)
	return &Machine{
		o:       o,
		state:   state,
		phase:   PhaseInit,
		started: o.now(),
		log:     o.logger.With(zap.String("request_id", state.ID())),
	}
}

func (o *Orchestrator) emit(e Event) {
	if o.emitter == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = o.now()
	}
	o.emitter.Emit(e)
}
