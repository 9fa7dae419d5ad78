package orchestrator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ShayCichocki/pharmint/internal/classify"
	"github.com/ShayCichocki/pharmint/internal/worker"
	"github.com/ShayCichocki/pharmint/pkg/models"
)

// Classifier extracts entities and intent from a raw query.
type Classifier interface {
	Classify(raw string) classify.Classification
}

// Planner maps an intent to an ordered worklist.
type Planner interface {
	Decompose(intent models.Intent) []models.WorkerID
}

// PlannerFunc adapts a function to the Planner interface.
type PlannerFunc func(models.Intent) []models.WorkerID

func (f PlannerFunc) Decompose(intent models.Intent) []models.WorkerID { return f(intent) }

// Resolver finds the worker for an id.
type Resolver interface {
	Resolve(id models.WorkerID) (worker.Worker, error)
}

// Finalizer builds the report artifact. It must not fail; internal errors
// degrade to a textual artifact.
type Finalizer interface {
	Finalize(ctx context.Context, state *models.RequestState) models.Artifact
}

// FinalizerFunc adapts a function to the Finalizer interface.
type FinalizerFunc func(context.Context, *models.RequestState) models.Artifact

func (f FinalizerFunc) Finalize(ctx context.Context, s *models.RequestState) models.Artifact {
	return f(ctx, s)
}

// Recorder receives request and dispatch measurements.
type Recorder interface {
	RequestStarted()
	WorkerDispatched(id models.WorkerID, status models.Status, d time.Duration)
	WorkerFaulted(id models.WorkerID)
	RequestFinished(intent models.Intent, faulted, degraded bool, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RequestStarted() {}
func (nopRecorder) WorkerDispatched(models.WorkerID, models.Status, time.Duration) {}
func (nopRecorder) WorkerFaulted(models.WorkerID) {}
func (nopRecorder) RequestFinished(models.Intent, bool, bool, time.Duration) {}

// Option configures an Orchestrator. Use With* functions to create Options.
type Option func(*options)

type options struct {
	classifier Classifier
	planner    Planner
	resolver   Resolver
	finalizer  Finalizer
	logger     *zap.Logger
	recorder   Recorder
	emitter    *EventEmitter
	now        func() time.Time
}

// WithClassifier sets the query classifier.
func WithClassifier(c Classifier) Option {
	return func(o *options) { o.classifier = c }
}

// WithPlanner sets the intent decomposer.
func WithPlanner(p Planner) Option {
	return func(o *options) { o.planner = p }
}

// WithRegistry sets the worker registry.
func WithRegistry(r Resolver) Option {
	return func(o *options) { o.resolver = r }
}

// WithFinalizer sets the report finalizer.
func WithFinalizer(f Finalizer) Option {
	return func(o *options) { o.finalizer = f }
}

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithEmitter sets the event emitter. Events are not emitted without one.
func WithEmitter(e *EventEmitter) Option {
	return func(o *options) { o.emitter = e }
}

// WithClock overrides time.Now (mainly for testing).
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}
