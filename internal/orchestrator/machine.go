package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ShayCichocki/pharmint/internal/report"
	"github.com/ShayCichocki/pharmint/internal/worker"
	"github.com/ShayCichocki/pharmint/pkg/models"
)

// Machine drives a single request. It is not safe for concurrent use; one
// goroutine owns it from Start to Finalize.
type Machine struct {
	o     *Orchestrator
	state *models.RequestState
	log   *zap.Logger

	phase       Phase
	steps       int
	fault       error
	artifact    models.Artifact
	transitions []Transition
	started     time.Time
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase { return m.phase }

// State returns the request state.
func (m *Machine) State() *models.RequestState { return m.state }

// Steps returns the number of dispatch attempts so far.
func (m *Machine) Steps() int { return m.steps }

// Fault returns the structural fault that aborted the run, if any.
func (m *Machine) Fault() error { return m.fault }

// Start classifies the query and plans the worklist, then moves to running,
// or straight to finalizing when the worklist is empty.
func (m *Machine) Start() error {
	if m.phase != PhaseInit {
		return fmt.Errorf("start in %s: %w", m.phase, ErrInvalidPhase)
	}
	m.o.recorder.RequestStarted()
	m.o.emit(Event{Type: EventRequestStarted, RequestID: m.state.ID(), Phase: m.phase, Message: m.state.RawQuery()})

	c := m.o.classifier.Classify(m.state.RawQuery())
	if err := m.state.Classify(c.Entities, c.Intent); err != nil {
		m.abort("", fmt.Errorf("classify: %w", err))
		return nil
	}
	m.log.Info("request classified",
		zap.String("intent", string(c.Intent)),
		zap.String("subject", c.Entities.Subject),
		zap.String("condition", c.Entities.Condition),
		zap.String("category", c.Entities.Category),
		zap.String("matched_keyword", c.MatchedKeyword))
	m.o.emit(Event{Type: EventClassified, RequestID: m.state.ID(), Phase: m.phase, Message: c.Reason})

	if err := m.state.Plan(m.o.planner.Decompose(c.Intent)); err != nil {
		m.abort("", fmt.Errorf("plan: %w", err))
		return nil
	}
	worklist := m.state.Worklist()
	m.log.Info("worklist planned", zap.Int("workers", len(worklist)), zap.Any("worklist", worklist))
	m.o.emit(Event{Type: EventPlanned, RequestID: m.state.ID(), Phase: m.phase, Message: fmt.Sprint(worklist)})

	if m.state.AllCompleted() {
		return m.transition(PhaseFinalizing, "empty worklist")
	}
	return m.transition(PhaseRunning, "worklist planned")
}

// Step dispatches the first worklist entry that has not completed. It
// returns true when a worker ran and its result was recorded.
func (m *Machine) Step(ctx context.Context) (bool, error) {
	if m.phase != PhaseRunning {
		return false, fmt.Errorf("step in %s: %w", m.phase, ErrInvalidPhase)
	}
	id, ok := m.state.Pending()
	if !ok {
		return false, m.transition(PhaseFinalizing, "worklist complete")
	}
	return m.Dispatch(ctx, id)
}

// Dispatch runs worker id once. Ids that already completed, or that are not
// in the worklist, are skipped and return false. A structural fault moves
// the machine to finalizing and is returned.
func (m *Machine) Dispatch(ctx context.Context, id models.WorkerID) (bool, error) {
	if m.phase != PhaseRunning {
		return false, fmt.Errorf("dispatch %s in %s: %w", id, m.phase, ErrInvalidPhase)
	}
	if !m.state.InWorklist(id) || m.state.IsCompleted(id) {
		m.log.Debug("dispatch skipped", zap.String("worker", string(id)))
		return false, nil
	}

	m.steps++
	w, err := m.o.resolver.Resolve(id)
	if err != nil {
		return false, m.abort(id, err)
	}

	m.log.Debug("dispatching worker", zap.String("worker", string(id)), zap.Int("step", m.steps))
	m.o.emit(Event{Type: EventWorkerStarted, RequestID: m.state.ID(), Phase: m.phase, Worker: id})

	start := time.Now()
	env, err := invoke(ctx, w, m.state.Snapshot())
	elapsed := time.Since(start)
	if err != nil {
		return false, m.abort(id, err)
	}
	if !env.Status.Valid() {
		return false, m.abort(id, fmt.Errorf("invalid envelope status %q", env.Status))
	}
	if err := m.state.Record(id, env); err != nil {
		return false, m.abort(id, err)
	}

	m.o.recorder.WorkerDispatched(id, env.Status, elapsed)
	m.log.Info("worker completed",
		zap.String("worker", string(id)),
		zap.String("status", string(env.Status)),
		zap.Duration("duration", elapsed))
	m.o.emit(Event{
		Type:      EventWorkerCompleted,
		RequestID: m.state.ID(),
		Phase:     m.phase,
		Worker:    id,
		Status:    env.Status,
		Message:   env.Summary,
		Duration:  elapsed,
	})

	if m.state.AllCompleted() {
		if err := m.transition(PhaseFinalizing, "worklist complete"); err != nil {
			return true, err
		}
	}
	return true, nil
}

// invoke calls the worker, converting a panic into an error.
func invoke(ctx context.Context, w worker.Worker, snap models.Snapshot) (env models.ResultEnvelope, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrWorkerPanic, r)
		}
	}()
	return w.Invoke(ctx, snap)
}

// abort records a structural fault and moves to finalizing. The failed
// worker is not recorded as completed.
func (m *Machine) abort(id models.WorkerID, cause error) error {
	if id == "" {
		m.fault = fmt.Errorf("%w: %w", ErrStructuralFault, cause)
	} else {
		m.fault = fmt.Errorf("%w: worker %s: %w", ErrStructuralFault, id, cause)
		m.o.recorder.WorkerFaulted(id)
	}
	m.log.Error("structural fault, aborting run",
		zap.String("worker", string(id)),
		zap.String("phase", string(m.phase)),
		zap.Int("completed", len(m.state.Completed())),
		zap.Error(cause))
	m.o.emit(Event{Type: EventWorkerFault, RequestID: m.state.ID(), Phase: m.phase, Worker: id, Error: m.fault})

	if err := m.transition(PhaseFinalizing, "structural fault"); err != nil {
		return err
	}
	return m.fault
}

// Finalize builds the artifact and moves to done. A panicking finalizer
// yields a degraded artifact.
func (m *Machine) Finalize(ctx context.Context) (models.Artifact, error) {
	if m.phase != PhaseFinalizing {
		return models.Artifact{}, fmt.Errorf("finalize in %s: %w", m.phase, ErrInvalidPhase)
	}

	m.artifact = m.safeFinalize(ctx)
	m.o.emit(Event{Type: EventFinalized, RequestID: m.state.ID(), Phase: m.phase, Message: m.artifact.Path})

	if err := m.transition(PhaseDone, "artifact produced"); err != nil {
		return m.artifact, err
	}
	m.o.recorder.RequestFinished(m.state.Intent(), m.fault != nil, m.artifact.Degraded, m.o.now().Sub(m.started))
	return m.artifact, nil
}

func (m *Machine) safeFinalize(ctx context.Context) (art models.Artifact) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("finalizer panicked, using degraded artifact", zap.Any("panic", r))
			art = report.Degraded(m.state, m.o.now())
		}
	}()
	return m.o.finalizer.Finalize(ctx, m.state)
}

// Run drives the machine from its current phase to done. Dispatch steps are
// bounded by the worklist length.
func (m *Machine) Run(ctx context.Context) *Outcome {
	if m.phase == PhaseInit {
		if err := m.Start(); err != nil {
			m.log.Error("start failed", zap.Error(err))
		}
	}

	for limit := len(m.state.Worklist()) + 1; m.phase == PhaseRunning && limit > 0; limit-- {
		if _, err := m.Step(ctx); err != nil && m.fault == nil {
			m.log.Error("step failed", zap.Error(err))
			break
		}
	}
	if m.phase == PhaseRunning {
		m.abort("", errors.New("worklist did not drain"))
	}

	if m.phase == PhaseFinalizing {
		if _, err := m.Finalize(ctx); err != nil {
			m.log.Error("finalize failed", zap.Error(err))
		}
	}
	return m.Outcome()
}

// Outcome returns the current result of the run.
func (m *Machine) Outcome() *Outcome {
	return &Outcome{
		RequestID:   m.state.ID(),
		State:       m.state,
		Phase:       m.phase,
		Steps:       m.steps,
		Fault:       m.fault,
		Artifact:    m.artifact,
		Transitions: append([]Transition(nil), m.transitions...),
	}
}

func (m *Machine) transition(to Phase, reason string) error {
	if err := ValidateTransition(m.phase, to); err != nil {
		return err
	}
	t := Transition{From: m.phase, To: to, Reason: reason, At: m.o.now()}
	m.transitions = append(m.transitions, t)
	m.phase = to

	m.log.Info("phase transition",
		zap.String("from", string(t.From)),
		zap.String("phase", string(to)),
		zap.String("reason", reason))
	m.o.emit(Event{Type: EventPhaseChanged, RequestID: m.state.ID(), Phase: to, Message: reason})
	return nil
}
