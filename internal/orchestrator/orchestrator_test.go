package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShayCichocki/pharmint/internal/worker"
	"github.com/ShayCichocki/pharmint/pkg/models"
)

// countingWorker returns a success envelope and counts invocations.
type countingWorker struct {
	id    models.WorkerID
	mu    sync.Mutex
	calls int
}

func (w *countingWorker) ID() models.WorkerID { return w.id }

func (w *countingWorker) Invoke(context.Context, models.Snapshot) (models.ResultEnvelope, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	return models.Success(string(w.id)+" done", map[string]any{"call": w.calls}), nil
}

func (w *countingWorker) Calls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls
}

func fixedPlan(ids ...models.WorkerID) PlannerFunc {
	return func(models.Intent) []models.WorkerID { return ids }
}

func mustRegistry(t *testing.T, ws ...worker.Worker) *worker.Registry {
	t.Helper()
	r, err := worker.NewRegistry(ws...)
	require.NoError(t, err)
	return r
}

func countingWorkers(ids ...models.WorkerID) (map[models.WorkerID]*countingWorker, []worker.Worker) {
	byID := make(map[models.WorkerID]*countingWorker, len(ids))
	var ws []worker.Worker
	for _, id := range ids {
		w := &countingWorker{id: id}
		byID[id] = w
		ws = append(ws, w)
	}
	return byID, ws
}

func TestHandle_Scenarios(t *testing.T) {
	tests := []struct {
		query    string
		intent   models.Intent
		worklist []models.WorkerID
		subject  string
	}{
		{
			query:    "Find clinical trials for diabetes drugs in Phase 3",
			intent:   models.IntentClinical,
			worklist: []models.WorkerID{models.WorkerClinical, models.WorkerPatent, models.WorkerWeb},
			subject:  "Diabetes",
		},
		{
			query:    "Analyze trade flows for paracetamol API",
			intent:   models.IntentTrade,
			worklist: []models.WorkerID{models.WorkerTrade, models.WorkerMarket},
			subject:  "Paracetamol",
		},
		{
			query:  "Search for repurposing opportunities for aspirin",
			intent: models.IntentOpportunity,
			worklist: []models.WorkerID{
				models.WorkerMarket, models.WorkerTrade, models.WorkerPatent,
				models.WorkerClinical, models.WorkerInternal, models.WorkerWeb,
			},
			subject: "Aspirin",
		},
	}

	orch := New()
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			out, err := orch.Handle(context.Background(), Request{Query: tt.query})
			require.NoError(t, err)

			assert.Equal(t, PhaseDone, out.Phase)
			assert.NoError(t, out.Fault)
			assert.Equal(t, tt.intent, out.State.Intent())
			assert.Equal(t, tt.subject, out.State.Entities().Subject)
			if diff := cmp.Diff(tt.worklist, out.State.Worklist()); diff != "" {
				t.Errorf("worklist mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.worklist, out.State.Completed()); diff != "" {
				t.Errorf("completed mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, len(tt.worklist), out.Steps)
			assert.Len(t, out.State.Results(), len(tt.worklist))
			assert.False(t, out.Artifact.Partial)
			assert.False(t, out.Artifact.Degraded)
			assert.Contains(t, out.Artifact.Content, tt.subject)
		})
	}
}

func TestHandle_EmptyQuery(t *testing.T) {
	for _, q := range []string{"", "   ", "\n\t"} {
		out, err := New().Handle(context.Background(), Request{Query: q})
		assert.ErrorIs(t, err, ErrEmptyQuery)
		assert.Nil(t, out)
	}
}

func TestHandle_FaultOnThirdOfFive(t *testing.T) {
	ids := []models.WorkerID{models.WorkerMarket, models.WorkerTrade, models.WorkerPatent, models.WorkerClinical, models.WorkerWeb}
	byID, ws := countingWorkers(models.WorkerMarket, models.WorkerTrade, models.WorkerClinical, models.WorkerWeb)
	cause := errors.New("patent backend exploded")
	ws = append(ws, worker.NewFunc(models.WorkerPatent, func(context.Context, models.Snapshot) (models.ResultEnvelope, error) {
		return models.ResultEnvelope{}, cause
	}))

	orch := New(WithPlanner(fixedPlan(ids...)), WithRegistry(mustRegistry(t, ws...)))
	out, err := orch.Handle(context.Background(), Request{Query: "anything"})
	require.NoError(t, err)

	assert.Equal(t, PhaseDone, out.Phase)
	assert.ErrorIs(t, out.Fault, ErrStructuralFault)
	assert.ErrorIs(t, out.Fault, cause)
	assert.Equal(t, []models.WorkerID{models.WorkerMarket, models.WorkerTrade}, out.State.Completed())
	assert.Len(t, out.State.Results(), 2)
	assert.False(t, out.State.IsCompleted(models.WorkerPatent))
	assert.Equal(t, 3, out.Steps)
	assert.True(t, out.Artifact.Partial)
	assert.Zero(t, byID[models.WorkerClinical].Calls())
	assert.Zero(t, byID[models.WorkerWeb].Calls())

	var phases []Phase
	for _, tr := range out.Transitions {
		phases = append(phases, tr.To)
	}
	assert.Equal(t, []Phase{PhaseRunning, PhaseFinalizing, PhaseDone}, phases)
	assert.Equal(t, "structural fault", out.Transitions[1].Reason)
}

func TestHandle_UnregisteredWorkerIsFault(t *testing.T) {
	_, ws := countingWorkers(models.WorkerMarket)
	orch := New(
		WithPlanner(fixedPlan(models.WorkerMarket, models.WorkerTrade)),
		WithRegistry(mustRegistry(t, ws...)),
	)
	out, err := orch.Handle(context.Background(), Request{Query: "q"})
	require.NoError(t, err)

	assert.ErrorIs(t, out.Fault, ErrStructuralFault)
	assert.ErrorIs(t, out.Fault, worker.ErrNotRegistered)
	assert.Equal(t, []models.WorkerID{models.WorkerMarket}, out.State.Completed())
	assert.Equal(t, PhaseDone, out.Phase)
}

func TestHandle_WorkerPanicIsFault(t *testing.T) {
	boom := worker.NewFunc(models.WorkerWeb, func(context.Context, models.Snapshot) (models.ResultEnvelope, error) {
		panic("nil map write")
	})
	orch := New(WithPlanner(fixedPlan(models.WorkerWeb)), WithRegistry(mustRegistry(t, boom)))

	out, err := orch.Handle(context.Background(), Request{Query: "q"})
	require.NoError(t, err)
	assert.ErrorIs(t, out.Fault, ErrWorkerPanic)
	assert.ErrorIs(t, out.Fault, ErrStructuralFault)
	assert.Empty(t, out.State.Completed())
	assert.Equal(t, PhaseDone, out.Phase)
}

func TestHandle_InvalidEnvelopeIsFault(t *testing.T) {
	blank := worker.NewFunc(models.WorkerWeb, func(context.Context, models.Snapshot) (models.ResultEnvelope, error) {
		return models.ResultEnvelope{}, nil
	})
	orch := New(WithPlanner(fixedPlan(models.WorkerWeb)), WithRegistry(mustRegistry(t, blank)))

	out, err := orch.Handle(context.Background(), Request{Query: "q"})
	require.NoError(t, err)
	assert.ErrorIs(t, out.Fault, ErrStructuralFault)
}

func TestHandle_ErrorEnvelopeIsNotFatal(t *testing.T) {
	miss := worker.NewFunc(models.WorkerMarket, func(context.Context, models.Snapshot) (models.ResultEnvelope, error) {
		return models.Failure("No market data found", nil), nil
	})
	_, ws := countingWorkers(models.WorkerTrade)
	orch := New(
		WithPlanner(fixedPlan(models.WorkerMarket, models.WorkerTrade)),
		WithRegistry(mustRegistry(t, append(ws, miss)...)),
	)

	out, err := orch.Handle(context.Background(), Request{Query: "q"})
	require.NoError(t, err)
	assert.NoError(t, out.Fault)
	assert.Len(t, out.State.Completed(), 2)
	env, ok := out.State.Result(models.WorkerMarket)
	require.True(t, ok)
	assert.Equal(t, models.StatusError, env.Status)
	assert.False(t, out.Artifact.Partial)
}

func TestHandle_EmptyWorklist(t *testing.T) {
	orch := New(WithPlanner(fixedPlan()))
	out, err := orch.Handle(context.Background(), Request{Query: "q"})
	require.NoError(t, err)

	assert.Equal(t, PhaseDone, out.Phase)
	assert.Zero(t, out.Steps)
	require.Len(t, out.Transitions, 2)
	assert.Equal(t, Transition{From: PhaseInit, To: PhaseFinalizing, Reason: "empty worklist", At: out.Transitions[0].At}, out.Transitions[0])
	assert.Equal(t, PhaseDone, out.Transitions[1].To)
}

func TestHandle_DuplicatesDispatchedOnce(t *testing.T) {
	byID, ws := countingWorkers(models.WorkerMarket, models.WorkerTrade)
	orch := New(
		WithPlanner(fixedPlan(models.WorkerMarket, models.WorkerMarket, models.WorkerTrade)),
		WithRegistry(mustRegistry(t, ws...)),
	)

	out, err := orch.Handle(context.Background(), Request{Query: "q"})
	require.NoError(t, err)
	assert.Equal(t, PhaseDone, out.Phase)
	assert.Equal(t, 1, byID[models.WorkerMarket].Calls())
	assert.Equal(t, 1, byID[models.WorkerTrade].Calls())
	assert.Equal(t, 2, out.Steps)
	assert.Equal(t, []models.WorkerID{models.WorkerMarket, models.WorkerTrade}, out.State.Completed())
}

func TestHandle_FinalizerPanicDegrades(t *testing.T) {
	_, ws := countingWorkers(models.WorkerWeb)
	orch := New(
		WithPlanner(fixedPlan(models.WorkerWeb)),
		WithRegistry(mustRegistry(t, ws...)),
		WithFinalizer(FinalizerFunc(func(context.Context, *models.RequestState) models.Artifact {
			panic("renderer crashed")
		})),
	)

	out, err := orch.Handle(context.Background(), Request{Query: "statin outlook"})
	require.NoError(t, err)
	assert.Equal(t, PhaseDone, out.Phase)
	assert.NoError(t, out.Fault)
	assert.True(t, out.Artifact.Degraded)
	assert.Equal(t, models.FormatText, out.Artifact.Format)
	assert.Contains(t, out.Artifact.Content, "Analysis completed for: statin outlook")
}

type ctxKey struct{}

func TestHandle_PassesContextToWorkers(t *testing.T) {
	var got any
	w := worker.NewFunc(models.WorkerWeb, func(ctx context.Context, snap models.Snapshot) (models.ResultEnvelope, error) {
		got = ctx.Value(ctxKey{})
		return models.Success("ok", nil), nil
	})
	orch := New(WithPlanner(fixedPlan(models.WorkerWeb)), WithRegistry(mustRegistry(t, w)))

	ctx := context.WithValue(context.Background(), ctxKey{}, "marker")
	_, err := orch.Handle(ctx, Request{Query: "q"})
	require.NoError(t, err)
	assert.Equal(t, "marker", got)
}

func TestHandle_SnapshotCarriesAttachment(t *testing.T) {
	var snap models.Snapshot
	w := worker.NewFunc(models.WorkerInternal, func(_ context.Context, s models.Snapshot) (models.ResultEnvelope, error) {
		snap = s
		return models.Success("ok", nil), nil
	})
	orch := New(WithPlanner(fixedPlan(models.WorkerInternal)), WithRegistry(mustRegistry(t, w)))

	out, err := orch.Handle(context.Background(), Request{Query: "Search for repurposing opportunities for aspirin", AttachmentPath: "/tmp/brief.md"})
	require.NoError(t, err)
	assert.Equal(t, out.RequestID, snap.RequestID)
	assert.Equal(t, "/tmp/brief.md", snap.AttachmentPath)
	assert.Equal(t, "Aspirin", snap.Entities.Subject)
	assert.Equal(t, models.IntentOpportunity, snap.Intent)
}

func TestHandle_ConcurrentRequestsAreIsolated(t *testing.T) {
	orch := New()
	queries := []string{
		"Analyze trade flows for paracetamol API",
		"Find clinical trials for diabetes drugs in Phase 3",
		"Search for repurposing opportunities for aspirin",
		"What are the market trends for oncology drugs in India?",
	}

	outs := make([]*Outcome, len(queries)*4)
	var wg sync.WaitGroup
	for i := range outs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := orch.Handle(context.Background(), Request{Query: queries[i%len(queries)]})
			if err == nil {
				outs[i] = out
			}
		}(i)
	}
	wg.Wait()

	ids := make(map[string]bool)
	for i, out := range outs {
		require.NotNil(t, out)
		assert.Equal(t, PhaseDone, out.Phase)
		assert.Equal(t, queries[i%len(queries)], out.State.RawQuery())
		assert.Equal(t, out.State.Worklist(), out.State.Completed())
		assert.False(t, ids[out.RequestID], "duplicate request id")
		ids[out.RequestID] = true
	}
}

type fakeRecorder struct {
	started, dispatched, faulted, finished int
	statuses                               []models.Status
	lastFaulted, lastDegraded              bool
}

func (r *fakeRecorder) RequestStarted() { r.started++ }
func (r *fakeRecorder) WorkerDispatched(_ models.WorkerID, s models.Status, _ time.Duration) {
	r.dispatched++
	r.statuses = append(r.statuses, s)
}
func (r *fakeRecorder) WorkerFaulted(models.WorkerID) { r.faulted++ }
func (r *fakeRecorder) RequestFinished(_ models.Intent, faulted, degraded bool, _ time.Duration) {
	r.finished++
	r.lastFaulted, r.lastDegraded = faulted, degraded
}

func TestHandle_RecordsMetrics(t *testing.T) {
	rec := &fakeRecorder{}
	_, ws := countingWorkers(models.WorkerMarket)
	orch := New(
		WithPlanner(fixedPlan(models.WorkerMarket, models.WorkerTrade)),
		WithRegistry(mustRegistry(t, ws...)),
		WithRecorder(rec),
	)

	_, err := orch.Handle(context.Background(), Request{Query: "q"})
	require.NoError(t, err)
	assert.Equal(t, 1, rec.started)
	assert.Equal(t, 1, rec.dispatched)
	assert.Equal(t, []models.Status{models.StatusSuccess}, rec.statuses)
	assert.Equal(t, 1, rec.faulted)
	assert.Equal(t, 1, rec.finished)
	assert.True(t, rec.lastFaulted)
	assert.False(t, rec.lastDegraded)
}

func TestHandle_EmitsEvents(t *testing.T) {
	em := NewEventEmitter(64, nil)
	_, ws := countingWorkers(models.WorkerTrade, models.WorkerMarket)
	orch := New(
		WithPlanner(fixedPlan(models.WorkerTrade, models.WorkerMarket)),
		WithRegistry(mustRegistry(t, ws...)),
		WithEmitter(em),
	)

	out, err := orch.Handle(context.Background(), Request{Query: "q"})
	require.NoError(t, err)
	em.Close()

	var types []EventType
	for e := range em.Events() {
		assert.Equal(t, out.RequestID, e.RequestID)
		types = append(types, e.Type)
	}
	want := []EventType{
		EventRequestStarted, EventClassified, EventPlanned, EventPhaseChanged,
		EventWorkerStarted, EventWorkerCompleted,
		EventWorkerStarted, EventWorkerCompleted, EventPhaseChanged,
		EventFinalized, EventPhaseChanged,
	}
	if diff := cmp.Diff(want, types); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}
