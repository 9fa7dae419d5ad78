// Package orchestrator drives one research request from raw query to
// report.
//
// A request moves through four phases:
//
//	init -> running -> finalizing -> done
//	init -> finalizing            (empty worklist)
//
// In init the query is classified and decomposed into a worklist. Each
// running step dispatches the first worklist entry that has not completed
// and records its envelope. When every entry has completed, or a worker
// faults structurally, the machine moves to finalizing, where the finalizer
// builds the report artifact.
//
// An Orchestrator holds only immutable dependencies and can serve many
// requests concurrently. Each request gets its own Machine and
// models.RequestState, which are driven by a single goroutine.
//
// Example usage:
//
//	orch := orchestrator.New(
//		orchestrator.WithRegistry(worker.DefaultRegistry(src)),
//		orchestrator.WithFinalizer(report.NewBuilder(cfg, logger)),
//		orchestrator.WithLogger(logger),
//	)
//	out, err := orch.Handle(ctx, orchestrator.Request{Query: "Analyze trade flows for paracetamol API"})
package orchestrator
