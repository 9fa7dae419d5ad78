// Package integration provides cross-package integration tests for pharmint.
// These tests drive the orchestrator over real catalog backends and check
// the reports and metrics that come out the other end.
//
// Build tag: integration
// Run with: go test -tags integration ./internal/integration/...
package integration
