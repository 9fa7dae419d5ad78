package decompose

import (
	"errors"
	"fmt"

	"github.com/ShayCichocki/pharmint/pkg/models"
)

var (
	// ErrEmptyWorklist is returned for a worklist with no entries.
	ErrEmptyWorklist = errors.New("worklist is empty")
	// ErrUnknownWorker is returned for ids outside the data-worker set.
	ErrUnknownWorker = errors.New("unknown worker")
	// ErrDuplicateWorker is returned when an id appears more than once.
	ErrDuplicateWorker = errors.New("duplicate worker")
)

// ValidationResult contains the results of validating a worklist.
type ValidationResult struct {
	Valid  bool
	Errors []error
}

// Err joins all validation errors, or returns nil for a valid worklist.
func (r ValidationResult) Err() error {
	return errors.Join(r.Errors...)
}

// Validate checks that a worklist is non-empty, duplicate-free and made only
// of data workers. The report pseudo-worker is rejected: finalization is not
// a worklist step.
func Validate(worklist []models.WorkerID) ValidationResult {
	result := ValidationResult{Valid: true}

	if len(worklist) == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, ErrEmptyWorklist)
		return result
	}

	seen := make(map[models.WorkerID]int, len(worklist))
	for pos, id := range worklist {
		if !id.IsDataWorker() {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Errorf("position %d: %w: %q", pos, ErrUnknownWorker, id))
			continue
		}
		if first, dup := seen[id]; dup {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Errorf("position %d: %w: %s (first at %d)", pos, ErrDuplicateWorker, id, first))
			continue
		}
		seen[id] = pos
	}

	return result
}
