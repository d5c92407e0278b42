package workflow

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds returned by the engine and by Store implementations.
// Callers match them with errors.Is.
var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicate           = errors.New("duplicate")
	ErrInvalidTransition   = errors.New("invalid transition")
	ErrStoreUnavailable    = errors.New("store unavailable")
	ErrPartialBatchFailure = errors.New("partial batch failure")

	// ErrDuplicateActiveDefense also matches ErrDuplicate.
	ErrDuplicateActiveDefense = fmt.Errorf("%w: candidate already has an active defense", ErrDuplicate)
)

// NotFound builds an ErrNotFound error naming the missing entity
func NotFound(entity string, id uint) error {
	return fmt.Errorf("%s %d: %w", entity, id, ErrNotFound)
}

// Unavailable wraps a store failure so that it matches ErrStoreUnavailable
// while keeping the driver error in the chain.
func Unavailable(op string, err error) error {
	return fmt.Errorf("failed to %s: %w: %w", op, ErrStoreUnavailable, err)
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidTransition, fmt.Sprintf(format, args...))
}

// AssignmentFailure describes one rapporteur that could not be assigned
type AssignmentFailure struct {
	RapporteurID uint   `json:"rapporteur_id"`
	Reason       string `json:"reason"`
}

// BatchError reports a multi-item operation where some items failed.
// It matches ErrPartialBatchFailure.
type BatchError struct {
	Succeeded int
	Failed    int
	Failures  []AssignmentFailure
}

func (e *BatchError) Error() string {
	reasons := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		reasons = append(reasons, fmt.Sprintf("rapporteur %d: %s", f.RapporteurID, f.Reason))
	}
	return fmt.Sprintf("%s: %d succeeded, %d failed (%s)",
		ErrPartialBatchFailure, e.Succeeded, e.Failed, strings.Join(reasons, "; "))
}

func (e *BatchError) Is(target error) bool {
	return target == ErrPartialBatchFailure
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
