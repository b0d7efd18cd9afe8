package schema

import "errors"

// Errors that end the analysis of a single period. None of them abort a batch.
var (
	ErrEmptyPeriod                = errors.New("period has no parties")
	ErrDuplicatePartyLabel        = errors.New("duplicate party label")
	ErrInvalidSeats               = errors.New("seat count must be a positive integer")
	ErrTooManyParties             = errors.New("too many parties to enumerate")
	ErrInvalidQuota               = errors.New("quota must lie in [0, total seats)")
	ErrNotAWeightedGame           = errors.New("classification is not a weighted voting game")
	ErrInconsistentReconstruction = errors.New("reconstructed weights do not reproduce the classification")
	ErrSolverTimeout              = errors.New("solver timed out")
	ErrSolverFailed               = errors.New("solver failed")
	ErrNumericOverflow            = errors.New("numeric overflow")
)

// StatusForError maps a period error onto the status recorded in its result.
func StatusForError(err error) PeriodStatus {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrEmptyPeriod),
		errors.Is(err, ErrDuplicatePartyLabel),
		errors.Is(err, ErrInvalidSeats),
		errors.Is(err, ErrTooManyParties),
		errors.Is(err, ErrInvalidQuota):
		return StatusRejected
	case errors.Is(err, ErrNotAWeightedGame):
		return StatusNotWeighted
	case errors.Is(err, ErrInconsistentReconstruction):
		return StatusInconsistent
	case errors.Is(err, ErrSolverTimeout):
		return StatusUnsolved
	case errors.Is(err, ErrNumericOverflow):
		return StatusOverflow
	default:
		return StatusFailed
	}
}
