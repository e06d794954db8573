package workflow

import "errors"

// Guard errors are surfaced as inline messages and cause no state
// transition: the prerequisite artifact simply is not there yet.
var (
	ErrBusy          = errors.New("another action is already in flight")
	ErrNotDetected   = errors.New("no syllabus detected yet; run detection first")
	ErrNotSimplified = errors.New("no simplified version yet; simplify first")
	ErrNoEvents      = errors.New("no calendar events to add")
	ErrNoPreview     = errors.New("nothing to download yet")
	ErrNotSyllabus   = errors.New("this page does not look like a syllabus")
	ErrBadLanguage   = errors.New("unsupported language")
	ErrBadTransition = errors.New("action not available in the current state")
)

// IsGuard reports whether err is a guard failure rather than an operation
// failure, so the UI can render it inline without entering the error state.
func IsGuard(err error) bool {
	for _, guard := range []error{ErrBusy, ErrNotDetected, ErrNotSimplified, ErrNoEvents, ErrNoPreview, ErrNotSyllabus, ErrBadLanguage, ErrBadTransition} {
		if errors.Is(err, guard) {
			return true
		}
	}
	return false
}
