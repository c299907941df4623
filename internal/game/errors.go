package game

import (
	"errors"
	"fmt"
)

// Rejection is a refused request. The game state is untouched and the text is
// safe to show to the player who asked.
type Rejection struct {
	Reason string
}

func (r *Rejection) Error() string { return r.Reason }

func rejectf(format string, args ...any) *Rejection {
	return &Rejection{Reason: fmt.Sprintf(format, args...)}
}

// AsRejection reports whether err is a player-facing rejection.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// InvariantError means the engine caught itself in an impossible state while
// applying an operation. The caller must restore the snapshot taken before the
// operation; the error text is for logs, not players.
type InvariantError struct {
	Reason string
}

func (e *InvariantError) Error() string { return e.Reason }

func invariantf(format string, args ...any) *InvariantError {
	return &InvariantError{Reason: fmt.Sprintf(format, args...)}
}

// IsInvariant reports whether err requires a snapshot rollback.
func IsInvariant(err error) bool {
	var e *InvariantError
	return errors.As(err, &e)
}
