package booking

import (
	"errors"
	"fmt"

	"turnero/internal/domain"
)

// ErrForbidden signals that the acting party does not own the resource it
// tried to mutate. The core only checks ownership it can see on the row
// itself; richer role policy lives upstream.
var ErrForbidden = errors.New("forbidden")

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// InvalidStateError rejects an operation the appointment's current state
// does not permit. Lifecycle transitions name the attempted target state;
// other operations, like modifying a terminal appointment, name the
// operation instead.
type InvalidStateError struct {
	Op        string
	From      domain.AppointmentState
	Attempted domain.AppointmentState
}

func (e *InvalidStateError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("cannot %s appointment in %s state", e.Op, e.From)
	}
	return fmt.Sprintf("cannot move appointment from %s to %s", e.From, e.Attempted)
}
