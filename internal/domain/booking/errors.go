package booking

import "errors"

var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotFound          = errors.New("not found")
	ErrBadRequest        = errors.New("bad request")
	ErrPastSlot          = errors.New("slot is in the past")
	ErrSlotConflict      = errors.New("slot already booked")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnavailable       = errors.New("backend unavailable")
)

func IsErrUnauthorized(err error) bool      { return errors.Is(err, ErrUnauthorized) }
func IsErrNotFound(err error) bool          { return errors.Is(err, ErrNotFound) }
func IsErrBadRequest(err error) bool        { return errors.Is(err, ErrBadRequest) }
func IsErrPastSlot(err error) bool          { return errors.Is(err, ErrPastSlot) }
func IsErrSlotConflict(err error) bool      { return errors.Is(err, ErrSlotConflict) }
func IsErrInvalidTransition(err error) bool { return errors.Is(err, ErrInvalidTransition) }
func IsErrUnavailable(err error) bool       { return errors.Is(err, ErrUnavailable) }
