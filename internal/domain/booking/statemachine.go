package booking

import "fmt"

// ActorKind says who is allowed to drive a given transition: the turf owner
// rules on requests, the requesting user may withdraw their own.
type ActorKind string

const (
	ActorOwner     ActorKind = "owner"
	ActorRequester ActorKind = "requester"
)

var transitions = map[[2]Status]ActorKind{
	{StatusPending, StatusApproved}:   ActorOwner,
	{StatusPending, StatusRejected}:   ActorOwner,
	{StatusPending, StatusCancelled}:  ActorRequester,
	{StatusApproved, StatusCancelled}: ActorRequester,
}

// RequiredActor returns who may perform from→to, or ErrInvalidTransition if
// the step does not exist. Terminal states admit no transitions at all.
func RequiredActor(from, to Status) (ActorKind, error) {
	if from.Terminal() {
		return "", fmt.Errorf("%w: booking is already %s", ErrInvalidTransition, from)
	}
	kind, ok := transitions[[2]Status{from, to}]
	if !ok {
		return "", fmt.Errorf("%w: cannot go from %s to %s", ErrInvalidTransition, from, to)
	}
	return kind, nil
}
