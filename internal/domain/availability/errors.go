package availability

import "errors"

var (
	ErrInvalidTemplate = errors.New("invalid availability template")
)

func IsErrInvalidTemplate(err error) bool { return errors.Is(err, ErrInvalidTemplate) }
