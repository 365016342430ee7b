package replay

import "errors"

var (
	// ErrInvalidScript is returned for scripts that cannot be replayed.
	ErrInvalidScript = errors.New("invalid replay script")
	// ErrRoundUnfinished is returned when the round outlasts the replay limit.
	ErrRoundUnfinished = errors.New("round did not finish")
)
