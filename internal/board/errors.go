package board

import (
	"errors"
	"fmt"
)

// ErrInvalidPosition is matched by every *InvalidPositionError.
var ErrInvalidPosition = errors.New("invalid position")

// InvalidPositionError reports a malformed or illegal input position.
type InvalidPositionError struct {
	FEN    string
	Reason string
}

func (e *InvalidPositionError) Error() string {
	return fmt.Sprintf("invalid position %q: %s", e.FEN, e.Reason)
}

// Is lets errors.Is(err, ErrInvalidPosition) match.
func (e *InvalidPositionError) Is(target error) bool {
	return target == ErrInvalidPosition
}

func invalid(fen, format string, args ...any) error {
	return &InvalidPositionError{FEN: fen, Reason: fmt.Sprintf(format, args...)}
}
