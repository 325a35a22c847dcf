package listgen

import (
	"errors"
	"fmt"
)

// Precondition faults. Neither is transient: the caller has to fix the
// configuration and try again.
var (
	ErrVocabularySizeMismatch = errors.New("vocabulary size mismatch")
	ErrListCountMismatch      = errors.New("list count mismatch")
)

// SizeError reports which precondition failed and by how much.
type SizeError struct {
	Kind error
	Want int
	Got  int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("%v: want %d, got %d", e.Kind, e.Want, e.Got)
}

func (e *SizeError) Unwrap() error { return e.Kind }
