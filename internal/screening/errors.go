package screening

import (
	"errors"
	"fmt"
)

// ErrDuplicateIdentifier matches any DuplicateIdentifierError via errors.Is
var ErrDuplicateIdentifier = errors.New("duplicate identifier")

// DuplicateIdentifierError is returned when two records in one batch share an
// identifier. The whole batch is rejected; callers must de-duplicate and retry.
type DuplicateIdentifierError struct {
	Identifier string
}

func (e *DuplicateIdentifierError) Error() string {
	return fmt.Sprintf("duplicate identifier %q in input batch", e.Identifier)
}

// Is reports whether target is ErrDuplicateIdentifier
func (e *DuplicateIdentifierError) Is(target error) bool {
	return target == ErrDuplicateIdentifier
}
