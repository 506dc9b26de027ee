package statement

import (
	"errors"
	"fmt"
)

// ErrMetadataMissing is returned when the account number or name cannot be found.
// The whole import is aborted.
var ErrMetadataMissing = errors.New("statement metadata missing")

// MetadataError names the required field that was not found.
type MetadataError struct {
	Field string
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMetadataMissing.Error(), e.Field)
}

func (e *MetadataError) Unwrap() error {
	return ErrMetadataMissing
}
