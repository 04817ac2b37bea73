package node

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateType reports a second registration of the same tag.
	ErrDuplicateType = errors.New("node type already registered")

	// ErrUnknownType reports a lookup of a tag nobody registered.
	ErrUnknownType = errors.New("unknown node type")
)

// ValidationError rejects a malformed property bag. The mutation that
// produced the bag must be dropped and prior state kept.
type ValidationError struct {
	Type   string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid props for %q: field %q: %s", e.Type, e.Field, e.Reason)
}
