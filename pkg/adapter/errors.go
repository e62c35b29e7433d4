package adapter

import (
	"fmt"
	"strings"
)

// UnknownAdapterError is returned when an adapter type is not registered.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

// Error implements the error interface.
func (e *UnknownAdapterError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("unknown adapter type %q (no adapters registered)", e.Type)
	}
	return fmt.Sprintf("unknown adapter type %q (available: %s)", e.Type, strings.Join(e.Available, ", "))
}
