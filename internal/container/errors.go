package container

import (
	"fmt"
	"strings"
)

// InitializationError is returned by Build when a dependency cannot be
// opened or is missing after wiring.
type InitializationError struct {
	Message string
	Causes  []string
}

// NewInitializationError creates a new initialization error
func NewInitializationError(message string, causes []string) *InitializationError {
	return &InitializationError{Message: message, Causes: causes}
}

func (e *InitializationError) Error() string {
	if len(e.Causes) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Causes, ", "))
}
