package scopegraph

import (
	"fmt"
	"strings"
)

// ProducerNotFoundError is returned when a key has no registered producer
// and the container has no fallback.
type ProducerNotFoundError struct {
	Key string
}

func (e *ProducerNotFoundError) Error() string {
	return fmt.Sprintf("no producer registered for key: %s", e.Key)
}

// CannotDestroyRootError is returned when Destroy is called on a tree root
// without naming a target.
type CannotDestroyRootError struct {
	ID string
}

func (e *CannotDestroyRootError) Error() string {
	return fmt.Sprintf("cannot destroy root container %s without an explicit target", e.ID)
}

// OwningContainerNotFoundError represents a value with no back-reference.
type OwningContainerNotFoundError struct {
	Type string
}

func (e *OwningContainerNotFoundError) Error() string {
	return fmt.Sprintf("no owning container found for value of type: %s", e.Type)
}

// InvalidProducerError represents a rejected producer configuration.
type InvalidProducerError struct {
	Key    string
	Reason string
}

func (e *InvalidProducerError) Error() string {
	return fmt.Sprintf("invalid producer for key %s: %s", e.Key, e.Reason)
}

// InitializationError represents a construction failure.
type InitializationError struct {
	Key string
	Err error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("initialization failed for key %s: %v", e.Key, e.Err)
}

func (e *InitializationError) Unwrap() error {
	return e.Err
}

// ShutdownError represents a destroy hook failure.
type ShutdownError struct {
	Key string
	Err error
}

func (e *ShutdownError) Error() string {
	return fmt.Sprintf("shutdown failed for key %s: %v", e.Key, e.Err)
}

func (e *ShutdownError) Unwrap() error {
	return e.Err
}

// TypeMismatchError represents a type assertion failure.
type TypeMismatchError struct {
	Expected string
	Got      string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: expected %s, got %s", e.Expected, e.Got)
}

// InjectionNotFoundError is returned by Get when nothing has been resolved
// yet for the key.
type InjectionNotFoundError struct {
	Key string
}

func (e *InjectionNotFoundError) Error() string {
	return fmt.Sprintf("no resolved value found for key: %s", e.Key)
}

// CircularDependencyError is returned when a producer is constructed again
// while its own construction is still in progress.
type CircularDependencyError struct {
	Chain []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency detected: %s", strings.Join(e.Chain, " -> "))
}
