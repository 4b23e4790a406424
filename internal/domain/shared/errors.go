package shared

import "fmt"

// DomainError is the base error type for all engine errors.
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func NewDomainError(message string) *DomainError {
	return &DomainError{Message: message}
}

// ValidationError reports a malformed or out-of-range input. Validation
// failures are never fatal; the controller turns them into error signals.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// InvariantError reports an engine-internal invariant violation discovered at
// runtime. The caller reverts any partial state; the simulation continues.
type InvariantError struct {
	*DomainError
}

func NewInvariantError(format string, args ...interface{}) *InvariantError {
	return &InvariantError{DomainError: &DomainError{Message: fmt.Sprintf(format, args...)}}
}

// NotFoundError reports a lookup miss for an entity that a caller expected to
// exist.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func NewNotFoundError(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

// CapacityError reports an attempt to enter a facility that is already full.
type CapacityError struct {
	*DomainError
	BuildingID BuildingID
	Capacity   int
}

func NewCapacityError(building BuildingID, capacity int) *CapacityError {
	return &CapacityError{
		DomainError: &DomainError{Message: fmt.Sprintf("building %s is at capacity (%d)", building, capacity)},
		BuildingID:  building,
		Capacity:    capacity,
	}
}

// PositionError reports an operation that requires the agent to be at a node
// (parking, fueling, loading) attempted while it is mid-edge or unplaced.
type PositionError struct {
	*DomainError
	Agent AgentID
}

func NewPositionError(agent AgentID, operation string) *PositionError {
	return &PositionError{
		DomainError: &DomainError{Message: fmt.Sprintf("agent %s cannot %s: not at a node", agent, operation)},
		Agent:       agent,
	}
}

// IOError reports an external I/O failure (save file missing, decode failure).
// The triggering action is rejected without mutating world state.
type IOError struct {
	*DomainError
	Op string
}

func NewIOError(op string, cause error) *IOError {
	return &IOError{
		DomainError: &DomainError{Message: fmt.Sprintf("%s: %v", op, cause)},
		Op:          op,
	}
}
