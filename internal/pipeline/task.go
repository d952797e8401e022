package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// Status represents the lifecycle of a pipeline task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// ErrInvalidTransition marks task status changes that violate the forward-only
// state machine. It signals a runner bug, never user input, and callers should
// fail loudly instead of swallowing it.
var ErrInvalidTransition = errors.New("invalid task transition")

var allStatuses = []Status{StatusPending, StatusRunning, StatusCompleted, StatusError}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Terminal reports whether a status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Task is the status-tracked representation of one pipeline stage's execution
// for a case.
type Task struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

func newTask(id, name string) Task {
	return Task{ID: id, Name: name, Status: StatusPending}
}

// transition advances the task along pending → running → {completed | error}.
// Status and message change together so observers never see one without the
// other.
func (t *Task) transition(to Status, message string) error {
	if !transitionAllowed(t.Status, to) {
		return fmt.Errorf("%w: task %s: %s -> %s", ErrInvalidTransition, t.ID, t.Status, to)
	}
	t.Status = to
	t.Message = message
	return nil
}

func transitionAllowed(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusRunning
	case StatusRunning:
		return to == StatusCompleted || to == StatusError
	default:
		return false
	}
}
