package casestore

import (
	"errors"
	"strings"
	"time"
)

// ErrNotFound reports operations addressed to an unknown case identifier.
var ErrNotFound = errors.New("case not found")

// Status represents the coarse lifecycle of a case.
type Status string

const (
	StatusIntake     Status = "intake"
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// DaemonStopReason is the error message set on cases failed by daemon shutdown.
const DaemonStopReason = "Daemon stopped"

var allStatuses = []Status{
	StatusIntake,
	StatusQueued,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// InputRole tags an uploaded file with its function in the case.
type InputRole string

const (
	RoleDocument  InputRole = "document"
	RoleRecording InputRole = "recording"
)

// ParseInputRole converts a string into a known InputRole.
func ParseInputRole(value string) (InputRole, bool) {
	switch InputRole(strings.ToLower(strings.TrimSpace(value))) {
	case RoleDocument:
		return RoleDocument, true
	case RoleRecording:
		return RoleRecording, true
	default:
		return "", false
	}
}

// Case represents one end-to-end processing request persisted in SQLite.
type Case struct {
	ID             string
	Title          string
	Status         Status
	DocumentPath   string
	RecordingPath  string
	TranscriptPath string
	ExtractionJSON string
	ArtifactPath   string
	CurrentStep    string
	ErrorMessage   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasInputs reports whether both required inputs have been received.
func (c *Case) HasInputs() bool {
	return strings.TrimSpace(c.DocumentPath) != "" && strings.TrimSpace(c.RecordingPath) != ""
}

// InputPath returns the stored path for a role.
func (c *Case) InputPath(role InputRole) string {
	switch role {
	case RoleDocument:
		return c.DocumentPath
	case RoleRecording:
		return c.RecordingPath
	default:
		return ""
	}
}

// SetInputPath records the path for a role, replacing any earlier upload.
func (c *Case) SetInputPath(role InputRole, path string) {
	switch role {
	case RoleDocument:
		c.DocumentPath = path
	case RoleRecording:
		c.RecordingPath = path
	}
}

// IsProcessing returns true when the case is mid-run.
func (c *Case) IsProcessing() bool {
	return c.Status == StatusProcessing
}

// SetFailed marks the case as failed with the given error message.
func (c *Case) SetFailed(message string) {
	c.Status = StatusFailed
	c.ErrorMessage = message
	c.CurrentStep = "Falha"
}

// HealthSummary describes aggregated case counts per lifecycle state.
type HealthSummary struct {
	Total      int
	Intake     int
	Queued     int
	Processing int
	Completed  int
	Failed     int
}
