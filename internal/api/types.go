package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// TaskView describes one pipeline task in a transport-friendly format.
type TaskView struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// RunProgress captures aggregate progress over a run's tasks.
type RunProgress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
	Percent   int `json:"percent"`
}

// RunSnapshot is the observer view of a case's live (or finished) run.
type RunSnapshot struct {
	Tasks       []TaskView  `json:"tasks"`
	CurrentStep string      `json:"currentStep"`
	Progress    RunProgress `json:"progress"`
}

// CaseView describes a persisted case in a transport-friendly format.
type CaseView struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Status         string `json:"status"`
	CurrentStep    string `json:"currentStep,omitempty"`
	DocumentPath   string `json:"documentPath,omitempty"`
	RecordingPath  string `json:"recordingPath,omitempty"`
	TranscriptPath string `json:"transcriptPath,omitempty"`
	ArtifactPath   string `json:"artifactPath,omitempty"`
	ErrorMessage   string `json:"errorMessage,omitempty"`
	CreatedAt      string `json:"createdAt,omitempty"`
	UpdatedAt      string `json:"updatedAt,omitempty"`
}

// CaseStatusResponse pairs the persisted case with its run snapshot, when one
// exists.
type CaseStatusResponse struct {
	Case CaseView     `json:"case"`
	Run  *RunSnapshot `json:"run,omitempty"`
}

// CaseListResponse wraps a collection of cases for API responses.
type CaseListResponse struct {
	Cases []CaseView `json:"cases"`
}

// CaseResponse wraps a single case for API responses.
type CaseResponse struct {
	Case CaseView `json:"case"`
}

// CreateCaseRequest is the payload for registering a new case.
type CreateCaseRequest struct {
	Title string `json:"title"`
}

// ClearResponse reports how many cases a bulk clear removed.
type ClearResponse struct {
	Removed int64 `json:"removed"`
}

// StageHealth mirrors readiness reporting for pipeline stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running   bool           `json:"running"`
	CaseStats map[string]int `json:"caseStats"`
	LastError string         `json:"lastError,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	DatabasePath string         `json:"databasePath"`
	LockFilePath string         `json:"lockFilePath"`
	Workflow     WorkflowStatus `json:"workflow"`
	StageHealth  []StageHealth  `json:"stageHealth"`
}

// Error codes returned alongside HTTP error statuses.
const (
	CodeIngestionIncomplete = "ingestion_incomplete"
	CodeCaseProcessing      = "case_processing"
	CodeArtifactUnavailable = "artifact_unavailable"
)

// ErrorResponse is the JSON body of error replies.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
