package models

// TaskStatus is the lifecycle state of one file in an upload batch
type TaskStatus string

const (
	StatusQueued    TaskStatus = "queued"
	StatusUploading TaskStatus = "uploading"
	StatusCompleted TaskStatus = "completed"
	StatusError     TaskStatus = "error"
)

// Progress placeholders; the store call reports no byte-level progress.
const (
	ProgressInFlight = 1
	ProgressDone     = 100
)

// UploadTask tracks a single file of an upload batch
type UploadTask struct {
	ID        string     `json:"id"`
	FileName  string     `json:"fileName"`
	TargetKey string     `json:"targetKey"`
	Progress  int        `json:"progress"`
	Status    TaskStatus `json:"status"`
	Message   string     `json:"message,omitempty"`
}
