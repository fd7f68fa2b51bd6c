package models

// TaskStatus is the lifecycle state of a background task
type TaskStatus string

const (
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusCancelled TaskStatus = "cancelled"
)

// Ack acknowledges a fire-and-forget request. Accepted means work was
// scheduled, not that it finished.
type Ack struct {
	Accepted bool   `json:"accepted"`
	TaskID   string `json:"task_id,omitempty"`
}

// SweepStats aggregates the outcome of an ingestion run
type SweepStats struct {
	Sources    int `json:"sources"`
	Discovered int `json:"discovered"`
	Duplicates int `json:"duplicates"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
	Created    int `json:"created"`
}

// Add merges other into s
func (s *SweepStats) Add(other SweepStats) {
	s.Sources += other.Sources
	s.Discovered += other.Discovered
	s.Duplicates += other.Duplicates
	s.Skipped += other.Skipped
	s.Failed += other.Failed
	s.Created += other.Created
}
