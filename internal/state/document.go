package state

import (
	"time"

	"github.com/imamik/hafloat/internal/failover"
)

// TaskState is the outcome of the last run.
type TaskState string

// Task states.
const (
	TaskRunning   TaskState = "RUNNING"
	TaskSucceeded TaskState = "SUCCEEDED"
	TaskFailed    TaskState = "FAILED"
)

// Document is the persisted state of one instance.
type Document struct {
	TaskState         TaskState              `json:"taskState,omitempty"`
	RunID             string                 `json:"runId,omitempty"`
	InstanceID        string                 `json:"instanceId,omitempty"`
	StartedAt         time.Time              `json:"startedAt"`
	LastUpdated       time.Time              `json:"lastUpdated"`
	Message           string                 `json:"message,omitempty"`
	LocalAddresses    []string               `json:"localAddresses,omitempty"`
	FailoverAddresses []string               `json:"failoverAddresses,omitempty"`
	Operations        *failover.OperationSet `json:"operations,omitempty"`
	Labels            map[string]string      `json:"labels,omitempty"`
}

// Empty reports whether no run was ever recorded.
func (d *Document) Empty() bool {
	return d == nil || d.RunID == ""
}

// InProgress reports whether d describes a running task that was updated
// within staleAfter of now.
func (d *Document) InProgress(now time.Time, staleAfter time.Duration) bool {
	if d.Empty() || d.TaskState != TaskRunning {
		return false
	}
	return now.Sub(d.LastUpdated) < staleAfter
}
