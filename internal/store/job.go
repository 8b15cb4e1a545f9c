package store

import (
	"time"
)

type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusRunning   JobStatus = "running"
	StatusSubmitted JobStatus = "submitted"
	StatusFailed    JobStatus = "failed"
)

// GraphJob is one push-to-task-graph job: which push of which project it
// covers and how far submission got.
type GraphJob struct {
	JobID        int64      `param:"job_id" json:"job_id"`
	ProjectAlias string     `json:"project_alias"`
	PushID       int64      `json:"push_id"`
	Revision     *string    `json:"revision"`
	TaskGroupID  *string    `json:"task_group_id"`
	Error        *string    `json:"error"`
	Status       JobStatus  `json:"status"`
	CreatedOn    time.Time  `json:"created_on"`
	StartedOn    *time.Time `json:"started_on"`
	EndedOn      *time.Time `json:"ended_on"`
}
