// Package core defines the essential interfaces and data structures that form the
// backbone of the application. These components are designed to be abstract,
// allowing for flexible and decoupled implementations of the application's logic.
package core

import (
	"database/sql"
	"time"
)

// JobStatus is the lifecycle state of a queued review job.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// DefaultMaxAttempts is the attempt ceiling after which a job fails terminally.
const DefaultMaxAttempts = 3

// ReviewJob is one unit of queued review work. At most one job per
// (repository, PR number) may be live (pending or processing) at a time;
// the storage layer enforces this at enqueue time.
type ReviewJob struct {
	ID           string         `db:"id"`
	RepoFullName string         `db:"repo_full_name"`
	RepoOwner    string         `db:"repo_owner"`
	RepoName     string         `db:"repo_name"`
	PRNumber     int            `db:"pr_number"`
	Status       JobStatus      `db:"status"`
	Attempts     int            `db:"attempts"`
	MaxAttempts  int            `db:"max_attempts"`
	RiskPayload  []byte         `db:"risk_payload"`
	LastError    sql.NullString `db:"last_error"`
	NextRetryAt  sql.NullTime   `db:"next_retry_at"`
	CreatedAt    time.Time      `db:"created_at"`
	StartedAt    sql.NullTime   `db:"started_at"`
	CompletedAt  sql.NullTime   `db:"completed_at"`
}

// Live reports whether the job still occupies its (repo, PR) slot.
func (j *ReviewJob) Live() bool {
	return j.Status == JobPending || j.Status == JobProcessing
}
