package models

import "time"

// ReconciliationRun records one invocation of the engine over a closed batch
type ReconciliationRun struct {
	ID           string     `json:"id" db:"id"`
	TenantID     string     `json:"tenant_id" db:"tenant_id"`
	Status       string     `json:"status" db:"status"`
	Transactions int        `json:"transactions" db:"transactions"`
	AutoMatched  int        `json:"auto_matched" db:"auto_matched"`
	InReview     int        `json:"in_review" db:"in_review"`
	Unmapped     int        `json:"unmapped" db:"unmapped"`
	StartedAt    time.Time  `json:"started_at" db:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// ReconciliationRun statuses
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)
