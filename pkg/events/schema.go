package events

import (
	"time"

	"github.com/Ramsey-B/clover/pkg/models"
)

// EventType defines the type of event
type EventType string

const (
	// Match lifecycle events
	EventTypeMatchCreated  EventType = "match.created"
	EventTypeMatchReview   EventType = "match.review"
	EventTypeMatchUnmapped EventType = "match.unmapped"
	EventTypeMatchApproved EventType = "match.approved"
	EventTypeMatchRejected EventType = "match.rejected"

	// Run events
	EventTypeRunCompleted EventType = "run.completed"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventType     EventType `json:"event_type"`
	SchemaVersion string    `json:"schema_version"`
	TenantID      string    `json:"tenant_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// MatchEvent is emitted for every match result an engine run produces, and
// again when a pending result is approved or rejected.
type MatchEvent struct {
	BaseEvent
	ResultID         string                `json:"result_id"`
	RunID            string                `json:"run_id"`
	TransactionID    string                `json:"transaction_id"`
	InvoiceNumber    *string               `json:"invoice_number,omitempty"`
	Score            float64               `json:"score"`
	Factors          models.FactorScores   `json:"factors"`
	Tier             models.ConfidenceTier `json:"tier"`
	DetectedTaxRate  *float64              `json:"detected_tax_rate,omitempty"`
	SuggestedAccount *models.LedgerAccount `json:"suggested_account,omitempty"`
	Rationale        string                `json:"rationale"`
}

// RunCompletedEvent summarizes a finished reconciliation run.
type RunCompletedEvent struct {
	BaseEvent
	RunID        string `json:"run_id"`
	Transactions int    `json:"transactions"`
	AutoMatched  int    `json:"auto_matched"`
	InReview     int    `json:"in_review"`
	Unmapped     int    `json:"unmapped"`
}
