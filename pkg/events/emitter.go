// Package events handles event emission for match lifecycle changes
package events

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Emitter handles event emission for the reconciliation pipeline
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

func (e *Emitter) emitMatch(ctx context.Context, eventType EventType, result *models.MatchResult) error {
	event := &MatchEvent{
		BaseEvent: BaseEvent{
			EventType:     eventType,
			SchemaVersion: SchemaVersion,
			TenantID:      result.TenantID,
			Timestamp:     time.Now().UTC(),
		},
		ResultID:         result.ID,
		RunID:            result.RunID,
		TransactionID:    result.TransactionID,
		InvoiceNumber:    result.InvoiceNumber,
		Score:            result.Score,
		Factors:          result.Factors,
		Tier:             result.Tier,
		DetectedTaxRate:  result.DetectedTaxRate,
		SuggestedAccount: result.SuggestedAccount,
		Rationale:        result.Rationale,
	}

	if err := e.producer.Publish(ctx, &kafka.OutgoingEvent{
		EventType: string(eventType),
		TenantID:  result.TenantID,
		Key:       result.TransactionID,
		Payload:   event,
	}); err != nil {
		e.logger.WithContext(ctx).WithError(err).Errorf("Failed to emit %s event", eventType)
		return err
	}

	return nil
}

// EmitMatchCreated emits an event for an auto-matched result
func (e *Emitter) EmitMatchCreated(ctx context.Context, result *models.MatchResult) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitMatchCreated")
	defer span.End()

	return e.emitMatch(ctx, EventTypeMatchCreated, result)
}

// EmitMatchReview emits an event for a result entering the review queue
func (e *Emitter) EmitMatchReview(ctx context.Context, result *models.MatchResult) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitMatchReview")
	defer span.End()

	return e.emitMatch(ctx, EventTypeMatchReview, result)
}

// EmitMatchUnmapped emits an event for a transaction no invoice could settle
func (e *Emitter) EmitMatchUnmapped(ctx context.Context, result *models.MatchResult) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitMatchUnmapped")
	defer span.End()

	return e.emitMatch(ctx, EventTypeMatchUnmapped, result)
}

// EmitMatchApproved emits an event when a reviewer approves a pending match
func (e *Emitter) EmitMatchApproved(ctx context.Context, result *models.MatchResult) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitMatchApproved")
	defer span.End()

	return e.emitMatch(ctx, EventTypeMatchApproved, result)
}

// EmitMatchRejected emits an event when a reviewer rejects a pending match
func (e *Emitter) EmitMatchRejected(ctx context.Context, result *models.MatchResult) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitMatchRejected")
	defer span.End()

	return e.emitMatch(ctx, EventTypeMatchRejected, result)
}

// EmitRunCompleted emits the summary event for a finished run
func (e *Emitter) EmitRunCompleted(ctx context.Context, run *models.ReconciliationRun) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRunCompleted")
	defer span.End()

	event := &RunCompletedEvent{
		BaseEvent: BaseEvent{
			EventType:     EventTypeRunCompleted,
			SchemaVersion: SchemaVersion,
			TenantID:      run.TenantID,
			Timestamp:     time.Now().UTC(),
		},
		RunID:        run.ID,
		Transactions: run.Transactions,
		AutoMatched:  run.AutoMatched,
		InReview:     run.InReview,
		Unmapped:     run.Unmapped,
	}

	if err := e.producer.Publish(ctx, &kafka.OutgoingEvent{
		EventType: string(EventTypeRunCompleted),
		TenantID:  run.TenantID,
		Key:       run.ID,
		Payload:   event,
	}); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit run.completed event")
		return err
	}

	return nil
}
