// Package processor handles incoming gateway batches: statement rows and
// invoice records arrive on the input topic, get normalized and persisted,
// and a reconcile request triggers an engine run over the stored state.
package processor

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/reconcile"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Processor routes incoming messages to the reconciliation service
type Processor struct {
	logger  ectologger.Logger
	service *reconcile.Service
}

// NewProcessor creates a new message processor
func NewProcessor(logger ectologger.Logger, service *reconcile.Service) *Processor {
	return &Processor{
		logger:  logger,
		service: service,
	}
}

// HandleMessage is the kafka.MessageHandler for the input topic.
func (p *Processor) HandleMessage(ctx context.Context, msg *kafka.IncomingMessage) error {
	ctx, span := tracing.StartSpan(ctx, "processor.Processor.HandleMessage")
	defer span.End()

	tenantID := msg.GetTenantID()
	log := p.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id": tenantID,
		"type":      msg.Batch.Type,
	})

	if tenantID == "" {
		// Unroutable without a tenant; logged and committed, not retried.
		log.Error("Message has no tenant_id, dropping")
		return nil
	}

	switch msg.Batch.Type {
	case kafka.MessageTypeStatementBatch:
		raws, err := msg.Batch.Transactions()
		if err != nil {
			log.WithError(err).Error("Failed to map statement batch")
			return nil
		}
		count, parseErrs := p.service.LoadTransactions(ctx, tenantID, raws)
		for _, perr := range parseErrs {
			log.WithError(perr).Warn("Skipped unparsable statement row")
		}
		if count == 0 && len(parseErrs) > 0 {
			return fmt.Errorf("statement batch failed: %d rows rejected", len(parseErrs))
		}
		log.WithFields(map[string]any{"loaded": count, "skipped": len(parseErrs)}).Info("Loaded statement batch")
		return nil

	case kafka.MessageTypeInvoiceBatch:
		raws, err := msg.Batch.Invoices()
		if err != nil {
			log.WithError(err).Error("Failed to map invoice batch")
			return nil
		}
		count, parseErrs := p.service.LoadInvoices(ctx, tenantID, raws)
		for _, perr := range parseErrs {
			log.WithError(perr).Warn("Skipped unparsable invoice record")
		}
		if count == 0 && len(parseErrs) > 0 {
			return fmt.Errorf("invoice batch failed: %d records rejected", len(parseErrs))
		}
		log.WithFields(map[string]any{"loaded": count, "skipped": len(parseErrs)}).Info("Loaded invoice batch")
		return nil

	case kafka.MessageTypeReconcile:
		run, err := p.service.Run(ctx, tenantID)
		if err != nil {
			log.WithError(err).Error("Reconciliation run failed")
			return err
		}
		log.WithFields(map[string]any{"run_id": run.ID}).Info("Reconciliation run triggered by message")
		return nil

	default:
		log.Warnf("Unknown message type %q, dropping", msg.Batch.Type)
		return nil
	}
}
