package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Ramsey-B/clover/pkg/extractor"
	"github.com/Ramsey-B/clover/pkg/reconcile/rawrecords"
)

// Message types accepted on the input topic.
const (
	MessageTypeStatementBatch = "statement.batch"
	MessageTypeInvoiceBatch   = "invoice.batch"
	MessageTypeReconcile      = "reconcile.requested"
)

// FieldMap maps canonical field names to JSONPath-like expressions inside a
// gateway row. Gateways disagree on field names and nesting; the map lets one
// consumer handle all of them without per-gateway code.
type FieldMap map[string]string

// BatchMessage is the envelope for statement and invoice batches delivered by
// upstream gateways.
type BatchMessage struct {
	Type      string           `json:"type"`
	TenantID  string           `json:"tenant_id"`
	Source    string           `json:"source,omitempty"`
	FieldMap  FieldMap         `json:"field_map,omitempty"`
	Rows      []map[string]any `json:"rows"`
	Timestamp time.Time        `json:"timestamp"`
}

// IncomingMessage wraps a raw Kafka message with parsed headers
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string

	Batch *BatchMessage
}

// Parse parses the message value as a batch envelope.
func (m *IncomingMessage) Parse() error {
	var batch BatchMessage
	if err := json.Unmarshal(m.Value, &batch); err != nil {
		return err
	}
	if batch.TenantID == "" {
		batch.TenantID = m.Headers["tenant_id"]
	}
	m.Batch = &batch
	return nil
}

// GetTenantID returns the tenant the message belongs to.
func (m *IncomingMessage) GetTenantID() string {
	if m.Batch != nil && m.Batch.TenantID != "" {
		return m.Batch.TenantID
	}
	return m.Headers["tenant_id"]
}

// defaultTransactionFields is used when the gateway supplies no field map.
var defaultTransactionFields = FieldMap{
	"id":              "id",
	"date":            "date",
	"description":     "description",
	"amount":          "amount",
	"reference":       "reference",
	"running_balance": "running_balance",
}

var defaultInvoiceFields = FieldMap{
	"number":      "number",
	"party_name":  "party_name",
	"amount":      "amount",
	"date":        "date",
	"description": "description",
	"direction":   "direction",
}

// Transactions maps the batch rows onto raw bank transactions using the
// message's field map.
func (b *BatchMessage) Transactions() ([]rawrecords.RawBankTransaction, error) {
	if b.Type != MessageTypeStatementBatch {
		return nil, fmt.Errorf("message type %q is not a statement batch", b.Type)
	}

	fields := b.FieldMap
	if len(fields) == 0 {
		fields = defaultTransactionFields
	}

	ex := extractor.New()
	raws := make([]rawrecords.RawBankTransaction, 0, len(b.Rows))
	for _, row := range b.Rows {
		raws = append(raws, rawrecords.RawBankTransaction{
			ID:             extractField(ex, row, fields, "id"),
			Date:           extractField(ex, row, fields, "date"),
			Description:    extractField(ex, row, fields, "description"),
			Amount:         extractField(ex, row, fields, "amount"),
			Reference:      extractField(ex, row, fields, "reference"),
			RunningBalance: extractField(ex, row, fields, "running_balance"),
		})
	}
	return raws, nil
}

// Invoices maps the batch rows onto raw invoices using the message's field
// map.
func (b *BatchMessage) Invoices() ([]rawrecords.RawInvoice, error) {
	if b.Type != MessageTypeInvoiceBatch {
		return nil, fmt.Errorf("message type %q is not an invoice batch", b.Type)
	}

	fields := b.FieldMap
	if len(fields) == 0 {
		fields = defaultInvoiceFields
	}

	ex := extractor.New()
	raws := make([]rawrecords.RawInvoice, 0, len(b.Rows))
	for _, row := range b.Rows {
		raws = append(raws, rawrecords.RawInvoice{
			Number:      extractField(ex, row, fields, "number"),
			PartyName:   extractField(ex, row, fields, "party_name"),
			Amount:      extractField(ex, row, fields, "amount"),
			Date:        extractField(ex, row, fields, "date"),
			Description: extractField(ex, row, fields, "description"),
			Direction:   extractField(ex, row, fields, "direction"),
		})
	}
	return raws, nil
}

func extractField(ex *extractor.Extractor, row map[string]any, fields FieldMap, name string) string {
	path, ok := fields[name]
	if !ok || path == "" {
		return ""
	}
	value, err := ex.ExtractString(row, path)
	if err != nil || value == nil {
		return ""
	}
	return *value
}
