package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncomingMessage_Parse(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		msg := &IncomingMessage{
			Value: []byte(`{"type":"statement.batch","tenant_id":"tenant-1","rows":[{"id":"txn-1"}]}`),
		}
		require.NoError(t, msg.Parse())
		assert.Equal(t, MessageTypeStatementBatch, msg.Batch.Type)
		assert.Equal(t, "tenant-1", msg.GetTenantID())
		assert.Len(t, msg.Batch.Rows, 1)
	})

	t.Run("TenantFromHeader", func(t *testing.T) {
		msg := &IncomingMessage{
			Value:   []byte(`{"type":"reconcile.requested"}`),
			Headers: map[string]string{"tenant_id": "tenant-2"},
		}
		require.NoError(t, msg.Parse())
		assert.Equal(t, "tenant-2", msg.GetTenantID())
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		msg := &IncomingMessage{Value: []byte(`not json`)}
		assert.Error(t, msg.Parse())
	})
}

func TestBatchMessage_Transactions(t *testing.T) {
	t.Run("DefaultFieldMap", func(t *testing.T) {
		batch := &BatchMessage{
			Type: MessageTypeStatementBatch,
			Rows: []map[string]any{
				{
					"id":          "txn-1",
					"date":        "2024-01-15",
					"description": "NEFT CR ABC TECHNOLOGIES",
					"amount":      "59000",
					"reference":   "NEFT789123",
				},
			},
		}

		raws, err := batch.Transactions()
		require.NoError(t, err)
		require.Len(t, raws, 1)
		assert.Equal(t, "txn-1", raws[0].ID)
		assert.Equal(t, "59000", raws[0].Amount)
		assert.Equal(t, "NEFT789123", raws[0].Reference)
		assert.Empty(t, raws[0].RunningBalance)
	})

	t.Run("GatewayFieldMap", func(t *testing.T) {
		batch := &BatchMessage{
			Type: MessageTypeStatementBatch,
			FieldMap: FieldMap{
				"id":          "txn.ref_no",
				"date":        "txn.value_date",
				"description": "txn.narration",
				"amount":      "txn.amount",
			},
			Rows: []map[string]any{
				{
					"txn": map[string]any{
						"ref_no":     "txn-9",
						"value_date": "15/01/2024",
						"narration":  "IMPS ACME SUPPLIES",
						"amount":     50000.0,
					},
				},
			},
		}

		raws, err := batch.Transactions()
		require.NoError(t, err)
		require.Len(t, raws, 1)
		assert.Equal(t, "txn-9", raws[0].ID)
		assert.Equal(t, "15/01/2024", raws[0].Date)
		assert.Equal(t, "IMPS ACME SUPPLIES", raws[0].Description)
		assert.Equal(t, "50000", raws[0].Amount)
		// not in the field map, so left blank
		assert.Empty(t, raws[0].Reference)
	})

	t.Run("WrongType", func(t *testing.T) {
		batch := &BatchMessage{Type: MessageTypeInvoiceBatch}
		_, err := batch.Transactions()
		assert.Error(t, err)
	})
}

func TestBatchMessage_Invoices(t *testing.T) {
	t.Run("DefaultFieldMap", func(t *testing.T) {
		batch := &BatchMessage{
			Type: MessageTypeInvoiceBatch,
			Rows: []map[string]any{
				{
					"number":     "INV-2024-001",
					"party_name": "ABC Technologies Pvt Ltd",
					"amount":     "50000",
					"date":       "2024-01-15",
					"direction":  "sales",
				},
			},
		}

		raws, err := batch.Invoices()
		require.NoError(t, err)
		require.Len(t, raws, 1)
		assert.Equal(t, "INV-2024-001", raws[0].Number)
		assert.Equal(t, "ABC Technologies Pvt Ltd", raws[0].PartyName)
		assert.Equal(t, "sales", raws[0].Direction)
	})

	t.Run("WrongType", func(t *testing.T) {
		batch := &BatchMessage{Type: MessageTypeStatementBatch}
		_, err := batch.Invoices()
		assert.Error(t, err)
	})
}
