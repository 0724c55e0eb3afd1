package extractor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractor_Extract(t *testing.T) {
	ex := New()

	data := map[string]any{
		"amount": 59000.0,
		"txn": map[string]any{
			"narration": "NEFT CR ABC TECHNOLOGIES",
			"meta": map[string]any{
				"channel": "NEFT",
			},
		},
		"entries": []any{
			map[string]any{"value": "first"},
			map[string]any{"value": "second"},
		},
	}

	t.Run("TopLevel", func(t *testing.T) {
		value, err := ex.Extract(data, "amount")
		require.NoError(t, err)
		assert.Equal(t, 59000.0, value)
	})

	t.Run("Nested", func(t *testing.T) {
		value, err := ex.Extract(data, "txn.narration")
		require.NoError(t, err)
		assert.Equal(t, "NEFT CR ABC TECHNOLOGIES", value)
	})

	t.Run("DeeplyNested", func(t *testing.T) {
		value, err := ex.Extract(data, "txn.meta.channel")
		require.NoError(t, err)
		assert.Equal(t, "NEFT", value)
	})

	t.Run("ArrayIndex", func(t *testing.T) {
		value, err := ex.Extract(data, "entries[1].value")
		require.NoError(t, err)
		assert.Equal(t, "second", value)
	})

	t.Run("ArrayIndexOutOfRange", func(t *testing.T) {
		value, err := ex.Extract(data, "entries[5].value")
		require.NoError(t, err)
		assert.Nil(t, value)
	})

	t.Run("MissingKey", func(t *testing.T) {
		value, err := ex.Extract(data, "txn.missing")
		require.NoError(t, err)
		assert.Nil(t, value)
	})

	t.Run("EmptyPathReturnsInput", func(t *testing.T) {
		value, err := ex.Extract(data, "")
		require.NoError(t, err)
		assert.Equal(t, data, value)
	})

	t.Run("KeyOnScalar", func(t *testing.T) {
		_, err := ex.Extract(data, "amount.nested")
		assert.Error(t, err)
	})

	t.Run("IndexOnNonArray", func(t *testing.T) {
		_, err := ex.Extract(data, "txn[0]")
		assert.Error(t, err)
	})
}

func TestExtractor_ExtractString(t *testing.T) {
	ex := New()

	t.Run("NumberFormatting", func(t *testing.T) {
		data := map[string]any{"amount": 59000.5}
		value, err := ex.ExtractString(data, "amount")
		require.NoError(t, err)
		require.NotNil(t, value)
		assert.Equal(t, "59000.5", *value)
	})

	t.Run("Bool", func(t *testing.T) {
		data := map[string]any{"flag": true}
		value, err := ex.ExtractString(data, "flag")
		require.NoError(t, err)
		require.NotNil(t, value)
		assert.Equal(t, "true", *value)
	})

	t.Run("UnresolvedIsNil", func(t *testing.T) {
		value, err := ex.ExtractString(map[string]any{}, "missing")
		require.NoError(t, err)
		assert.Nil(t, value)
	})

	t.Run("StringMap", func(t *testing.T) {
		data := map[string]string{"reference": "NEFT789123"}
		value, err := ex.ExtractString(data, "reference")
		require.NoError(t, err)
		require.NotNil(t, value)
		assert.Equal(t, "NEFT789123", *value)
	})
}

func TestFromJSON(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		m, err := FromJSON(json.RawMessage(`{"amount": "59000", "txn": {"narration": "NEFT"}}`))
		require.NoError(t, err)
		assert.Equal(t, "59000", m["amount"])
	})

	t.Run("Invalid", func(t *testing.T) {
		_, err := FromJSON(json.RawMessage(`[1,2,3]`))
		assert.Error(t, err)
	})
}
