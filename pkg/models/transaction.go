package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction indicates which way money moved on the bank statement
type Direction string

const (
	DirectionCredit Direction = "credit" // money received
	DirectionDebit  Direction = "debit"  // money paid out
)

// BankTransaction is a single row from a bank statement. The record is
// immutable once loaded; only MatchedInvoiceID and MatchConfidence are set
// by the reconciliation engine.
type BankTransaction struct {
	ID             string           `json:"id" db:"id"`
	TenantID       string           `json:"tenant_id" db:"tenant_id"`
	Date           time.Time        `json:"date" db:"date"`
	Description    string           `json:"description" db:"description"`
	Amount         decimal.Decimal  `json:"amount" db:"amount"` // signed; sign determines direction
	Reference      string           `json:"reference" db:"reference"`
	RunningBalance *decimal.Decimal `json:"running_balance,omitempty" db:"running_balance"`

	// Upper-cased copies used for case-insensitive comparison. The original
	// text above is preserved for display.
	NormalizedDescription string `json:"-" db:"normalized_description"`
	NormalizedReference   string `json:"-" db:"normalized_reference"`

	MatchedInvoiceID *string  `json:"matched_invoice_id,omitempty" db:"matched_invoice_id"`
	MatchConfidence  *float64 `json:"match_confidence,omitempty" db:"match_confidence"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Direction derives the transaction direction from the amount sign.
func (t *BankTransaction) Direction() Direction {
	if t.Amount.IsNegative() {
		return DirectionDebit
	}
	return DirectionCredit
}

// AbsAmount returns the unsigned amount used for scoring.
func (t *BankTransaction) AbsAmount() decimal.Decimal {
	return t.Amount.Abs()
}

// CreateBankTransactionRequest is the API payload for loading a transaction
type CreateBankTransactionRequest struct {
	Date           string  `json:"date" validate:"required"`
	Description    string  `json:"description" validate:"required"`
	Amount         string  `json:"amount" validate:"required"`
	Reference      string  `json:"reference"`
	RunningBalance *string `json:"running_balance,omitempty"`
}
