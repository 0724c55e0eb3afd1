package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceDirection indicates which side of the ledger an invoice sits on.
// Sales invoices settle via credit bank transactions, purchase invoices via
// debit transactions.
type InvoiceDirection string

const (
	InvoiceDirectionSales    InvoiceDirection = "sales"
	InvoiceDirectionPurchase InvoiceDirection = "purchase"
)

// SettledBy returns the bank transaction direction that can settle an
// invoice of this direction.
func (d InvoiceDirection) SettledBy() Direction {
	if d == InvoiceDirectionPurchase {
		return DirectionDebit
	}
	return DirectionCredit
}

// Invoice is an open receivable or payable awaiting settlement. Amount is
// tax-exclusive unless the source system says otherwise. IsMatched flips
// exactly once when the invoice is consumed by a match.
type Invoice struct {
	Number      string           `json:"number" db:"number"`
	TenantID    string           `json:"tenant_id" db:"tenant_id"`
	PartyName   string           `json:"party_name" db:"party_name"`
	Amount      decimal.Decimal  `json:"amount" db:"amount"` // unsigned, tax-exclusive
	Date        time.Time        `json:"date" db:"date"`
	Description string           `json:"description" db:"description"`
	Direction   InvoiceDirection `json:"direction" db:"direction"`

	NormalizedParty       string `json:"-" db:"normalized_party"`
	NormalizedDescription string `json:"-" db:"normalized_description"`

	IsMatched bool      `json:"is_matched" db:"is_matched"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CreateInvoiceRequest is the API payload for loading an invoice
type CreateInvoiceRequest struct {
	Number      string `json:"number" validate:"required"`
	PartyName   string `json:"party_name" validate:"required"`
	Amount      string `json:"amount" validate:"required"`
	Date        string `json:"date" validate:"required"`
	Description string `json:"description"`
	Direction   string `json:"direction" validate:"required,oneof=sales purchase"`
}
