// Package reconcile implements the bank-statement reconciliation engine:
// five-factor weighted scoring of bank transactions against open invoices,
// confidence-tier classification, and ledger account suggestion for
// transactions that cannot be mapped.
package reconcile

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
	"github.com/Ramsey-B/clover/pkg/reconcile/rawrecords"
)

// ParseError reports a raw field value the normalizer could not interpret.
// The caller decides whether to skip the record or abort the run; the engine
// never coerces unparsable text to zero, which would corrupt scoring.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("parse %s %q", e.Field, e.Value)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// RawBankTransaction is a statement row as delivered by an external loader,
// before normalization.
type RawBankTransaction = rawrecords.RawBankTransaction

// RawInvoice is an invoice record as delivered by an external loader.
type RawInvoice = rawrecords.RawInvoice

// dateLayouts are tried in order. Statement exports disagree on format far
// more than on content.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"2006/01/02",
	"02 Jan 2006",
	"Jan 2, 2006",
	time.RFC3339,
}

// Normalizer canonicalizes raw transaction and invoice records before
// scoring.
type Normalizer struct{}

// NewNormalizer creates a Normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// ParseAmount parses raw amount text into a decimal. Currency symbols,
// thousands separators and surrounding whitespace are tolerated;
// anything else is a ParseError.
func (n *Normalizer) ParseAmount(raw string) (decimal.Decimal, error) {
	cleaned := cleanAmount(raw)
	if cleaned == "" || cleaned == "-" {
		return decimal.Zero, &ParseError{Field: "amount", Value: raw}
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, &ParseError{Field: "amount", Value: raw, Err: err}
	}
	return d, nil
}

// cleanAmount strips currency symbols and thousands separators, keeping
// digits, a leading sign and the decimal point.
func cleanAmount(raw string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case unicode.IsDigit(r) || r == '.':
			b.WriteRune(r)
		case (r == '-' || r == '+') && b.Len() == 0:
			b.WriteRune(r)
		case r == ',' || unicode.IsSpace(r) || unicode.IsSymbol(r):
			// thousands separator or currency symbol
		case unicode.IsLetter(r):
			// currency code letters ("INR", "Rs")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ParseDate parses raw date text against the known statement layouts.
func (n *Normalizer) ParseDate(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, &ParseError{Field: "date", Value: raw}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &ParseError{Field: "date", Value: raw}
}

// NormalizeTransaction parses a raw statement row into a BankTransaction,
// preserving the original description/reference text for display and
// attaching upper-cased copies for comparison.
func (n *Normalizer) NormalizeTransaction(raw RawBankTransaction) (*models.BankTransaction, error) {
	amount, err := n.ParseAmount(raw.Amount)
	if err != nil {
		return nil, err
	}
	date, err := n.ParseDate(raw.Date)
	if err != nil {
		return nil, err
	}

	txn := &models.BankTransaction{
		ID:                    raw.ID,
		Date:                  date,
		Description:           strings.TrimSpace(raw.Description),
		Amount:                amount,
		Reference:             strings.TrimSpace(raw.Reference),
		NormalizedDescription: normalizers.NormalizeText(raw.Description),
		NormalizedReference:   normalizers.NormalizeReference(raw.Reference),
	}

	if strings.TrimSpace(raw.RunningBalance) != "" {
		balance, err := n.ParseAmount(raw.RunningBalance)
		if err != nil {
			return nil, err
		}
		txn.RunningBalance = &balance
	}

	return txn, nil
}

// NormalizeInvoice parses a raw invoice record. A zero or negative amount is
// a ParseError: such an invoice cannot be percentage-scored and would poison
// the amount factor downstream.
func (n *Normalizer) NormalizeInvoice(raw RawInvoice) (*models.Invoice, error) {
	amount, err := n.ParseAmount(raw.Amount)
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, &ParseError{Field: "amount", Value: raw.Amount, Err: fmt.Errorf("invoice amount must be positive")}
	}
	date, err := n.ParseDate(raw.Date)
	if err != nil {
		return nil, err
	}

	var direction models.InvoiceDirection
	switch strings.ToLower(strings.TrimSpace(raw.Direction)) {
	case "sales":
		direction = models.InvoiceDirectionSales
	case "purchase":
		direction = models.InvoiceDirectionPurchase
	default:
		return nil, &ParseError{Field: "direction", Value: raw.Direction}
	}

	return &models.Invoice{
		Number:                strings.TrimSpace(raw.Number),
		PartyName:             strings.TrimSpace(raw.PartyName),
		Amount:                amount,
		Date:                  date,
		Description:           strings.TrimSpace(raw.Description),
		Direction:             direction,
		NormalizedParty:       normalizers.NormalizeParty(raw.PartyName),
		NormalizedDescription: normalizers.NormalizeText(raw.Description),
	}, nil
}
