// Package rawrecords holds the raw statement and invoice record shapes shared
// by the loaders and the reconcile normalizer. It has no dependencies so both
// pkg/kafka and pkg/reconcile can import it without a cycle.
package rawrecords

// RawBankTransaction is a statement row as delivered by an external loader,
// before normalization.
type RawBankTransaction struct {
	ID             string `json:"id"`
	Date           string `json:"date"`
	Description    string `json:"description"`
	Amount         string `json:"amount"`
	Reference      string `json:"reference"`
	RunningBalance string `json:"running_balance,omitempty"`
}

// RawInvoice is an invoice record as delivered by an external loader.
type RawInvoice struct {
	Number      string `json:"number"`
	PartyName   string `json:"party_name"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Direction   string `json:"direction"`
}
