package reconcile

import (
	"strings"

	"github.com/Ramsey-B/clover/pkg/models"
)

// Standard ledger accounts used in suggestions.
var (
	AccountReceivable     = models.LedgerAccount{Code: "1200", Name: "Accounts Receivable"}
	AccountPayable        = models.LedgerAccount{Code: "2100", Name: "Accounts Payable"}
	AccountInterestIncome = models.LedgerAccount{Code: "4200", Name: "Interest Income"}
	AccountCashBank       = models.LedgerAccount{Code: "1100", Name: "Cash/Bank"}
	AccountFixedAssets    = models.LedgerAccount{Code: "1500", Name: "Fixed Assets"}
	AccountRentExpense    = models.LedgerAccount{Code: "5100", Name: "Rent Expense"}
	AccountSalaryExpense  = models.LedgerAccount{Code: "5200", Name: "Salaries Expense"}
	AccountUtilities      = models.LedgerAccount{Code: "5300", Name: "Utilities Expense"}
	AccountBankCharges    = models.LedgerAccount{Code: "5400", Name: "Bank Charges"}
	AccountSuspense       = models.LedgerAccount{Code: "9999", Name: "Suspense"}
)

// AccountRule maps description keywords to a ledger account for one
// transaction direction.
type AccountRule struct {
	Direction models.Direction
	Keywords  []string
	Account   models.LedgerAccount
}

// DefaultAccountRules is the ordered rule list evaluated top to bottom;
// the first matching rule wins. The final per-direction defaults carry no
// keywords and always match.
func DefaultAccountRules() []AccountRule {
	return []AccountRule{
		{Direction: models.DirectionCredit, Keywords: []string{"INTEREST"}, Account: AccountInterestIncome},
		{Direction: models.DirectionCredit, Keywords: []string{"CASH"}, Account: AccountCashBank},
		{Direction: models.DirectionDebit, Keywords: []string{"ASSET", "EQUIPMENT", "MACHINERY"}, Account: AccountFixedAssets},
		{Direction: models.DirectionDebit, Keywords: []string{"RENT", "LEASE"}, Account: AccountRentExpense},
		{Direction: models.DirectionDebit, Keywords: []string{"SALARY", "PAYROLL", "WAGES"}, Account: AccountSalaryExpense},
		{Direction: models.DirectionDebit, Keywords: []string{"ELECTRICITY", "UTILITY", "WATER", "INTERNET"}, Account: AccountUtilities},
		{Direction: models.DirectionDebit, Keywords: []string{"CHARGES", "FEE"}, Account: AccountBankCharges},
		// direction fallbacks
		{Direction: models.DirectionCredit, Account: AccountReceivable},
		{Direction: models.DirectionDebit, Account: AccountPayable},
	}
}

// Suggester proposes a posting account for unmapped transactions.
type Suggester struct {
	rules []AccountRule
}

// NewSuggester creates a Suggester. With no rules the default list applies.
func NewSuggester(rules []AccountRule) *Suggester {
	if len(rules) == 0 {
		rules = DefaultAccountRules()
	}
	return &Suggester{rules: rules}
}

// Suggest walks the rule list and returns the first matching account.
// Transactions that match no rule land in Suspense for a human to place.
func (s *Suggester) Suggest(direction models.Direction, description string) models.LedgerAccount {
	text := strings.ToUpper(description)
	for _, rule := range s.rules {
		if rule.Direction != direction {
			continue
		}
		if len(rule.Keywords) == 0 {
			return rule.Account
		}
		for _, kw := range rule.Keywords {
			if strings.Contains(text, kw) {
				return rule.Account
			}
		}
	}
	return AccountSuspense
}
