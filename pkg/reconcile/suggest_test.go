package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/clover/pkg/models"
)

func TestSuggester_Suggest(t *testing.T) {
	suggester := NewSuggester(nil)

	cases := []struct {
		name        string
		direction   models.Direction
		description string
		expected    models.LedgerAccount
	}{
		{"InterestCredit", models.DirectionCredit, "INTEREST CREDIT SAVINGS AC", AccountInterestIncome},
		{"CashDeposit", models.DirectionCredit, "CASH DEPOSIT BRANCH", AccountCashBank},
		{"EquipmentPurchase", models.DirectionDebit, "PURCHASE OF EQUIPMENT XYZ", AccountFixedAssets},
		{"OfficeRent", models.DirectionDebit, "RENT FOR JANUARY", AccountRentExpense},
		{"Payroll", models.DirectionDebit, "MONTHLY PAYROLL RUN", AccountSalaryExpense},
		{"ElectricityBill", models.DirectionDebit, "ELECTRICITY BILL DEC", AccountUtilities},
		{"BankFee", models.DirectionDebit, "SMS ALERT FEE", AccountBankCharges},
		{"CreditFallback", models.DirectionCredit, "UPI RECEIPT FROM CUSTOMER", AccountReceivable},
		{"DebitFallback", models.DirectionDebit, "UPI PAYMENT TO VENDOR", AccountPayable},
		{"CaseInsensitive", models.DirectionDebit, "rent for january", AccountRentExpense},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, suggester.Suggest(tc.direction, tc.description))
		})
	}

	t.Run("FirstRuleWins", func(t *testing.T) {
		// INTEREST is listed before CASH, so a narration with both keywords
		// lands on interest income
		account := suggester.Suggest(models.DirectionCredit, "CASH INTEREST SETTLEMENT")
		assert.Equal(t, AccountInterestIncome, account)
	})

	t.Run("DirectionScopesRules", func(t *testing.T) {
		// RENT is a debit rule; a credit narration with RENT falls through to
		// the credit fallback
		account := suggester.Suggest(models.DirectionCredit, "RENT RECEIVED")
		assert.Equal(t, AccountReceivable, account)
	})

	t.Run("SuspenseWhenNoRuleMatches", func(t *testing.T) {
		custom := NewSuggester([]AccountRule{
			{Direction: models.DirectionDebit, Keywords: []string{"RENT"}, Account: AccountRentExpense},
		})
		account := custom.Suggest(models.DirectionCredit, "UNKNOWN CREDIT")
		assert.Equal(t, AccountSuspense, account)
	})
}
