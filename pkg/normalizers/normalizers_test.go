package normalizers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry(t *testing.T) {
	t.Run("BuiltinsRegistered", func(t *testing.T) {
		for _, name := range []string{"uppercase", "trim", "alphanumeric", "collapse_whitespace", "nreference", "nparty", "ntext"} {
			_, ok := Get(name)
			assert.True(t, ok, "normalizer %q not registered", name)
		}
	})

	t.Run("ApplyKnown", func(t *testing.T) {
		assert.Equal(t, "HELLO", Apply("hello", "uppercase"))
	})

	t.Run("ApplyUnknownPassesThrough", func(t *testing.T) {
		assert.Equal(t, "hello", Apply("hello", "no-such-normalizer"))
	})

	t.Run("RegisterCustom", func(t *testing.T) {
		Register("reverse-test", func(s string) string {
			runes := []rune(s)
			for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
				runes[i], runes[j] = runes[j], runes[i]
			}
			return string(runes)
		})
		assert.Equal(t, "cba", Apply("abc", "reverse-test"))
	})
}

func TestAlphanumeric(t *testing.T) {
	assert.Equal(t, "INV2024001", Alphanumeric("INV-2024-001"))
	assert.Equal(t, "ab12", Alphanumeric(" a/b.1,2 "))
	assert.Equal(t, "", Alphanumeric("---"))
}

func TestCollapseWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", CollapseWhitespace("  a \t b \n  c  "))
	assert.Equal(t, "", CollapseWhitespace("   "))
}

func TestNormalizeReference(t *testing.T) {
	assert.Equal(t, "INV2024001", NormalizeReference("inv-2024-001"))
	assert.Equal(t, "INV2024001", NormalizeReference("INV/2024/001"))
	assert.Equal(t, "NEFT789123", NormalizeReference(" neft 789123 "))
}

func TestPartyTokens(t *testing.T) {
	t.Run("StripsLegalSuffixes", func(t *testing.T) {
		assert.Equal(t, []string{"ABC", "TECHNOLOGIES"}, PartyTokens("ABC Technologies Pvt Ltd"))
		assert.Equal(t, []string{"ACME", "SUPPLIES"}, PartyTokens("Acme Supplies Private Limited"))
		assert.Equal(t, []string{"GLOBEX"}, PartyTokens("Globex LLP"))
	})

	t.Run("TrimsPunctuation", func(t *testing.T) {
		assert.Equal(t, []string{"ABC", "TECHNOLOGIES"}, PartyTokens("ABC Technologies Pvt. Ltd."))
	})

	t.Run("OnlySuffixes", func(t *testing.T) {
		assert.Empty(t, PartyTokens("Pvt Ltd"))
	})

	t.Run("Empty", func(t *testing.T) {
		assert.Empty(t, PartyTokens(""))
	})
}

func TestNormalizeParty(t *testing.T) {
	assert.Equal(t, "ABC TECHNOLOGIES", NormalizeParty("ABC Technologies Pvt Ltd"))
	assert.Equal(t, "", NormalizeParty("Pvt Ltd"))
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "NEFT CR ABC", NormalizeText("  neft   cr  abc "))
}

func TestDescriptionWords(t *testing.T) {
	t.Run("FiltersStopwordsAndShortTokens", func(t *testing.T) {
		words := DescriptionWords("Payment for the software, to ABC")
		assert.Contains(t, words, "SOFTWARE")
		assert.Contains(t, words, "ABC")
		assert.NotContains(t, words, "PAYMENT")
		assert.NotContains(t, words, "FOR")
		assert.NotContains(t, words, "THE")
		assert.NotContains(t, words, "TO")
	})

	t.Run("TrimsSurroundingPunctuation", func(t *testing.T) {
		words := DescriptionWords("(services) rendered.")
		assert.Contains(t, words, "SERVICES")
		assert.Contains(t, words, "RENDERED")
	})

	t.Run("Empty", func(t *testing.T) {
		assert.Empty(t, DescriptionWords(""))
	})
}
