// Package normalizers provides text normalization functions used by the
// reconciliation factor scorers
package normalizers

import (
	"strings"
	"unicode"
)

// Normalizer is a function that normalizes a string value
type Normalizer func(string) string

// registry holds all registered normalizers
var registry = make(map[string]Normalizer)

func init() {
	Register("uppercase", Uppercase)
	Register("trim", Trim)
	Register("alphanumeric", Alphanumeric)
	Register("collapse_whitespace", CollapseWhitespace)
	Register("nreference", NormalizeReference)
	Register("nparty", NormalizeParty)
	Register("ntext", NormalizeText)
}

// Register adds a normalizer to the registry
func Register(name string, fn Normalizer) {
	registry[name] = fn
}

// Get retrieves a normalizer by name
func Get(name string) (Normalizer, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Apply applies a named normalizer to a value
func Apply(value, normalizer string) string {
	fn, ok := registry[normalizer]
	if !ok {
		return value
	}
	return fn(value)
}

// Built-in normalizers

// Uppercase converts string to uppercase
func Uppercase(s string) string {
	return strings.ToUpper(s)
}

// Trim removes leading and trailing whitespace
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// Alphanumeric keeps only letters and digits
func Alphanumeric(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// CollapseWhitespace squeezes runs of whitespace into single spaces
func CollapseWhitespace(s string) string {
	var result strings.Builder
	prevSpace := false
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsSpace(r) {
			if !prevSpace {
				result.WriteRune(' ')
				prevSpace = true
			}
			continue
		}
		result.WriteRune(r)
		prevSpace = false
	}
	return result.String()
}

// NormalizeReference canonicalizes an invoice number or payment reference for
// comparison. Separators such as hyphens and slashes vary between the billing
// system and bank narration, so only letters and digits survive.
func NormalizeReference(s string) string {
	return Alphanumeric(strings.ToUpper(s))
}

// legalSuffixes are dropped from party names before token matching. Bank
// narrations almost never carry the legal form.
var legalSuffixes = map[string]struct{}{
	"PVT":     {},
	"LTD":     {},
	"LIMITED": {},
	"PRIVATE": {},
	"LLP":     {},
	"INC":     {},
	"CORP":    {},
	"CO":      {},
}

// NormalizeParty upper-cases a party name and strips legal suffixes,
// returning the significant tokens re-joined with single spaces.
func NormalizeParty(s string) string {
	return strings.Join(PartyTokens(s), " ")
}

// PartyTokens returns the significant (non legal-suffix) tokens of a party
// name, upper-cased.
func PartyTokens(s string) []string {
	fields := strings.Fields(strings.ToUpper(s))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,")
		if f == "" {
			continue
		}
		if _, ok := legalSuffixes[f]; ok {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// NormalizeText canonicalizes free text for display-safe comparison:
// upper-cased, whitespace collapsed.
func NormalizeText(s string) string {
	return CollapseWhitespace(strings.ToUpper(s))
}

// stopwords excluded from description word sets. Free-text business
// descriptions share these constantly without indicating a real overlap.
var stopwords = map[string]struct{}{
	"THE": {}, "A": {}, "AN": {}, "OF": {}, "FOR": {}, "TO": {}, "AND": {},
	"OR": {}, "IN": {}, "ON": {}, "BY": {}, "AT": {}, "FROM": {}, "WITH": {},
	"PAYMENT": {}, "PAID": {}, "TRANSFER": {}, "TXN": {},
}

// DescriptionWords tokenizes free text into a stopword-filtered word set.
func DescriptionWords(s string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, f := range strings.Fields(strings.ToUpper(s)) {
		f = strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len(f) < 2 {
			continue
		}
		if _, ok := stopwords[f]; ok {
			continue
		}
		words[f] = struct{}{}
	}
	return words
}
