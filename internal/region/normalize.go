// Package region normalizes Korean administrative region labels and derives
// the join keys used to match population rows, facility addresses and
// boundary features.
package region

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// nullLabels are spreadsheet renderings of a missing value.
var nullLabels = map[string]bool{
	"":       true,
	"nan":    true,
	"none":   true,
	"null":   true,
	"<na>":   true,
	"n/a":    true,
	"#n/a":   true,
	"-":      true,
	"nat":    true,
	"(null)": true,
}

var (
	parenRe     = regexp.MustCompile(`\([^)]*\)|（[^）]*）|\[[^\]]*\]`)
	separatorRe = regexp.MustCompile(`[\s_·,]+`)
)

// suffixReplacer folds legally equivalent administrative suffixes onto one
// canonical suffix. Longer forms are listed first.
var suffixReplacer = strings.NewReplacer(
	"특별자치시", "시",
	"특별자치도", "도",
	"특례시", "시",
	"광역시", "시",
	"특별시", "시",
)

// Normalizer turns raw labels into canonical region strings.
type Normalizer struct {
	aliases AliasTable
}

// NewNormalizer creates a Normalizer using the given alias table. A nil
// table uses DefaultAliases.
func NewNormalizer(aliases AliasTable) *Normalizer {
	if aliases == nil {
		aliases = DefaultAliases()
	}
	return &Normalizer{aliases: aliases}
}

var defaultNormalizer = NewNormalizer(nil)

// Normalize standardizes a region label with the default alias table.
func Normalize(raw string) string {
	return defaultNormalizer.Normalize(raw)
}

// Normalize standardizes a region label by:
//  1. Mapping null-like values to ""
//  2. Composing Hangul to NFC
//  3. Removing parenthesized annotations
//  4. Folding administrative suffixes (광역시, 특별시, 특례시 → 시; 특별자치도 → 도)
//  5. Collapsing separators into single spaces
//  6. Replacing whole tokens through the alias table
//
// The result is stable: normalizing it again returns it unchanged.
func (n *Normalizer) Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if nullLabels[strings.ToLower(s)] {
		return ""
	}

	s = norm.NFC.String(s)
	s = parenRe.ReplaceAllString(s, " ")
	s = suffixReplacer.Replace(s)
	s = separatorRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	return n.aliases.Apply(s)
}

// Key normalizes a raw label and extracts its region key.
func (n *Normalizer) Key(raw string) string {
	return ExtractKey(n.Normalize(raw))
}

// Key normalizes a raw label with the default alias table and extracts its
// region key.
func Key(raw string) string {
	return defaultNormalizer.Key(raw)
}

// Compact strips all spaces. Boundary files often spell "수원시 장안구" as
// "수원시장안구".
func Compact(s string) string {
	return strings.ReplaceAll(s, " ", "")
}
