package calc

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ptPrinter formats numbers with pt-PT separators for user-facing
// recommendation text. Structural formatting of API payloads is left to
// the presentation layer; these strings are advisory prose.
var ptPrinter = message.NewPrinter(language.EuropeanPortuguese)

// euro renders an amount as a pt-PT euro string, e.g. "€ 12 000,00".
func euro(d decimal.Decimal) string {
	return ptPrinter.Sprintf("€ %.2f", d.InexactFloat64())
}

// percent renders a fraction as a pt-PT percentage with one decimal,
// e.g. "6,5%".
func percent(d decimal.Decimal) string {
	return ptPrinter.Sprintf("%.1f%%", d.Mul(decimal.NewFromInt(100)).InexactFloat64())
}
