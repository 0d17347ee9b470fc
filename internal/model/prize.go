package model

import (
	"strings"

	"golang.org/x/text/currency"
)

// prizeSymbols maps the currency symbols that appear in the raw prize column
// to ISO 4217 codes. The dataset only ever carries these three.
var prizeSymbols = map[string]string{
	"£": "GBP",
	"€": "EUR",
	"$": "USD",
}

// InferPrizeCurrency returns the ISO 4217 code for the currency symbol
// embedded in a raw prize string ("£4,528" -> "GBP"). The amount itself is
// never converted. An empty or symbol-less prize yields "".
func InferPrizeCurrency(raw string) string {
	trimmed := strings.TrimSpace(raw)
	for sym, code := range prizeSymbols {
		if strings.HasPrefix(trimmed, sym) {
			unit, err := currency.ParseISO(code)
			if err != nil {
				return ""
			}
			return unit.String()
		}
	}
	return ""
}
