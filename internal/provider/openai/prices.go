package openai

import (
	"github.com/davidbz/creditmeter/internal/domain"
	"github.com/davidbz/creditmeter/internal/money"
)

// Vendor is the vendor name used in usage events and price keys.
const Vendor = "openai"

// DefaultPricesVersion labels the built-in sheet.
const DefaultPricesVersion = "openai-builtin"

// USD per million tokens, input then output.
//
//nolint:gochecknoglobals // read-only price list
var defaultPrices = []struct {
	model  string
	input  string
	output string
}{
	{"gpt-4o", "2.50", "10.00"},
	{"gpt-4o-mini", "0.15", "0.60"},
	{"gpt-4-turbo", "10.00", "30.00"},
	{"gpt-4", "30.00", "60.00"},
	{"gpt-3.5-turbo", "0.50", "1.50"},
	{"o1", "15.00", "60.00"},
	{"o3-mini", "1.10", "4.40"},
}

// DefaultPrices returns the built-in OpenAI price sheet, used when no pricing
// file is configured. It carries no margins, so usage bills at vendor cost.
func DefaultPrices() domain.PriceSheet {
	prices := make([]domain.UnitPrice, 0, len(defaultPrices))
	for _, p := range defaultPrices {
		prices = append(prices, domain.UnitPrice{
			Vendor:           Vendor,
			Model:            p.model,
			InputPerMillion:  money.MustMicros(p.input),
			OutputPerMillion: money.MustMicros(p.output),
		})
	}

	return domain.PriceSheet{
		Version: DefaultPricesVersion,
		Prices:  prices,
	}
}
