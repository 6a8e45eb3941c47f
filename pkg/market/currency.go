package market

import "fmt"

// Currency is an ISO 4217 currency code plus the number of subdivisions per
// currency unit (100 for cent-denominated currencies). A market's quote
// currency fixes the lot scale of its book's price interval.
type Currency struct {
	Code string
	Unit int64
}

var (
	USD  = Currency{Code: "USD", Unit: 100}
	EUR  = Currency{Code: "EUR", Unit: 100}
	GBP  = Currency{Code: "GBP", Unit: 100}
	JPY  = Currency{Code: "JPY", Unit: 1}
	USDC = Currency{Code: "USDC", Unit: 100}
)

var currencies = map[string]Currency{
	"USD":  USD,
	"EUR":  EUR,
	"GBP":  GBP,
	"JPY":  JPY,
	"USDC": USDC,
}

// CurrencyByCode resolves a known ISO code.
func CurrencyByCode(code string) (Currency, error) {
	c, ok := currencies[code]
	if !ok {
		return Currency{}, fmt.Errorf("unknown currency %q", code)
	}
	return c, nil
}

func (c Currency) String() string { return c.Code }
