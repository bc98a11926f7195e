package rating

// DefaultCurrency is the house currency for new product lines and summaries.
const DefaultCurrency = "AED"

// ProductCurrencies is the set offered for product unit prices.
var ProductCurrencies = []string{"AED", "USD", "EUR", "GBP", "INR", "SAR", "CAD", "AUD", "CNY", "KRW"}

var currencySymbols = map[string]string{
	"AED": "د.إ",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"INR": "₹",
	"SAR": "﷼",
	"CAD": "$",
	"AUD": "$",
	"CNY": "¥",
	"KRW": "₩",
}

// KnownCurrency reports whether the code is in the offered set.
func KnownCurrency(code string) bool {
	for _, c := range ProductCurrencies {
		if c == code {
			return true
		}
	}
	return false
}

// CurrencySymbol falls back to the code itself for anything unmapped.
func CurrencySymbol(code string) string {
	if s, ok := currencySymbols[code]; ok {
		return s
	}
	return code
}

// SingleCurrency returns the common currency of the given codes, or false if
// they are mixed. Empty codes count as the default. Summing line totals
// across mixed currencies has no meaningful unit; callers surface a warning
// instead of blocking, and settlement in mixed currencies is unsupported.
func SingleCurrency(codes []string) (string, bool) {
	common := ""
	for _, code := range codes {
		if code == "" {
			code = DefaultCurrency
		}
		if common == "" {
			common = code
			continue
		}
		if code != common {
			return "", false
		}
	}
	if common == "" {
		common = DefaultCurrency
	}
	return common, true
}
