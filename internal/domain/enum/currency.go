package enum

// CurrencySymbols lists the symbols a store can print on receipts.
var CurrencySymbols = []string{"₹", "$", "€", "£", "¥"}

// DefaultCurrencySymbol is used until the owner picks one.
const DefaultCurrencySymbol = "₹"

// IsCurrencySymbol reports whether s is one of CurrencySymbols.
func IsCurrencySymbol(s string) bool {
	for _, c := range CurrencySymbols {
		if c == s {
			return true
		}
	}
	return false
}
