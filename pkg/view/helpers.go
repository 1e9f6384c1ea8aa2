package view

import "fmt"

// MoneyFromCents converts cents to a human-readable currency string.
// E.g., 15000 AUD -> "A$150.00"
func MoneyFromCents(cents int, currency string) string {
	major := cents / 100
	remainder := cents % 100
	return fmt.Sprintf("%s%.2f", currencySymbol(currency), float64(major)+float64(remainder)/100)
}

func currencySymbol(code string) string {
	switch code {
	case "AUD":
		return "A$"
	case "USD":
		return "$"
	case "EUR":
		return "€"
	case "GBP":
		return "£"
	default:
		return code + " "
	}
}
