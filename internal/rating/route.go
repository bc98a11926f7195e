package rating

import "strings"

// Countries served by the back office, as offered in the order form.
var Countries = []string{
	"UAE",
	"GERMANY",
	"UK",
	"USA",
	"INDIA",
	"CHINA",
	"SOUTH KOREA",
	"FRANCE",
	"AUSTRALIA",
	"CANADA",
	"SAUDI",
	"BAHRAIN",
	"OMAN",
	"QATAR",
	"EGYPT",
}

// Some destinations are addressed by city name rather than postal code.
var cityNameCountries = map[string]bool{
	"UAE":   true,
	"OMAN":  true,
	"QATAR": true,
	"EGYPT": true,
}

// ExportDeclarationChargeAED is the fixed surcharge for UAE exports, applied
// at order creation, never at quote time.
const ExportDeclarationChargeAED = 120

// KnownCountry reports whether the country is in the served set.
func KnownCountry(country string) bool {
	country = strings.ToUpper(strings.TrimSpace(country))
	for _, c := range Countries {
		if c == country {
			return true
		}
	}
	return false
}

// RequiresCityName reports whether the country takes a city name in place of
// a postal code.
func RequiresCityName(country string) bool {
	return cityNameCountries[strings.ToUpper(strings.TrimSpace(country))]
}

// ExportDeclarationRequired reports whether the route is a UAE export: pickup
// in the UAE with a set, non-UAE delivery country. The declaration is
// mandatory (and locked) on such routes.
func ExportDeclarationRequired(pickupCountry, deliveryCountry string) bool {
	pickup := strings.ToUpper(strings.TrimSpace(pickupCountry))
	delivery := strings.ToUpper(strings.TrimSpace(deliveryCountry))
	return pickup == "UAE" && delivery != "" && delivery != "UAE"
}

// ExportDeclarationCharge derives the surcharge from the route at the moment
// of order assembly rather than from a flag mutated earlier.
func ExportDeclarationCharge(pickupCountry, deliveryCountry string) float64 {
	if ExportDeclarationRequired(pickupCountry, deliveryCountry) {
		return ExportDeclarationChargeAED
	}
	return 0
}
