package geolib

import (
	"strings"

	"github.com/pariz/gountries"
)

var countryCodeQuery = gountries.New()

// ISO4217 funds, units of account and currencies which are not used in
// everyday payments. gountries lists some of them first.
var nonCirculatingCurrencies = map[string]struct{}{
	"BOV": {},
	"CHE": {},
	"CHW": {},
	"CLF": {},
	"COU": {},
	"CUC": {},
	"MXV": {},
	"USN": {},
	"USS": {},
	"UYI": {},
	"UYW": {},
	"XDR": {},
	"XSU": {},
	"XUA": {},
}

// NormalizeAlpha2Code returns a normalized 2-letter ISO3166 code.
// Normalized code is uppercased with some additional mapping. For
// example, some databases return ZZ as 'unknown' country. This function
// returns "" instead. Some databases still map Serbia to YU. This
// correctly maps YU to CS.
//
// So, whenever you want to use 2-letter ISO3166 code and it is coming
// from unknown source, it is recommended to normalize it with this
// function.
func NormalizeAlpha2Code(alpha2 string) string {
	alpha2 = strings.ToUpper(strings.TrimSpace(alpha2))

	if len(alpha2) != 2 {
		return ""
	}

	switch alpha2 {
	case "ZZ", "AP", "EU":
		return ""
	case "YU":
		return "CS"
	case "FX":
		return "FR"
	case "UK":
		return "GB"
	default:
		return alpha2
	}
}

// CountryName returns a common english name of the country. If code is
// unknown, it returns an empty string.
func CountryName(alpha2 string) string {
	country, ok := findCountry(alpha2)
	if !ok {
		return ""
	}

	return country.Name.BaseLang.Common
}

// CurrencyFor returns ISO4217 code of the main currency of the country.
// Funds and units of account are skipped. If country is unknown or has
// no currency, UnknownPlaceholder is returned.
func CurrencyFor(alpha2 string) string {
	country, ok := findCountry(alpha2)
	if !ok || len(country.Currencies) == 0 {
		return UnknownPlaceholder
	}

	for _, code := range country.Currencies {
		if _, ok := nonCirculatingCurrencies[code]; !ok {
			return code
		}
	}

	return country.Currencies[0]
}

func findCountry(alpha2 string) (gountries.Country, bool) {
	alpha2 = NormalizeAlpha2Code(alpha2)
	if alpha2 == "" {
		return gountries.Country{}, false
	}

	country, err := countryCodeQuery.FindCountryByAlpha(alpha2)
	if err != nil {
		return gountries.Country{}, false
	}

	return country, true
}
