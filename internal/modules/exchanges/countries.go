// Package exchanges maps exchange identifiers to countries and implements
// the SYMBOL.EXCHANGE naming convention for foreign listings.
package exchanges

const (
	// Other is returned for exchanges with no known country
	Other = "Other"
	// Unknown is the country of a holding whose exchange could not be determined
	Unknown = "Unknown"
)

// ExchangeCountries maps exchange identifiers to country names. Keys are the
// exchange names reported by the quote provider plus the short codes used as
// symbol suffixes. Lookups are case-sensitive.
var ExchangeCountries = map[string]string{
	// United States
	"NASDAQ NMS - GLOBAL MARKET":    "United States",
	"NASDAQ NMS - GLOBAL SELECT":    "United States",
	"NASDAQ CAPITAL MARKET":         "United States",
	"NEW YORK STOCK EXCHANGE, INC.": "United States",
	"NYSE MKT LLC":                  "United States",
	"NYSE ARCA":                     "United States",
	"BATS GLOBAL MARKETS":           "United States",
	"CBOE BZX EXCHANGE":             "United States",
	"OTC MARKETS":                   "United States",
	"NASDAQ":                        "United States",
	"NYSE":                          "United States",
	"AMEX":                          "United States",
	"US":                            "United States",

	// Canada
	"TORONTO STOCK EXCHANGE": "Canada",
	"TSX VENTURE EXCHANGE":   "Canada",
	"TSX":                    "Canada",
	"TO":                     "Canada",
	"V":                      "Canada",
	"NE":                     "Canada",

	// Europe
	"LONDON STOCK EXCHANGE":    "United Kingdom",
	"LSE":                      "United Kingdom",
	"L":                        "United Kingdom",
	"XETRA":                    "Germany",
	"DEUTSCHE BOERSE AG":       "Germany",
	"FRANKFURT STOCK EXCHANGE": "Germany",
	"DE":                       "Germany",
	"F":                        "Germany",
	"EURONEXT PARIS":           "France",
	"PA":                       "France",
	"EURONEXT AMSTERDAM":       "Netherlands",
	"AS":                       "Netherlands",
	"EURONEXT BRUSSELS":        "Belgium",
	"BR":                       "Belgium",
	"EURONEXT LISBON":          "Portugal",
	"LS":                       "Portugal",
	"EURONEXT DUBLIN":          "Ireland",
	"IR":                       "Ireland",
	"BORSA ITALIANA":           "Italy",
	"MI":                       "Italy",
	"BOLSA DE MADRID":          "Spain",
	"MC":                       "Spain",
	"SIX SWISS EXCHANGE":       "Switzerland",
	"SW":                       "Switzerland",
	"WIENER BOERSE AG":         "Austria",
	"VI":                       "Austria",
	"NASDAQ STOCKHOLM":         "Sweden",
	"ST":                       "Sweden",
	"OSLO BORS":                "Norway",
	"OL":                       "Norway",
	"NASDAQ COPENHAGEN":        "Denmark",
	"CO":                       "Denmark",
	"NASDAQ HELSINKI":          "Finland",
	"HE":                       "Finland",
	"ATHENS EXCHANGE":          "Greece",
	"AT":                       "Greece",
	"WARSAW STOCK EXCHANGE":    "Poland",
	"WA":                       "Poland",

	// Asia-Pacific
	"TOKYO STOCK EXCHANGE":                 "Japan",
	"T":                                    "Japan",
	"HONG KONG EXCHANGES AND CLEARING LTD": "Hong Kong",
	"HKEX":                                 "Hong Kong",
	"HK":                                   "Hong Kong",
	"SHANGHAI STOCK EXCHANGE":              "China",
	"SS":                                   "China",
	"SHENZHEN STOCK EXCHANGE":              "China",
	"SZ":                                   "China",
	"KOREA EXCHANGE":                       "South Korea",
	"KS":                                   "South Korea",
	"KQ":                                   "South Korea",
	"TAIWAN STOCK EXCHANGE":                "Taiwan",
	"TW":                                   "Taiwan",
	"NATIONAL STOCK EXCHANGE OF INDIA":     "India",
	"BSE LTD":                              "India",
	"NS":                                   "India",
	"BO":                                   "India",
	"SINGAPORE EXCHANGE":                   "Singapore",
	"SI":                                   "Singapore",
	"ASX - ALL MARKETS":                    "Australia",
	"AX":                                   "Australia",
	"NZX":                                  "New Zealand",
	"NZ":                                   "New Zealand",

	// Americas
	"B3 S.A.":                   "Brazil",
	"SA":                        "Brazil",
	"BOLSA MEXICANA DE VALORES": "Mexico",
	"MX":                        "Mexico",

	// Middle East and Africa
	"TEL AVIV STOCK EXCHANGE":     "Israel",
	"TA":                          "Israel",
	"JOHANNESBURG STOCK EXCHANGE": "South Africa",
	"JO":                          "South Africa",
}

// CountryForExchange returns the country of exchange, or Other when the
// exchange is not mapped.
func CountryForExchange(exchange string) string {
	if country, ok := ExchangeCountries[exchange]; ok {
		return country
	}
	return Other
}
