package normalize

import (
	"strings"
	"unicode"

	"github.com/biter777/countries"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "`", "'", "´", "'", "ʼ", "'")

var titleCaser = cases.Title(language.English)

// countryOverrides resolves names the ISO table does not know or gets wrong:
// UK home nations, colloquial spellings and historical states. Keys are in
// foldCountry form.
var countryOverrides = map[string]string{
	"england":                          "GB",
	"scotland":                         "GB",
	"wales":                            "GB",
	"northern ireland":                 "GB",
	"great britain":                    "GB",
	"uk":                               "GB",
	"united kingdom":                   "GB",
	"usa":                              "US",
	"united states":                    "US",
	"korea, south":                     "KR",
	"south korea":                      "KR",
	"korea republic":                   "KR",
	"korea, north":                     "KP",
	"north korea":                      "KP",
	"korea dpr":                        "KP",
	"cote d'ivoire":                    "CI",
	"ivory coast":                      "CI",
	"dr congo":                         "CD",
	"congo dr":                         "CD",
	"democratic republic of congo":     "CD",
	"democratic republic of the congo": "CD",
	"zaire":                            "CD",
	"congo":                            "CG",
	"czech republic":                   "CZ",
	"czechia":                          "CZ",
	"czechoslovakia":                   "CZ",
	"turkey":                           "TR",
	"turkiye":                          "TR",
	"russia":                           "RU",
	"ussr":                             "RU",
	"soviet union":                     "RU",
	"iran":                             "IR",
	"syria":                            "SY",
	"bosnia-herzegovina":               "BA",
	"bosnia and herzegovina":           "BA",
	"bosnia":                           "BA",
	"north macedonia":                  "MK",
	"macedonia":                        "MK",
	"kosovo":                           "XK",
	"cape verde":                       "CV",
	"cabo verde":                       "CV",
	"curacao":                          "CW",
	"netherlands antilles":             "CW",
	"neth. antilles":                   "CW",
	"the gambia":                       "GM",
	"gambia":                           "GM",
	"vietnam":                          "VN",
	"moldova":                          "MD",
	"venezuela":                        "VE",
	"bolivia":                          "BO",
	"tanzania":                         "TZ",
	"laos":                             "LA",
	"palestine":                        "PS",
	"chinese taipei":                   "TW",
	"taiwan":                           "TW",
	"hong kong":                        "HK",
	"st. kitts & nevis":                "KN",
	"st kitts and nevis":               "KN",
	"st. lucia":                        "LC",
	"st. vincent & grenadines":         "VC",
	"antigua and barbuda":              "AG",
	"trinidad and tobago":              "TT",
	"guinea-bissau":                    "GW",
	"equatorial guinea":                "GQ",
	"central african republic":         "CF",
	"eswatini":                         "SZ",
	"swaziland":                        "SZ",
	"east timor":                       "TL",
	"timor-leste":                      "TL",
	"faroe islands":                    "FO",
	"yugoslavia":                       "RS",
	"serbia and montenegro":            "RS",
	"burma":                            "MM",
	"holland":                          "NL",
	"brasil":                           "BR",
}

// Regions and pseudo-countries used by scraped data and API-Football for
// international competitions. They never resolve.
var notCountries = map[string]bool{
	"world":         true,
	"international": true,
	"europe":        true,
	"africa":        true,
	"asia":          true,
	"oceania":       true,
	"north america": true,
	"south america": true,
	"without club":  true,
	"unknown":       true,
}

func foldCountry(raw string) string {
	s := apostrophes.Replace(strings.TrimSpace(raw))
	folded, _, err := transform.String(stripAccents, s)
	if err != nil {
		folded = s
	}
	return CollapseSpace(strings.ToLower(folded))
}

// ResolveCountry maps a country name to its ISO-3166 alpha-2 code.
func ResolveCountry(raw string) (string, bool) {
	key := foldCountry(raw)
	if key == "" || key == "-" || notCountries[key] {
		return "", false
	}
	if code, ok := countryOverrides[key]; ok {
		return code, true
	}

	for _, candidate := range []string{titleCaser.String(key), key} {
		if c := countries.ByName(candidate); c != countries.Unknown {
			if alpha2 := c.Alpha2(); len(alpha2) == 2 {
				return alpha2, true
			}
		}
	}
	return "", false
}

// CountryOr resolves raw or returns fallback.
func CountryOr(raw, fallback string) string {
	if code, ok := ResolveCountry(raw); ok {
		return code
	}
	return fallback
}
