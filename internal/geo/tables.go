// Package geo owns the read-only reference tables the pipeline consults:
// country alias normalization, TLD→country, country→ISO3, population by
// ISO3, and the world boundary geometry. Tables are built once at startup
// and injected; nothing in this package mutates after load.
package geo

import (
	"sort"
	"strings"
)

// Tables bundles the static lookup data. All maps are keyed and matched
// case-insensitively via the accessor methods.
type Tables struct {
	aliases      map[string]string // lowercase alias -> canonical English name
	tldToCountry map[string]string // lowercase tld (no dot) -> canonical name
	countryToISO map[string]string // lowercase canonical name -> ISO3
}

// DefaultTables returns the built-in reference tables.
func DefaultTables() *Tables {
	t := &Tables{
		aliases:      make(map[string]string, len(countryAliases)),
		tldToCountry: make(map[string]string, len(tldToCountry)),
		countryToISO: make(map[string]string, len(countryToISO3)),
	}
	for alias, canonical := range countryAliases {
		t.aliases[strings.ToLower(alias)] = canonical
	}
	for tld, country := range tldToCountry {
		t.tldToCountry[strings.ToLower(tld)] = country
	}
	for country, iso := range countryToISO3 {
		t.countryToISO[strings.ToLower(country)] = iso
	}
	return t
}

// Canonical collapses abbreviations and native-language exonyms to one
// canonical English country name. Returns "" for empty, "unknown", "none",
// or qualified-unknown inputs such as "Unknown (xx)".
func (t *Tables) Canonical(name string) string {
	c := strings.TrimSpace(name)
	if c == "" {
		return ""
	}
	lower := strings.ToLower(c)
	if lower == "unknown" || lower == "none" || strings.HasPrefix(lower, "unknown (") {
		return ""
	}
	if canonical, ok := t.aliases[lower]; ok {
		return canonical
	}
	return c
}

// IsCountry reports whether name (after canonicalization) is a country the
// tables know, i.e. something the ISO3 table can key.
func (t *Tables) IsCountry(name string) bool {
	c := t.Canonical(name)
	if c == "" {
		return false
	}
	_, ok := t.countryToISO[strings.ToLower(c)]
	return ok
}

// CountryNames returns every canonical country name the ISO3 table knows.
func (t *Tables) CountryNames() []string {
	names := make([]string, 0, len(countryToISO3))
	for name := range countryToISO3 {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CountryForTLD maps a top-level-domain suffix to a country name.
func (t *Tables) CountryForTLD(tld string) (string, bool) {
	country, ok := t.tldToCountry[strings.ToLower(strings.TrimPrefix(tld, "."))]
	return country, ok
}

// ISO3 maps a canonical country name to its ISO3 code. Unmapped countries
// fall back to the uppercased first three letters, mirroring how the maps
// key geometry for long-tail countries.
func (t *Tables) ISO3(country string) string {
	if iso, ok := t.countryToISO[strings.ToLower(strings.TrimSpace(country))]; ok {
		return iso
	}
	c := strings.ToUpper(strings.TrimSpace(country))
	if len(c) > 3 {
		c = c[:3]
	}
	return c
}

// countryAliases canonicalizes the spellings the dumps and the classifier
// actually produce. Keys are matched case-insensitively.
var countryAliases = map[string]string{
	"USA":           "United States",
	"US":            "United States",
	"U.S.":          "United States",
	"U.S.A.":        "United States",
	"United States of America": "United States",
	"UK":            "United Kingdom",
	"Great Britain": "United Kingdom",
	"England":       "United Kingdom",
	"Deutschland":   "Germany",
	"España":        "Spain",
	"Espana":        "Spain",
	"Italia":        "Italy",
	"Suisse":        "Switzerland",
	"Schweiz":       "Switzerland",
	"Nederland":     "Netherlands",
	"Holland":       "Netherlands",
	"Brasil":        "Brazil",
	"México":        "Mexico",
	"Österreich":    "Austria",
	"Sverige":       "Sweden",
	"Norge":         "Norway",
	"Danmark":       "Denmark",
	"Suomi":         "Finland",
	"Polska":        "Poland",
	"Türkiye":       "Turkey",
	"Россия":        "Russia",
	"Czechia":       "Czech Republic",
	"UAE":           "United Arab Emirates",
	"ROK":           "South Korea",
	"Republic of Korea": "South Korea",
	"Viet Nam":      "Vietnam",
}

// tldToCountry is the weak-signal fallback table for country-code TLDs.
var tldToCountry = map[string]string{
	"us": "United States",
	"uk": "United Kingdom",
	"gb": "United Kingdom",
	"de": "Germany",
	"fr": "France",
	"it": "Italy",
	"es": "Spain",
	"ca": "Canada",
	"au": "Australia",
	"jp": "Japan",
	"cn": "China",
	"in": "India",
	"br": "Brazil",
	"mx": "Mexico",
	"nl": "Netherlands",
	"be": "Belgium",
	"ch": "Switzerland",
	"at": "Austria",
	"se": "Sweden",
	"no": "Norway",
	"dk": "Denmark",
	"fi": "Finland",
	"pl": "Poland",
	"cz": "Czech Republic",
	"sk": "Slovakia",
	"hu": "Hungary",
	"ro": "Romania",
	"bg": "Bulgaria",
	"gr": "Greece",
	"pt": "Portugal",
	"ie": "Ireland",
	"ru": "Russia",
	"ua": "Ukraine",
	"tr": "Turkey",
	"za": "South Africa",
	"ar": "Argentina",
	"cl": "Chile",
	"pe": "Peru",
	"co": "Colombia",
	"ve": "Venezuela",
	"eg": "Egypt",
	"ng": "Nigeria",
	"ke": "Kenya",
	"th": "Thailand",
	"vn": "Vietnam",
	"sg": "Singapore",
	"kr": "South Korea",
	"nz": "New Zealand",
	"sa": "Saudi Arabia",
	"ae": "United Arab Emirates",
	"il": "Israel",
	"id": "Indonesia",
	"my": "Malaysia",
	"ph": "Philippines",
	"tw": "Taiwan",
	"hk": "Hong Kong",
	"pk": "Pakistan",
	"bd": "Bangladesh",
	"lk": "Sri Lanka",
	"ee": "Estonia",
	"lv": "Latvia",
	"lt": "Lithuania",
	"si": "Slovenia",
	"hr": "Croatia",
	"rs": "Serbia",
	"is": "Iceland",
	"lu": "Luxembourg",
	"cy": "Cyprus",
	"mt": "Malta",
}

// countryToISO3 keys the geometry and population tables.
var countryToISO3 = map[string]string{
	"United States":        "USA",
	"United Kingdom":       "GBR",
	"Germany":              "DEU",
	"France":               "FRA",
	"Italy":                "ITA",
	"Spain":                "ESP",
	"Canada":               "CAN",
	"Australia":            "AUS",
	"Japan":                "JPN",
	"China":                "CHN",
	"India":                "IND",
	"Brazil":               "BRA",
	"Mexico":               "MEX",
	"Netherlands":          "NLD",
	"Belgium":              "BEL",
	"Switzerland":          "CHE",
	"Austria":              "AUT",
	"Sweden":               "SWE",
	"Norway":               "NOR",
	"Denmark":              "DNK",
	"Finland":              "FIN",
	"Poland":               "POL",
	"Czech Republic":       "CZE",
	"Slovakia":             "SVK",
	"Hungary":              "HUN",
	"Romania":              "ROU",
	"Bulgaria":             "BGR",
	"Greece":               "GRC",
	"Portugal":             "PRT",
	"Ireland":              "IRL",
	"Russia":               "RUS",
	"Ukraine":              "UKR",
	"Turkey":               "TUR",
	"South Africa":         "ZAF",
	"Argentina":            "ARG",
	"Chile":                "CHL",
	"Peru":                 "PER",
	"Colombia":             "COL",
	"Venezuela":            "VEN",
	"Egypt":                "EGY",
	"Nigeria":              "NGA",
	"Kenya":                "KEN",
	"Thailand":             "THA",
	"Vietnam":              "VNM",
	"Singapore":            "SGP",
	"South Korea":          "KOR",
	"New Zealand":          "NZL",
	"Saudi Arabia":         "SAU",
	"United Arab Emirates": "ARE",
	"Israel":               "ISR",
	"Indonesia":            "IDN",
	"Malaysia":             "MYS",
	"Philippines":          "PHL",
	"Taiwan":               "TWN",
	"Pakistan":             "PAK",
	"Bangladesh":           "BGD",
	"Sri Lanka":            "LKA",
	"Estonia":              "EST",
	"Latvia":               "LVA",
	"Lithuania":            "LTU",
	"Slovenia":             "SVN",
	"Croatia":              "HRV",
	"Serbia":               "SRB",
	"Iceland":              "ISL",
	"Luxembourg":           "LUX",
	"Cyprus":               "CYP",
	"Malta":                "MLT",
}
