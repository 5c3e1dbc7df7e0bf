package demand

import (
	"strings"

	"github.com/biter777/countries"
)

// stockpileBucket is the pseudo-continent for doses earmarked for the
// global stockpile rather than a country.
const stockpileBucket = "global_stockpile"

// nameFixes resolves entries the ISO resolver cannot match on its own.
var nameFixes = map[string]string{
	"CAR": "Central African Republic",
}

// canonicalCountry collapses provider quirks before ISO resolution. India
// is reported per region ("India: South"), and a handful of names are
// abbreviated in the source.
func canonicalCountry(name string) string {
	if strings.HasPrefix(name, "India:") {
		return "India"
	}
	if fixed, ok := nameFixes[name]; ok {
		return fixed
	}
	return name
}

// continentOf resolves a country name to the continent bucket used for
// aggregation. Both American sub-regions collapse into a single "America"
// bucket to match the published taxonomy.
func continentOf(name string) (string, bool) {
	if name == "Global Stockpile" {
		return stockpileBucket, true
	}

	code := countries.ByName(name)
	if code == countries.Unknown {
		return "", false
	}

	region := code.Region().String()
	switch region {
	case "North America", "South America", "Americas", "America":
		return "America", true
	}
	return region, true
}
