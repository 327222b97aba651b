package providers

import "strings"

var stateAcronyms = map[string]string{
	"Alabama": "AL", "Alaska": "AK", "Arizona": "AZ", "Arkansas": "AR", "California": "CA",
	"Colorado": "CO", "Connecticut": "CT", "Delaware": "DE", "District of Columbia": "DC",
	"Florida": "FL", "Georgia": "GA", "Hawaii": "HI", "Idaho": "ID", "Illinois": "IL",
	"Indiana": "IN", "Iowa": "IA", "Kansas": "KS", "Kentucky": "KY", "Louisiana": "LA",
	"Maine": "ME", "Maryland": "MD", "Massachusetts": "MA", "Michigan": "MI", "Minnesota": "MN",
	"Mississippi": "MS", "Missouri": "MO", "Montana": "MT", "Nebraska": "NE", "Nevada": "NV",
	"New Hampshire": "NH", "New Jersey": "NJ", "New Mexico": "NM", "New York": "NY",
	"North Carolina": "NC", "North Dakota": "ND", "Ohio": "OH", "Oklahoma": "OK", "Oregon": "OR",
	"Pennsylvania": "PA", "Puerto Rico": "PR", "Rhode Island": "RI", "South Carolina": "SC",
	"South Dakota": "SD", "Tennessee": "TN", "Texas": "TX", "Utah": "UT", "Vermont": "VT",
	"Virginia": "VA", "Washington": "WA", "West Virginia": "WV", "Wisconsin": "WI", "Wyoming": "WY",
	"Guam": "GU", "U.S. Virgin Islands": "VI", "American Samoa": "AS",
}

// StateAcronym returns the postal code for a US state name. Two-letter
// input is returned upper-cased; unknown names yield "".
func StateAcronym(name string) string {
	name = strings.TrimSpace(name)
	if acr, ok := stateAcronyms[name]; ok {
		return acr
	}
	if len(name) == 2 {
		return strings.ToUpper(name)
	}
	return ""
}

// locationName renders the panel title: "County, ST", then "County County",
// then "ZIP nnnnn".
func locationName(county, stateAcr, zip string) string {
	switch {
	case county != "" && stateAcr != "":
		return county + ", " + stateAcr
	case county != "":
		return county + " County"
	default:
		return "ZIP " + zip
	}
}

func trimCountySuffix(county string) string {
	county = strings.TrimSpace(county)
	if strings.HasSuffix(strings.ToLower(county), " county") {
		return county[:len(county)-len(" county")]
	}
	return county
}
