package nomenclature

import "strings"

// lipidClass is one row of the class table: canonical abbreviation, LIPID
// MAPS category and whether the class carries a single acyl chain.
type lipidClass struct {
	abbrev      string
	category    string
	singleChain bool
}

var classTable = buildClassTable([]lipidClass{
	// fatty acyls
	{"FA", "FA", true},
	{"CAR", "FA", true},
	{"NAE", "FA", true},
	{"FAHFA", "FA", false},
	{"WE", "FA", false},

	// glycerolipids
	{"MG", "GL", true},
	{"DG", "GL", false},
	{"TG", "GL", false},
	{"MGDG", "GL", false},
	{"DGDG", "GL", false},
	{"SQDG", "GL", false},

	// glycerophospholipids
	{"PA", "GP", false},
	{"PC", "GP", false},
	{"PE", "GP", false},
	{"PG", "GP", false},
	{"PI", "GP", false},
	{"PS", "GP", false},
	{"PIP", "GP", false},
	{"PIP2", "GP", false},
	{"PIP3", "GP", false},
	{"BMP", "GP", false},
	{"CL", "GP", false},
	{"LPA", "GP", true},
	{"LPC", "GP", true},
	{"LPE", "GP", true},
	{"LPG", "GP", true},
	{"LPI", "GP", true},
	{"LPS", "GP", true},

	// sphingolipids
	{"SPB", "SP", true},
	{"Cer", "SP", false},
	{"CerP", "SP", false},
	{"SM", "SP", false},
	{"HexCer", "SP", false},
	{"Hex2Cer", "SP", false},
	{"Hex3Cer", "SP", false},
	{"GM3", "SP", false},

	// sterols
	{"CE", "ST", true},
	{"ST", "ST", false},
})

func buildClassTable(rows []lipidClass) map[string]lipidClass {
	m := make(map[string]lipidClass, len(rows))
	for _, r := range rows {
		m[strings.ToUpper(r.abbrev)] = r
	}
	return m
}

// lookupClass returns the table row for abbrev, matched case-insensitively.
// Unknown classes keep their spelling and have no category.
func lookupClass(abbrev string) lipidClass {
	if c, ok := classTable[strings.ToUpper(abbrev)]; ok {
		return c
	}
	return lipidClass{abbrev: abbrev}
}
