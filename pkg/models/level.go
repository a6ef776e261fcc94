package models

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Level is the ordinal specificity of a lipid name. Higher values are more
// specific, so levels compare with the usual integer operators.
type Level int

const (
	LevelUnknown Level = iota
	LipidCategory
	LipidClass
	SumLipidSpecies
	MolecularLipidSpecies
	StructuralLipidSpecies
	IsomericLipidSpecies
)

var levelNames = [...]string{
	"level_unknown",
	"lipid_category",
	"lipid_class",
	"sum_lipid_species",
	"molecular_lipid_species",
	"structural_lipid_species",
	"isomeric_lipid_species",
}

// SpeciesLevels lists the four levels a Nomenclature resolves, least specific first.
var SpeciesLevels = []Level{SumLipidSpecies, MolecularLipidSpecies, StructuralLipidSpecies, IsomericLipidSpecies}

func (l Level) Valid() bool {
	return l >= LevelUnknown && l <= IsomericLipidSpecies
}

func (l Level) String() string {
	if !l.Valid() {
		return "level_invalid"
	}
	return levelNames[l]
}

// ParseLevel accepts the full level names as well as the short forms
// "category", "class", "sum", "molecular", "structural" and "isomeric".
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range levelNames {
		if s == name {
			return Level(i), nil
		}
	}
	switch s {
	case "", "unknown":
		return LevelUnknown, nil
	case "category":
		return LipidCategory, nil
	case "class":
		return LipidClass, nil
	case "sum", "species":
		return SumLipidSpecies, nil
	case "molecular":
		return MolecularLipidSpecies, nil
	case "structural":
		return StructuralLipidSpecies, nil
	case "isomeric":
		return IsomericLipidSpecies, nil
	}
	return LevelUnknown, errors.Newf("unknown level %q", s)
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(b []byte) error {
	parsed, err := ParseLevel(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
