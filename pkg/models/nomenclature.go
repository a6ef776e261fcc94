package models

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
)

// Flavor is a per-source formatting convention for outbound queries. It never
// affects identity.
type Flavor string

const (
	FlavorSwissLipids Flavor = "swisslipids"
	FlavorLipidMaps   Flavor = "lipidmaps"
	FlavorAlex123     Flavor = "alex123"
)

func ParseFlavor(s string) (Flavor, error) {
	switch f := Flavor(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FlavorSwissLipids, nil
	case FlavorSwissLipids, FlavorLipidMaps, FlavorAlex123:
		return f, nil
	}
	return "", errors.Newf("unsupported nomenclature flavor %q", s)
}

// Apply formats name for the flavor.
func (f Flavor) Apply(name string) string {
	if name == "" {
		return ""
	}
	switch f {
	case FlavorAlex123:
		return strings.ReplaceAll(name, "_", "-")
	case FlavorLipidMaps:
		if strings.Contains(name, "(") && strings.HasSuffix(name, ")") && !strings.Contains(name, " ") {
			return name
		}
		if i := strings.IndexByte(name, ' '); i > 0 {
			return name[:i] + "(" + name[i+1:] + ")"
		}
	}
	return name
}

// LevelNames are the canonical names of one lipid at each level, as produced
// by a nomenclature normalizer. Empty means unresolved.
type LevelNames struct {
	Category   string `json:"lipid_category,omitempty"`
	Class      string `json:"lipid_class,omitempty"`
	Sum        string `json:"sum_lipid_species,omitempty"`
	Molecular  string `json:"molecular_lipid_species,omitempty"`
	Structural string `json:"structural_lipid_species,omitempty"`
	Isomeric   string `json:"isomeric_lipid_species,omitempty"`
}

// At returns the name stored for level.
func (n LevelNames) At(level Level) string {
	switch level {
	case LipidCategory:
		return n.Category
	case LipidClass:
		return n.Class
	case SumLipidSpecies:
		return n.Sum
	case MolecularLipidSpecies:
		return n.Molecular
	case StructuralLipidSpecies:
		return n.Structural
	case IsomericLipidSpecies:
		return n.Isomeric
	}
	return ""
}

// Set stores name for level; other levels are ignored.
func (n *LevelNames) Set(level Level, name string) {
	switch level {
	case LipidCategory:
		n.Category = name
	case LipidClass:
		n.Class = name
	case SumLipidSpecies:
		n.Sum = name
	case MolecularLipidSpecies:
		n.Molecular = name
	case StructuralLipidSpecies:
		n.Structural = name
	case IsomericLipidSpecies:
		n.Isomeric = name
	}
}

// Level is the highest species level with a name.
func (n LevelNames) Level() Level {
	switch {
	case n.Isomeric != "":
		return IsomericLipidSpecies
	case n.Structural != "":
		return StructuralLipidSpecies
	case n.Molecular != "":
		return MolecularLipidSpecies
	case n.Sum != "":
		return SumLipidSpecies
	}
	return LevelUnknown
}

// Nomenclature carries the names of a lipid. The resolved names are set once
// from a normalizer result; category, class and sum formula are facts
// reported by sources and are filled first-writer-wins.
type Nomenclature struct {
	queryName string
	names     LevelNames

	Category             string
	Class                string
	SumFormula           string
	Synonyms             []*Synonym
	StructureIdentifiers []*StructureIdentifier
}

func NewNomenclature() *Nomenclature {
	return &Nomenclature{}
}

// NewResolvedNomenclature builds a Nomenclature for query with resolved names.
func NewResolvedNomenclature(query string, names LevelNames) *Nomenclature {
	n := &Nomenclature{}
	n.SetResolved(query, names)
	return n
}

// SetResolved replaces the query name and all resolved names.
func (n *Nomenclature) SetResolved(query string, names LevelNames) {
	n.queryName = query
	n.names = names
}

func (n *Nomenclature) QueryName() string         { return n.queryName }
func (n *Nomenclature) Names() LevelNames         { return n.names }
func (n *Nomenclature) Level() Level              { return n.names.Level() }
func (n *Nomenclature) ClassAbbreviation() string { return n.names.Class }

// Name returns the default name: the name at the lipid's own level, or the
// query name when nothing resolved.
func (n *Nomenclature) Name() string {
	return n.FlavoredName(FlavorSwissLipids)
}

// FlavoredName is Name formatted for flavor.
func (n *Nomenclature) FlavoredName(flavor Flavor) string {
	own := n.Level()
	if own == LevelUnknown {
		return flavor.Apply(n.queryName)
	}
	return flavor.Apply(n.names.At(own))
}

// NameAt returns the name at level if the lipid is resolved at least that far
// and "" otherwise. LevelUnknown returns the query name.
func (n *Nomenclature) NameAt(level Level, flavor Flavor) string {
	if level == LevelUnknown {
		return flavor.Apply(n.queryName)
	}
	if n.Level() < level {
		return ""
	}
	return flavor.Apply(n.names.At(level))
}

func (n *Nomenclature) AddSynonym(s *Synonym) {
	n.Synonyms = mergeOrAppend(n.Synonyms, s)
}

func (n *Nomenclature) AddStructureIdentifier(s *StructureIdentifier) {
	n.StructureIdentifiers = mergeOrAppend(n.StructureIdentifiers, s)
}

func (n *Nomenclature) Sources() SourceSet {
	var out SourceSet
	for _, s := range n.Synonyms {
		out.Union(s.Sources)
	}
	for _, s := range n.StructureIdentifiers {
		out.Union(s.Sources)
	}
	return out
}

func (n *Nomenclature) Kind() Kind  { return KindNomenclature }
func (n *Nomenclature) Key() string { return n.Name() }

func (n *Nomenclature) Merge(other Value) (bool, error) {
	o, ok := other.(*Nomenclature)
	if !ok || o == nil {
		return false, typeMismatch(KindNomenclature, other)
	}
	return n.absorb(o), nil
}

func (n *Nomenclature) absorb(o *Nomenclature) bool {
	if n.Name() != o.Name() {
		return false
	}
	if n.Category == "" {
		n.Category = o.Category
	}
	if n.Class == "" {
		n.Class = o.Class
	}
	if n.SumFormula == "" {
		n.SumFormula = o.SumFormula
	}
	for _, s := range o.Synonyms {
		n.AddSynonym(s.Clone())
	}
	for _, s := range o.StructureIdentifiers {
		n.AddStructureIdentifier(s.Clone())
	}
	return true
}

// Bare copies the names and scalar facts but no synonyms or structure identifiers.
func (n *Nomenclature) Bare() *Nomenclature {
	return &Nomenclature{
		queryName:  n.queryName,
		names:      n.names,
		Category:   n.Category,
		Class:      n.Class,
		SumFormula: n.SumFormula,
	}
}

func (n *Nomenclature) Clone() *Nomenclature {
	c := n.Bare()
	for _, s := range n.Synonyms {
		c.Synonyms = append(c.Synonyms, s.Clone())
	}
	for _, s := range n.StructureIdentifiers {
		c.StructureIdentifiers = append(c.StructureIdentifiers, s.Clone())
	}
	return c
}

func (n *Nomenclature) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name                 string                 `json:"name"`
		Level                Level                  `json:"level"`
		QueryName            string                 `json:"query_name,omitempty"`
		Names                LevelNames             `json:"names"`
		Category             string                 `json:"category,omitempty"`
		Class                string                 `json:"class,omitempty"`
		SumFormula           string                 `json:"sum_formula,omitempty"`
		Synonyms             []*Synonym             `json:"synonyms"`
		StructureIdentifiers []*StructureIdentifier `json:"structure_identifiers"`
	}{
		Name:                 n.Name(),
		Level:                n.Level(),
		QueryName:            n.queryName,
		Names:                n.names,
		Category:             n.Category,
		Class:                n.Class,
		SumFormula:           n.SumFormula,
		Synonyms:             n.Synonyms,
		StructureIdentifiers: n.StructureIdentifiers,
	})
}
