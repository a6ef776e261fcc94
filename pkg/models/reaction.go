package models

import (
	"encoding/json"
	"strings"
)

// Reaction is a biochemical reaction a lipid takes part in.
type Reaction struct {
	DatabaseIdentifiers []*DatabaseIdentifier `json:"database_identifiers"`
	Direction           string                `json:"direction,omitempty"`
	Substrates          []string              `json:"substrates"`
	Products            []string              `json:"products"`
	GeneNames           []string              `json:"gene_names,omitempty"`

	// Only set for reactions derived from LINEX class-level networks.
	LinexReactionType   string   `json:"linex_reaction_type,omitempty"`
	LinexNLParticipants []string `json:"linex_nl_participants,omitempty"`
}

func NewReaction() *Reaction {
	return &Reaction{}
}

func (r *Reaction) AddSubstrates(names ...string) { r.Substrates = addStrings(r.Substrates, names...) }
func (r *Reaction) AddProducts(names ...string)   { r.Products = addStrings(r.Products, names...) }
func (r *Reaction) AddGeneNames(names ...string)  { r.GeneNames = addStrings(r.GeneNames, names...) }

func (r *Reaction) AddNLParticipants(names ...string) {
	r.LinexNLParticipants = addStrings(r.LinexNLParticipants, names...)
}

// Description renders "A + B = C"; empty when either side is missing.
func (r *Reaction) Description() string {
	if len(r.Substrates) == 0 || len(r.Products) == 0 {
		return ""
	}
	dir := r.Direction
	if dir == "" {
		dir = "="
	}
	return strings.Join(r.Substrates, " + ") + " " + dir + " " + strings.Join(r.Products, " + ")
}

func (r *Reaction) Sources() SourceSet {
	var out SourceSet
	for _, d := range r.DatabaseIdentifiers {
		out.Union(d.Sources)
	}
	return out
}

func (r *Reaction) AddDatabaseIdentifier(d *DatabaseIdentifier) {
	r.DatabaseIdentifiers = mergeOrAppend(r.DatabaseIdentifiers, d)
}

func (r *Reaction) DatabaseIdentifiersFor(database string) []*DatabaseIdentifier {
	var out []*DatabaseIdentifier
	for _, d := range r.DatabaseIdentifiers {
		if d.Database == database {
			out = append(out, d)
		}
	}
	return out
}

func (r *Reaction) Kind() Kind { return KindReaction }

func (r *Reaction) Key() string {
	if r.LinexReactionType != "" {
		return joinKey("linex", r.LinexReactionType,
			strings.Join(r.Substrates, keySep), "=>", strings.Join(r.Products, keySep))
	}
	return joinKey("description", r.Description())
}

func (r *Reaction) Merge(other Value) (bool, error) {
	o, ok := other.(*Reaction)
	if !ok || o == nil {
		return false, typeMismatch(KindReaction, other)
	}
	return r.absorb(o), nil
}

func (r *Reaction) absorb(o *Reaction) bool {
	// SwissLipids and LINEX describe reactions at different granularity
	// (species vs. class), so their records are kept apart.
	mine, theirs := r.Sources(), o.Sources()
	if (mine.HasOrigin("swisslipids") && theirs.HasOrigin("linex")) ||
		(mine.HasOrigin("linex") && theirs.HasOrigin("swisslipids")) {
		return false
	}
	if r.Key() != o.Key() {
		return false
	}
	for _, d := range o.DatabaseIdentifiers {
		r.AddDatabaseIdentifier(d.Clone())
	}
	r.AddGeneNames(o.GeneNames...)
	r.AddNLParticipants(o.LinexNLParticipants...)
	if r.Direction == "" {
		r.Direction = o.Direction
	}
	return true
}

func (r *Reaction) Clone() *Reaction {
	return &Reaction{
		DatabaseIdentifiers: cloneDatabaseIdentifiers(r.DatabaseIdentifiers),
		Direction:           r.Direction,
		Substrates:          cloneStrings(r.Substrates),
		Products:            cloneStrings(r.Products),
		GeneNames:           cloneStrings(r.GeneNames),
		LinexReactionType:   r.LinexReactionType,
		LinexNLParticipants: cloneStrings(r.LinexNLParticipants),
	}
}

func (r *Reaction) MarshalJSON() ([]byte, error) {
	type plain Reaction
	return json.Marshal(struct {
		*plain
		Description string `json:"description,omitempty"`
	}{plain: (*plain)(r), Description: r.Description()})
}
