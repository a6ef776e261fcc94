package models

// Lipid is the aggregate record for one lipid species. All collections are
// mutated through the Add methods, which merge into an existing element with
// the same identity or append.
type Lipid struct {
	Nomenclature        *Nomenclature         `json:"nomenclature"`
	DatabaseIdentifiers []*DatabaseIdentifier `json:"database_identifiers"`
	Masses              []*Mass               `json:"masses"`
	Ontology            *Ontology             `json:"ontology"`
	Reactions           []*Reaction           `json:"reactions"`
	Adducts             []*Adduct             `json:"adducts"`

	// Query is the raw input that produced this record; used for output naming.
	Query string `json:"query,omitempty"`
}

func NewLipid() *Lipid {
	return &Lipid{Nomenclature: NewNomenclature(), Ontology: NewOntology()}
}

// NewLipidWithNomenclature wraps n in an otherwise empty Lipid.
func NewLipidWithNomenclature(n *Nomenclature) *Lipid {
	l := NewLipid()
	if n != nil {
		l.Nomenclature = n
	}
	return l
}

func (l *Lipid) Name() string { return l.Nomenclature.Name() }
func (l *Lipid) Level() Level { return l.Nomenclature.Level() }

// DisplayName is the default name, falling back to the raw query.
func (l *Lipid) DisplayName() string {
	if name := l.Name(); name != "" {
		return name
	}
	return l.Query
}

func (l *Lipid) AddDatabaseIdentifier(d *DatabaseIdentifier) {
	l.DatabaseIdentifiers = mergeOrAppend(l.DatabaseIdentifiers, d)
}

func (l *Lipid) AddMass(m *Mass) {
	l.Masses = mergeOrAppend(l.Masses, m)
}

func (l *Lipid) AddReaction(r *Reaction) {
	l.Reactions = mergeOrAppend(l.Reactions, r)
}

func (l *Lipid) AddAdduct(a *Adduct) {
	l.Adducts = mergeOrAppend(l.Adducts, a)
}

func (l *Lipid) DatabaseIdentifiersFor(database string) []*DatabaseIdentifier {
	var out []*DatabaseIdentifier
	for _, d := range l.DatabaseIdentifiers {
		if d.Database == database {
			out = append(out, d)
		}
	}
	return out
}

// Sources is the union of the sources of every fact on the record.
func (l *Lipid) Sources() SourceSet {
	var out SourceSet
	for _, d := range l.DatabaseIdentifiers {
		out.Union(d.Sources)
	}
	for _, m := range l.Masses {
		out.Union(m.Sources)
	}
	for _, r := range l.Reactions {
		out.Union(r.Sources())
	}
	for _, a := range l.Adducts {
		out.Union(a.Sources())
	}
	out.Union(l.Nomenclature.Sources())
	out.Union(l.Ontology.Sources)
	return out
}

func (l *Lipid) Kind() Kind  { return KindLipid }
func (l *Lipid) Key() string { return l.Name() }

func (l *Lipid) Merge(other Value) (bool, error) {
	o, ok := other.(*Lipid)
	if !ok || o == nil {
		return false, typeMismatch(KindLipid, other)
	}
	return l.absorb(o), nil
}

// absorb joins two records on their default name. Nothing is copied when the
// names differ.
func (l *Lipid) absorb(o *Lipid) bool {
	if l == o {
		return true
	}
	if !l.Nomenclature.absorb(o.Nomenclature) {
		return false
	}
	l.Ontology.absorb(o.Ontology)
	for _, d := range o.DatabaseIdentifiers {
		l.AddDatabaseIdentifier(d.Clone())
	}
	for _, m := range o.Masses {
		l.AddMass(m.Clone())
	}
	for _, r := range o.Reactions {
		l.AddReaction(r.Clone())
	}
	for _, a := range o.Adducts {
		l.AddAdduct(a.Clone())
	}
	return true
}

// Clone returns a deep copy.
func (l *Lipid) Clone() *Lipid {
	c := &Lipid{
		Nomenclature:        l.Nomenclature.Clone(),
		DatabaseIdentifiers: cloneDatabaseIdentifiers(l.DatabaseIdentifiers),
		Masses:              cloneMasses(l.Masses),
		Ontology:            l.Ontology.Clone(),
		Query:               l.Query,
	}
	for _, r := range l.Reactions {
		c.Reactions = append(c.Reactions, r.Clone())
	}
	for _, a := range l.Adducts {
		c.Adducts = append(c.Adducts, a.Clone())
	}
	return c
}

// Skeleton returns a record with the same names and nothing else. Enrichment
// sources fill a skeleton and hand it back to be merged into the original.
func (l *Lipid) Skeleton() *Lipid {
	return NewLipidWithNomenclature(l.Nomenclature.Bare())
}

// AppendLipid merges l into the first record of list with the same name, or
// appends it.
func AppendLipid(list []*Lipid, l *Lipid) []*Lipid {
	return mergeOrAppend(list, l)
}

// MergeInto merges l into the first matching record of list and reports
// whether one matched. The list is never extended.
func MergeInto(list []*Lipid, l *Lipid) bool {
	for _, existing := range list {
		if existing.absorb(l) {
			return true
		}
	}
	return false
}
