package models

// Ontology holds LION ontology terms annotated to a lipid. It only stores
// terms; graph traversal belongs to the ontology service.
type Ontology struct {
	Terms   []string  `json:"ontology_terms"`
	Sources SourceSet `json:"sources"`
}

func NewOntology() *Ontology {
	return &Ontology{}
}

func (o *Ontology) AddTerms(terms ...string) {
	o.Terms = addStrings(o.Terms, terms...)
}

func (o *Ontology) AddSource(src Source) {
	o.Sources.Add(src)
}

func (o *Ontology) Kind() Kind  { return KindOntology }
func (o *Ontology) Key() string { return "" }

// Merge always succeeds for another Ontology.
func (o *Ontology) Merge(other Value) (bool, error) {
	t, ok := other.(*Ontology)
	if !ok || t == nil {
		return false, typeMismatch(KindOntology, other)
	}
	return o.absorb(t), nil
}

func (o *Ontology) absorb(t *Ontology) bool {
	o.AddTerms(t.Terms...)
	o.Sources.Union(t.Sources)
	return true
}

func (o *Ontology) Clone() *Ontology {
	return &Ontology{Terms: cloneStrings(o.Terms), Sources: o.Sources.Clone()}
}
