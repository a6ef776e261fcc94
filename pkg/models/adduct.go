package models

// Adduct is an ionised form of a lipid as observed in mass spectrometry. The
// catalog fields identify the ion; Masses and Fragments accumulate observations.
type Adduct struct {
	Name              string  `json:"name"`
	SwissLipidsName   string  `json:"swisslipids_name,omitempty"`
	SwissLipidsAbbrev string  `json:"swisslipids_abbrev,omitempty"`
	LipidMapsName     string  `json:"lipidmaps_name,omitempty"`
	AdductMass        float64 `json:"adduct_mass"`
	Charge            int     `json:"charge"`

	Masses    []*Mass     `json:"masses"`
	Fragments []*Fragment `json:"fragments"`
}

func (a *Adduct) Kind() Kind  { return KindAdduct }
func (a *Adduct) Key() string { return a.Name }

func (a *Adduct) Merge(other Value) (bool, error) {
	o, ok := other.(*Adduct)
	if !ok || o == nil {
		return false, typeMismatch(KindAdduct, other)
	}
	return a.absorb(o), nil
}

func (a *Adduct) absorb(o *Adduct) bool {
	if a.Name != o.Name {
		return false
	}
	for _, f := range o.Fragments {
		a.AddFragment(f.Clone())
	}
	for _, m := range o.Masses {
		a.AddMass(m.Clone())
	}
	return true
}

func (a *Adduct) AddMass(m *Mass) {
	a.Masses = mergeOrAppend(a.Masses, m)
}

func (a *Adduct) AddFragment(f *Fragment) {
	a.Fragments = mergeOrAppend(a.Fragments, f)
}

func (a *Adduct) Sources() SourceSet {
	var out SourceSet
	for _, f := range a.Fragments {
		out.Union(f.Sources())
	}
	for _, m := range a.Masses {
		out.Union(m.Sources)
	}
	return out
}

// Clone copies the catalog entry and all observations.
func (a *Adduct) Clone() *Adduct {
	c := *a
	c.Masses = cloneMasses(a.Masses)
	c.Fragments = make([]*Fragment, 0, len(a.Fragments))
	for _, f := range a.Fragments {
		c.Fragments = append(c.Fragments, f.Clone())
	}
	return &c
}

// Fragment is a sub-structure observed in MS2 spectra of an adduct.
type Fragment struct {
	Name       string  `json:"name"`
	SumFormula string  `json:"sum_formula"`
	Masses     []*Mass `json:"masses"`
}

func (f *Fragment) Kind() Kind  { return KindFragment }
func (f *Fragment) Key() string { return f.SumFormula }

func (f *Fragment) Merge(other Value) (bool, error) {
	o, ok := other.(*Fragment)
	if !ok || o == nil {
		return false, typeMismatch(KindFragment, other)
	}
	return f.absorb(o), nil
}

func (f *Fragment) absorb(o *Fragment) bool {
	if f.SumFormula != o.SumFormula {
		return false
	}
	for _, m := range o.Masses {
		f.AddMass(m.Clone())
	}
	return true
}

func (f *Fragment) AddMass(m *Mass) {
	f.Masses = mergeOrAppend(f.Masses, m)
}

func (f *Fragment) Sources() SourceSet {
	var out SourceSet
	for _, m := range f.Masses {
		out.Union(m.Sources)
	}
	return out
}

func (f *Fragment) Clone() *Fragment {
	return &Fragment{Name: f.Name, SumFormula: f.SumFormula, Masses: cloneMasses(f.Masses)}
}
