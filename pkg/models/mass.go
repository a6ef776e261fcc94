package models

// Mass is a typed mass observation, e.g. "monoisotopic" or "neutral".
type Mass struct {
	Type    string    `json:"mass_type"`
	Value   float64   `json:"value"`
	Sources SourceSet `json:"sources"`
}

func NewMass(typ string, value float64, src Source) *Mass {
	return &Mass{Type: typ, Value: value, Sources: NewSourceSet(src)}
}

func (m *Mass) Kind() Kind { return KindMass }

func (m *Mass) Key() string { return joinKey(m.Type, formatFloat(m.Value)) }

func (m *Mass) Merge(other Value) (bool, error) {
	o, ok := other.(*Mass)
	if !ok || o == nil {
		return false, typeMismatch(KindMass, other)
	}
	return m.absorb(o), nil
}

func (m *Mass) absorb(o *Mass) bool {
	if m.Type != o.Type || m.Value != o.Value {
		return false
	}
	m.Sources.Union(o.Sources)
	return true
}

func (m *Mass) Clone() *Mass {
	return &Mass{Type: m.Type, Value: m.Value, Sources: m.Sources.Clone()}
}

func cloneMasses(ms []*Mass) []*Mass {
	out := make([]*Mass, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Clone())
	}
	return out
}
