package models

// Synonym is an alternative name together with what kind of name it is
// (e.g. "abbreviation", "sys_name").
type Synonym struct {
	Value   string    `json:"value"`
	Type    string    `json:"synonym_type"`
	Sources SourceSet `json:"sources"`
}

func NewSynonym(value, typ string, src Source) *Synonym {
	return &Synonym{Value: value, Type: typ, Sources: NewSourceSet(src)}
}

func (s *Synonym) Kind() Kind  { return KindSynonym }
func (s *Synonym) Key() string { return joinKey(s.Value, s.Type) }

func (s *Synonym) Merge(other Value) (bool, error) {
	o, ok := other.(*Synonym)
	if !ok || o == nil {
		return false, typeMismatch(KindSynonym, other)
	}
	return s.absorb(o), nil
}

func (s *Synonym) absorb(o *Synonym) bool {
	if s.Value != o.Value || s.Type != o.Type {
		return false
	}
	s.Sources.Union(o.Sources)
	return true
}

func (s *Synonym) Clone() *Synonym {
	return &Synonym{Value: s.Value, Type: s.Type, Sources: s.Sources.Clone()}
}

// StructureIdentifier is a structure encoding such as a SMILES, InChI or InChIKey.
type StructureIdentifier struct {
	Value   string    `json:"value"`
	Type    string    `json:"identifier_type"`
	Sources SourceSet `json:"sources"`
}

func NewStructureIdentifier(value, typ string, src Source) *StructureIdentifier {
	return &StructureIdentifier{Value: value, Type: typ, Sources: NewSourceSet(src)}
}

func (s *StructureIdentifier) Kind() Kind  { return KindStructureIdentifier }
func (s *StructureIdentifier) Key() string { return joinKey(s.Value, s.Type) }

func (s *StructureIdentifier) Merge(other Value) (bool, error) {
	o, ok := other.(*StructureIdentifier)
	if !ok || o == nil {
		return false, typeMismatch(KindStructureIdentifier, other)
	}
	return s.absorb(o), nil
}

func (s *StructureIdentifier) absorb(o *StructureIdentifier) bool {
	if s.Value != o.Value || s.Type != o.Type {
		return false
	}
	s.Sources.Union(o.Sources)
	return true
}

func (s *StructureIdentifier) Clone() *StructureIdentifier {
	return &StructureIdentifier{Value: s.Value, Type: s.Type, Sources: s.Sources.Clone()}
}
