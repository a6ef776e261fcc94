package models

import (
	"encoding/json"
	"sort"
)

// Source attributes a fact to the lipid name and level it was found under and
// to the collaborator that produced it. It is a comparable value and is used
// as a set key.
type Source struct {
	LipidName  string `json:"lipid_name"`
	LipidLevel Level  `json:"lipid_level"`
	Origin     string `json:"source"`
}

func NewSource(name string, level Level, origin string) Source {
	return Source{LipidName: name, LipidLevel: level, Origin: origin}
}

// SourceSet is a set of Sources. The zero value is an empty set ready to use.
type SourceSet struct {
	m map[Source]struct{}
}

func NewSourceSet(sources ...Source) SourceSet {
	var s SourceSet
	for _, src := range sources {
		s.Add(src)
	}
	return s
}

func (s *SourceSet) Add(src Source) {
	if s.m == nil {
		s.m = make(map[Source]struct{})
	}
	s.m[src] = struct{}{}
}

func (s *SourceSet) Union(other SourceSet) {
	for src := range other.m {
		s.Add(src)
	}
}

func (s SourceSet) Contains(src Source) bool {
	_, ok := s.m[src]
	return ok
}

// HasOrigin reports whether any Source in the set was produced by origin.
func (s SourceSet) HasOrigin(origin string) bool {
	for src := range s.m {
		if src.Origin == origin {
			return true
		}
	}
	return false
}

func (s SourceSet) Len() int { return len(s.m) }

// Slice returns the Sources ordered by origin, name and level.
func (s SourceSet) Slice() []Source {
	out := make([]Source, 0, len(s.m))
	for src := range s.m {
		out = append(out, src)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Origin != b.Origin {
			return a.Origin < b.Origin
		}
		if a.LipidName != b.LipidName {
			return a.LipidName < b.LipidName
		}
		return a.LipidLevel < b.LipidLevel
	})
	return out
}

func (s SourceSet) Clone() SourceSet {
	var c SourceSet
	c.Union(s)
	return c
}

func (s SourceSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

func (s *SourceSet) UnmarshalJSON(b []byte) error {
	var list []Source
	if err := json.Unmarshal(b, &list); err != nil {
		return err
	}
	s.m = nil
	for _, src := range list {
		s.Add(src)
	}
	return nil
}
