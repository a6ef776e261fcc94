package models

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrTypeMismatch is returned when Merge is called with a value of another kind.
var ErrTypeMismatch = errors.New("type mismatch")

type Kind string

const (
	KindMass                Kind = "mass"
	KindSynonym             Kind = "synonym"
	KindStructureIdentifier Kind = "structure_identifier"
	KindDatabaseIdentifier  Kind = "database_identifier"
	KindOntology            Kind = "ontology"
	KindReaction            Kind = "reaction"
	KindAdduct              Kind = "adduct"
	KindFragment            Kind = "fragment"
	KindNomenclature        Kind = "nomenclature"
	KindLipid               Kind = "lipid"
)

// Value is implemented by every mergeable record kind.
//
// Merge folds other into the receiver when both share the same identity Key
// and reports whether it did. A different kind yields ErrTypeMismatch and
// neither side is touched. A different key returns false with the receiver
// unchanged.
type Value interface {
	Kind() Kind
	Key() string
	Merge(other Value) (bool, error)
}

func typeMismatch(target Kind, other Value) error {
	got := "<nil>"
	if other != nil {
		got = string(other.Kind())
	}
	return errors.Wrapf(ErrTypeMismatch, "cannot merge %s into %s", got, target)
}

// absorber is the typed form of Merge used by the merge-or-append collections.
type absorber[T any] interface {
	absorb(other T) bool
}

// mergeOrAppend merges v into the first element that accepts it, or appends v.
func mergeOrAppend[T absorber[T]](items []T, v T) []T {
	for _, existing := range items {
		if existing.absorb(v) {
			return items
		}
	}
	return append(items, v)
}

const keySep = "\x1f"

func joinKey(parts ...string) string {
	return strings.Join(parts, keySep)
}

func formatFloat(f float64) string {
	return fmt.Sprintf("%.10g", f)
}

// addString inserts v into the sorted set ss.
func addString(ss []string, v string) []string {
	i := sort.SearchStrings(ss, v)
	if i < len(ss) && ss[i] == v {
		return ss
	}
	ss = append(ss, "")
	copy(ss[i+1:], ss[i:])
	ss[i] = v
	return ss
}

func addStrings(ss []string, vs ...string) []string {
	for _, v := range vs {
		ss = addString(ss, v)
	}
	return ss
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func cloneStrings(ss []string) []string {
	if ss == nil {
		return nil
	}
	return append([]string(nil), ss...)
}
