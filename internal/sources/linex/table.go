// Package linex annotates lipids with class-level reactions from a LINEX
// style reaction table.
package linex

import (
	"bytes"
	_ "embed"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

//go:embed reactions.yaml
var defaultTable []byte

// Reaction is one class-level reaction of the table.
type Reaction struct {
	Type           string   `yaml:"type"`
	Substrates     []string `yaml:"substrates"`
	Products       []string `yaml:"products"`
	EnzymeIDs      []string `yaml:"enzyme_ids"`
	GeneNames      []string `yaml:"gene_names"`
	UniProt        []string `yaml:"uniprot"`
	NLParticipants []string `yaml:"nl_participants"`
}

func (r Reaction) involves(class string) bool {
	return slices.Contains(r.Substrates, class) || slices.Contains(r.Products, class)
}

type Table struct {
	ReferenceClasses []string   `yaml:"reference_classes"`
	Reactions        []Reaction `yaml:"reactions"`

	byClass map[string][]int
}

// DefaultTable parses the embedded table.
func DefaultTable() (*Table, error) {
	return ParseTable(bytes.NewReader(defaultTable))
}

// LoadTable reads the table at path, or the embedded one when path is empty.
func LoadTable(path string) (*Table, error) {
	if path == "" {
		return DefaultTable()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open linex table")
	}
	defer f.Close()
	return ParseTable(f)
}

func ParseTable(r io.Reader) (*Table, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var t Table
	if err := dec.Decode(&t); err != nil {
		return nil, errors.Wrap(err, "decode linex table")
	}
	for i := range t.Reactions {
		rx := &t.Reactions[i]
		rx.Substrates = clean(rx.Substrates)
		rx.Products = clean(rx.Products)
		rx.EnzymeIDs = clean(rx.EnzymeIDs)
		rx.GeneNames = clean(rx.GeneNames)
		rx.UniProt = clean(rx.UniProt)
		rx.NLParticipants = clean(rx.NLParticipants)
	}
	t.index()
	return &t, nil
}

func (t *Table) index() {
	t.byClass = make(map[string][]int, len(t.ReferenceClasses))
	for _, class := range t.ReferenceClasses {
		for i, rx := range t.Reactions {
			if rx.involves(class) {
				t.byClass[class] = append(t.byClass[class], i)
			}
		}
	}
}

// ForClass returns the reactions a reference class takes part in.
func (t *Table) ForClass(class string) []Reaction {
	idx := t.byClass[class]
	out := make([]Reaction, 0, len(idx))
	for _, i := range idx {
		out = append(out, t.Reactions[i])
	}
	return out
}

// clean trims tokens and drops empty and NaN placeholders left by table exports.
func clean(tokens []string) []string {
	out := tokens[:0]
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		switch strings.ToLower(tok) {
		case "", "nan":
			continue
		}
		out = append(out, tok)
	}
	return out
}
