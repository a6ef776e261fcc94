// Package lion annotates lipids with terms of the LION lipid ontology and
// answers graph questions about those terms.
package lion

import (
	"bufio"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrNoData is returned when the association table or the graph is missing.
var ErrNoData = errors.New("lion data not available")

// Term is one node of the ontology graph.
type Term struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Parents []string `json:"parents,omitempty"`
}

// Edge points from a term to one of its is_a parents.
type Edge struct {
	Child  string `json:"child"`
	Parent string `json:"parent"`
}

// Ontology is the parsed association table and graph. It is read-only after
// construction and safe for concurrent use.
type Ontology struct {
	terms        map[string]*Term
	associations map[string][]string
}

// Load reads the association table and the OBO graph from disk.
func Load(associationPath, oboPath string) (*Ontology, error) {
	if associationPath == "" || oboPath == "" {
		return nil, errors.WithHint(ErrNoData, "set lion.association_path and lion.obo_path")
	}
	assoc, err := os.Open(associationPath)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "open association table"), ErrNoData)
	}
	defer assoc.Close()
	obo, err := os.Open(oboPath)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "open ontology graph"), ErrNoData)
	}
	defer obo.Close()
	return New(assoc, obo)
}

func New(associations, obo io.Reader) (*Ontology, error) {
	terms, err := ParseOBO(obo)
	if err != nil {
		return nil, err
	}
	assoc, err := ParseAssociations(associations)
	if err != nil {
		return nil, err
	}
	return &Ontology{terms: terms, associations: assoc}, nil
}

// ParseOBO reads the [Term] stanzas of an OBO document. Only id, name and
// is_a are kept; obsolete terms are skipped.
func ParseOBO(r io.Reader) (map[string]*Term, error) {
	terms := make(map[string]*Term)
	var (
		cur      *Term
		obsolete bool
		inTerm   bool
	)
	flush := func() {
		if inTerm && cur != nil && cur.ID != "" && !obsolete {
			terms[cur.ID] = cur
		}
		cur, obsolete, inTerm = nil, false, false
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "!") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			flush()
			if line == "[Term]" {
				inTerm, cur = true, &Term{}
			}
			continue
		}
		if !inTerm {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch key {
		case "id":
			cur.ID = value
		case "name":
			cur.Name = value
		case "is_a":
			if i := strings.Index(value, "!"); i >= 0 {
				value = strings.TrimSpace(value[:i])
			}
			if f := strings.Fields(value); len(f) > 0 {
				cur.Parents = append(cur.Parents, f[0])
			}
		case "is_obsolete":
			obsolete = value == "true"
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read obo")
	}
	flush()
	if len(terms) == 0 {
		return nil, errors.Wrap(ErrNoData, "obo graph has no terms")
	}
	return terms, nil
}

// ParseAssociations reads "lipid<TAB>term" rows. Extra columns are ignored.
func ParseAssociations(r io.Reader) (map[string][]string, error) {
	out := make(map[string][]string)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Split(sc.Text(), "\t")
		if len(fields) < 2 {
			continue
		}
		lipid, term := strings.TrimSpace(fields[0]), strings.TrimSpace(fields[1])
		if lipid == "" || term == "" {
			continue
		}
		out[lipid] = append(out[lipid], term)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read association table")
	}
	return out, nil
}

// Terms returns the terms associated with a lipid name or identifier.
func (o *Ontology) Terms(name string) []string {
	return append([]string(nil), o.associations[name]...)
}

// AncestorNodes returns terms together with every term reachable over is_a,
// sorted. Terms unknown to the graph are left out.
func (o *Ontology) AncestorNodes(terms []string) []string {
	seen := make(map[string]bool)
	stack := make([]string, 0, len(terms))
	for _, t := range terms {
		if _, ok := o.terms[t]; ok && !seen[t] {
			seen[t] = true
			stack = append(stack, t)
		}
	}
	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range o.terms[t].Parents {
			if _, ok := o.terms[p]; ok && !seen[p] {
				seen[p] = true
				stack = append(stack, p)
			}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Subgraph returns the is_a edges between the ancestor nodes of terms.
func (o *Ontology) Subgraph(terms []string) []Edge {
	var out []Edge
	for _, t := range o.AncestorNodes(terms) {
		for _, p := range o.terms[t].Parents {
			if _, ok := o.terms[p]; ok {
				out = append(out, Edge{Child: t, Parent: p})
			}
		}
	}
	return out
}

// NodeData maps every ancestor node of terms to its name.
func (o *Ontology) NodeData(terms []string) map[string]string {
	nodes := o.AncestorNodes(terms)
	out := make(map[string]string, len(nodes))
	for _, t := range nodes {
		out[t] = o.terms[t].Name
	}
	return out
}

// Size reports the number of graph terms and associated lipid keys.
func (o *Ontology) Size() (terms, lipids int) {
	return len(o.terms), len(o.associations)
}
