// Package render writes query results as JSON, YAML, text or CSV.
package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"lipidlibrarian/pkg/models"
)

type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
	Text Format = "text"
	CSV  Format = "csv"
)

var ErrUnknownFormat = errors.New("unknown output format")

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return JSON, nil
	case "yml":
		return YAML, nil
	case "txt":
		return Text, nil
	case JSON, YAML, Text, CSV:
		return f, nil
	}
	return "", errors.WithHint(errors.Wrapf(ErrUnknownFormat, "%q", s), "use json, yaml, text or csv")
}

// Extension is the file suffix used when results are written to a directory.
func (f Format) Extension() string {
	if f == Text {
		return "txt"
	}
	return string(f)
}

var csvHeader = []string{
	"query", "name", "level", "category", "class", "sum_formula",
	"masses", "database_ids", "ontology_terms", "reactions",
}

// Write renders lipids to w in format f.
func Write(w io.Writer, f Format, lipids []*models.Lipid) error {
	if lipids == nil {
		lipids = []*models.Lipid{}
	}
	switch f {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(lipids), "encode json")
	case YAML:
		return writeYAML(w, lipids)
	case Text:
		for _, l := range lipids {
			if _, err := fmt.Fprintln(w, Summary(l)); err != nil {
				return err
			}
		}
		return nil
	case CSV:
		return writeCSV(w, lipids)
	}
	return errors.Wrapf(ErrUnknownFormat, "%q", f)
}

// writeYAML goes through the JSON form so both formats share one schema.
func writeYAML(w io.Writer, lipids []*models.Lipid) error {
	raw, err := json.Marshal(lipids)
	if err != nil {
		return errors.Wrap(err, "encode json")
	}
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return errors.Wrap(err, "decode json")
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(tree); err != nil {
		return errors.Wrap(err, "encode yaml")
	}
	return enc.Close()
}

func writeCSV(w io.Writer, lipids []*models.Lipid) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, l := range lipids {
		terms := 0
		if l.Ontology != nil {
			terms = len(l.Ontology.Terms)
		}
		if err := cw.Write([]string{
			l.Query,
			l.DisplayName(),
			levelName(l),
			l.Nomenclature.Category,
			l.Nomenclature.Class,
			l.Nomenclature.SumFormula,
			masses(l),
			identifiers(l),
			strconv.Itoa(terms),
			strconv.Itoa(len(l.Reactions)),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Summary is the one-line text form of a lipid.
func Summary(l *models.Lipid) string {
	var b strings.Builder
	b.WriteString(l.DisplayName())
	fmt.Fprintf(&b, " [%s]", levelName(l))
	if c := l.Nomenclature.Class; c != "" {
		fmt.Fprintf(&b, " class=%s", c)
	}
	if f := l.Nomenclature.SumFormula; f != "" {
		fmt.Fprintf(&b, " formula=%s", f)
	}
	if m := masses(l); m != "" {
		fmt.Fprintf(&b, " masses=%s", m)
	}
	if ids := identifiers(l); ids != "" {
		fmt.Fprintf(&b, " ids=%s", ids)
	}
	if l.Ontology != nil && len(l.Ontology.Terms) > 0 {
		fmt.Fprintf(&b, " ontology_terms=%d", len(l.Ontology.Terms))
	}
	if len(l.Reactions) > 0 {
		fmt.Fprintf(&b, " reactions=%d", len(l.Reactions))
	}
	if len(l.Adducts) > 0 {
		fmt.Fprintf(&b, " adducts=%d", len(l.Adducts))
	}
	return b.String()
}

func levelName(l *models.Lipid) string {
	if l.Level() == models.LevelUnknown {
		return ""
	}
	return l.Level().String()
}

// masses joins "type:value" pairs in record order.
func masses(l *models.Lipid) string {
	parts := make([]string, 0, len(l.Masses))
	for _, m := range l.Masses {
		parts = append(parts, m.Type+":"+strconv.FormatFloat(m.Value, 'f', -1, 64))
	}
	return strings.Join(parts, ";")
}

// identifiers joins "database:id" pairs sorted for stable output.
func identifiers(l *models.Lipid) string {
	parts := make([]string, 0, len(l.DatabaseIdentifiers))
	for _, d := range l.DatabaseIdentifiers {
		parts = append(parts, d.Database+":"+d.Identifier)
	}
	sort.Strings(parts)
	return strings.Join(parts, ";")
}

// FileName turns a raw query into a file name inside an output directory.
func FileName(query string, f Format) string {
	name := strings.TrimSpace(query)
	name = strings.NewReplacer("/", "+", "\\", "+").Replace(name)
	if name == "" || name == "." || name == ".." {
		name = "query"
	}
	return name + "." + f.Extension()
}

// WriteFile renders lipids into dir, creating it if needed, and returns the
// written path.
func WriteFile(dir, query string, f Format, lipids []*models.Lipid) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "create output directory %s", dir)
	}
	path := filepath.Join(dir, FileName(query, f))
	out, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "create %s", path)
	}
	if err := Write(out, f, lipids); err != nil {
		_ = out.Close()
		return "", err
	}
	return path, errors.Wrapf(out.Close(), "close %s", path)
}
