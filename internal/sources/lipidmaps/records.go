package lipidmaps

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"lipidlibrarian/internal/sources"
	"lipidlibrarian/pkg/models"
)

// record is one flat response object with every value as text.
type record map[string]string

// get returns the trimmed value of key; "-" marks a missing LMSD value.
func (r record) get(key string) string {
	v := strings.TrimSpace(r[key])
	if v == "-" {
		return ""
	}
	return v
}

type moverzRow = record

// parseCompounds decodes a compound response: "[]" when nothing matched, a
// single object, or an object of Row1..RowN objects.
func parseCompounds(body []byte) ([]record, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] == '[' {
		return nil, nil
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, errors.Wrap(err, "decode compound")
	}
	if _, ok := top["Row1"]; !ok {
		rec, err := decodeRecord(body)
		if err != nil {
			return nil, err
		}
		return []record{rec}, nil
	}

	keys := make([]string, 0, len(top))
	for k := range top {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return rowIndex(keys[i]) < rowIndex(keys[j]) })
	out := make([]record, 0, len(keys))
	for _, k := range keys {
		rec, err := decodeRecord(top[k])
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func rowIndex(key string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(key, "Row"))
	if err != nil {
		return int(^uint(0) >> 1)
	}
	return n
}

func decodeRecord(raw []byte) (record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, errors.Wrap(err, "decode compound row")
	}
	rec := make(record, len(m))
	for k, v := range m {
		switch v := v.(type) {
		case string:
			rec[k] = v
		case json.Number:
			rec[k] = v.String()
		}
	}
	return rec, nil
}

// parseCSV reads a headed CSV document into records.
func parseCSV(text string) ([]record, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "read csv")
	}
	if len(rows) < 2 {
		return nil, nil
	}
	header := rows[0]
	out := make([]record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(record, len(header))
		for i, h := range header {
			if i < len(row) {
				rec[strings.TrimSpace(h)] = row[i]
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

// parseMoverz reads the tab separated m/z search output. Lines carrying the
// surrounding <pre> markup and UNDEFINED hits are skipped.
func parseMoverz(text string) []moverzRow {
	var (
		header []string
		out    []moverzRow
	)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.Contains(line, "pre>") {
			continue
		}
		fields := strings.Split(line, "\t")
		if header == nil {
			for _, f := range fields {
				header = append(header, strings.TrimSpace(f))
			}
			continue
		}
		row := make(moverzRow, len(header))
		for i, h := range header {
			if i < len(fields) {
				row[h] = strings.TrimSpace(fields[i])
			}
		}
		if row.get("Name") == "UNDEFINED" {
			continue
		}
		out = append(out, row)
	}
	return out
}

// firstWord keeps the leading word of "Glycerophospholipids [GP]".
func firstWord(s string) string {
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i]
	}
	return s
}

func splitSynonyms(s string) []string {
	var out []string
	for _, part := range strings.Split(s, "; ") {
		if part = strings.TrimSpace(part); part != "" && part != "-" {
			out = append(out, part)
		}
	}
	return out
}

// field maps a response key to a database or structure type.
type field struct{ key, value string }

var (
	compoundIDs = []field{
		{"lm_id", models.DBLipidMaps},
		{"hmdb_id", models.DBHMDB},
		{"chebi_id", models.DBChEBI},
		{"pubchem_cid", models.DBPubChem},
		{"kegg_id", models.DBKEGG},
	}
	compoundStructures = []field{
		{"smiles", "smiles"},
		{"inchi", "inchi"},
		{"inchi_key", "inchikey"},
	}
	lmsdIDs = []field{
		{"LM_ID", models.DBLipidMaps},
		{"SWISSLIPIDS_ID", models.DBSwissLipids},
		{"HMDBID", models.DBHMDB},
		{"CHEBI_ID", models.DBChEBI},
		{"PUBCHEM_COMPOUND_ID", models.DBPubChem},
	}
)

func (c *Connector) compoundLipid(ctx context.Context, rec record) *models.Lipid {
	lipid := sources.NamedLipidFrom(ctx, c.namer,
		rec.get("name"), rec.get("sys_name"), rec.get("abbrev_chains"), rec.get("abbrev"))
	src := sources.RecordSource(lipid, models.FlavorLipidMaps, sources.LipidMaps)
	n := lipid.Nomenclature

	for _, key := range []string{"name", "sys_name", "abbrev_chains", "abbrev"} {
		if v := rec.get(key); v != "" {
			n.AddSynonym(models.NewSynonym(v, key, src))
		}
	}
	for _, s := range splitSynonyms(rec.get("synonyms")) {
		n.AddSynonym(models.NewSynonym(s, "synonym", src))
	}
	if v := rec.get("core"); v != "" {
		n.Category = firstWord(v)
	}
	if v := rec.get("main_class"); v != "" {
		n.Class = firstWord(v)
	}
	n.SumFormula = rec.get("formula")

	if v, err := strconv.ParseFloat(rec.get("exactmass"), 64); err == nil {
		lipid.AddMass(models.NewMass("monoisotopic", v, src))
	}
	for _, f := range compoundIDs {
		if v := rec.get(f.key); v != "" {
			lipid.AddDatabaseIdentifier(models.NewDatabaseIdentifier(f.value, v, src))
		}
	}
	for _, f := range compoundStructures {
		if v := rec.get(f.key); v != "" {
			n.AddStructureIdentifier(models.NewStructureIdentifier(v, f.value, src))
		}
	}
	return lipid
}

func (c *Connector) lmsdLipid(ctx context.Context, rec record) *models.Lipid {
	lipid := sources.NamedLipid(ctx, c.namer, rec.get("COMMON_NAME"))
	src := sources.RecordSource(lipid, models.FlavorLipidMaps, sources.LipidMaps)
	n := lipid.Nomenclature

	if v := rec.get("COMMON_NAME"); v != "" {
		n.AddSynonym(models.NewSynonym(v, "common_name", src))
	}
	if v := rec.get("SYSTEMATIC_NAME"); v != "" {
		n.AddSynonym(models.NewSynonym(v, "systematic_name", src))
	}
	for _, s := range splitSynonyms(rec.get("SYNONYMS")) {
		n.AddSynonym(models.NewSynonym(s, "synonym", src))
	}
	if v := rec.get("CATEGORY"); v != "" {
		n.Category = firstWord(v)
	}
	if v := rec.get("MAIN_CLASS"); v != "" {
		n.Class = firstWord(v)
	}
	n.SumFormula = rec.get("FORMULA")

	if v, err := strconv.ParseFloat(rec.get("MASS"), 64); err == nil {
		lipid.AddMass(models.NewMass("monoisotopic", v, src))
	}
	for _, f := range lmsdIDs {
		if v := rec.get(f.key); v != "" {
			lipid.AddDatabaseIdentifier(models.NewDatabaseIdentifier(f.value, v, src))
		}
	}
	return lipid
}

// moverzLipid converts one m/z hit. Neutral hits carry a monoisotopic mass,
// ion hits an adduct mass.
func (c *Connector) moverzLipid(ctx context.Context, row moverzRow) *models.Lipid {
	name := row.get("Name")
	if name == "" {
		return nil
	}
	lipid := sources.NamedLipid(ctx, c.namer, name)
	src := sources.RecordSource(lipid, models.FlavorLipidMaps, sources.LipidMaps)
	lipid.Nomenclature.SumFormula = row.get("Formula")

	matched, err := strconv.ParseFloat(row.get("Matched m/z"), 64)
	if err != nil {
		return lipid
	}
	ion := row.get("Ion")
	if strings.EqualFold(ion, "neutral") {
		lipid.AddMass(models.NewMass("monoisotopic", matched, src))
		return lipid
	}
	if i, j := strings.IndexByte(ion, '['), strings.IndexByte(ion, ']'); i >= 0 && j > i {
		ion = ion[i+1 : j]
	}
	if a, ok := c.catalog.Lookup(ion); ok {
		a.AddMass(models.NewMass("mass", matched, src))
		lipid.AddAdduct(a)
	}
	return lipid
}
