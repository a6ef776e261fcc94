package swisslipids

import (
	"bytes"
	"context"
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"lipidlibrarian/internal/sources"
	"lipidlibrarian/pkg/models"
)

// text accepts a JSON string or number.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = text(s)
		return nil
	}
	*t = text(b)
	return nil
}

func (t text) float() (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(string(t)), 64)
	return f, err == nil
}

type searchHit struct {
	EntityID            string `json:"entity_id"`
	EntityName          string `json:"entity_name"`
	ClassificationLevel string `json:"classification_level"`
}

type entity struct {
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name"`
	Synonyms   []struct {
		Name   string `json:"name"`
		Type   string `json:"type"`
		Source string `json:"source"`
	} `json:"synonyms"`
	ChemicalData *struct {
		Formula string          `json:"formula"`
		Mass    *text           `json:"mass"`
		MZ      map[string]text `json:"mz"`
	} `json:"chemical_data"`
	Structures *struct {
		SMILES   string `json:"smiles"`
		InChI    string `json:"inchi"`
		InChIKey string `json:"inchikey"`
	} `json:"structures"`
	Xrefs     []json.RawMessage         `json:"xrefs"`
	Reactions map[string]entityReaction `json:"reactions"`
}

type entityReaction struct {
	Reaction *struct {
		Rhea *rheaReaction `json:"rhea"`
	} `json:"reaction"`
	Enzymes []struct {
		UniProtKB text `json:"enzyme_uniprotkb_id"`
	} `json:"enzymes"`
}

type rheaReaction struct {
	ID        text                   `json:"rhea_id"`
	Direction string                 `json:"rhea_direction"`
	Reactants map[string]participant `json:"rhea_reactants"`
	Products  map[string]participant `json:"rhea_products"`
}

type participant struct {
	Name string `json:"name"`
}

type xref struct {
	Source string `json:"source"`
	ID     text   `json:"id"`
}

var xrefDatabases = map[string]string{
	"ChEBI":     models.DBChEBI,
	"LipidMaps": models.DBLipidMaps,
	"HMDB":      models.DBHMDB,
	"MetaNetX":  models.DBMetaNetX,
}

var markup = regexp.MustCompile(`</?[A-Za-z]+>`)

// lipid maps an entity onto the lipid model. The SwissLipids abbreviation
// names the lipid; the entity name is the fallback.
func (c *Connector) lipid(ctx context.Context, e *entity) *models.Lipid {
	candidates := make([]string, 0, 2)
	for _, s := range e.Synonyms {
		if s.Type == "abbreviation" && s.Source == "SwissLipids" {
			candidates = append(candidates, s.Name)
			break
		}
	}
	candidates = append(candidates, e.EntityName)
	lipid := sources.NamedLipidFrom(ctx, c.namer, candidates...)
	src := sources.RecordSource(lipid, models.FlavorSwissLipids, sources.SwissLipids)
	n := lipid.Nomenclature

	if e.EntityName != "" {
		n.AddSynonym(models.NewSynonym(e.EntityName, "entity_name", src))
	}
	for _, s := range e.Synonyms {
		if s.Name != "" {
			n.AddSynonym(models.NewSynonym(s.Name, s.Type, src))
		}
	}

	if st := e.Structures; st != nil {
		if st.SMILES != "" {
			n.AddStructureIdentifier(models.NewStructureIdentifier(st.SMILES, "smiles", src))
		}
		if st.InChI != "" && st.InChI != "InChI=none" {
			n.AddStructureIdentifier(models.NewStructureIdentifier(st.InChI, "inchi", src))
		}
		if key := strings.TrimPrefix(st.InChIKey, "InChIKey="); key != "" && key != "none" {
			n.AddStructureIdentifier(models.NewStructureIdentifier(key, "inchikey", src))
		}
	}

	if e.EntityID != "" {
		lipid.AddDatabaseIdentifier(models.NewDatabaseIdentifier(models.DBSwissLipids, e.EntityID, src))
	}
	for _, raw := range e.Xrefs {
		var x xref
		if json.Unmarshal(raw, &x) != nil || x.ID == "" {
			continue
		}
		if db, ok := xrefDatabases[x.Source]; ok {
			lipid.AddDatabaseIdentifier(models.NewDatabaseIdentifier(db, string(x.ID), src))
		}
	}

	if cd := e.ChemicalData; cd != nil {
		n.SumFormula = cd.Formula
		if cd.Mass != nil {
			if v, ok := cd.Mass.float(); ok {
				lipid.AddMass(models.NewMass("mass", v, src))
			}
		}
		c.addMZ(lipid, cd.MZ, src)
	}

	ids := make([]string, 0, len(e.Reactions))
	for id := range e.Reactions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		lipid.AddReaction(reaction(id, e.Reactions[id], src))
	}
	return lipid
}

func (c *Connector) addMZ(lipid *models.Lipid, mz map[string]text, src models.Source) {
	names := make([]string, 0, len(mz))
	for name := range mz {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v, ok := mz[name].float()
		if !ok {
			continue
		}
		switch name {
		case "[M.]+":
			lipid.AddMass(models.NewMass("mass_without_adduct", v, src))
		case "exact mass":
			lipid.AddMass(models.NewMass("exact_mass", v, src))
		default:
			if a, ok := c.catalog.Lookup(name); ok {
				a.AddMass(models.NewMass("mass", v, src))
				lipid.AddAdduct(a)
			}
		}
	}
}

func reaction(id string, er entityReaction, src models.Source) *models.Reaction {
	r := models.NewReaction()
	r.AddDatabaseIdentifier(models.NewDatabaseIdentifier(models.DBSwissLipids, id, src))
	if er.Reaction != nil && er.Reaction.Rhea != nil {
		rhea := er.Reaction.Rhea
		if rhea.ID != "" {
			r.AddDatabaseIdentifier(models.NewDatabaseIdentifier(models.DBRhea, string(rhea.ID), src))
		}
		r.Direction = rhea.Direction
		if r.Direction == "" {
			r.Direction = "="
		}
		r.AddSubstrates(participants(rhea.Reactants)...)
		r.AddProducts(participants(rhea.Products)...)
	}
	for _, enz := range er.Enzymes {
		if enz.UniProtKB != "" {
			r.AddDatabaseIdentifier(models.NewDatabaseIdentifier(models.DBUniProtKB, string(enz.UniProtKB), src))
		}
	}
	return r
}

// participants returns the markup-free names in key order.
func participants(m map[string]participant) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if name := strings.TrimSpace(markup.ReplaceAllString(m[k].Name, "")); name != "" {
			out = append(out, name)
		}
	}
	return out
}
