package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	DBAlex123      = "alex123"
	DBLipidMaps    = "lipidmaps"
	DBSwissLipids  = "swisslipids"
	DBHMDB         = "hmdb"
	DBPubChem      = "pubchem"
	DBChEBI        = "chebi"
	DBRhea         = "rhea"
	DBReactome     = "reactome"
	DBKEGG         = "kegg"
	DBWikiPathways = "wikipathways"
	DBUniProtKB    = "uniprotkb"
	DBMetaNetX     = "metanetx"
)

// DatabaseIdentifier is a record id inside one external database.
type DatabaseIdentifier struct {
	Database   string    `json:"database"`
	Identifier string    `json:"identifier"`
	Sources    SourceSet `json:"sources"`
}

func NewDatabaseIdentifier(database, identifier string, src Source) *DatabaseIdentifier {
	return &DatabaseIdentifier{Database: database, Identifier: identifier, Sources: NewSourceSet(src)}
}

func (d *DatabaseIdentifier) Kind() Kind  { return KindDatabaseIdentifier }
func (d *DatabaseIdentifier) Key() string { return joinKey(d.Database, d.Identifier) }

func (d *DatabaseIdentifier) Merge(other Value) (bool, error) {
	o, ok := other.(*DatabaseIdentifier)
	if !ok || o == nil {
		return false, typeMismatch(KindDatabaseIdentifier, other)
	}
	return d.absorb(o), nil
}

func (d *DatabaseIdentifier) absorb(o *DatabaseIdentifier) bool {
	if d.Database != o.Database || d.Identifier != o.Identifier {
		return false
	}
	d.Sources.Union(o.Sources)
	return true
}

func (d *DatabaseIdentifier) Clone() *DatabaseIdentifier {
	return &DatabaseIdentifier{Database: d.Database, Identifier: d.Identifier, Sources: d.Sources.Clone()}
}

// URL returns the public page for the identifier, or "" for unknown databases.
func (d *DatabaseIdentifier) URL() string {
	if d.Database == "" || d.Identifier == "" {
		return ""
	}
	id := d.Identifier
	switch d.Database {
	case DBAlex123:
		return d.alex123URL()
	case DBLipidMaps:
		return "https://lipidmaps.org/databases/lmsd/" + id
	case DBSwissLipids:
		return "http://www.swisslipids.org/#/entity/" + id
	case DBHMDB:
		return "https://hmdb.ca/metabolites/" + id
	case DBPubChem:
		return "https://pubchem.ncbi.nlm.nih.gov/compound/" + id
	case DBChEBI:
		if !strings.HasPrefix(id, "CHEBI:") {
			id = "CHEBI:" + id
		}
		return "https://www.ebi.ac.uk/chebi/searchId.do?chebiId=" + id
	case DBRhea:
		return "https://www.rhea-db.org/rhea/" + strings.TrimPrefix(id, "RHEA:")
	case DBReactome:
		return "https://reactome.org/content/detail/" + id
	case DBKEGG:
		return "https://www.kegg.jp/entry/" + id
	case DBWikiPathways:
		return "https://www.wikipathways.org/pathways/" + id + ".html"
	case DBUniProtKB:
		return "https://www.uniprot.org/uniprotkb/" + id + "/entry"
	case DBMetaNetX:
		return "https://www.metanetx.org/chem_info/" + id
	}
	return ""
}

// alex123URL links to the MS2 search for molecular species and the MS search
// for sum species, using the name recorded by the alex123 source.
func (d *DatabaseIdentifier) alex123URL() string {
	for _, src := range d.Sources.Slice() {
		if src.Origin != DBAlex123 {
			continue
		}
		name := strings.ReplaceAll(src.LipidName, " ", "%20")
		switch {
		case src.LipidLevel >= MolecularLipidSpecies:
			return fmt.Sprintf("http://alex123.info/ALEX123/MS2.php?type=MS2.php&ms=%s"+
				"&mstol=0.0100&mswin=0.0000&mscharge=1&adduct=50&ms2=&ms2tol=0.0100&ms2win=0.0000&submit_name=Submit", name)
		case src.LipidLevel >= SumLipidSpecies:
			return fmt.Sprintf("http://alex123.info/ALEX123/MS.php?type=MS.php&class=9999&ms=%s"+
				"&mstol=0.0100&mswin=0.0000&mscharge=50&adduct=50&submit_name=Submit", name)
		}
	}
	return ""
}

func (d *DatabaseIdentifier) MarshalJSON() ([]byte, error) {
	type view struct {
		Database   string    `json:"database"`
		Identifier string    `json:"identifier"`
		URL        string    `json:"url,omitempty"`
		Sources    SourceSet `json:"sources"`
	}
	return json.Marshal(view{Database: d.Database, Identifier: d.Identifier, URL: d.URL(), Sources: d.Sources})
}

func cloneDatabaseIdentifiers(ds []*DatabaseIdentifier) []*DatabaseIdentifier {
	out := make([]*DatabaseIdentifier, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Clone())
	}
	return out
}
