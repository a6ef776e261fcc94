// Package lipidmaps queries the LIPID MAPS Structure Database over its REST
// interface.
package lipidmaps

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"lipidlibrarian/internal/adducts"
	"lipidlibrarian/internal/sources"
	"lipidlibrarian/pkg/logger"
	"lipidlibrarian/pkg/models"
)

const DefaultBaseURL = "https://www.lipidmaps.org"

type Connector struct {
	http    *sources.HTTPClient
	namer   sources.Namer
	catalog *adducts.Catalog
	log     *zap.SugaredLogger
}

func New(client *sources.HTTPClient, namer sources.Namer, catalog *adducts.Catalog, log *zap.SugaredLogger) *Connector {
	if catalog == nil {
		catalog = adducts.Default()
	}
	return &Connector{
		http:    client,
		namer:   namer,
		catalog: catalog,
		log:     logger.Or(log, sources.LipidMaps),
	}
}

func (c *Connector) Name() string { return sources.LipidMaps }

// QueryLipid looks up every LIPID MAPS id the lipid carries and its name.
func (c *Connector) QueryLipid(ctx context.Context, lipid *models.Lipid) ([]*models.Lipid, error) {
	var out []*models.Lipid
	for _, id := range lipid.DatabaseIdentifiersFor(models.DBLipidMaps) {
		found, err := c.QueryID(ctx, id.Identifier)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	found, err := c.QueryName(ctx, lipid.Nomenclature.FlavoredName(models.FlavorLipidMaps), lipid.Level())
	if err != nil {
		return nil, err
	}
	out = append(out, found...)
	c.log.Debugw("lipid lookup", logger.FieldQuery, lipid.Name(), logger.FieldCount, len(out))
	return out, nil
}

// QueryID returns the compound record and the LMSD record of a LIPID MAPS id.
func (c *Connector) QueryID(ctx context.Context, identifier string) ([]*models.Lipid, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, nil
	}
	out, err := c.compound(ctx, "lm_id", identifier)
	if err != nil {
		return nil, err
	}
	record, err := c.lmsdRecord(ctx, identifier)
	if err != nil {
		return nil, err
	}
	return append(out, record...), nil
}

// QueryName searches by chain abbreviation for structural names and through
// the LMSD name search for isomeric names. LevelUnknown tries both.
func (c *Connector) QueryName(ctx context.Context, name string, level models.Level) ([]*models.Lipid, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	var out []*models.Lipid
	if level == models.LevelUnknown || level == models.StructuralLipidSpecies {
		found, err := c.compound(ctx, "abbrev_chains", name)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	if level == models.LevelUnknown || level == models.IsomericLipidSpecies {
		found, err := c.search(ctx, url.Values{"Name": {name}})
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	return out, nil
}

// QueryMZ sends one m/z search per adduct that LIPID MAPS knows and samples
// the combined rows when cutoff is set.
func (c *Connector) QueryMZ(ctx context.Context, mz, tolerance float64, ions []*models.Adduct, cutoff int) ([]*models.Lipid, error) {
	if !sources.ValidMZ(mz, tolerance) {
		return nil, nil
	}
	var rows []moverzRow
	for _, a := range ions {
		if a.LipidMapsName == "" {
			continue
		}
		path := "/rest/moverz/LIPIDS/" + formatFloat(mz) + "/" + url.PathEscape(a.LipidMapsName) + "/" + formatFloat(tolerance) + "/txt"
		body, err := c.http.Get(ctx, path, nil)
		if err != nil {
			if sources.IgnoreNotFound(err) == nil {
				continue
			}
			return nil, err
		}
		if strings.HasPrefix(string(body), "Internal error:") {
			c.log.Debugw("mz search rejected", logger.FieldQuery, mz, "adduct", a.Name)
			continue
		}
		rows = append(rows, parseMoverz(string(body))...)
	}
	rows = sources.Sample(rows, cutoff)

	out := make([]*models.Lipid, 0, len(rows))
	for _, row := range rows {
		if l := c.moverzLipid(ctx, row); l != nil {
			out = append(out, l)
		}
	}
	c.log.Debugw("mz lookup", logger.FieldQuery, mz, logger.FieldCount, len(out))
	return out, nil
}

func (c *Connector) compound(ctx context.Context, item, term string) ([]*models.Lipid, error) {
	body, err := c.http.Get(ctx, "/rest/compound/"+item+"/"+url.PathEscape(term)+"/all/json", nil)
	if err != nil {
		return nil, sources.IgnoreNotFound(err)
	}
	records, err := parseCompounds(body)
	if err != nil {
		c.log.Debugw("unreadable compound response", logger.FieldQuery, term, logger.FieldError, err)
		return nil, nil
	}
	out := make([]*models.Lipid, 0, len(records))
	for _, rec := range records {
		out = append(out, c.compoundLipid(ctx, rec))
	}
	return out, nil
}

func (c *Connector) lmsdRecord(ctx context.Context, identifier string) ([]*models.Lipid, error) {
	body, err := c.http.Get(ctx, "/databases/lmsd/"+url.PathEscape(identifier), url.Values{"format": {"csv"}})
	if err != nil {
		return nil, sources.IgnoreNotFound(err)
	}
	records, err := parseCSV(string(body))
	if err != nil || len(records) == 0 {
		return nil, nil
	}
	return []*models.Lipid{c.lmsdLipid(ctx, records[0])}, nil
}

// search runs an LMSD structure search and fetches the compound of every hit.
func (c *Connector) search(ctx context.Context, terms url.Values) ([]*models.Lipid, error) {
	q := url.Values{
		"Mode":               {"ProcessStrSearch"},
		"OutputMode":         {"File"},
		"OutputType":         {"CSV"},
		"OutputColumnHeader": {"Yes"},
	}
	for k, v := range terms {
		q[k] = v
	}
	body, err := c.http.Get(ctx, "/data/structure/LMSDSearch.php", q)
	if err != nil {
		return nil, sources.IgnoreNotFound(err)
	}
	text := string(body)
	if i := strings.LastIndex(text, "</style>"); i >= 0 {
		text = text[i+len("</style>"):]
	}
	records, err := parseCSV(strings.TrimSpace(text))
	if err != nil {
		return nil, nil
	}

	var out []*models.Lipid
	for _, rec := range records {
		id := rec.get("LM_ID")
		if id == "" {
			continue
		}
		found, err := c.compound(ctx, "lm_id", id)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	return out, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
