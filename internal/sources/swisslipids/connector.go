// Package swisslipids queries the SwissLipids knowledge base API.
package swisslipids

import (
	"context"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"lipidlibrarian/internal/adducts"
	"lipidlibrarian/internal/sources"
	"lipidlibrarian/pkg/logger"
	"lipidlibrarian/pkg/models"
)

const DefaultBaseURL = "https://www.swisslipids.org"

// hierarchy lists the SwissLipids classification levels from least to most specific.
var hierarchy = []string{"Species", "Molecular subspecies", "Structural subspecies", "Isomeric subspecies"}

// classification maps a lipid level to the SwissLipids level searched for it.
func classification(level models.Level) (string, bool) {
	switch level {
	case models.LevelUnknown, models.SumLipidSpecies:
		return hierarchy[0], true
	case models.MolecularLipidSpecies:
		return hierarchy[1], true
	case models.StructuralLipidSpecies:
		return hierarchy[2], true
	case models.IsomericLipidSpecies:
		return hierarchy[3], true
	}
	return "", false
}

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
		log:     logger.Or(log, sources.SwissLipids),
	}
}

func (c *Connector) Name() string { return sources.SwissLipids }

// QueryLipid looks up the lipid's SwissLipids and LIPID MAPS ids and its name.
func (c *Connector) QueryLipid(ctx context.Context, lipid *models.Lipid) ([]*models.Lipid, error) {
	var out []*models.Lipid
	for _, db := range []string{models.DBSwissLipids, models.DBLipidMaps} {
		for _, id := range lipid.DatabaseIdentifiersFor(db) {
			found, err := c.QueryID(ctx, id.Identifier)
			if err != nil {
				return nil, err
			}
			out = append(out, found...)
		}
	}
	found, err := c.QueryName(ctx, lipid.Nomenclature.FlavoredName(models.FlavorSwissLipids), lipid.Level())
	if err != nil {
		return nil, err
	}
	out = append(out, found...)
	c.log.Debugw("lipid lookup", logger.FieldQuery, lipid.Name(), logger.FieldCount, len(out))
	return out, nil
}

// QueryID fetches SLM ids directly and resolves any other id through the
// search endpoint.
func (c *Connector) QueryID(ctx context.Context, identifier string) ([]*models.Lipid, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, nil
	}
	if strings.HasPrefix(identifier, "SLM:") {
		return c.entities(ctx, []string{identifier})
	}
	ids, err := c.search(ctx, identifier, nil)
	if err != nil {
		return nil, err
	}
	return c.entities(ctx, ids)
}

// QueryName searches name and keeps the hits classified at the level's
// SwissLipids equivalent.
func (c *Connector) QueryName(ctx context.Context, name string, level models.Level) ([]*models.Lipid, error) {
	name = strings.TrimSpace(name)
	want, ok := classification(level)
	if name == "" || !ok {
		return nil, nil
	}
	ids, err := c.search(ctx, name, []string{want})
	if err != nil {
		return nil, err
	}
	return c.entities(ctx, ids)
}

// QueryMZ runs one advanced search per SwissLipids adduct abbreviation and
// keeps species level hits and everything below.
func (c *Connector) QueryMZ(ctx context.Context, mz, tolerance float64, ions []*models.Adduct, cutoff int) ([]*models.Lipid, error) {
	if !sources.ValidMZ(mz, tolerance) {
		return nil, nil
	}
	var (
		ids  []string
		seen = map[string]bool{}
		done = map[string]bool{}
	)
	for _, a := range ions {
		abbrev := a.SwissLipidsAbbrev
		if abbrev == "" || done[abbrev] {
			continue
		}
		done[abbrev] = true

		q := url.Values{
			"mz":            {formatFloat(mz)},
			"adduct":        {abbrev},
			"massErrorRate": {formatFloat(tolerance)},
		}
		var hits []searchHit
		if err := c.getJSON(ctx, "/api/advancedSearch", q, &hits); err != nil {
			return nil, err
		}
		for _, id := range filterHits(hits, hierarchy) {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	out, err := c.entities(ctx, sources.Sample(ids, cutoff))
	if err != nil {
		return nil, err
	}
	c.log.Debugw("mz lookup", logger.FieldQuery, mz, logger.FieldCount, len(out))
	return out, nil
}

// search returns the entity ids of hits for term whose classification level
// is in levels. Nil levels keep every hit.
func (c *Connector) search(ctx context.Context, term string, levels []string) ([]string, error) {
	var hits []searchHit
	if err := c.getJSON(ctx, "/api/search", url.Values{"term": {term}}, &hits); err != nil {
		return nil, err
	}
	return filterHits(hits, levels), nil
}

func filterHits(hits []searchHit, levels []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, h := range hits {
		if h.EntityID == "" || h.EntityID == "-" || seen[h.EntityID] {
			continue
		}
		if levels != nil && !slices.Contains(levels, h.ClassificationLevel) {
			continue
		}
		seen[h.EntityID] = true
		out = append(out, h.EntityID)
	}
	return out
}

func (c *Connector) entities(ctx context.Context, ids []string) ([]*models.Lipid, error) {
	out := make([]*models.Lipid, 0, len(ids))
	for _, id := range ids {
		if id == "" || id == "-" {
			continue
		}
		var e entity
		if err := c.getJSON(ctx, "/api/entity/"+url.PathEscape(id), nil, &e); err != nil {
			return nil, err
		}
		if e.EntityID == "" && e.EntityName == "" {
			continue
		}
		out = append(out, c.lipid(ctx, &e))
	}
	return out, nil
}

// getJSON decodes the response into v. A missing resource leaves v untouched.
func (c *Connector) getJSON(ctx context.Context, path string, q url.Values, v any) error {
	return sources.IgnoreNotFound(c.http.GetJSON(ctx, path, q, v))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
