// Package alex123 answers lipid queries from a local ALEX123 SQLite database
// of sum and molecular species with their MS2 fragments.
package alex123

import (
	"context"
	"database/sql"
	"math"
	"strings"

	"go.uber.org/zap"

	"lipidlibrarian/internal/adducts"
	"lipidlibrarian/internal/sources"
	"lipidlibrarian/pkg/logger"
	"lipidlibrarian/pkg/models"
)

type Connector struct {
	repo    *Repo
	namer   sources.Namer
	catalog *adducts.Catalog
	log     *zap.SugaredLogger
}

func New(db *sql.DB, namer sources.Namer, catalog *adducts.Catalog, log *zap.SugaredLogger) *Connector {
	if catalog == nil {
		catalog = adducts.Default()
	}
	return &Connector{
		repo:    NewRepo(db),
		namer:   namer,
		catalog: catalog,
		log:     logger.Or(log, sources.Alex123),
	}
}

func (c *Connector) Name() string { return sources.Alex123 }

func (c *Connector) QueryLipid(ctx context.Context, lipid *models.Lipid) ([]*models.Lipid, error) {
	var (
		out []*models.Lipid
		err error
	)
	switch level := lipid.Level(); {
	case level >= models.MolecularLipidSpecies:
		out, err = c.QueryName(ctx, lipid.Nomenclature.NameAt(models.MolecularLipidSpecies, models.FlavorAlex123), models.MolecularLipidSpecies)
	case level >= models.SumLipidSpecies:
		out, err = c.QueryName(ctx, lipid.Nomenclature.NameAt(models.SumLipidSpecies, models.FlavorAlex123), models.SumLipidSpecies)
	}
	if err != nil {
		return nil, err
	}
	c.log.Debugw("lipid lookup", logger.FieldQuery, lipid.Name(), logger.FieldCount, len(out))
	return out, nil
}

// QueryName looks name up at the sum or molecular level. Other levels are
// not stored in ALEX123.
func (c *Connector) QueryName(ctx context.Context, name string, level models.Level) ([]*models.Lipid, error) {
	name = models.FlavorAlex123.Apply(strings.TrimSpace(name))
	if name == "" {
		return nil, nil
	}
	switch level {
	case models.SumLipidSpecies:
		rows, err := c.repo.SumSpeciesByName(ctx, []string{name})
		if err != nil {
			return nil, err
		}
		out := make([]*models.Lipid, 0, len(rows))
		for _, row := range rows {
			out = append(out, c.sumLipid(ctx, row))
		}
		return out, nil
	case models.MolecularLipidSpecies:
		rows, err := c.repo.MolecularSpeciesByName(ctx, []string{name})
		if err != nil {
			return nil, err
		}
		return c.molecularLipids(ctx, rows)
	}
	return nil, nil
}

// QueryMZ finds molecular species whose neutral mass is within the largest
// adduct shift plus tolerance of mz and that were measured as one of adducts.
func (c *Connector) QueryMZ(ctx context.Context, mz, tolerance float64, ions []*models.Adduct, cutoff int) ([]*models.Lipid, error) {
	if !sources.ValidMZ(mz, tolerance) || len(ions) == 0 {
		return nil, nil
	}
	window := adducts.MaxAbsMass(ions) + tolerance
	rows, err := c.repo.MolecularSpeciesByMass(ctx, mz-window, mz+window, adducts.Names(ions))
	if err != nil {
		return nil, err
	}
	rows = sources.Sample(rows, cutoff)
	out, err := c.molecularLipids(ctx, rows)
	if err != nil {
		return nil, err
	}
	c.log.Debugw("mz lookup", logger.FieldQuery, mz, logger.FieldCount, len(out))
	return out, nil
}

// QueryID is not supported: ALEX123 has no public identifiers.
func (c *Connector) QueryID(context.Context, string) ([]*models.Lipid, error) {
	return nil, nil
}

func (c *Connector) sumLipid(ctx context.Context, row SpeciesRow) *models.Lipid {
	return c.record(ctx, row.SumName, row)
}

func (c *Connector) molecularLipids(ctx context.Context, rows []SpeciesRow) ([]*models.Lipid, error) {
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.MolecularID)
	}
	fragments, err := c.repo.FragmentsBySpecies(ctx, ids)
	if err != nil {
		return nil, err
	}
	bySpecies := make(map[int64][]FragmentRow, len(rows))
	for _, f := range fragments {
		bySpecies[f.MolecularID] = append(bySpecies[f.MolecularID], f)
	}

	out := make([]*models.Lipid, 0, len(rows))
	for _, row := range rows {
		lipid := c.record(ctx, row.MolecularName, row)
		src := sources.RecordSource(lipid, models.FlavorAlex123, sources.Alex123)
		for _, f := range bySpecies[row.MolecularID] {
			lipid.AddAdduct(c.adduct(row.SumMass, f, src))
		}
		out = append(out, lipid)
	}
	return out, nil
}

// record builds the common part of every result: names, class, category,
// identifier and neutral mass.
func (c *Connector) record(ctx context.Context, dbName string, row SpeciesRow) *models.Lipid {
	lipid := sources.NamedLipid(ctx, c.namer, strings.ReplaceAll(dbName, "-", "_"))
	src := sources.RecordSource(lipid, models.FlavorAlex123, sources.Alex123)

	lipid.Nomenclature.AddSynonym(models.NewSynonym(dbName, "result", src))
	lipid.Nomenclature.Category = row.CategoryName
	lipid.Nomenclature.Class = row.ClassName
	lipid.AddDatabaseIdentifier(models.NewDatabaseIdentifier(models.DBAlex123, dbName, src))
	lipid.AddMass(models.NewMass("neutral", row.SumMass, src))
	return lipid
}

func (c *Connector) adduct(neutral float64, f FragmentRow, src models.Source) *models.Adduct {
	a, ok := c.catalog.Lookup(f.AdductName)
	if !ok {
		a = &models.Adduct{Name: f.AdductName, AdductMass: f.AdductMass, Charge: f.AdductCharge}
	}
	a.AddMass(models.NewMass("exact", round6(neutral+a.AdductMass), src))
	a.AddFragment(&models.Fragment{
		Name:       f.Name,
		SumFormula: f.SumFormula,
		Masses:     []*models.Mass{models.NewMass("exact", round6(f.Mass), src)},
	})
	return a
}

func round6(f float64) float64 {
	return math.Round(f*1e6) / 1e6
}
