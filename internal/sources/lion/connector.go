package lion

import (
	"context"

	"go.uber.org/zap"

	"lipidlibrarian/internal/sources"
	"lipidlibrarian/pkg/logger"
	"lipidlibrarian/pkg/models"
)

// Connector is the LION enricher. It only answers QueryLipid.
type Connector struct {
	sources.Stub
	ontology *Ontology
	log      *zap.SugaredLogger
}

func NewConnector(o *Ontology, log *zap.SugaredLogger) *Connector {
	return &Connector{
		Stub:     *sources.NewStub(sources.Lion),
		ontology: o,
		log:      logger.Or(log, sources.Lion),
	}
}

func (c *Connector) Ontology() *Ontology { return c.ontology }

// QueryLipid looks up the structural and sum names in the LIPID MAPS flavor
// and every LIPID MAPS and SwissLipids id. The result is a skeleton of lipid
// carrying the found terms, or nothing when no lookup matched.
func (c *Connector) QueryLipid(_ context.Context, lipid *models.Lipid) ([]*models.Lipid, error) {
	out := lipid.Skeleton()
	found := false
	lookup := func(key string, src models.Source) {
		if key == "" {
			return
		}
		terms := c.ontology.Terms(key)
		if len(terms) == 0 {
			return
		}
		found = true
		out.Ontology.AddTerms(terms...)
		out.Ontology.AddSource(src)
	}

	for _, level := range []models.Level{models.StructuralLipidSpecies, models.SumLipidSpecies} {
		name := lipid.Nomenclature.NameAt(level, models.FlavorLipidMaps)
		lookup(name, models.NewSource(name, level, sources.Lion))
	}
	for _, db := range []string{models.DBLipidMaps, models.DBSwissLipids} {
		for _, id := range lipid.DatabaseIdentifiersFor(db) {
			src := models.NewSource(lipid.Name(), lipid.Level(), sources.Lion)
			if ss := id.Sources.Slice(); len(ss) > 0 {
				src = models.NewSource(ss[0].LipidName, ss[0].LipidLevel, sources.Lion)
			}
			lookup(id.Identifier, src)
		}
	}

	if !found {
		return nil, nil
	}
	c.log.Debugw("annotated", logger.FieldQuery, lipid.Name(), logger.FieldCount, len(out.Ontology.Terms))
	return []*models.Lipid{out}, nil
}
