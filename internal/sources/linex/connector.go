package linex

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"lipidlibrarian/internal/sources"
	"lipidlibrarian/pkg/logger"
	"lipidlibrarian/pkg/models"
)

// Connector is the LINEX enricher. It only answers QueryLipid.
type Connector struct {
	sources.Stub
	table *Table
	log   *zap.SugaredLogger
}

func NewConnector(t *Table, log *zap.SugaredLogger) *Connector {
	return &Connector{
		Stub:  *sources.NewStub(sources.Linex),
		table: t,
		log:   logger.Or(log, sources.Linex),
	}
}

// QueryLipid returns a skeleton of lipid carrying every reaction of its class,
// or nothing when the class has none.
func (c *Connector) QueryLipid(_ context.Context, lipid *models.Lipid) ([]*models.Lipid, error) {
	class := lipid.Nomenclature.ClassAbbreviation()
	if class == "" {
		return nil, nil
	}
	reactions := c.table.ForClass(class)
	if len(reactions) == 0 {
		c.log.Debugw("no reactions for class", "class", class)
		return nil, nil
	}

	src := models.NewSource(class, models.LipidClass, sources.Linex)
	out := lipid.Skeleton()
	for _, rx := range reactions {
		out.AddReaction(convert(rx, src))
	}
	c.log.Debugw("annotated", logger.FieldQuery, lipid.Name(), logger.FieldCount, len(out.Reactions))
	return []*models.Lipid{out}, nil
}

func convert(rx Reaction, src models.Source) *models.Reaction {
	r := models.NewReaction()
	r.Direction = "="
	r.LinexReactionType = rx.Type
	r.AddSubstrates(rx.Substrates...)
	r.AddProducts(rx.Products...)
	r.AddGeneNames(rx.GeneNames...)
	r.AddNLParticipants(rx.NLParticipants...)
	for _, id := range rx.EnzymeIDs {
		db := models.DBReactome
		if strings.HasPrefix(id, "RHEA") {
			db = models.DBRhea
		}
		r.AddDatabaseIdentifier(models.NewDatabaseIdentifier(db, id, src))
	}
	for _, id := range rx.UniProt {
		r.AddDatabaseIdentifier(models.NewDatabaseIdentifier(models.DBUniProtKB, id, src))
	}
	return r
}
