package sources

import (
	"context"

	"lipidlibrarian/internal/nomenclature"
	"lipidlibrarian/pkg/models"
)

// Namer resolves the raw names found in source records.
type Namer interface {
	Resolve(ctx context.Context, name string) (nomenclature.Resolution, error)
}

// NamedLipid builds a lipid for a record called name. When resolution fails
// the raw name is kept as the query name so the record is still usable.
func NamedLipid(ctx context.Context, namer Namer, name string) *models.Lipid {
	res, err := namer.Resolve(ctx, name)
	if err != nil {
		res = nomenclature.Resolution{Query: name}
	}
	return models.NewLipidWithNomenclature(res.Nomenclature())
}

// RecordSource is the provenance of a record built by NamedLipid: the lipid's
// own name in the source's flavor at its own level.
func RecordSource(l *models.Lipid, flavor models.Flavor, origin string) models.Source {
	return models.NewSource(l.Nomenclature.FlavoredName(flavor), l.Level(), origin)
}

// NamedLipidFrom tries candidates in order and keeps the first one that
// resolves to a species level. When none does, the first non-empty candidate
// is kept as an unresolved query name.
func NamedLipidFrom(ctx context.Context, namer Namer, candidates ...string) *models.Lipid {
	fallback := ""
	for _, name := range candidates {
		if name == "" {
			continue
		}
		if fallback == "" {
			fallback = name
		}
		res, err := namer.Resolve(ctx, name)
		if err == nil && res.Level() != models.LevelUnknown {
			return models.NewLipidWithNomenclature(res.Nomenclature())
		}
	}
	return models.NewLipidWithNomenclature(nomenclature.Resolution{Query: fallback}.Nomenclature())
}
