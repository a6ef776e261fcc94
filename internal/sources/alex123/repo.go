package alex123

import (
	"context"
	"database/sql"
	"strings"

	"github.com/cockroachdb/errors"
)

// SpeciesRow is one sum or molecular species joined with its class and
// category. MolecularID and MolecularName are empty for sum species.
type SpeciesRow struct {
	MolecularID   int64
	MolecularName string
	SumID         int64
	SumName       string
	SumMass       float64
	ClassName     string
	CategoryName  string
}

// FragmentRow is an MS2 fragment of a molecular species under one adduct.
type FragmentRow struct {
	MolecularID  int64
	Name         string
	Mass         float64
	Polarity     string
	SumFormula   string
	AdductName   string
	AdductMass   float64
	AdductCharge int
}

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

const speciesJoins = `
	JOIN lipid_class AS lcl ON sls.lipid_class_id = lcl.lipid_class_id
	JOIN lipid_category AS lca ON lcl.lipid_category_id = lca.lipid_category_id
`

func (r *Repo) SumSpeciesByName(ctx context.Context, names []string) ([]SpeciesRow, error) {
	if len(names) == 0 {
		return nil, nil
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT sls.sum_lipid_species_id, sls.sum_lipid_species_name, sls.sum_lipid_species_mass,
		       lcl.lipid_class_name, lca.lipid_category_name
		FROM sum_lipid_species AS sls`+speciesJoins+`
		WHERE sls.sum_lipid_species_name IN (`+placeholders(len(names))+`)
		ORDER BY sls.sum_lipid_species_id
	`, stringArgs(names)...)
	if err != nil {
		return nil, errors.Wrap(err, "sum species query")
	}
	defer rows.Close()

	var out []SpeciesRow
	for rows.Next() {
		var s SpeciesRow
		if err := rows.Scan(&s.SumID, &s.SumName, &s.SumMass, &s.ClassName, &s.CategoryName); err != nil {
			return nil, errors.Wrap(err, "sum species scan")
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "sum species rows")
	}
	return out, nil
}

const molecularSelect = `
	SELECT mls.molecular_lipid_species_id, mls.molecular_lipid_species_name,
	       sls.sum_lipid_species_id, sls.sum_lipid_species_name, sls.sum_lipid_species_mass,
	       lcl.lipid_class_name, lca.lipid_category_name
	FROM molecular_lipid_species AS mls
	JOIN sum_lipid_species AS sls ON mls.sum_lipid_species_id = sls.sum_lipid_species_id` + speciesJoins

func (r *Repo) MolecularSpeciesByName(ctx context.Context, names []string) ([]SpeciesRow, error) {
	if len(names) == 0 {
		return nil, nil
	}
	return r.molecular(ctx, molecularSelect+`
		WHERE mls.molecular_lipid_species_name IN (`+placeholders(len(names))+`)
		ORDER BY mls.molecular_lipid_species_id
	`, stringArgs(names)...)
}

// MolecularSpeciesByMass returns the molecular species whose neutral mass lies
// in [lo, hi] and that have at least one fragment recorded for one of the
// adducts.
func (r *Repo) MolecularSpeciesByMass(ctx context.Context, lo, hi float64, adducts []string) ([]SpeciesRow, error) {
	if len(adducts) == 0 {
		return nil, nil
	}
	args := []any{lo, hi}
	args = append(args, stringArgs(adducts)...)
	return r.molecular(ctx, molecularSelect+`
		WHERE sls.sum_lipid_species_mass BETWEEN ? AND ?
		  AND EXISTS (
			SELECT 1
			FROM fragment AS frg
			JOIN adduct AS adt ON adt.adduct_id = frg.adduct_id
			WHERE frg.molecular_lipid_species_id = mls.molecular_lipid_species_id
			  AND adt.adduct_name IN (`+placeholders(len(adducts))+`)
		  )
		ORDER BY mls.molecular_lipid_species_id
	`, args...)
}

func (r *Repo) molecular(ctx context.Context, query string, args ...any) ([]SpeciesRow, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "molecular species query")
	}
	defer rows.Close()

	var out []SpeciesRow
	for rows.Next() {
		var s SpeciesRow
		if err := rows.Scan(
			&s.MolecularID, &s.MolecularName, &s.SumID, &s.SumName, &s.SumMass, &s.ClassName, &s.CategoryName,
		); err != nil {
			return nil, errors.Wrap(err, "molecular species scan")
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "molecular species rows")
	}
	return out, nil
}

// FragmentsBySpecies returns every fragment of the molecular species ids,
// ordered by species then fragment id.
func (r *Repo) FragmentsBySpecies(ctx context.Context, ids []int64) ([]FragmentRow, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT frg.molecular_lipid_species_id, frg.fragment_name, frg.fragment_mass,
		       frg.fragment_polarity, frg.fragment_sum_formula,
		       adt.adduct_name, adt.adduct_mass, adt.adduct_charge
		FROM fragment AS frg
		JOIN adduct AS adt ON adt.adduct_id = frg.adduct_id
		WHERE frg.molecular_lipid_species_id IN (`+placeholders(len(ids))+`)
		ORDER BY frg.molecular_lipid_species_id, frg.fragment_id
	`, args...)
	if err != nil {
		return nil, errors.Wrap(err, "fragment query")
	}
	defer rows.Close()

	var out []FragmentRow
	for rows.Next() {
		var (
			f        FragmentRow
			polarity sql.NullString
		)
		if err := rows.Scan(
			&f.MolecularID, &f.Name, &f.Mass, &polarity, &f.SumFormula, &f.AdductName, &f.AdductMass, &f.AdductCharge,
		); err != nil {
			return nil, errors.Wrap(err, "fragment scan")
		}
		f.Polarity = polarity.String
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "fragment rows")
	}
	return out, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func stringArgs(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
