package database

// Table describes one ALEX123 table for the CSV import and export tools.
type Table struct {
	Name    string
	Columns []string
}

// Tables lists the ALEX123 tables parents first, so rows can be inserted
// in this order with foreign keys enforced.
var Tables = []Table{
	{"lipid_category", []string{"lipid_category_id", "lipid_category_name"}},
	{"lipid_class", []string{"lipid_class_id", "lipid_class_name", "lipid_category_id"}},
	{"sum_lipid_species", []string{"sum_lipid_species_id", "sum_lipid_species_name", "sum_lipid_species_mass", "lipid_class_id"}},
	{"molecular_lipid_species", []string{"molecular_lipid_species_id", "molecular_lipid_species_name", "sum_lipid_species_id"}},
	{"adduct", []string{"adduct_id", "adduct_name", "adduct_mass", "adduct_charge"}},
	{"fragment", []string{
		"fragment_id", "fragment_name", "fragment_mass", "fragment_polarity",
		"fragment_sum_formula", "molecular_lipid_species_id", "adduct_id",
	}},
}

// FileName is the CSV export name of t.
func (t Table) FileName() string { return t.Name + ".csv" }
