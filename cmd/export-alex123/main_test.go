package main

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lipidlibrarian/pkg/database"
)

const seed = `
INSERT INTO lipid_category VALUES (1, 'GP');
INSERT INTO lipid_class VALUES (1, 'PC', 1);
INSERT INTO sum_lipid_species VALUES (2, 'PC 36:2', 785.593625, 1);
INSERT INTO sum_lipid_species VALUES (1, 'PC 34:1', 759.577975, 1);
INSERT INTO molecular_lipid_species VALUES (1, 'PC 16:0-18:1', 1);
INSERT INTO adduct VALUES (1, '+H', 1.007276, 1);
INSERT INTO fragment VALUES (1, 'PC 184', 184.073321, NULL, 'C5H15NO4P', 1, 1);
`

func TestExportTables(t *testing.T) {
	db, err := database.Open(database.Config{Path: ":memory:"})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, database.Migrate(db))
	_, err = db.Exec(seed)
	require.NoError(t, err)

	dir := t.TempDir()
	for _, tbl := range database.Tables {
		_, err := exportTable(context.Background(), db, tbl, filepath.Join(dir, tbl.FileName()))
		require.NoError(t, err, tbl.Name)
	}

	species := readCSV(t, filepath.Join(dir, "sum_lipid_species.csv"))
	assert.Equal(t, [][]string{
		{"sum_lipid_species_id", "sum_lipid_species_name", "sum_lipid_species_mass", "lipid_class_id"},
		{"1", "PC 34:1", "759.577975", "1"},
		{"2", "PC 36:2", "785.593625", "1"},
	}, species)

	fragments := readCSV(t, filepath.Join(dir, "fragment.csv"))
	require.Len(t, fragments, 2)
	assert.Equal(t, "", fragments[1][3], "NULL polarity exports as an empty cell")
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}
