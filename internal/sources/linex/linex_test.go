package linex

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lipidlibrarian/internal/nomenclature"
	"lipidlibrarian/pkg/models"
)

const testTable = `
reference_classes: [PC, LPC]
reactions:
  - type: fatty_acid_removal
    substrates: [PC]
    products: [LPC]
    nl_participants: [FA, nan]
    enzyme_ids: ["RHEA:15801", "R-HSA-1482788", "", "NaN"]
    gene_names: [PLA2G4A, nan]
    uniprot: [P47712, NAN]
  - type: headgroup_modification
    substrates: [PE]
    products: [PS]
`

func resolved(t *testing.T, name string) *models.Lipid {
	t.Helper()
	res, err := nomenclature.NewResolver(nomenclature.NewShorthand()).Resolve(context.Background(), name)
	require.NoError(t, err)
	return models.NewLipidWithNomenclature(res.Nomenclature())
}

func TestParseTableDropsPlaceholders(t *testing.T) {
	table, err := ParseTable(strings.NewReader(testTable))
	require.NoError(t, err)

	rx := table.ForClass("PC")
	require.Len(t, rx, 1)
	assert.Equal(t, []string{"RHEA:15801", "R-HSA-1482788"}, rx[0].EnzymeIDs)
	assert.Equal(t, []string{"PLA2G4A"}, rx[0].GeneNames)
	assert.Equal(t, []string{"P47712"}, rx[0].UniProt)
	assert.Equal(t, []string{"FA"}, rx[0].NLParticipants)

	assert.Len(t, table.ForClass("LPC"), 1)
	assert.Empty(t, table.ForClass("PE"), "PE is not a reference class")
}

func TestParseTableRejectsUnknownFields(t *testing.T) {
	_, err := ParseTable(strings.NewReader("reactions:\n  - typo: x\n"))
	assert.Error(t, err)
}

func TestDefaultTable(t *testing.T) {
	table, err := LoadTable("")
	require.NoError(t, err)
	assert.NotEmpty(t, table.ForClass("PC"))
	assert.NotEmpty(t, table.ForClass("TG"))
}

func TestLoadTableFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reactions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testTable), 0o644))

	table, err := LoadTable(path)
	require.NoError(t, err)
	assert.Len(t, table.Reactions, 2)

	_, err = LoadTable(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestQueryLipidAddsClassReactions(t *testing.T) {
	table, err := ParseTable(strings.NewReader(testTable))
	require.NoError(t, err)
	c := NewConnector(table, nil)
	assert.Equal(t, "linex", c.Name())

	lipid := resolved(t, "PC 16:0/18:1")
	out, err := c.QueryLipid(context.Background(), lipid)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, lipid.Name(), out[0].Name())
	require.Len(t, out[0].Reactions, 1)

	r := out[0].Reactions[0]
	assert.Equal(t, "=", r.Direction)
	assert.Equal(t, "fatty_acid_removal", r.LinexReactionType)
	assert.Equal(t, []string{"PC"}, r.Substrates)
	assert.Equal(t, []string{"LPC"}, r.Products)
	assert.Equal(t, []string{"PLA2G4A"}, r.GeneNames)
	assert.Len(t, r.DatabaseIdentifiersFor(models.DBRhea), 1)
	assert.Len(t, r.DatabaseIdentifiersFor(models.DBReactome), 1)
	assert.Len(t, r.DatabaseIdentifiersFor(models.DBUniProtKB), 1)
	assert.True(t, r.Sources().Contains(models.NewSource("PC", models.LipidClass, "linex")))
}

func TestQueryLipidUnknownClass(t *testing.T) {
	table, err := ParseTable(strings.NewReader(testTable))
	require.NoError(t, err)
	c := NewConnector(table, nil)

	out, err := c.QueryLipid(context.Background(), resolved(t, "PE 38:4"))
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = c.QueryLipid(context.Background(), models.NewLipid())
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestReactionsStaySeparateFromSwissLipids(t *testing.T) {
	table, err := ParseTable(strings.NewReader(testTable))
	require.NoError(t, err)
	c := NewConnector(table, nil)

	lipid := resolved(t, "PC 16:0/18:1")
	swiss := models.NewReaction()
	swiss.AddSubstrates("PC")
	swiss.AddProducts("LPC")
	swiss.AddDatabaseIdentifier(models.NewDatabaseIdentifier(models.DBRhea, "RHEA:15801",
		models.NewSource("PC 16:0/18:1", models.StructuralLipidSpecies, "swisslipids")))
	lipid.AddReaction(swiss)

	out, err := c.QueryLipid(context.Background(), lipid)
	require.NoError(t, err)
	require.True(t, models.MergeInto([]*models.Lipid{lipid}, out[0]))
	assert.Len(t, lipid.Reactions, 2)
}
