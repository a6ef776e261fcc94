package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func molecularLipid(origin string) *Lipid {
	l := NewLipidWithNomenclature(NewResolvedNomenclature("PC 18:0_20:1",
		LevelNames{Class: "PC", Sum: "PC 38:1", Molecular: "PC 18:0_20:1"}))
	src := NewSource("PC 18:0_20:1", MolecularLipidSpecies, origin)
	l.AddDatabaseIdentifier(NewDatabaseIdentifier(origin, origin+"-1", src))
	l.AddMass(NewMass("neutral", 815.6410, src))
	return l
}

func TestLipidMergeDelegatesToNomenclature(t *testing.T) {
	a := molecularLipid("swisslipids")
	b := molecularLipid("lipidmaps")
	b.Ontology.AddTerms("LION:0000095")

	ok, err := a.Merge(b)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, a.DatabaseIdentifiers, 2)
	require.Len(t, a.Masses, 1)
	assert.Equal(t, 2, a.Masses[0].Sources.Len())
	assert.Equal(t, []string{"LION:0000095"}, a.Ontology.Terms)
	assert.True(t, a.Sources().HasOrigin("lipidmaps"))

	sum := NewLipidWithNomenclature(NewResolvedNomenclature("PC 38:1", LevelNames{Sum: "PC 38:1"}))
	sum.AddMass(NewMass("neutral", 1, srcMaps))
	ok, err = a.Merge(sum)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, a.Masses, 1, "rejected merge copies nothing")
}

func TestLipidMergeIdempotent(t *testing.T) {
	a := molecularLipid("swisslipids")
	b := molecularLipid("lipidmaps")
	_, err := a.Merge(b)
	require.NoError(t, err)
	before := a.Sources()
	ids := len(a.DatabaseIdentifiers)

	_, err = a.Merge(b)
	require.NoError(t, err)
	assert.Equal(t, before.Slice(), a.Sources().Slice())
	assert.Len(t, a.DatabaseIdentifiers, ids)

	ok, err := a.Merge(a)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, a.DatabaseIdentifiers, ids)
}

func TestLipidCloneIsDeep(t *testing.T) {
	a := molecularLipid("swisslipids")
	a.Query = "PC 18:0_20:1"
	c := a.Clone()
	c.AddDatabaseIdentifier(NewDatabaseIdentifier(DBHMDB, "HMDB1", srcSwiss))
	c.Masses[0].Sources.Add(srcMaps)
	c.Nomenclature.Class = "changed"

	assert.Len(t, a.DatabaseIdentifiers, 1)
	assert.Equal(t, 1, a.Masses[0].Sources.Len())
	assert.Equal(t, "", a.Nomenclature.Class)
	assert.Equal(t, a.Query, c.Query)
}

func TestLipidSkeleton(t *testing.T) {
	a := molecularLipid("swisslipids")
	a.Nomenclature.AddSynonym(NewSynonym("x", "y", srcSwiss))
	s := a.Skeleton()
	assert.Equal(t, a.Name(), s.Name())
	assert.Equal(t, a.Level(), s.Level())
	assert.Empty(t, s.DatabaseIdentifiers)
	assert.Empty(t, s.Nomenclature.Synonyms)

	s.Ontology.AddTerms("LION:1")
	ok, err := a.Merge(s)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"LION:1"}, a.Ontology.Terms)
}

func TestAppendLipidAndMergeInto(t *testing.T) {
	var list []*Lipid
	list = AppendLipid(list, molecularLipid("swisslipids"))
	list = AppendLipid(list, molecularLipid("lipidmaps"))
	require.Len(t, list, 1)

	sum := NewLipidWithNomenclature(NewResolvedNomenclature("PC 38:1", LevelNames{Sum: "PC 38:1"}))
	assert.False(t, MergeInto(list, sum))
	assert.True(t, MergeInto(list, molecularLipid("alex123")))
	assert.Len(t, list, 1)
	assert.Len(t, list[0].DatabaseIdentifiers, 3)
}

func TestLipidJSON(t *testing.T) {
	l := molecularLipid("lipidmaps")
	l.Query = "PC 18:0_20:1"
	b, err := json.Marshal(l)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	nom := out["nomenclature"].(map[string]any)
	assert.Equal(t, "PC 18:0_20:1", nom["name"])
	assert.Equal(t, "molecular_lipid_species", nom["level"])
	ids := out["database_identifiers"].([]any)
	assert.Equal(t, "https://lipidmaps.org/databases/lmsd/lipidmaps-1", ids[0].(map[string]any)["url"])
}
