package librarian

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lipidlibrarian/internal/query"
	"lipidlibrarian/internal/sources"
	progress "lipidlibrarian/internal/sync"
	"lipidlibrarian/pkg/database"
	"lipidlibrarian/pkg/models"
	"lipidlibrarian/pkg/utils"
)

const species = `
INSERT INTO lipid_category (lipid_category_id, lipid_category_name) VALUES (1, 'GP');
INSERT INTO lipid_class (lipid_class_id, lipid_class_name, lipid_category_id) VALUES (1, 'PC', 1);
INSERT INTO sum_lipid_species VALUES (1, 'PC 34:1', 759.577975, 1);
`

func testConfig(t *testing.T) *utils.Config {
	t.Helper()
	v := viper.New()
	utils.SetDefaults(v)
	cfg, err := utils.Unmarshal(v)
	require.NoError(t, err)
	return cfg
}

func seedDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "alex123.db")
	db, err := database.Open(database.Config{Path: path})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	_, err = db.Exec(species)
	require.NoError(t, err)
	require.NoError(t, db.Close())
	return path
}

func TestRegistryFollowsDefaultSources(t *testing.T) {
	l := New(testConfig(t), nil, nil)
	assert.Equal(t, utils.DefaultSources, l.Registry.Names())
}

func TestMissingDataFallsBackToStubs(t *testing.T) {
	cfg := testConfig(t)
	cfg.Alex123.DBPath = filepath.Join(t.TempDir(), "absent.db")
	l := New(cfg, nil, nil)
	defer l.Close()

	for _, name := range []string{sources.Alex123, sources.Lion} {
		s, ok := l.Registry.Get(name)
		require.True(t, ok)
		_, stub := s.(*sources.Stub)
		assert.True(t, stub, name)
	}

	s, ok := l.Registry.Get(sources.Linex)
	require.True(t, ok)
	_, stub := s.(*sources.Stub)
	assert.False(t, stub, "the bundled reaction table is always available")

	assert.Error(t, l.Ready(context.Background()))
}

func TestReadySkipsUnconfiguredDatabase(t *testing.T) {
	l := New(testConfig(t), nil, nil)
	assert.NoError(t, l.Ready(context.Background()))
}

func TestQueryAgainstLocalSources(t *testing.T) {
	cfg := testConfig(t)
	cfg.Alex123.DBPath = seedDB(t)

	var events []string
	observer := progress.ObserverFunc(func(e progress.QueryEvent) { events = append(events, e.Type) })
	l := New(cfg, observer, nil)
	defer l.Close()

	require.NoError(t, l.Ready(context.Background()))

	opts := l.Options()
	opts.Sources = []string{sources.Alex123, sources.Linex}
	res, err := l.Query(context.Background(), "PC 34:1", opts)
	require.NoError(t, err)

	assert.Equal(t, query.MethodName, res.Method)
	require.Len(t, res.Lipids, 1)
	lipid := res.Lipids[0]
	assert.Equal(t, "PC 34:1", lipid.Name())
	assert.Equal(t, models.SumLipidSpecies, lipid.Level())
	assert.Equal(t, "PC 34:1", lipid.Query)
	assert.NotEmpty(t, lipid.Reactions)

	assert.Equal(t, progress.EventQueryStarted, events[0])
	assert.Equal(t, progress.EventQueryFinished, events[len(events)-1])
}

func TestOptionsCopyConfiguredSources(t *testing.T) {
	cfg := testConfig(t)
	l := New(cfg, nil, nil)

	opts := l.Options()
	opts.Sources[0] = "changed"
	assert.Equal(t, sources.SwissLipids, cfg.Query.Sources[0])
}
