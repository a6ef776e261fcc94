package query

import (
	"context"
	stdsync "sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lipidlibrarian/internal/sources"
	progress "lipidlibrarian/internal/sync"
	"lipidlibrarian/pkg/models"
)

// fakeConnector answers QueryLipid through a callback and records its calls.
type fakeConnector struct {
	sources.Stub
	name    string
	onLipid func(*models.Lipid) ([]*models.Lipid, error)
	onMZ    func(mz, tol float64, adducts []*models.Adduct, cutoff int) []*models.Lipid

	mu    stdsync.Mutex
	calls []string
}

func (f *fakeConnector) Name() string { return f.name }

func (f *fakeConnector) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeConnector) QueryLipid(_ context.Context, l *models.Lipid) ([]*models.Lipid, error) {
	f.record("lipid:" + l.Name())
	if f.onLipid == nil {
		return nil, nil
	}
	return f.onLipid(l)
}

func (f *fakeConnector) QueryMZ(_ context.Context, mz, tol float64, adducts []*models.Adduct, cutoff int) ([]*models.Lipid, error) {
	f.record("mz")
	if f.onMZ == nil {
		return nil, nil
	}
	return f.onMZ(mz, tol, adducts, cutoff), nil
}

type recorder struct {
	mu     stdsync.Mutex
	events []progress.QueryEvent
}

func (r *recorder) Observe(e progress.QueryEvent) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) types() []string {
	var out []string
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func withID(t *testing.T, name, database, id, origin string) *models.Lipid {
	l := named(t, name)
	l.AddDatabaseIdentifier(models.NewDatabaseIdentifier(database, id, models.NewSource(name, l.Level(), origin)))
	return l
}

func newOrchestrator(obs progress.Observer, connectors ...sources.Source) *Orchestrator {
	reg := sources.NewRegistry(nil)
	for _, c := range connectors {
		reg.RegisterSource(c)
	}
	return NewOrchestrator(newTestDispatcher(), reg, obs, nil)
}

func TestQueryFoldsPrimaryPhasesInOrder(t *testing.T) {
	var order []string
	swiss := &fakeConnector{name: sources.SwissLipids, onLipid: func(*models.Lipid) ([]*models.Lipid, error) {
		order = append(order, sources.SwissLipids)
		return []*models.Lipid{withID(t, "PC 18:0_20:1", models.DBSwissLipids, "SLM:000000001", "swisslipids")}, nil
	}}
	maps := &fakeConnector{name: sources.LipidMaps, onLipid: func(*models.Lipid) ([]*models.Lipid, error) {
		order = append(order, sources.LipidMaps)
		return []*models.Lipid{withID(t, "PC 18:0_20:1", models.DBLipidMaps, "LMGP01010902", "lipidmaps")}, nil
	}}
	alex := &fakeConnector{name: sources.Alex123, onLipid: func(*models.Lipid) ([]*models.Lipid, error) {
		order = append(order, sources.Alex123)
		return nil, errors.New("database is locked")
	}}

	rec := &recorder{}
	// registration order differs from the phase order on purpose
	o := newOrchestrator(rec, alex, maps, swiss)
	res, err := o.Query(context.Background(), "SLM:000000001", Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{sources.SwissLipids, sources.LipidMaps, sources.Alex123}, order)
	assert.Equal(t, MethodID, res.Method)
	assert.NotEmpty(t, res.ID)
	require.Len(t, res.Lipids, 1)
	l := res.Lipids[0]
	assert.Equal(t, "SLM:000000001", l.Query)
	assert.Len(t, l.DatabaseIdentifiers, 2)

	assert.Equal(t, []string{
		progress.EventQueryStarted,
		progress.EventQueryDetected,
		progress.EventPhaseCompleted,
		progress.EventPhaseCompleted,
		progress.EventPhaseCompleted,
		progress.EventQueryConsolidated,
		progress.EventQueryFinished,
	}, rec.types())
	for _, e := range rec.events {
		assert.Equal(t, res.ID, e.QueryID)
	}
}

func TestQueryRequeriesSnapshot(t *testing.T) {
	swiss := &fakeConnector{name: sources.SwissLipids}
	swiss.onLipid = func(l *models.Lipid) ([]*models.Lipid, error) {
		switch l.Name() {
		case "PC 38:1":
			return []*models.Lipid{named(t, "PC 38:1"), named(t, "PC 18:0_20:1")}, nil
		case "PC 18:0_20:1":
			return []*models.Lipid{named(t, "PC 18:0/20:1")}, nil
		}
		return nil, nil
	}

	o := newOrchestrator(nil, swiss)
	res, err := o.Query(context.Background(), "PC 38:1", Options{Requeries: 1, Sources: []string{sources.SwissLipids}})
	require.NoError(t, err)

	// primary call, then one call per snapshot lipid; the structural record
	// found during the requery is not queried again
	assert.Equal(t, []string{"lipid:PC 38:1", "lipid:PC 38:1", "lipid:PC 18:0_20:1"}, swiss.calls)
	require.Len(t, res.Lipids, 1, "exact sum level wins")
	assert.Equal(t, "PC 38:1", res.Lipids[0].Name())
}

func TestQueryEnrichesConsolidatedLipids(t *testing.T) {
	swiss := &fakeConnector{name: sources.SwissLipids, onLipid: func(*models.Lipid) ([]*models.Lipid, error) {
		return []*models.Lipid{named(t, "PC 18:0_20:1")}, nil
	}}
	var enriched []string
	linex := &fakeConnector{name: sources.Linex, onLipid: func(l *models.Lipid) ([]*models.Lipid, error) {
		enriched = append(enriched, sources.Linex)
		s := l.Skeleton()
		r := models.NewReaction()
		r.LinexReactionType = "L_FA"
		r.AddSubstrates("PC")
		r.AddProducts("LPC")
		s.AddReaction(r)
		return []*models.Lipid{s}, nil
	}}
	lion := &fakeConnector{name: sources.Lion, onLipid: func(l *models.Lipid) ([]*models.Lipid, error) {
		enriched = append(enriched, sources.Lion)
		s := l.Skeleton()
		s.Ontology.AddTerms("LION:0000095")
		return []*models.Lipid{s}, nil
	}}

	rec := &recorder{}
	o := newOrchestrator(rec, lion, linex, swiss)
	res, err := o.Query(context.Background(), "PC 18:0_20:1", Options{})
	require.NoError(t, err)
	require.Len(t, res.Lipids, 1)
	assert.Equal(t, []string{sources.Linex, sources.Lion}, enriched)
	assert.Len(t, res.Lipids[0].Reactions, 1)
	assert.Equal(t, []string{"LION:0000095"}, res.Lipids[0].Ontology.Terms)

	var phases []string
	for _, e := range rec.events {
		if e.Type == progress.EventPhaseCompleted {
			phases = append(phases, e.Phase)
		}
	}
	assert.Equal(t, []string{"primary", "enrichment"}, phases)
}

func TestQueryWithoutEnrichmentSourcesHasNoEnrichmentPhase(t *testing.T) {
	swiss := &fakeConnector{name: sources.SwissLipids, onLipid: func(*models.Lipid) ([]*models.Lipid, error) {
		return []*models.Lipid{named(t, "PC 18:0_20:1")}, nil
	}}
	lion := &fakeConnector{name: sources.Lion}

	rec := &recorder{}
	o := newOrchestrator(rec, swiss, lion)
	res, err := o.Query(context.Background(), "PC 18:0_20:1", Options{Sources: []string{sources.SwissLipids}})
	require.NoError(t, err)
	require.Len(t, res.Lipids, 1)
	assert.Empty(t, lion.calls)

	for _, e := range rec.events {
		assert.NotEqual(t, "enrichment", e.Phase)
	}
}

func TestQuerySkipsUnselectedSources(t *testing.T) {
	swiss := &fakeConnector{name: sources.SwissLipids}
	maps := &fakeConnector{name: sources.LipidMaps}
	o := newOrchestrator(nil, swiss, maps)

	_, err := o.Query(context.Background(), "PC 38:1", Options{Sources: []string{sources.LipidMaps, "hmdb"}})
	require.NoError(t, err)
	assert.Empty(t, swiss.calls)
	assert.Equal(t, []string{"lipid:PC 38:1"}, maps.calls)
}

func TestQueryMZForwardsCutoff(t *testing.T) {
	var gotCutoff, gotAdducts int
	maps := &fakeConnector{name: sources.LipidMaps, onMZ: func(mz, tol float64, adducts []*models.Adduct, cutoff int) []*models.Lipid {
		gotCutoff, gotAdducts = cutoff, len(adducts)
		return []*models.Lipid{named(t, "PC 34:1"), named(t, "PE 36:1"), named(t, "PC 34:1")}
	}}
	o := newOrchestrator(nil, maps)
	res, err := o.Query(context.Background(), "760.585;0.01;neg", Options{Cutoff: 5})
	require.NoError(t, err)
	assert.Equal(t, MethodMZ, res.Method)
	assert.Equal(t, 5, gotCutoff)
	assert.Equal(t, 4, gotAdducts)
	assert.Equal(t, []string{"PC 34:1", "PE 36:1"}, namesOf(res.Lipids))
}

func TestQueryDetectionFailureIsEmpty(t *testing.T) {
	swiss := &fakeConnector{name: sources.SwissLipids}
	rec := &recorder{}
	o := newOrchestrator(rec, swiss)
	res, err := o.Query(context.Background(), "definitely not a lipid", Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Lipids)
	assert.NotEmpty(t, res.Warning)
	assert.Empty(t, swiss.calls)
	assert.Equal(t, []string{progress.EventQueryStarted, progress.EventQueryFailed}, rec.types())
}

func TestQueryValidatesOptions(t *testing.T) {
	o := newOrchestrator(nil)
	_, err := o.Query(context.Background(), "PC 38:1", Options{Requeries: -1})
	require.Error(t, err)
	assert.Contains(t, errors.FlattenHints(err), "requerying")

	_, err = o.Query(context.Background(), "PC 38:1", Options{Cutoff: -2})
	require.Error(t, err)
}

func TestQueryStopsOnCancel(t *testing.T) {
	swiss := &fakeConnector{name: sources.SwissLipids}
	o := newOrchestrator(nil, swiss)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := o.Query(ctx, "PC 38:1", Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, swiss.calls)
}
