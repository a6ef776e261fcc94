package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lipidlibrarian/internal/adducts"
	"lipidlibrarian/internal/query"
	"lipidlibrarian/internal/sources/lion"
	progress "lipidlibrarian/internal/sync"
	"lipidlibrarian/pkg/models"
)

const obo = `[Term]
id: LION:0000000
name: lipid

[Term]
id: LION:0000001
name: glycerophospholipid
is_a: LION:0000000 ! lipid
`

type fakeEngine struct {
	gotInput string
	gotOpts  query.Options
	result   *query.Result
	err      error
	readyErr error
	ontology *lion.Ontology
}

func (f *fakeEngine) Query(_ context.Context, input string, opts query.Options) (*query.Result, error) {
	f.gotInput, f.gotOpts = input, opts
	return f.result, f.err
}

func (f *fakeEngine) Options() query.Options {
	return query.Options{Requeries: 1, Sources: []string{"swisslipids", "lipidmaps"}}
}

func (f *fakeEngine) Ready(context.Context) error { return f.readyErr }

func (f *fakeEngine) Ontology() (*lion.Ontology, error) {
	if f.ontology == nil {
		return nil, lion.ErrNoData
	}
	return f.ontology, nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(t *testing.T, e Engine, target string) *httptest.ResponseRecorder {
	t.Helper()
	router := NewRouter(NewHandler(e, adducts.Default(), progress.NewHub(nil), nil))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestLipidsReturnsResult(t *testing.T) {
	lipid := models.NewLipidWithNomenclature(models.NewResolvedNomenclature("PC 34:1", models.LevelNames{Category: "GP", Class: "PC", Sum: "PC 34:1"}))
	e := &fakeEngine{result: &query.Result{ID: "q-1", Query: "PC 34:1", Method: query.MethodName, Lipids: []*models.Lipid{lipid}}}

	w := serve(t, e, "/lipids?q=PC+34:1&cutoff=3&sources=alex123,linex&sources=lion")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	body := decode(t, w)
	assert.Equal(t, "q-1", body["id"])
	assert.Equal(t, "name", body["method"])
	assert.EqualValues(t, 1, body["count"])

	assert.Equal(t, "PC 34:1", e.gotInput)
	assert.Equal(t, 1, e.gotOpts.Requeries, "configured default is kept")
	assert.Equal(t, 3, e.gotOpts.Cutoff)
	assert.Equal(t, []string{"alex123", "linex", "lion"}, e.gotOpts.Sources)
}

func TestLipidsCarriesWarning(t *testing.T) {
	e := &fakeEngine{result: &query.Result{ID: "q-2", Query: "???", Lipids: []*models.Lipid{}, Warning: "query detection failed"}}

	w := serve(t, e, "/lipids?q=%3F%3F%3F")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 0, body["count"])
	assert.Equal(t, "query detection failed", body["warning"])
}

func TestLipidsRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"missing q":          "/lipids",
		"blank q":            "/lipids?q=+",
		"bad method":         "/lipids?q=PC+34:1&method=smiles",
		"bad requeries":      "/lipids?q=PC+34:1&requeries=two",
		"negative requeries": "/lipids?q=PC+34:1&requeries=-1",
		"bad cutoff":         "/lipids?q=PC+34:1&cutoff=1.5",
	}
	for name, target := range cases {
		t.Run(name, func(t *testing.T) {
			e := &fakeEngine{}
			w := serve(t, e, target)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, e.gotInput)
		})
	}
}

func TestLipidsHintsOnNegativeCutoff(t *testing.T) {
	w := serve(t, &fakeEngine{}, "/lipids?q=PC+34:1&cutoff=-4")
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Contains(t, body["error"], "cutoff")
	assert.NotEmpty(t, body["hint"])
}

func TestLipidsEngineFailure(t *testing.T) {
	w := serve(t, &fakeEngine{err: errors.New("boom")}, "/lipids?q=PC+34:1")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = serve(t, &fakeEngine{err: errors.Wrap(context.DeadlineExceeded, "query")}, "/lipids?q=PC+34:1")
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestAdductsByPolarity(t *testing.T) {
	catalog := adducts.Default()

	w := serve(t, &fakeEngine{}, "/adducts")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, len(catalog.All()), decode(t, w)["count"])

	w = serve(t, &fakeEngine{}, "/adducts?polarity=negative")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, len(catalog.Negative()), body["count"])
	for _, a := range body["adducts"].([]any) {
		assert.Less(t, a.(map[string]any)["charge"], 0.0)
	}

	w = serve(t, &fakeEngine{}, "/adducts?polarity=neutral")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOntologySubgraph(t *testing.T) {
	o, err := lion.New(strings.NewReader("PC 34:1\tLION:0000001\n"), strings.NewReader(obo))
	require.NoError(t, err)

	w := serve(t, &fakeEngine{ontology: o}, "/ontology/subgraph?term=LION:0000001")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, map[string]any{"LION:0000000": "lipid", "LION:0000001": "glycerophospholipid"}, body["nodes"])
	assert.Equal(t, []any{map[string]any{"child": "LION:0000001", "parent": "LION:0000000"}}, body["edges"])

	w = serve(t, &fakeEngine{ontology: o}, "/ontology/subgraph")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(t, &fakeEngine{}, "/ontology/subgraph?term=LION:0000001")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealthAndReady(t *testing.T) {
	w := serve(t, &fakeEngine{}, "/health")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(t, &fakeEngine{}, "/ready")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode(t, w)["ws_clients"])

	w = serve(t, &fakeEngine{readyErr: errors.New("database is locked")}, "/ready")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "database is locked", decode(t, w)["db_error"])
}

func TestMetricsEndpoint(t *testing.T) {
	serve(t, &fakeEngine{}, "/health")
	w := serve(t, &fakeEngine{}, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "lipidlibrarian_api_requests_total")
}

func TestRequestIDIsReused(t *testing.T) {
	router := NewRouter(NewHandler(&fakeEngine{}, adducts.Default(), nil, nil))
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "6f1c1a3e-8a57-4c1e-9b6a-2f4f0f1c2d3e")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "6f1c1a3e-8a57-4c1e-9b6a-2f4f0f1c2d3e", w.Header().Get(RequestIDHeader))
}
