package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lipidlibrarian/internal/adducts"
	"lipidlibrarian/internal/query"
	"lipidlibrarian/internal/render"
	"lipidlibrarian/pkg/models"
)

type stubQuerier struct {
	seen []string
	fail string
}

func (s *stubQuerier) Query(_ context.Context, input string, _ query.Options) (*query.Result, error) {
	s.seen = append(s.seen, input)
	if input == s.fail {
		return nil, errors.New("source exploded")
	}
	names := models.LevelNames{Class: "PC", Sum: input}
	l := models.NewLipidWithNomenclature(models.NewResolvedNomenclature(input, names))
	l.Query = input
	return &query.Result{ID: "id-" + input, Query: input, Lipids: []*models.Lipid{l}}, nil
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCollectQueries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lipids.txt")
	require.NoError(t, os.WriteFile(path, []byte("PC 34:1\n\n  LMGP01010005  \n"), 0o644))

	got, err := collectQueries([]string{"PE 36:2", " "}, path, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"PE 36:2", "PC 34:1", "LMGP01010005"}, got)

	got, err = collectQueries(nil, "-", strings.NewReader("SM 34:1\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"SM 34:1"}, got)

	_, err = collectQueries(nil, filepath.Join(t.TempDir(), "missing.txt"), nil)
	assert.Error(t, err)
}

func TestRunQueriesToWriter(t *testing.T) {
	q := &stubQuerier{}
	var buf bytes.Buffer
	err := runQueries(context.Background(), q, []string{"PC 34:1", "PE 36:2"}, query.Options{}, render.JSON, "", &buf)
	require.NoError(t, err)

	var out []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Len(t, out, 2, "results of every query are rendered together")
	assert.Equal(t, []string{"PC 34:1", "PE 36:2"}, q.seen)
}

func TestRunQueriesToDirectory(t *testing.T) {
	dir := t.TempDir()
	q := &stubQuerier{}
	var buf bytes.Buffer
	err := runQueries(context.Background(), q, []string{"PC 16:0/18:1", "PE 36:2"}, query.Options{}, render.CSV, dir, &buf)
	require.NoError(t, err)
	assert.Empty(t, buf.String())

	for _, name := range []string{"PC 16:0+18:1.csv", "PE 36:2.csv"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.True(t, strings.HasPrefix(string(data), "query,name,level"))
	}
}

func TestRunQueriesStopsOnError(t *testing.T) {
	q := &stubQuerier{fail: "PE 36:2"}
	err := runQueries(context.Background(), q, []string{"PE 36:2", "PC 34:1"}, query.Options{}, render.Text, "", &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PE 36:2")
	assert.Equal(t, []string{"PE 36:2"}, q.seen)
}

func TestSelectAdducts(t *testing.T) {
	c := adducts.Default()

	neg, err := selectAdducts(c, "NEG")
	require.NoError(t, err)
	assert.Equal(t, len(c.Negative()), len(neg))

	all, err := selectAdducts(c, "")
	require.NoError(t, err)
	assert.Equal(t, len(c.All()), len(all))

	_, err = selectAdducts(c, "zwitterion")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, version+"\n", out)
}

func TestAdductsCommand(t *testing.T) {
	out, err := execute(t, "adducts", "--polarity", "positive")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.Len(t, lines, len(adducts.Default().Positive())+1)
	assert.Contains(t, out, "+H")
}

func TestQueryCommandRejectsBadFlags(t *testing.T) {
	_, err := execute(t, "query")
	assert.ErrorContains(t, err, "no queries given")

	_, err = execute(t, "query", "PC 34:1", "--output-format", "html")
	assert.True(t, errors.Is(err, render.ErrUnknownFormat))

	_, err = execute(t, "query", "PC 34:1", "--cutoff", "-1")
	assert.ErrorContains(t, err, "cutoff")

	_, err = execute(t, "query", "PC 34:1", "--method", "smiles")
	assert.ErrorContains(t, err, "unknown query method")
}
