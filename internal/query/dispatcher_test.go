package query

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lipidlibrarian/internal/adducts"
	"lipidlibrarian/pkg/models"
)

func newTestDispatcher() *Dispatcher {
	return NewDispatcher(testResolver, adducts.Default(), nil)
}

func TestDetectIdentifiers(t *testing.T) {
	d := newTestDispatcher()
	tests := []struct {
		input    string
		database string
	}{
		{"LMGP01010005", models.DBLipidMaps},
		{"  SLM:000000001 ", models.DBSwissLipids},
		{"CHEBI:64489", models.DBChEBI},
		{"ＳＬＭ：000000001", models.DBSwissLipids},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			p, err := d.Detect(context.Background(), tc.input, MethodAuto)
			require.NoError(t, err)
			assert.Equal(t, MethodID, p.Method)
			require.Len(t, p.Lipid.DatabaseIdentifiers, 1)
			id := p.Lipid.DatabaseIdentifiers[0]
			assert.Equal(t, tc.database, id.Database)
			assert.True(t, id.Sources.Contains(models.NewSource("", models.LevelUnknown, QueryParameterOrigin)))
			assert.Equal(t, models.LevelUnknown, p.TargetLevel())
		})
	}
}

func TestInputWithSpaceIsNeverAnIdentifier(t *testing.T) {
	d := newTestDispatcher()
	_, err := d.Detect(context.Background(), "SLM: 000000001", MethodID)
	assert.True(t, errors.Is(err, ErrDetectionFailure))

	_, err = d.Detect(context.Background(), "LMGP 01010005", MethodAuto)
	assert.True(t, errors.Is(err, ErrDetectionFailure))

	// LM ids are only recognised with 12 to 14 characters
	_, err = d.Detect(context.Background(), "LMGP0101", MethodID)
	assert.True(t, errors.Is(err, ErrDetectionFailure))
}

func TestDetectMZ(t *testing.T) {
	d := newTestDispatcher()
	tests := []struct {
		input   string
		adducts []string
	}{
		{"760.585;0.01", adducts.Names(adducts.Default().All())},
		{"760.585;0.01;pos", adducts.Names(adducts.Default().Positive())},
		{"760.585;0.01;NEG", adducts.Names(adducts.Default().Negative())},
		{"760.585;0.01;-1", adducts.Names(adducts.Default().Negative())},
		{"760.585; 0.01 ;+Na, [M+H]+ ,bogus", []string{"+H", "+Na"}},
		{"760.585;0.01;+;ignored", adducts.Names(adducts.Default().Positive())},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			p, err := d.Detect(context.Background(), tc.input, MethodAuto)
			require.NoError(t, err)
			assert.Equal(t, MethodMZ, p.Method)
			assert.InDelta(t, 760.585, p.MZ, 1e-9)
			assert.InDelta(t, 0.01, p.Tolerance, 1e-9)
			assert.Equal(t, tc.adducts, adducts.Names(p.Adducts))
			assert.Equal(t, models.LevelUnknown, p.TargetLevel())
		})
	}
}

func TestDetectMZRejectsMalformed(t *testing.T) {
	d := newTestDispatcher()
	for _, input := range []string{"760.585", "abc;0.01", "760.5;x", "NaN;0.1", "760.5;0.1;nope"} {
		_, err := d.Detect(context.Background(), input, MethodMZ)
		assert.True(t, errors.Is(err, ErrDetectionFailure), input)
	}
}

func TestDetectName(t *testing.T) {
	d := newTestDispatcher()
	p, err := d.Detect(context.Background(), "PC 18:0_20:1", MethodAuto)
	require.NoError(t, err)
	assert.Equal(t, MethodName, p.Method)
	assert.Equal(t, models.MolecularLipidSpecies, p.TargetLevel())
	assert.Equal(t, "PC 18:0_20:1", p.Lipid.Nomenclature.QueryName())

	_, err = d.Detect(context.Background(), "cholesterol ester of something", MethodAuto)
	assert.True(t, errors.Is(err, ErrDetectionFailure))
}

func TestHintRunsOnlyThatDetector(t *testing.T) {
	d := newTestDispatcher()
	_, err := d.Detect(context.Background(), "SLM:000000001", MethodName)
	assert.True(t, errors.Is(err, ErrDetectionFailure))

	_, err = d.Detect(context.Background(), "PC 38:1", MethodMZ)
	assert.True(t, errors.Is(err, ErrDetectionFailure))

	p, err := d.Detect(context.Background(), "PC 38:1", MethodName)
	require.NoError(t, err)
	assert.Equal(t, models.SumLipidSpecies, p.TargetLevel())
}

func TestParseMethod(t *testing.T) {
	for in, want := range map[string]Method{"": MethodAuto, "all": MethodAuto, "ID": MethodID, "mz": MethodMZ, " name ": MethodName} {
		got, err := ParseMethod(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseMethod("smiles")
	require.Error(t, err)
	assert.NotEmpty(t, errors.GetAllHints(err))
}
