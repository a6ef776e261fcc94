// Package query turns one raw user query into a consolidated list of lipids
// by detecting the query shape, driving the source connectors and reconciling
// their results.
package query

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"lipidlibrarian/internal/adducts"
	"lipidlibrarian/internal/nomenclature"
	"lipidlibrarian/pkg/logger"
	"lipidlibrarian/pkg/models"
)

// ErrDetectionFailure means the input matched no query shape.
var ErrDetectionFailure = errors.New("query detection failed")

// Method is a query shape. The empty Method means "detect".
type Method string

const (
	MethodAuto Method = ""
	MethodID   Method = "id"
	MethodMZ   Method = "mz"
	MethodName Method = "name"
)

// ParseMethod accepts "", "all", "auto", "id", "mz" and "name".
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case "", "all", "auto":
		return MethodAuto, nil
	case MethodID, MethodMZ, MethodName:
		return m, nil
	}
	return MethodAuto, errors.WithHint(errors.Newf("unknown query method %q", s),
		"use one of id, mz or name, or leave it empty to detect")
}

// QueryParameterOrigin tags facts that came from the user's own input.
const QueryParameterOrigin = "query_parameter"

// Params is a detected query. Exactly one of Lipid or the mz fields is set.
type Params struct {
	Method Method

	// id and name queries
	Lipid *models.Lipid

	// mz queries
	MZ        float64
	Tolerance float64
	Adducts   []*models.Adduct
}

// IsMZ reports whether the parameters describe an mz query.
func (p Params) IsMZ() bool { return p.Method == MethodMZ }

// TargetLevel is the level results are consolidated against. LevelUnknown
// stands for "indeterminate".
func (p Params) TargetLevel() models.Level {
	if p.IsMZ() || p.Lipid == nil {
		return models.LevelUnknown
	}
	return p.Lipid.Level()
}

var (
	positiveKeywords = map[string]bool{"positive": true, "pos": true, "+": true, "p": true, "plus": true, "1": true}
	negativeKeywords = map[string]bool{"negative": true, "neg": true, "-": true, "n": true, "minus": true, "-1": true}
	fold             = cases.Fold()
)

// Dispatcher classifies raw input into a query shape.
type Dispatcher struct {
	resolver *nomenclature.Resolver
	catalog  *adducts.Catalog
	log      *zap.SugaredLogger
}

func NewDispatcher(resolver *nomenclature.Resolver, catalog *adducts.Catalog, log *zap.SugaredLogger) *Dispatcher {
	return &Dispatcher{resolver: resolver, catalog: catalog, log: logger.Or(log, "dispatcher")}
}

// Detect runs the hinted detector, or id, mz and name in that order. A failed
// detection returns ErrDetectionFailure and is logged as a warning.
func (d *Dispatcher) Detect(ctx context.Context, input string, hint Method) (Params, error) {
	input = strings.TrimSpace(norm.NFKC.String(input))

	detectors := []struct {
		method Method
		detect func(context.Context, string) (Params, bool)
	}{
		{MethodID, d.detectID},
		{MethodMZ, d.detectMZ},
		{MethodName, d.detectName},
	}

	for _, det := range detectors {
		if hint != MethodAuto && det.method != hint {
			continue
		}
		if p, ok := det.detect(ctx, input); ok {
			d.log.Debugw("query detected", logger.FieldQuery, input, logger.FieldMethod, string(det.method))
			return p, nil
		}
		if hint != MethodAuto {
			d.log.Warnw("input is not a valid query of the requested method",
				logger.FieldQuery, input, logger.FieldMethod, string(hint))
			return Params{}, errors.Wrapf(ErrDetectionFailure, "%q is not a valid %s query", input, hint)
		}
	}

	d.log.Warnw("input could not be parsed", logger.FieldQuery, input)
	return Params{}, errors.Wrapf(ErrDetectionFailure, "%q", input)
}

func (d *Dispatcher) detectID(_ context.Context, input string) (Params, bool) {
	if input == "" || strings.ContainsAny(input, " \t") {
		return Params{}, false
	}
	var database string
	switch {
	case strings.HasPrefix(input, "LM") && len(input) > 11 && len(input) < 15:
		database = models.DBLipidMaps
	case strings.HasPrefix(input, "SLM:"):
		database = models.DBSwissLipids
	case strings.HasPrefix(input, "CHEBI:"):
		database = models.DBChEBI
	default:
		return Params{}, false
	}
	l := models.NewLipid()
	l.AddDatabaseIdentifier(models.NewDatabaseIdentifier(database, input,
		models.NewSource("", models.LevelUnknown, QueryParameterOrigin)))
	return Params{Method: MethodID, Lipid: l}, true
}

func (d *Dispatcher) detectMZ(_ context.Context, input string) (Params, bool) {
	fields := strings.SplitN(input, ";", 4)
	if len(fields) < 2 {
		return Params{}, false
	}
	mz, ok := parseFinite(fields[0])
	if !ok {
		return Params{}, false
	}
	tolerance, ok := parseFinite(fields[1])
	if !ok {
		return Params{}, false
	}

	selector := ""
	if len(fields) > 2 {
		selector = fold.String(strings.TrimSpace(fields[2]))
	}
	var selected []*models.Adduct
	switch {
	case selector == "":
		selected = d.catalog.All()
	case positiveKeywords[selector]:
		selected = d.catalog.Positive()
	case negativeKeywords[selector]:
		selected = d.catalog.Negative()
	default:
		selected = d.catalog.Select(strings.Split(selector, ","))
		if len(selected) == 0 {
			d.log.Debugw("no known adduct in mz query", logger.FieldQuery, input)
			return Params{}, false
		}
	}
	return Params{Method: MethodMZ, MZ: mz, Tolerance: tolerance, Adducts: selected}, true
}

func (d *Dispatcher) detectName(ctx context.Context, input string) (Params, bool) {
	res, err := d.resolver.Resolve(ctx, input)
	if err != nil {
		// timeouts are logged by the resolver; cancellation is caught by the caller
		return Params{}, false
	}
	if res.Level() == models.LevelUnknown {
		return Params{}, false
	}
	return Params{Method: MethodName, Lipid: models.NewLipidWithNomenclature(res.Nomenclature())}, true
}

func parseFinite(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
