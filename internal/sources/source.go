// Package sources defines the connector contract shared by every lipid data
// source and the registry that creates connectors on demand.
package sources

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"lipidlibrarian/internal/metrics"
	"lipidlibrarian/pkg/models"
)

// ErrConnectorUnavailable is logged when a connector cannot be constructed.
// The registry then serves a stub for that name.
var ErrConnectorUnavailable = errors.New("connector unavailable")

// ErrNotFound is returned by the HTTP client for 404 responses. Connectors
// translate it into an empty result.
var ErrNotFound = errors.New("not found")

// Source is implemented by each external lipid data source. Every method
// returns an empty list, not an error, when nothing matches, when the input is
// invalid or when the source does not support the query shape. Errors are
// reserved for transport and data failures.
type Source interface {
	Name() string
	QueryLipid(ctx context.Context, lipid *models.Lipid) ([]*models.Lipid, error)
	QueryMZ(ctx context.Context, mz, tolerance float64, adducts []*models.Adduct, cutoff int) ([]*models.Lipid, error)
	QueryID(ctx context.Context, identifier string) ([]*models.Lipid, error)
	QueryName(ctx context.Context, name string, level models.Level) ([]*models.Lipid, error)
}

// Connector names, in the order the registry knows them.
const (
	SwissLipids = "swisslipids"
	LipidMaps   = "lipidmaps"
	Alex123     = "alex123"
	Linex       = "linex"
	Lion        = "lion"
)

// PrimaryOrder is the phase order of the connectors that answer raw queries.
var PrimaryOrder = []string{SwissLipids, LipidMaps, Alex123}

// EnrichmentOrder is the order of the connectors that annotate consolidated lipids.
var EnrichmentOrder = []string{Linex, Lion}

// ValidMZ reports whether an mz query is worth sending anywhere.
func ValidMZ(mz, tolerance float64) bool {
	return mz > 0 && tolerance >= 0
}

// Stub answers every query with an empty list.
type Stub struct {
	name string
}

func NewStub(name string) *Stub { return &Stub{name: name} }

func (s *Stub) Name() string { return s.name }

func (s *Stub) QueryLipid(context.Context, *models.Lipid) ([]*models.Lipid, error) {
	return nil, nil
}

func (s *Stub) QueryMZ(context.Context, float64, float64, []*models.Adduct, int) ([]*models.Lipid, error) {
	return nil, nil
}

func (s *Stub) QueryID(context.Context, string) ([]*models.Lipid, error) {
	return nil, nil
}

func (s *Stub) QueryName(context.Context, string, models.Level) ([]*models.Lipid, error) {
	return nil, nil
}

// instrumented records call counts, durations and result sizes for a Source.
type instrumented struct {
	Source
}

// Instrument wraps s with connector metrics.
func Instrument(s Source) Source {
	if _, ok := s.(*instrumented); ok {
		return s
	}
	return &instrumented{Source: s}
}

func (i *instrumented) observe(shape string, start time.Time, out []*models.Lipid, err error) {
	name := i.Source.Name()
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.ConnectorCallsTotal.WithLabelValues(name, shape, status).Inc()
	metrics.ConnectorDuration.WithLabelValues(name, shape).Observe(time.Since(start).Seconds())
	metrics.ConnectorResultsTotal.WithLabelValues(name).Add(float64(len(out)))
}

func (i *instrumented) QueryLipid(ctx context.Context, lipid *models.Lipid) ([]*models.Lipid, error) {
	start := time.Now()
	out, err := i.Source.QueryLipid(ctx, lipid)
	i.observe("lipid", start, out, err)
	return out, err
}

func (i *instrumented) QueryMZ(ctx context.Context, mz, tolerance float64, adducts []*models.Adduct, cutoff int) ([]*models.Lipid, error) {
	start := time.Now()
	out, err := i.Source.QueryMZ(ctx, mz, tolerance, adducts, cutoff)
	i.observe("mz", start, out, err)
	return out, err
}

func (i *instrumented) QueryID(ctx context.Context, identifier string) ([]*models.Lipid, error) {
	start := time.Now()
	out, err := i.Source.QueryID(ctx, identifier)
	i.observe("id", start, out, err)
	return out, err
}

func (i *instrumented) QueryName(ctx context.Context, name string, level models.Level) ([]*models.Lipid, error) {
	start := time.Now()
	out, err := i.Source.QueryName(ctx, name, level)
	i.observe("name", start, out, err)
	return out, err
}
