package query

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"lipidlibrarian/internal/metrics"
	"lipidlibrarian/internal/sources"
	progress "lipidlibrarian/internal/sync"
	"lipidlibrarian/pkg/logger"
	"lipidlibrarian/pkg/models"
)

// Options control one query run.
type Options struct {
	Method    Method
	Requeries int
	Cutoff    int
	// Sources selects connectors by name; nil selects every registered one.
	Sources []string
}

func (o Options) Validate() error {
	if o.Requeries < 0 {
		return errors.WithHint(errors.Newf("requeries must be >= 0, got %d", o.Requeries),
			"use 0 to disable requerying")
	}
	if o.Cutoff < 0 {
		return errors.WithHint(errors.Newf("cutoff must be >= 0, got %d", o.Cutoff),
			"use 0 to keep every mz match")
	}
	return nil
}

// Result is the outcome of one query.
type Result struct {
	ID      string          `json:"id"`
	Query   string          `json:"query"`
	Method  Method          `json:"method"`
	Lipids  []*models.Lipid `json:"lipids"`
	Warning string          `json:"warning,omitempty"`
}

// Orchestrator drives the connectors for one query at a time. Each call to
// Query owns its working list, so one Orchestrator may serve concurrent
// requests.
type Orchestrator struct {
	dispatcher *Dispatcher
	registry   *sources.Registry
	observer   progress.Observer
	log        *zap.SugaredLogger
}

// NewOrchestrator wires the dispatcher and connector registry. observer may be nil.
func NewOrchestrator(d *Dispatcher, r *sources.Registry, observer progress.Observer, log *zap.SugaredLogger) *Orchestrator {
	if observer == nil {
		observer = progress.Nop
	}
	return &Orchestrator{dispatcher: d, registry: r, observer: observer, log: logger.Or(log, "orchestrator")}
}

// run carries the state of one query.
type run struct {
	*Orchestrator
	id      string
	input   string
	method  Method
	cutoff  int
	log     *zap.SugaredLogger
	working []*models.Lipid
}

func (r *run) emit(typ string, mutate ...func(*progress.QueryEvent)) {
	e := progress.QueryEvent{Type: typ, QueryID: r.id, Input: r.input, Method: string(r.method), At: time.Now().UTC()}
	for _, m := range mutate {
		m(&e)
	}
	r.observer.Observe(e)
}

// Query resolves input into consolidated lipids. A detection failure is not
// an error: the result is empty and carries a warning. Connector failures are
// logged and skipped.
func (o *Orchestrator) Query(ctx context.Context, input string, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r := &run{Orchestrator: o, id: uuid.NewString(), input: input, cutoff: opts.Cutoff}
	r.log = o.log.With(logger.FieldRequestID, r.id, logger.FieldQuery, input)
	start := time.Now()
	r.emit(progress.EventQueryStarted)

	params, err := o.dispatcher.Detect(ctx, input, opts.Method)
	if err != nil {
		metrics.QueriesTotal.WithLabelValues("none", "undetected").Inc()
		r.emit(progress.EventQueryFailed, func(e *progress.QueryEvent) { e.Error = err.Error() })
		if errors.Is(err, ErrDetectionFailure) {
			return &Result{ID: r.id, Query: input, Method: opts.Method, Lipids: []*models.Lipid{}, Warning: err.Error()}, nil
		}
		return nil, err
	}
	r.method = params.Method
	r.emit(progress.EventQueryDetected)
	r.log.Infow("querying", logger.FieldMethod, string(params.Method), logger.FieldLevel, params.TargetLevel().String())

	names := opts.Sources
	if names == nil {
		names = o.registry.Names()
	}
	selected := o.registry.Select(names)

	lipids, err := r.execute(ctx, params, opts.Requeries, selected)
	status := "ok"
	if err != nil {
		status = "error"
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = "canceled"
		}
	}
	metrics.QueriesTotal.WithLabelValues(string(params.Method), status).Inc()
	metrics.QueryDuration.WithLabelValues(string(params.Method)).Observe(time.Since(start).Seconds())
	if err != nil {
		r.emit(progress.EventQueryFailed, func(e *progress.QueryEvent) { e.Error = err.Error() })
		return nil, err
	}

	r.emit(progress.EventQueryFinished, func(e *progress.QueryEvent) { e.Count = len(lipids) })
	r.log.Infow("query done", logger.FieldCount, len(lipids), logger.FieldDurationMS, time.Since(start).Milliseconds())
	return &Result{ID: r.id, Query: input, Method: params.Method, Lipids: lipids}, nil
}

func (r *run) execute(ctx context.Context, params Params, requeries int, selected map[string]sources.Source) ([]*models.Lipid, error) {
	for _, name := range sources.PrimaryOrder {
		src, ok := selected[name]
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.fold(r.call(ctx, src, params))
		r.emit(progress.EventPhaseCompleted, func(e *progress.QueryEvent) {
			e.Phase, e.Source, e.Count = "primary", name, len(r.working)
		})
	}

	for i := 1; i <= requeries; i++ {
		phase := fmt.Sprintf("requery.%d", i)
		snapshot := make([]*models.Lipid, len(r.working))
		for j, l := range r.working {
			snapshot[j] = l.Clone()
		}
		r.emit(progress.EventRequeryStarted, func(e *progress.QueryEvent) { e.Phase, e.Count = phase, len(snapshot) })

		for _, lipid := range snapshot {
			for _, name := range sources.PrimaryOrder {
				src, ok := selected[name]
				if !ok {
					continue
				}
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				r.fold(r.queryLipid(ctx, src, lipid))
			}
		}
		r.emit(progress.EventPhaseCompleted, func(e *progress.QueryEvent) { e.Phase, e.Count = phase, len(r.working) })
	}

	out := Consolidate(r.working, params.TargetLevel())
	r.emit(progress.EventQueryConsolidated, func(e *progress.QueryEvent) { e.Count = len(out) })

	enriched := false
	n := len(out)
	for i := 0; i < n; i++ {
		lipid := out[i]
		for _, name := range sources.EnrichmentOrder {
			src, ok := selected[name]
			if !ok {
				continue
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			enriched = true
			for _, l := range r.queryLipid(ctx, src, lipid) {
				out = models.AppendLipid(out, l)
			}
		}
		lipid.Query = r.input
	}
	if enriched {
		r.emit(progress.EventPhaseCompleted, func(e *progress.QueryEvent) { e.Phase, e.Count = "enrichment", len(out) })
	}
	if out == nil {
		out = []*models.Lipid{}
	}
	return out, nil
}

func (r *run) fold(lipids []*models.Lipid) {
	for _, l := range lipids {
		r.working = models.AppendLipid(r.working, l)
	}
}

// call sends the detected parameters to src in the shape they were detected in.
func (r *run) call(ctx context.Context, src sources.Source, params Params) []*models.Lipid {
	if params.IsMZ() {
		out, err := src.QueryMZ(ctx, params.MZ, params.Tolerance, params.Adducts, r.cutoff)
		return r.checked(src, "mz", out, err)
	}
	return r.queryLipid(ctx, src, params.Lipid)
}

func (r *run) queryLipid(ctx context.Context, src sources.Source, lipid *models.Lipid) []*models.Lipid {
	out, err := src.QueryLipid(ctx, lipid)
	return r.checked(src, "lipid", out, err)
}

// checked drops the results of a failed call: one broken source must not
// abort the query.
func (r *run) checked(src sources.Source, shape string, out []*models.Lipid, err error) []*models.Lipid {
	if err != nil {
		r.log.Warnw("connector failed",
			logger.FieldSource, src.Name(),
			logger.FieldShape, shape,
			logger.FieldError, err)
		return nil
	}
	r.log.Debugw("connector answered", logger.FieldSource, src.Name(), logger.FieldShape, shape, logger.FieldCount, len(out))
	return out
}
