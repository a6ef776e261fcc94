// Package nomenclature resolves raw lipid names into canonical names at each
// specificity level.
package nomenclature

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"lipidlibrarian/internal/metrics"
	"lipidlibrarian/pkg/logger"
	"lipidlibrarian/pkg/models"
)

// ErrResolutionTimeout marks a resolution that exceeded the resolver timeout.
var ErrResolutionTimeout = errors.New("name resolution timed out")

const DefaultTimeout = 30 * time.Second

// Normalizer converts a lipid name to its canonical form at level.
// LevelUnknown asks for the canonical name at the name's own level.
type Normalizer interface {
	Normalize(ctx context.Context, name string, level models.Level) (string, error)
}

type Status int

const (
	Unresolved Status = iota
	Resolved
	TimedOut
)

func (s Status) String() string {
	switch s {
	case Resolved:
		return "resolved"
	case TimedOut:
		return "timed_out"
	}
	return "unresolved"
}

// Resolution is the outcome of resolving one raw name.
type Resolution struct {
	Query  string
	Names  models.LevelNames
	Status Status
}

func (r Resolution) Level() models.Level { return r.Names.Level() }

// Nomenclature builds a Nomenclature carrying the query and resolved names.
func (r Resolution) Nomenclature() *models.Nomenclature {
	return models.NewResolvedNomenclature(r.Query, r.Names)
}

// Resolver memoises normalizer results per raw input and bounds every call
// with a timeout. It is safe for concurrent use.
type Resolver struct {
	normalizer Normalizer
	timeout    time.Duration
	log        *zap.SugaredLogger

	mu    sync.Mutex
	cache map[string]Resolution
}

type Option func(*Resolver)

func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithLogger(l *zap.SugaredLogger) Option {
	return func(r *Resolver) { r.log = l }
}

func NewResolver(n Normalizer, opts ...Option) *Resolver {
	r := &Resolver{
		normalizer: n,
		timeout:    DefaultTimeout,
		cache:      make(map[string]Resolution),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = logger.Or(r.log, "nomenclature")
	return r
}

// Resolve maps name to its per-level names. An unresolvable name is not an
// error; a timeout returns a TimedOut resolution together with
// ErrResolutionTimeout. Cancellation of ctx is returned as is.
func (r *Resolver) Resolve(ctx context.Context, name string) (Resolution, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Resolution{Status: Unresolved}, nil
	}

	r.mu.Lock()
	cached, ok := r.cache[name]
	r.mu.Unlock()
	if ok {
		return cached, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan models.LevelNames, 1)
	go func() {
		done <- r.resolveLevels(ctx, name)
	}()

	var names models.LevelNames
	select {
	case names = <-done:
	case <-ctx.Done():
	}
	// a result computed under an expired context may be incomplete
	if err := ctx.Err(); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return Resolution{Query: name, Status: Unresolved}, err
	}
	if ctx.Err() != nil {
		metrics.NormalizerResolutions.WithLabelValues(TimedOut.String()).Inc()
		r.log.Warnw("lipid name resolution timed out",
			logger.FieldQuery, name,
			"timeout", r.timeout.String())
		return Resolution{Query: name, Status: TimedOut},
			errors.Wrapf(ErrResolutionTimeout, "resolve %q after %s", name, r.timeout)
	}

	res := Resolution{Query: name, Names: names, Status: Unresolved}
	if names.Level() != models.LevelUnknown {
		res.Status = Resolved
	}

	metrics.NormalizerResolutions.WithLabelValues(res.Status.String()).Inc()
	r.mu.Lock()
	r.cache[name] = res
	r.mu.Unlock()
	return res, nil
}

func (r *Resolver) resolveLevels(ctx context.Context, name string) models.LevelNames {
	if names, ok := r.levels(ctx, name); ok {
		return names
	}
	canonical, err := r.normalizer.Normalize(ctx, name, models.LevelUnknown)
	if err != nil || canonical == "" || canonical == name {
		r.log.Debugw("name not resolvable", logger.FieldQuery, name, logger.FieldError, err)
		return models.LevelNames{}
	}
	names, _ := r.levels(ctx, canonical)
	return names
}

// levels fills every level the normalizer can produce. It fails when the
// name has no sum level.
func (r *Resolver) levels(ctx context.Context, name string) (models.LevelNames, bool) {
	var names models.LevelNames
	sum, err := r.normalizer.Normalize(ctx, name, models.SumLipidSpecies)
	if err != nil || sum == "" {
		return names, false
	}
	names.Sum = sum
	for _, level := range []models.Level{
		models.LipidCategory,
		models.LipidClass,
		models.MolecularLipidSpecies,
		models.StructuralLipidSpecies,
		models.IsomericLipidSpecies,
	} {
		if out, err := r.normalizer.Normalize(ctx, name, level); err == nil {
			names.Set(level, out)
		}
	}
	return names, true
}
