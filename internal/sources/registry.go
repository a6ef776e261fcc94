package sources

import (
	"sync"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"lipidlibrarian/pkg/logger"
)

// Constructor builds a connector. It runs at most once per registry and name.
type Constructor func() (Source, error)

// Registry maps connector names to constructors and memoises the instances.
// Connectors are built on first use; a failing constructor binds the name to
// a Stub for the lifetime of the registry. It is safe for concurrent use.
type Registry struct {
	log *zap.SugaredLogger

	mu           sync.Mutex
	constructors map[string]Constructor
	order        []string
	instances    map[string]Source
}

func NewRegistry(log *zap.SugaredLogger) *Registry {
	return &Registry{
		log:          logger.Or(log, "registry"),
		constructors: make(map[string]Constructor),
		instances:    make(map[string]Source),
	}
}

// Register binds name to ctor, replacing any earlier binding that has not
// been built yet.
func (r *Registry) Register(name string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.constructors[name]; !ok {
		r.order = append(r.order, name)
	}
	r.constructors[name] = ctor
}

// RegisterSource binds name to an already built connector.
func (r *Registry) RegisterSource(s Source) {
	r.Register(s.Name(), func() (Source, error) { return s, nil })
}

// Names lists the registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

// Get returns the connector bound to name, building it if needed. Unknown
// names report false.
func (r *Registry) Get(name string) (Source, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.instances[name]; ok {
		return s, true
	}
	ctor, ok := r.constructors[name]
	if !ok {
		return nil, false
	}

	s, err := ctor()
	if err == nil && s == nil {
		err = errors.New("constructor returned no connector")
	}
	if err != nil {
		r.log.Warnw("connector unavailable, using stub",
			logger.FieldSource, name,
			logger.FieldError, errors.Mark(errors.Wrapf(err, "construct %s", name), ErrConnectorUnavailable))
		s = NewStub(name)
	} else {
		s = Instrument(s)
	}
	r.instances[name] = s
	return s, true
}

// Select resolves the selected names that are registered, keyed by name.
func (r *Registry) Select(names []string) map[string]Source {
	out := make(map[string]Source, len(names))
	for _, name := range names {
		if s, ok := r.Get(name); ok {
			out[name] = s
		} else {
			r.log.Debugw("unknown connector selected", logger.FieldSource, name)
		}
	}
	return out
}
