// Package librarian assembles the query engine from configuration: the name
// resolver, the adduct catalog, the connector registry and the orchestrator.
package librarian

import (
	"context"
	"database/sql"
	"sync"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"lipidlibrarian/internal/adducts"
	"lipidlibrarian/internal/nomenclature"
	"lipidlibrarian/internal/query"
	"lipidlibrarian/internal/sources"
	"lipidlibrarian/internal/sources/alex123"
	"lipidlibrarian/internal/sources/linex"
	"lipidlibrarian/internal/sources/lion"
	"lipidlibrarian/internal/sources/lipidmaps"
	"lipidlibrarian/internal/sources/swisslipids"
	progress "lipidlibrarian/internal/sync"
	"lipidlibrarian/pkg/database"
	"lipidlibrarian/pkg/logger"
	"lipidlibrarian/pkg/utils"
)

// Librarian owns every long-lived component of the engine. Connectors and
// their backing data are built lazily on first use.
type Librarian struct {
	cfg *utils.Config
	log *zap.SugaredLogger

	Resolver     *nomenclature.Resolver
	Catalog      *adducts.Catalog
	Registry     *sources.Registry
	Dispatcher   *query.Dispatcher
	Orchestrator *query.Orchestrator

	dbOnce sync.Once
	db     *sql.DB
	dbErr  error

	ontologyOnce sync.Once
	ontology     *lion.Ontology
	ontologyErr  error
}

// New wires the engine. observer receives query progress and may be nil.
func New(cfg *utils.Config, observer progress.Observer, log *zap.SugaredLogger) *Librarian {
	log = logger.Or(log, "librarian")
	l := &Librarian{
		cfg:     cfg,
		log:     log,
		Catalog: adducts.Default(),
		Resolver: nomenclature.NewResolver(nomenclature.NewShorthand(),
			nomenclature.WithTimeout(cfg.NormalizerTimeout),
			nomenclature.WithLogger(log.Named("nomenclature"))),
		Registry: sources.NewRegistry(log.Named("registry")),
	}
	l.register()
	l.Dispatcher = query.NewDispatcher(l.Resolver, l.Catalog, log.Named("dispatcher"))
	l.Orchestrator = query.NewOrchestrator(l.Dispatcher, l.Registry, observer, log.Named("orchestrator"))
	return l
}

func (l *Librarian) register() {
	httpOpts := sources.HTTPOptions{
		Timeout:       l.cfg.HTTP.Timeout,
		RatePerSecond: l.cfg.HTTP.RatePerSecond,
		Burst:         l.cfg.HTTP.Burst,
	}

	l.Registry.Register(sources.SwissLipids, func() (sources.Source, error) {
		client := sources.NewHTTPClient(sources.SwissLipids, baseURL(l.cfg.SwissLipids, swisslipids.DefaultBaseURL), httpOpts)
		return swisslipids.New(client, l.Resolver, l.Catalog, l.log.Named(sources.SwissLipids)), nil
	})
	l.Registry.Register(sources.LipidMaps, func() (sources.Source, error) {
		client := sources.NewHTTPClient(sources.LipidMaps, baseURL(l.cfg.LipidMaps, lipidmaps.DefaultBaseURL), httpOpts)
		return lipidmaps.New(client, l.Resolver, l.Catalog, l.log.Named(sources.LipidMaps)), nil
	})
	l.Registry.Register(sources.Alex123, func() (sources.Source, error) {
		db, err := l.DB()
		if err != nil {
			return nil, err
		}
		return alex123.New(db, l.Resolver, l.Catalog, l.log.Named(sources.Alex123)), nil
	})
	l.Registry.Register(sources.Linex, func() (sources.Source, error) {
		table, err := linex.LoadTable(l.cfg.Linex.ReactionsPath)
		if err != nil {
			return nil, err
		}
		return linex.NewConnector(table, l.log.Named(sources.Linex)), nil
	})
	l.Registry.Register(sources.Lion, func() (sources.Source, error) {
		o, err := l.Ontology()
		if err != nil {
			return nil, err
		}
		return lion.NewConnector(o, l.log.Named(sources.Lion)), nil
	})
}

func baseURL(e utils.EndpointConfig, def string) string {
	if e.BaseURL != "" {
		return e.BaseURL
	}
	return def
}

// Options returns the configured query defaults.
func (l *Librarian) Options() query.Options {
	return query.Options{
		Requeries: l.cfg.Query.Requeries,
		Cutoff:    l.cfg.Query.Cutoff,
		Sources:   append([]string(nil), l.cfg.Query.Sources...),
	}
}

func (l *Librarian) Query(ctx context.Context, input string, opts query.Options) (*query.Result, error) {
	return l.Orchestrator.Query(ctx, input, opts)
}

// DB opens the ALEX123 database once. A missing file is an error; the
// database is never created implicitly.
func (l *Librarian) DB() (*sql.DB, error) {
	l.dbOnce.Do(func() {
		cfg := database.DefaultConfig()
		if l.cfg.Alex123.DBPath != "" {
			cfg.Path = l.cfg.Alex123.DBPath
		}
		l.db, l.dbErr = database.OpenExisting(cfg)
		if l.dbErr == nil {
			l.log.Infow("alex123 database opened", logger.FieldPath, cfg.Path)
		}
	})
	return l.db, l.dbErr
}

// Ontology loads the LION data once.
func (l *Librarian) Ontology() (*lion.Ontology, error) {
	l.ontologyOnce.Do(func() {
		l.ontology, l.ontologyErr = lion.Load(l.cfg.Lion.AssociationPath, l.cfg.Lion.OBOPath)
		if l.ontologyErr == nil {
			terms, lipids := l.ontology.Size()
			l.log.Infow("lion ontology loaded", "terms", terms, "lipids", lipids)
		}
	})
	return l.ontology, l.ontologyErr
}

// Ready reports whether the configured ALEX123 database answers. Without an
// explicit db_path the check is skipped.
func (l *Librarian) Ready(ctx context.Context) error {
	if l.cfg.Alex123.DBPath == "" {
		return nil
	}
	db, err := l.DB()
	if err != nil {
		return err
	}
	return errors.Wrap(db.PingContext(ctx), "ping alex123 database")
}

func (l *Librarian) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}
