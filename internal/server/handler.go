// Package server exposes the query engine over HTTP.
package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"lipidlibrarian/internal/adducts"
	"lipidlibrarian/internal/query"
	"lipidlibrarian/internal/sources/lion"
	progress "lipidlibrarian/internal/sync"
	"lipidlibrarian/pkg/logger"
	"lipidlibrarian/pkg/models"
)

// Engine is the part of the librarian the API needs.
type Engine interface {
	Query(ctx context.Context, input string, opts query.Options) (*query.Result, error)
	Options() query.Options
	Ready(ctx context.Context) error
	Ontology() (*lion.Ontology, error)
}

type Handler struct {
	Engine  Engine
	Catalog *adducts.Catalog
	Hub     *progress.Hub
	log     *zap.SugaredLogger
}

func NewHandler(e Engine, catalog *adducts.Catalog, hub *progress.Hub, log *zap.SugaredLogger) *Handler {
	return &Handler{Engine: e, Catalog: catalog, Hub: hub, log: logger.Or(log, "api")}
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(h.log))
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})
	h.RegisterRoutes(&router.RouterGroup)
	return router
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.health)
	rg.GET("/ready", h.ready)
	rg.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if h.Hub != nil {
		rg.GET("/ws", progress.WSHandler(h.Hub))
	}
	rg.GET("/lipids", h.lipids)           // GET /lipids?q=PC 34:1
	rg.GET("/adducts", h.adducts)         // GET /adducts?polarity=positive
	rg.GET("/ontology/subgraph", h.graph) // GET /ontology/subgraph?term=LION:0000001
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) ready(c *gin.Context) {
	body := gin.H{"status": "ready", "db": "ok"}
	if h.Hub != nil {
		stats := h.Hub.Stats()
		body["tcp_clients"] = stats.TCPClients
		body["ws_clients"] = stats.WSClients
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.Engine.Ready(ctx); err != nil {
		body["status"] = "not_ready"
		body["db"] = "error"
		body["db_error"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handler) lipids(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}

	opts, err := h.options(c)
	if err != nil {
		body := gin.H{"error": err.Error()}
		if hints := errors.GetAllHints(err); len(hints) > 0 {
			body["hint"] = strings.Join(hints, "; ")
		}
		c.JSON(http.StatusBadRequest, body)
		return
	}

	res, err := h.Engine.Query(c.Request.Context(), q, opts)
	if err != nil {
		h.log.Warnw("query failed", logger.FieldRequestID, RequestID(c), logger.FieldQuery, q, logger.FieldError, err)
		status := http.StatusInternalServerError
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		c.JSON(status, gin.H{"error": "query failed"})
		return
	}

	body := gin.H{
		"id":     res.ID,
		"query":  res.Query,
		"method": res.Method,
		"count":  len(res.Lipids),
		"lipids": res.Lipids,
	}
	if res.Warning != "" {
		body["warning"] = res.Warning
	}
	c.JSON(http.StatusOK, body)
}

// options overlays the request parameters on the configured defaults.
func (h *Handler) options(c *gin.Context) (query.Options, error) {
	opts := h.Engine.Options()

	method, err := query.ParseMethod(c.Query("method"))
	if err != nil {
		return opts, err
	}
	opts.Method = method

	if s := c.Query("requeries"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return opts, errors.Wrap(err, "requeries")
		}
		opts.Requeries = n
	}
	if s := c.Query("cutoff"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return opts, errors.Wrap(err, "cutoff")
		}
		opts.Cutoff = n
	}

	// sources=alex123,linex OR sources=alex123&sources=linex
	if names := splitList(c.QueryArray("sources")); len(names) > 0 {
		opts.Sources = names
	}
	return opts, opts.Validate()
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (h *Handler) adducts(c *gin.Context) {
	var items []*models.Adduct
	switch strings.ToLower(c.Query("polarity")) {
	case "":
		items = h.Catalog.All()
	case "positive", "+":
		items = h.Catalog.Positive()
	case "negative", "-":
		items = h.Catalog.Negative()
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "polarity must be positive or negative"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(items), "adducts": items})
}

func (h *Handler) graph(c *gin.Context) {
	terms := splitList(c.QueryArray("term"))
	if len(terms) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "term is required"})
		return
	}

	o, err := h.Engine.Ontology()
	if err != nil {
		h.log.Debugw("ontology unavailable", logger.FieldError, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ontology not loaded"})
		return
	}

	edges := o.Subgraph(terms)
	if edges == nil {
		edges = []lion.Edge{}
	}
	c.JSON(http.StatusOK, gin.H{
		"nodes": o.NodeData(terms),
		"edges": edges,
	})
}
