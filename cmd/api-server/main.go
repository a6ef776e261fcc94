package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"lipidlibrarian/internal/librarian"
	"lipidlibrarian/internal/server"
	progress "lipidlibrarian/internal/sync"
	"lipidlibrarian/pkg/logger"
	"lipidlibrarian/pkg/utils"
)

func main() {
	configPath := flag.String("config", "", "path to a lipidlibrarian.toml file")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	// console logging until the configuration decides the format
	_ = logger.Initialize(false, verbosity(*verbose))
	cfg, err := utils.LoadConfig(*configPath)
	if err != nil {
		logger.Logger.Fatalw("load config failed", logger.FieldError, err)
	}
	if err := logger.Initialize(cfg.Log.JSON, verbosity(*verbose)); err != nil {
		logger.Logger.Fatalw("logger init failed", logger.FieldError, err)
	}
	defer logger.Sync()
	log := logger.Named("api-server")

	if !*verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	// progress events fan out to /ws and the TCP stream
	hub := progress.NewHub(logger.Named("hub"))
	lib := librarian.New(cfg, hub, logger.Named("librarian"))
	defer lib.Close()

	router := server.NewRouter(server.NewHandler(lib, lib.Catalog, hub, logger.Named("api")))
	httpSrv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	if cfg.Server.ProgressAddr != "" {
		tcpSrv := progress.NewServer(cfg.Server.ProgressAddr, hub, logger.Named("tcp-progress"))
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := tcpSrv.Run(ctx); err != nil {
				errCh <- err
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Infow("HTTP API server listening", "addr", cfg.Server.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Infow("shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		log.Errorw("server error", logger.FieldError, err)
	}

	log.Info("shutting down servers")
	cancel()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warnw("http shutdown error", logger.FieldError, err)
	}

	wg.Wait()
	log.Info("servers stopped")
}

func verbosity(verbose bool) int {
	if verbose {
		return 1
	}
	return 0
}
