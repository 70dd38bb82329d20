// Command wasmguard runs the sandboxed Wasm execution service: a POST
// /execute endpoint that invokes exported functions of untrusted Wasm
// modules under fuel, epoch, memory, and instance-count limits, and a GET
// /metrics endpoint exposing the Prometheus counters it updates.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ifruncillo/wasmguard/internal/config"
	"github.com/ifruncillo/wasmguard/internal/gate"
	"github.com/ifruncillo/wasmguard/internal/logging"
	"github.com/ifruncillo/wasmguard/internal/metrics"
	"github.com/ifruncillo/wasmguard/internal/process"
	"github.com/ifruncillo/wasmguard/internal/wasm"
)

func main() {
	log, err := logging.New()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		log.Fatal("wasmguard exited with error", zap.Error(err))
	}
}

func run(log *zap.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	engine, err := wasm.NewEngine(cfg)
	if err != nil {
		return err
	}

	loader := wasm.NewLoader(engine, cfg.ModuleBaseDir, cfg.MaxModuleBytes)
	executor := wasm.NewExecutor(engine, loader, cfg)
	instances := process.NewInstanceGate(cfg.MaxInstances)
	reg := metrics.New()

	srv := gate.New(cfg, engine, executor, instances, reg, log)

	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: srv.Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("wasmguard listening",
			zap.String("addr", cfg.BindAddr),
			zap.String("module_base_dir", cfg.ModuleBaseDir),
			zap.Int("max_instances", cfg.MaxInstances),
			zap.Uint64("fuel_limit", cfg.FuelLimit),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
