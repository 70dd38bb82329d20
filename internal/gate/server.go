// Package gate implements the Request Gate: the HTTP surface in front of
// internal/wasm's Executor, the global instance cap, and the two-sided
// execution timeout.
package gate

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/bytecodealliance/wasmtime-go/v15"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ifruncillo/wasmguard/internal/config"
	"github.com/ifruncillo/wasmguard/internal/metrics"
	"github.com/ifruncillo/wasmguard/internal/process"
	"github.com/ifruncillo/wasmguard/internal/wasm"
)

// Server wires together every process-wide singleton the Request Gate
// depends on: engine, config, metrics, the instance-count atomic — all
// dependency-injected, nothing ambient.
type Server struct {
	cfg      *config.RuntimeConfig
	engine   *wasmtime.Engine
	executor *wasm.Executor
	instances *process.InstanceGate
	metrics  *metrics.Registry
	log      *zap.Logger
}

func New(cfg *config.RuntimeConfig, engine *wasmtime.Engine, executor *wasm.Executor, instances *process.InstanceGate, reg *metrics.Registry, log *zap.Logger) *Server {
	return &Server{cfg: cfg, engine: engine, executor: executor, instances: instances, metrics: reg, log: log}
}

// Handler builds the two-route mux: /execute and /metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/execute", s.handleExecute)
	mux.Handle("/metrics", s.metrics.Handler())
	return mux
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	requestID := uuid.NewString()
	log := s.log.With(zap.String("request_id", requestID))

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxRequestBodyBytes)

	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("malformed request body", zap.Error(err))
		if isMaxBytesError(err) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "malformed JSON", http.StatusBadRequest)
		return
	}

	admitted := s.instances.TryAcquire()
	s.metrics.SetActiveInstances(s.instances.Active())
	if !admitted {
		s.instances.Release()
		s.metrics.SetActiveInstances(s.instances.Active())
		s.metrics.RecordFailure(metrics.ReasonInstanceLimit, 0, false)
		log.Info("rejected: instance limit reached", zap.String("module_path", req.ModulePath))
		writeJSON(w, executeResponse{Success: false, Error: "Too many active instances"})
		return
	}
	defer func() {
		s.instances.Release()
		s.metrics.SetActiveInstances(s.instances.Active())
	}()

	effectiveTimeout := s.effectiveTimeout(req.TimeoutSeconds)

	wasmReq := &wasm.Request{
		ModulePath:     req.ModulePath,
		FunctionName:   req.FunctionName,
		Params:         req.Params,
		TimeoutSeconds: int(effectiveTimeout.Seconds()),
	}

	resp := s.runWithTimeout(wasmReq, effectiveTimeout, log)

	log.Info("execute completed",
		zap.String("module_path", req.ModulePath),
		zap.String("function_name", req.FunctionName),
		zap.Bool("success", resp.Success),
		zap.Int64("execution_time_ms", resp.ExecutionTimeMs),
	)
	writeJSON(w, resp)
}

// runWithTimeout is the two-sided timeout: the executor runs in its own
// goroutine (the Wasm call itself does not yield);
// a wall-clock timer of the same duration races it. If the timer wins, the
// engine epoch is incremented exactly once, which is what eventually
// interrupts the in-flight Store; the handler does not wait for that to
// happen before replying.
func (s *Server) runWithTimeout(req *wasm.Request, timeout time.Duration, log *zap.Logger) executeResponse {
	done := make(chan *wasm.Response, 1)
	start := time.Now()

	go func() {
		done <- s.executor.Execute(req)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-done:
		resp := executeResponse{
			Success:         r.Success,
			Result:          r.Result,
			Error:           r.Error,
			ExecutionTimeMs: r.ExecutionTimeMs,
			MemoryUsedBytes: r.MemoryUsedBytes,
			FuelConsumed:    r.FuelConsumed,
		}
		if resp.Success {
			s.metrics.RecordSuccess(time.Since(start).Seconds())
		} else if r.Kind == wasm.KindInterrupted {
			s.metrics.RecordFailure(metrics.ReasonTimeout, time.Since(start).Seconds(), true)
		} else {
			s.metrics.RecordFailure(metrics.ReasonExecutionError, time.Since(start).Seconds(), true)
		}
		return resp

	case <-timer.C:
		s.engine.IncrementEpoch()
		log.Info("execution timed out at gate", zap.Duration("timeout", timeout))
		s.metrics.RecordFailure(metrics.ReasonTimeout, timeout.Seconds(), true)
		return executeResponse{
			Success:         false,
			Error:           "Execution timed out",
			ExecutionTimeMs: timeout.Milliseconds(),
		}
	}
}

// effectiveTimeout clamps request.timeout_seconds, if present, to
// [1, max_timeout_seconds]; otherwise the configured default is used as-is.
func (s *Server) effectiveTimeout(requested *int) time.Duration {
	if requested == nil {
		return time.Duration(s.cfg.DefaultTimeoutSeconds) * time.Second
	}
	seconds := *requested
	if seconds < 1 {
		seconds = 1
	}
	if seconds > s.cfg.MaxTimeoutSeconds {
		seconds = s.cfg.MaxTimeoutSeconds
	}
	return time.Duration(seconds) * time.Second
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}

func isMaxBytesError(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
