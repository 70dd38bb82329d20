package wasm

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bytecodealliance/wasmtime-go/v15"

	"github.com/ifruncillo/wasmguard/internal/config"
)

// Request is the marshalled form of an execute call, with TimeoutSeconds
// already clamped by the caller (internal/gate).
type Request struct {
	ModulePath      string
	FunctionName    string
	Params          json.RawMessage
	TimeoutSeconds  int
}

// Response is the result of one invocation. Kind is not part of the wire
// shape (the wire response only carries an "error" string) but lets
// internal/gate pick the right failure counter without re-parsing Error.
type Response struct {
	Success         bool
	Result          any
	Error           string
	Kind            Kind
	ExecutionTimeMs int64
	MemoryUsedBytes int64
	FuelConsumed    uint64
}

// Executor builds a Store per invocation and runs exactly one exported
// function in it, under the two-sided epoch+wall-clock timeout scheme: a
// timer goroutine races the call, and the caller's engine epoch tick is
// what actually interrupts execution in flight.
type Executor struct {
	engine *wasmtime.Engine
	loader *Loader
	cfg    *config.RuntimeConfig
}

func NewExecutor(engine *wasmtime.Engine, loader *Loader, cfg *config.RuntimeConfig) *Executor {
	return &Executor{engine: engine, loader: loader, cfg: cfg}
}

// Execute runs req.FunctionName from req.ModulePath to completion, to a
// trap, to fuel exhaustion, or until the engine epoch set by the caller's
// timer fires. Every failure, including one that stops the request before
// any guest code runs (a loader rejection, a bad parameter), is reported as
// Response{Success:false, Error:..., Kind:...}.
func (e *Executor) Execute(req *Request) *Response {
	start := time.Now()

	module, err := e.loader.Load(req.ModulePath)
	if err != nil {
		return failureResponse(err)
	}

	store := wasmtime.NewStore(e.engine)
	defer store.Close()

	store.Limiter(newLimiter(e.cfg.MaxMemoryPages, e.cfg.MaxTableElements))

	if err := store.SetFuel(e.cfg.FuelLimit); err != nil {
		return failureResponse(newError(KindExecutionError, "execution_error: %v", err))
	}
	store.SetEpochDeadline(1)

	wasiConfig := wasmtime.NewWasiConfig()
	wasiConfig.InheritStdout()
	wasiConfig.InheritStderr()
	store.SetWasi(wasiConfig)

	linker := wasmtime.NewLinker(e.engine)
	if err := linker.DefineWasi(); err != nil {
		return failureResponse(newError(KindInstantiateFailed, "instantiate_failed: %v", err))
	}

	instance, err := linker.Instantiate(store, module)
	if err != nil {
		return failureResponse(newError(KindInstantiateFailed, "instantiate_failed: %v", err))
	}

	fn := instance.GetFunc(store, req.FunctionName)
	if fn == nil {
		return failureResponse(newError(KindFunctionNotFound, "Function not found: %s", req.FunctionName))
	}

	paramTypes := fn.Type(store).Params()
	args, err := MarshalParams(req.Params, paramTypes)
	if err != nil {
		return failureResponse(err)
	}

	initialMemory := memorySize(store, instance)

	callArgs := make([]any, len(args))
	for i, a := range args {
		callArgs[i] = valToAny(a)
	}

	raw, callErr := fn.Call(store, callArgs...)
	elapsed := time.Since(start)

	finalMemory := memorySize(store, instance)
	memoryUsed := finalMemory - initialMemory
	if memoryUsed < 0 {
		memoryUsed = 0
	}

	remaining, _ := store.GetFuel()
	fuelConsumed := e.cfg.FuelLimit - remaining

	if callErr != nil {
		classified := classifyTrap(callErr)
		resp := failureResponse(classified)
		resp.ExecutionTimeMs = elapsed.Milliseconds()
		resp.MemoryUsedBytes = memoryUsed
		resp.FuelConsumed = fuelConsumed
		return resp
	}

	result, err := resultsToJSON(raw, fn.Type(store).Results())
	if err != nil {
		resp := failureResponse(err)
		resp.ExecutionTimeMs = elapsed.Milliseconds()
		resp.MemoryUsedBytes = memoryUsed
		resp.FuelConsumed = fuelConsumed
		return resp
	}

	return &Response{
		Success:         true,
		Result:          result,
		ExecutionTimeMs: elapsed.Milliseconds(),
		MemoryUsedBytes: memoryUsed,
		FuelConsumed:    fuelConsumed,
	}
}

func failureResponse(err error) *Response {
	resp := &Response{Success: false, Error: err.Error(), Kind: KindExecutionError}
	if e, ok := err.(*Error); ok {
		resp.Kind = e.Kind
	}
	return resp
}

func memorySize(store wasmtime.Storelike, instance *wasmtime.Instance) int64 {
	mem := instance.GetExport(store, "memory")
	if mem == nil || mem.Memory() == nil {
		return 0
	}
	return int64(mem.Memory().DataSize(store))
}

func valToAny(v wasmtime.Val) any {
	switch v.Kind() {
	case wasmtime.KindI32:
		return v.I32()
	case wasmtime.KindI64:
		return v.I64()
	case wasmtime.KindF32:
		return v.F32()
	case wasmtime.KindF64:
		return v.F64()
	default:
		return nil
	}
}

// fn.Call returns a single `any` for one result, a []any for several, or
// nil for none (the wasmtime-go calling convention); resultsToJSON wraps
// those back into wasmtime.Val so MarshalResults can apply the
// non-finite-float rule uniformly.
func resultsToJSON(raw any, resultTypes []*wasmtime.ValType) (any, error) {
	var rawSlice []any
	switch v := raw.(type) {
	case nil:
		rawSlice = nil
	case []any:
		rawSlice = v
	default:
		rawSlice = []any{v}
	}

	if len(rawSlice) != len(resultTypes) {
		return nil, newError(KindBadResult, "bad_result: arity mismatch")
	}

	vals := make([]wasmtime.Val, len(rawSlice))
	for i, r := range rawSlice {
		val, err := anyToVal(r, resultTypes[i])
		if err != nil {
			return nil, err
		}
		vals[i] = val
	}
	return MarshalResults(vals)
}

func anyToVal(r any, t *wasmtime.ValType) (wasmtime.Val, error) {
	switch t.Kind() {
	case wasmtime.KindI32:
		n, ok := r.(int32)
		if !ok {
			return wasmtime.Val{}, newError(KindBadResult, "bad_result: unsupported type")
		}
		return wasmtime.ValI32(n), nil
	case wasmtime.KindI64:
		n, ok := r.(int64)
		if !ok {
			return wasmtime.Val{}, newError(KindBadResult, "bad_result: unsupported type")
		}
		return wasmtime.ValI64(n), nil
	case wasmtime.KindF32:
		f, ok := r.(float32)
		if !ok {
			return wasmtime.Val{}, newError(KindBadResult, "bad_result: unsupported type")
		}
		return wasmtime.ValF32(f), nil
	case wasmtime.KindF64:
		f, ok := r.(float64)
		if !ok {
			return wasmtime.Val{}, newError(KindBadResult, "bad_result: unsupported type")
		}
		return wasmtime.ValF64(f), nil
	default:
		return wasmtime.Val{}, newError(KindBadResult, "bad_result: unsupported type")
	}
}

// classifyTrap maps an engine-returned failure into the failure-kind
// taxonomy (fuel_exhausted, interrupted, trap(kind), execution_error).
func classifyTrap(err error) *Error {
	trap, ok := err.(*wasmtime.Trap)
	if !ok {
		return newError(KindExecutionError, "execution_error: %v", err)
	}

	if code, ok := trap.Code(); ok {
		switch code {
		case wasmtime.TrapCodeOutOfFuel:
			return newError(KindFuelExhausted, "fuel_exhausted")
		case wasmtime.TrapCodeInterrupt:
			return newError(KindInterrupted, "Execution timed out")
		default:
			return newError(KindTrap, "trap(%s)", strings.ToLower(trapCodeName(code)))
		}
	}

	return newError(KindTrap, "trap(%s)", trap.Message())
}

func trapCodeName(code wasmtime.TrapCode) string {
	return fmt.Sprintf("%v", code)
}
