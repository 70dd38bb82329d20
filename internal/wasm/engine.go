package wasm

import (
	"github.com/bytecodealliance/wasmtime-go/v15"

	"github.com/ifruncillo/wasmguard/internal/config"
)

// maxWasmStackBytes caps the guest's Wasm-level call stack.
const maxWasmStackBytes = 512 * 1024

// NewEngine builds the single long-lived engine for the process. Every
// hazardous proposal (threads, SIMD, bulk memory, 64-bit memory) is
// disabled; fuel metering and epoch interruption are the only two bounds
// on guest computation.
func NewEngine(_ *config.RuntimeConfig) (*wasmtime.Engine, error) {
	cfg := wasmtime.NewConfig()

	cfg.SetConsumeFuel(true)
	cfg.SetEpochInterruption(true)
	cfg.SetMaxWasmStack(maxWasmStackBytes)
	cfg.SetWasmBacktraceDetails(wasmtime.WasmtimeBacktraceDetailsEnable)

	cfg.SetWasmMultiMemory(false)
	cfg.SetWasmMemory64(false)
	cfg.SetWasmThreads(false)
	cfg.SetWasmReferenceTypes(false)
	cfg.SetWasmSIMD(false)
	cfg.SetWasmRelaxedSIMD(false)
	cfg.SetWasmBulkMemory(false)

	return wasmtime.NewEngineWithConfig(cfg), nil
}
