package wasm

import "github.com/bytecodealliance/wasmtime-go/v15"

// newLimiter builds the per-invocation resource limiter: memory growth is
// capped at maxMemoryPages pages, table growth at maxTableElements elements.
// It is attached to exactly one Store and released with it.
//
// wasmtime.StoreLimits is a plain value owned by the Store it is installed
// into (see Executor.Execute), so nothing is leaked per request.
func newLimiter(maxMemoryPages, maxTableElements int) wasmtime.StoreLimits {
	memoryLimit := int64(maxMemoryPages) * wasmPageSize
	tableLimit := int64(maxTableElements)

	return wasmtime.NewStoreLimitsBuilder().
		MemorySize(memoryLimit).
		TableElements(tableLimit).
		Build()
}

const wasmPageSize = 65536
