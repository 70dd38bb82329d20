package gate

import "encoding/json"

// executeRequest is the JSON body POST /execute accepts.
type executeRequest struct {
	ModulePath     string          `json:"module_path"`
	FunctionName   string          `json:"function_name"`
	Params         json.RawMessage `json:"params"`
	TimeoutSeconds *int            `json:"timeout_seconds,omitempty"`
}

// executeResponse is the JSON body POST /execute returns.
type executeResponse struct {
	Success         bool   `json:"success"`
	Result          any    `json:"result,omitempty"`
	Error           string `json:"error,omitempty"`
	ExecutionTimeMs int64  `json:"execution_time_ms"`
	MemoryUsedBytes int64  `json:"memory_used_bytes"`
	FuelConsumed    uint64 `json:"fuel_consumed"`
}
