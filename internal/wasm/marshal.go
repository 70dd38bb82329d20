package wasm

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/bytecodealliance/wasmtime-go/v15"
)

// MarshalParams converts a JSON params array into a typed wasmtime.Val
// vector matching paramTypes.
func MarshalParams(raw json.RawMessage, paramTypes []*wasmtime.ValType) ([]wasmtime.Val, error) {
	var values []json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&values); err != nil {
		return nil, newError(KindBadParams, "bad_params: not an array")
	}

	if len(values) != len(paramTypes) {
		return nil, newError(KindBadParams, "bad_params: arity mismatch")
	}

	out := make([]wasmtime.Val, len(values))
	for i, v := range values {
		val, err := marshalOne(v, paramTypes[i])
		if err != nil {
			return nil, err
		}
		out[i] = val
	}
	return out, nil
}

func marshalOne(v json.Number, t *wasmtime.ValType) (wasmtime.Val, error) {
	switch t.Kind() {
	case wasmtime.KindI32:
		n, err := v.Int64()
		if err != nil || n < math.MinInt32 || n > math.MaxInt32 {
			return wasmtime.Val{}, newError(KindBadParams, "bad_params: not i32")
		}
		return wasmtime.ValI32(int32(n)), nil

	case wasmtime.KindI64:
		n, err := v.Int64()
		if err != nil {
			return wasmtime.Val{}, newError(KindBadParams, "bad_params: not i64")
		}
		return wasmtime.ValI64(n), nil

	case wasmtime.KindF32:
		f, err := v.Float64()
		if err != nil {
			return wasmtime.Val{}, newError(KindBadParams, "bad_params: not f32")
		}
		return wasmtime.ValF32(float32(f)), nil

	case wasmtime.KindF64:
		f, err := v.Float64()
		if err != nil {
			return wasmtime.Val{}, newError(KindBadParams, "bad_params: not f64")
		}
		return wasmtime.ValF64(f), nil

	default:
		return wasmtime.Val{}, newError(KindBadParams, "bad_params: unsupported type")
	}
}

// MarshalResults converts a typed wasmtime.Val vector back into JSON,
// rejecting non-finite floats since JSON has no NaN/Infinity literal.
func MarshalResults(results []wasmtime.Val) (any, error) {
	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return resultToJSON(results[0])
	default:
		out := make([]any, len(results))
		for i, r := range results {
			v, err := resultToJSON(r)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
}

func resultToJSON(v wasmtime.Val) (any, error) {
	switch v.Kind() {
	case wasmtime.KindI32:
		return v.I32(), nil
	case wasmtime.KindI64:
		return v.I64(), nil
	case wasmtime.KindF32:
		f := float64(v.F32())
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, newError(KindBadResult, "bad_result: non-finite")
		}
		return f, nil
	case wasmtime.KindF64:
		f := v.F64()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, newError(KindBadResult, "bad_result: non-finite")
		}
		return f, nil
	default:
		return nil, newError(KindBadResult, "bad_result: unsupported type")
	}
}
