package wasm

import (
	"encoding/json"
	"testing"

	"github.com/bytecodealliance/wasmtime-go/v15"
)

func TestMarshalParamsArityMismatch(t *testing.T) {
	paramTypes := []*wasmtime.ValType{wasmtime.NewValType(wasmtime.KindI32)}
	_, err := MarshalParams(json.RawMessage(`[1, 2]`), paramTypes)
	if err == nil {
		t.Fatal("expected arity mismatch error")
	}
	wasmErr, ok := err.(*Error)
	if !ok || wasmErr.Kind != KindBadParams {
		t.Fatalf("expected bad_params, got %v", err)
	}
}

func TestMarshalParamsNotAnArray(t *testing.T) {
	paramTypes := []*wasmtime.ValType{wasmtime.NewValType(wasmtime.KindI32)}
	_, err := MarshalParams(json.RawMessage(`{"a":1}`), paramTypes)
	if err == nil {
		t.Fatal("expected not-an-array error")
	}
	if wasmErr, ok := err.(*Error); !ok || wasmErr.Kind != KindBadParams {
		t.Fatalf("expected bad_params, got %v", err)
	}
}

func TestMarshalParamsI32Roundtrip(t *testing.T) {
	paramTypes := []*wasmtime.ValType{
		wasmtime.NewValType(wasmtime.KindI32),
		wasmtime.NewValType(wasmtime.KindI32),
	}
	vals, err := MarshalParams(json.RawMessage(`[2, 3]`), paramTypes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vals) != 2 || vals[0].I32() != 2 || vals[1].I32() != 3 {
		t.Fatalf("unexpected values: %+v", vals)
	}
}

func TestMarshalParamsI32Overflow(t *testing.T) {
	paramTypes := []*wasmtime.ValType{wasmtime.NewValType(wasmtime.KindI32)}
	_, err := MarshalParams(json.RawMessage(`[4294967296]`), paramTypes)
	if err == nil {
		t.Fatal("expected not-i32 error")
	}
	if wasmErr, ok := err.(*Error); !ok || wasmErr.Kind != KindBadParams {
		t.Fatalf("expected bad_params, got %v", err)
	}
}

func TestMarshalResultsZero(t *testing.T) {
	out, err := MarshalResults(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != nil {
		t.Fatalf("expected nil result, got %v", out)
	}
}

func TestMarshalResultsSingle(t *testing.T) {
	out, err := MarshalResults([]wasmtime.Val{wasmtime.ValI32(5)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != int32(5) {
		t.Fatalf("expected 5, got %v", out)
	}
}

func TestMarshalResultsMultiple(t *testing.T) {
	out, err := MarshalResults([]wasmtime.Val{wasmtime.ValI32(1), wasmtime.ValI64(2)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	arr, ok := out.([]any)
	if !ok || len(arr) != 2 {
		t.Fatalf("expected 2-element array, got %v", out)
	}
}

func TestMarshalResultsNonFiniteFloat(t *testing.T) {
	_, err := MarshalResults([]wasmtime.Val{wasmtime.ValF64(posInf())})
	if err == nil {
		t.Fatal("expected bad_result for +Inf")
	}
	if wasmErr, ok := err.(*Error); !ok || wasmErr.Kind != KindBadResult {
		t.Fatalf("expected bad_result, got %v", err)
	}
}

func posInf() float64 {
	var zero float64
	return 1 / zero
}
