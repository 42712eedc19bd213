package types

import (
	"encoding/json"
	"testing"
)

func TestFlexListAcceptsObjectOrArray(t *testing.T) {
	type cmd struct {
		Op string `json:"op"`
	}

	var single FlexList[cmd]
	if err := json.Unmarshal([]byte(`{"op":"sort"}`), &single); err != nil {
		t.Fatalf("Single object failed: %v", err)
	}
	if len(single.Slice()) != 1 || single[0].Op != "sort" {
		t.Errorf("Unexpected single result: %v", single)
	}

	var many FlexList[cmd]
	if err := json.Unmarshal([]byte(`[{"op":"sort"},{"op":"page"}]`), &many); err != nil {
		t.Fatalf("Array failed: %v", err)
	}
	if len(many) != 2 || many[1].Op != "page" {
		t.Errorf("Unexpected array result: %v", many)
	}

	var empty FlexList[cmd]
	if err := json.Unmarshal([]byte(`null`), &empty); err != nil {
		t.Fatalf("Null failed: %v", err)
	}
	if empty != nil {
		t.Errorf("Expected nil for null, got %v", empty)
	}
}

func TestFlexUint64AcceptsNumberOrString(t *testing.T) {
	var n FlexUint64
	if err := json.Unmarshal([]byte(`42`), &n); err != nil || n.Uint64() != 42 {
		t.Errorf("Number: got %d err %v", n, err)
	}

	var s FlexUint64
	if err := json.Unmarshal([]byte(`"17"`), &s); err != nil || s.Uint64() != 17 {
		t.Errorf("String: got %d err %v", s, err)
	}

	var bad FlexUint64
	if err := json.Unmarshal([]byte(`"seventeen"`), &bad); err == nil {
		t.Error("Expected an error for a non-numeric string")
	}
	if err := json.Unmarshal([]byte(`true`), &bad); err == nil {
		t.Error("Expected an error for a bool")
	}
}

func TestFlexUint64MarshalsAsNumber(t *testing.T) {
	out, err := json.Marshal(FlexUint64(7))
	if err != nil || string(out) != "7" {
		t.Errorf("Expected 7, got %s err %v", out, err)
	}
}
