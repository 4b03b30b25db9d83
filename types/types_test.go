package types

import (
	"fmt"
	"testing"
)

func TestTypeDisplay(t *testing.T) {
	tests := []struct {
		typ      Type
		expected string
	}{
		{Int, "Int"},
		{Float, "Float"},
		{Bool, "Bool"},
		{String, "String"},
		{ListOf(Int), "[Int]"},
		{TupleOf(Int, String), "(Int, String)"},
		{MaybeOf(Int), "Int?"},
		{MaybeOf(ListOf(String)), "[String]?"},
		{CustomOf("main::Point"), "main::Point"},
		{Void(), "()"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.expected {
			t.Errorf("String() = %q, want %q", got, tt.expected)
		}
	}
}

func TestTypeEquality(t *testing.T) {
	if !ListOf(Int).Equal(ListOf(Int)) {
		t.Error("identical list types must be equal")
	}
	if ListOf(Int).Equal(ListOf(Float)) {
		t.Error("lists of different items must not be equal")
	}
	if TupleOf(Int, Bool).Equal(TupleOf(Int)) {
		t.Error("tuples of different arity must not be equal")
	}
	if MaybeOf(Int).Equal(Int) {
		t.Error("maybe is distinct from its payload type")
	}
	if !Void().IsVoid() {
		t.Error("empty tuple is void")
	}
	if TupleOf(Int).IsVoid() {
		t.Error("non-empty tuple is not void")
	}
}

func TestVerifyParsed(t *testing.T) {
	mapper := func(name string) (string, error) {
		if name == "Point" {
			return "main::Point", nil
		}
		return "", fmt.Errorf("type %s not found", name)
	}

	parsed := TupleOf(Int, ListOf(CustomOf("Point")), MaybeOf(CustomOf("Point")))
	verified, err := VerifyParsed(parsed, mapper)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := TupleOf(Int, ListOf(CustomOf("main::Point")), MaybeOf(CustomOf("main::Point")))
	if !verified.Equal(expected) {
		t.Errorf("verified = %s, want %s", verified, expected)
	}

	if _, err := VerifyParsed(CustomOf("Missing"), mapper); err == nil {
		t.Error("expected error for unknown custom type")
	}
}
