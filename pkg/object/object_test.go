package object

import (
	"testing"
	"time"

	"github.com/goodsign/monday"

	"github.com/thymelang/thyme/pkg/ast"
	"github.com/thymelang/thyme/pkg/lexer"
)

func TestInspect(t *testing.T) {
	nine30 := &Time{Hour: 9, Minute: 30}
	tests := []struct {
		name string
		obj  Object
		want string
	}{
		{"whole number", &Number{Value: 12}, "12"},
		{"fractional number", &Number{Value: 3.14}, "3.14"},
		{"negative number", &Number{Value: -0.5}, "-0.5"},
		{"string", &String{Value: "hello"}, "hello"},
		{"true", TRUE, "true"},
		{"false", FALSE, "false"},
		{"date", NewDate(2024, time.January, 15), "15 January 2024"},
		{"time", nine30, "09:30"},
		{"time with seconds", &Time{Hour: 9, Minute: 30, Second: 5}, "09:30:05"},
		{"datetime", &DateTime{Value: time.Date(2024, time.January, 15, 9, 30, 0, 0, time.UTC)}, "15 January 2024 09:30"},
		{"list", &List{Elements: []Object{&Number{Value: 3}, &String{Value: "a"}}}, "[3, a]"},
		{"nested list", &List{Elements: []Object{&List{Elements: []Object{&Number{Value: 1}}}}}, "[[1]]"},
		{"undefined", UNDEFINED, "undefined"},
		{"note", &Note{ID: "n1", Name: "Groceries", Path: "lists/groceries"}, "Groceries"},
		{"button", &Button{Label: "Done", Action: &Lambda{Body: &ast.StringLiteral{Value: "x"}}}, "[Done]"},
		{"schedule", &Schedule{Frequency: "daily", Action: &Lambda{Body: &ast.StringLiteral{Value: "x"}}}, "schedule: daily"},
		{"schedule with time", &Schedule{Frequency: "daily", At: nine30}, "schedule: daily at 09:30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.obj.Inspect(); got != tt.want {
				t.Errorf("Inspect() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInspectHonorsDisplayLocale(t *testing.T) {
	prev := DisplayLocale
	DisplayLocale = monday.LocaleFrFR
	defer func() { DisplayLocale = prev }()

	if got, want := NewDate(2024, time.January, 15).Inspect(), "15 janvier 2024"; got != want {
		t.Errorf("date Inspect() = %q, want %q", got, want)
	}
}

func TestLambdaInspect(t *testing.T) {
	body := &ast.CallExpr{
		Token: lexer.Token{Type: lexer.IDENT, Literal: "add"},
		Name:  "add",
		Args: []ast.Expression{
			&ast.NumberLiteral{Value: 1},
			&ast.NumberLiteral{Value: 2},
		},
	}

	block := &Lambda{Body: body}
	if got, want := block.Inspect(), "[add(1, 2)]"; got != want {
		t.Errorf("block lambda Inspect() = %q, want %q", got, want)
	}

	unary := &Lambda{Params: []string{"n"}, Body: body}
	if got, want := unary.Inspect(), "n: add(1, 2)"; got != want {
		t.Errorf("unary lambda Inspect() = %q, want %q", got, want)
	}
}

func TestNativeBoolToBoolean(t *testing.T) {
	if NativeBoolToBoolean(true) != TRUE {
		t.Error("true did not map to the canonical TRUE")
	}
	if NativeBoolToBoolean(false) != FALSE {
		t.Error("false did not map to the canonical FALSE")
	}
}

func TestIsError(t *testing.T) {
	if IsError(nil) {
		t.Error("IsError(nil) = true")
	}
	if IsError(&Number{Value: 1}) {
		t.Error("IsError(number) = true")
	}
	if !IsError(NewError(3, "boom")) {
		t.Error("IsError(error) = false")
	}
}

func TestNewErrorCarriesOffset(t *testing.T) {
	errObj := NewError(17, "cannot add %s", "string")
	if errObj.Err.Offset != 17 {
		t.Errorf("Offset = %d, want 17", errObj.Err.Offset)
	}
	if got, want := errObj.Err.Message, "cannot add string"; got != want {
		t.Errorf("Message = %q, want %q", got, want)
	}
}

func TestTypeName(t *testing.T) {
	tests := []struct {
		obj  Object
		want string
	}{
		{&Number{Value: 1}, "number"},
		{&String{Value: "x"}, "string"},
		{UNDEFINED, "undefined"},
		{nil, "nothing"},
	}
	for _, tt := range tests {
		if got := TypeName(tt.obj); got != tt.want {
			t.Errorf("TypeName(%v) = %q, want %q", tt.obj, got, tt.want)
		}
	}
}
