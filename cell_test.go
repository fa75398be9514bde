package sheetsync_test

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/ideamans/go-sheetsync"
)

func TestNormalizeCell(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want interface{}
	}{
		{name: "nil", in: nil, want: ""},
		{name: "string", in: "text", want: "text"},
		{name: "bool", in: true, want: true},
		{name: "int", in: 42, want: int64(42)},
		{name: "float64", in: 1.5, want: 1.5},
		{name: "json integer", in: json.Number("30"), want: int64(30)},
		{name: "json float", in: json.Number("2.25"), want: 2.25},
		{name: "json exponent", in: json.Number("1e3"), want: float64(1000)},
		{name: "time", in: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), want: "2026-01-02T03:04:05Z"},
		{name: "array", in: []interface{}{"a", json.Number("1")}, want: `["a",1]`},
		{name: "object", in: map[string]interface{}{"k": "v"}, want: `{"k":"v"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sheetsync.NormalizeCell(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeCell() = %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestNormalizeRows_DoesNotMutateInput(t *testing.T) {
	rows := [][]interface{}{{"a", nil}, {1, 2.5}}
	got := sheetsync.NormalizeRows(rows)

	want := [][]interface{}{{"a", ""}, {int64(1), 2.5}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeRows() = %v, want %v", got, want)
	}
	if rows[0][1] != nil {
		t.Errorf("input modified: %v", rows)
	}
}

func TestCellString_ParseCell(t *testing.T) {
	tests := []struct {
		value interface{}
		text  string
	}{
		{value: "Alice", text: "Alice"},
		{value: int64(-7), text: "-7"},
		{value: 2.5, text: "2.5"},
		{value: true, text: "TRUE"},
		{value: false, text: "FALSE"},
		{value: "", text: ""},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := sheetsync.CellString(tt.value); got != tt.text {
				t.Errorf("CellString() = %q, want %q", got, tt.text)
			}
			if got := sheetsync.ParseCell(tt.text); !reflect.DeepEqual(got, tt.value) {
				t.Errorf("ParseCell() = %v (%T), want %v (%T)", got, got, tt.value, tt.value)
			}
		})
	}

	if got := sheetsync.ParseCell("Inf"); got != "Inf" {
		t.Errorf("ParseCell(Inf) = %v, want the text", got)
	}
}
