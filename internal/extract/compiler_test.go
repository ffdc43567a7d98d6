package extract

import (
	"reflect"
	"sort"
	"testing"

	"almacen/internal"
)

func cols(types ...internal.ColumnType) []internal.ColumnDefinition {
	out := make([]internal.ColumnDefinition, 0, len(types))
	for i, t := range types {
		out = append(out, internal.ColumnDefinition{ID: string(rune('a' + i)), Type: t, Label: ColumnLabel(t)})
	}
	return out
}

func TestCompileTextNumberPricePrice(t *testing.T) {
	compiled, err := Compile(cols(internal.ColumnText, internal.ColumnNumber, internal.ColumnPrice, internal.ColumnPrice))
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]int{
		internal.FieldDescription: 1,
		internal.FieldQuantity:    2,
		internal.FieldUnitPrice:   3,
		internal.FieldLineTotal:   4,
	}
	if !reflect.DeepEqual(compiled.Mapping, want) {
		t.Fatalf("mapping=%v", compiled.Mapping)
	}
	if compiled.Pattern[0] != '^' || compiled.Pattern[len(compiled.Pattern)-1] != '$' {
		t.Fatalf("pattern not anchored: %s", compiled.Pattern)
	}
}

func TestCompileDeterministic(t *testing.T) {
	list := cols(internal.ColumnSKU, internal.ColumnText, internal.ColumnIgnore, internal.ColumnNumber, internal.ColumnPrice)
	first, err := Compile(list)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Compile(list)
	if err != nil {
		t.Fatal(err)
	}
	if first.Pattern != second.Pattern || !reflect.DeepEqual(first.Mapping, second.Mapping) {
		t.Fatalf("not deterministic: %v vs %v", first, second)
	}
}

func TestCompileIndexMonotonicity(t *testing.T) {
	compiled, err := Compile(cols(internal.ColumnSKU, internal.ColumnIgnore, internal.ColumnText, internal.ColumnNumber, internal.ColumnPrice))
	if err != nil {
		t.Fatal(err)
	}

	indices := make([]int, 0, len(compiled.Mapping))
	for _, idx := range compiled.Mapping {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	for i, idx := range indices {
		if idx != i+1 {
			t.Fatalf("indices not 1-based contiguous: %v", indices)
		}
	}
	// Ignore columns contribute no capture group.
	if compiled.Mapping[internal.FieldDescription] != 2 {
		t.Fatalf("description index=%d", compiled.Mapping[internal.FieldDescription])
	}
}

func TestCompileEmpty(t *testing.T) {
	compiled, err := Compile(nil)
	if err != nil {
		t.Fatal(err)
	}
	if compiled.Pattern != "" || len(compiled.Mapping) != 0 {
		t.Fatalf("want empty pattern and mapping, got %+v", compiled)
	}
}

func TestCompileConflicts(t *testing.T) {
	cases := []struct {
		name string
		list []internal.ColumnDefinition
	}{
		{name: "two text columns", list: cols(internal.ColumnText, internal.ColumnNumber, internal.ColumnText)},
		{name: "two number columns", list: cols(internal.ColumnNumber, internal.ColumnNumber)},
		{name: "three price columns", list: cols(internal.ColumnPrice, internal.ColumnPrice, internal.ColumnPrice)},
		{name: "two sku columns", list: cols(internal.ColumnSKU, internal.ColumnSKU)},
		{name: "unknown type", list: []internal.ColumnDefinition{{ID: "x", Type: "barcode"}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Compile(tc.list); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
