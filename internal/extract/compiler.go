package extract

import (
	"fmt"
	"strings"

	"almacen/internal"
)

// One regex fragment per column type. Columns are whitespace-delimited, so
// every fragment matches a single run of non-space text except the free-text
// capture, which is lazy and length-capped to keep backtracking bounded.
const (
	fragText   = `(.{1,200}?)`
	fragAmount = `(\d[\d.,]*)`
	fragSKU    = `(\S+)`
	fragIgnore = `\S+`
)

type CompiledLine struct {
	Pattern string
	Mapping map[string]int
}

// Compile turns the visual builder's ordered column list into an anchored
// line pattern and a field -> capture-group mapping. Group indices are
// assigned strictly left to right, 1-based, so recompiling the same list
// always yields the same output.
//
// Conflicting columns are rejected here instead of silently overwriting
// mapping slots: one description, one quantity and at most two price columns
// (unit price, then line total) are allowed.
func Compile(columns []internal.ColumnDefinition) (CompiledLine, error) {
	if len(columns) == 0 {
		return CompiledLine{Pattern: "", Mapping: map[string]int{}}, nil
	}

	fragments := make([]string, 0, len(columns))
	mapping := map[string]int{}
	group := 0
	priceCount := 0

	for i, col := range columns {
		switch col.Type {
		case internal.ColumnText:
			if _, ok := mapping[internal.FieldDescription]; ok {
				return CompiledLine{}, fmt.Errorf("column %d: only one text column is allowed", i+1)
			}
			group++
			fragments = append(fragments, fragText)
			mapping[internal.FieldDescription] = group
		case internal.ColumnNumber:
			if _, ok := mapping[internal.FieldQuantity]; ok {
				return CompiledLine{}, fmt.Errorf("column %d: only one number column is allowed", i+1)
			}
			group++
			fragments = append(fragments, fragAmount)
			mapping[internal.FieldQuantity] = group
		case internal.ColumnPrice:
			priceCount++
			if priceCount > 2 {
				return CompiledLine{}, fmt.Errorf("column %d: at most two price columns are allowed", i+1)
			}
			group++
			fragments = append(fragments, fragAmount)
			if priceCount == 1 {
				mapping[internal.FieldUnitPrice] = group
			} else {
				mapping[internal.FieldLineTotal] = group
			}
		case internal.ColumnSKU:
			if _, ok := mapping[internal.FieldSKU]; ok {
				return CompiledLine{}, fmt.Errorf("column %d: only one sku column is allowed", i+1)
			}
			group++
			fragments = append(fragments, fragSKU)
			mapping[internal.FieldSKU] = group
		case internal.ColumnIgnore:
			fragments = append(fragments, fragIgnore)
		default:
			return CompiledLine{}, fmt.Errorf("column %d: unknown column type %q", i+1, col.Type)
		}
	}

	pattern := "^" + strings.Join(fragments, `\s+`) + "$"
	return CompiledLine{Pattern: pattern, Mapping: mapping}, nil
}

// ColumnLabel is the display text the builder shows for a column type.
func ColumnLabel(t internal.ColumnType) string {
	switch t {
	case internal.ColumnText:
		return "Description"
	case internal.ColumnNumber:
		return "Quantity"
	case internal.ColumnPrice:
		return "Price"
	case internal.ColumnSKU:
		return "Code"
	case internal.ColumnIgnore:
		return "Ignore"
	default:
		return string(t)
	}
}
