package extract

import (
	"fmt"
	"regexp"
	"strings"

	"almacen/internal"
	"almacen/internal/util"
)

// ExtractItems scans the marker-delimited table region and applies the line
// pattern to every candidate line. Non-matching lines are skipped silently;
// only an uncompilable pattern (or an invalid column list) is an error, and
// that error is scoped to line extraction, never to header fields.
func ExtractItems(text string, cfg internal.LineConfig) ([]internal.LineItem, error) {
	compiled, err := ResolveLines(cfg)
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(compiled.Pattern)
	if err != nil {
		return nil, fmt.Errorf("line item pattern: %w", err)
	}

	items := []internal.LineItem{}
	for i, line := range candidateLines(text, cfg, 0) {
		match := re.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		item, ok := buildItem(line, match[1:], compiled.Mapping)
		if !ok {
			continue
		}
		item.LineNo = i + 1
		items = append(items, item)
	}
	return items, nil
}

func buildItem(rawLine string, groups []string, mapping map[string]int) (internal.LineItem, bool) {
	desc, ok := mappedGroup(groups, mapping, internal.FieldDescription)
	if !ok {
		return internal.LineItem{}, false
	}

	item := internal.LineItem{
		RawLine:     rawLine,
		Description: strings.TrimSpace(desc),
	}
	if raw, ok := mappedGroup(groups, mapping, internal.FieldQuantity); ok {
		item.Quantity = util.ParseAmount(raw)
	}
	if raw, ok := mappedGroup(groups, mapping, internal.FieldUnitPrice); ok {
		item.UnitPrice = util.ParseAmount(raw)
	}
	if raw, ok := mappedGroup(groups, mapping, internal.FieldSKU); ok {
		if sku := strings.TrimSpace(raw); sku != "" {
			item.SKU = util.StringPtr(sku)
		}
	}
	if raw, ok := mappedGroup(groups, mapping, internal.FieldLineTotal); ok {
		item.LineTotal = util.ParseAmount(raw)
	}
	return item, true
}

func mappedGroup(groups []string, mapping map[string]int, field string) (string, bool) {
	idx, ok := mapping[field]
	if !ok || idx < 1 || idx > len(groups) {
		return "", false
	}
	return groups[idx-1], true
}
