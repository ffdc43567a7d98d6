package extract

import (
	"strings"
	"testing"

	"almacen/internal"
)

const sampleOrder = "Pedido N 0001-00004521\n" +
	"Descripcion\n" +
	"2 Tornillo 10x 5,00\n" +
	"----------\n" +
	"10 Arandela plana 0,50\n" +
	"nota interna sin formato\n" +
	"Subtotal: 10,00\n" +
	"3 Tuerca M6 1,00\n"

func visualLines(start, end string, types ...internal.ColumnType) internal.LineConfig {
	return internal.LineConfig{
		TableStartMarker: start,
		TableEndMarker:   end,
		Mode:             internal.LineModeVisual,
		Columns:          cols(types...),
	}
}

func TestExtractItemsQuantityFirst(t *testing.T) {
	cfg := visualLines("Descripcion", "Subtotal", internal.ColumnNumber, internal.ColumnText, internal.ColumnPrice)
	items, err := ExtractItems(sampleOrder, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("len=%d", len(items))
	}

	first := items[0]
	if first.Description != "Tornillo 10x" {
		t.Fatalf("description=%q", first.Description)
	}
	if first.Quantity == nil || *first.Quantity != 2 {
		t.Fatalf("quantity=%v", first.Quantity)
	}
	if first.UnitPrice == nil || *first.UnitPrice != 5 {
		t.Fatalf("unitPrice=%v", first.UnitPrice)
	}
	if items[1].Description != "Arandela plana" {
		t.Fatalf("second description=%q", items[1].Description)
	}
}

func TestExtractItemsMissingEndMarker(t *testing.T) {
	cfg := visualLines("Descripcion", "NOTFOUND", internal.ColumnNumber, internal.ColumnText, internal.ColumnPrice)
	items, err := ExtractItems(sampleOrder, cfg)
	if err != nil {
		t.Fatal(err)
	}
	// Scans to end of text; the line after "Subtotal" now qualifies too.
	if len(items) != 3 {
		t.Fatalf("len=%d", len(items))
	}
}

func TestExtractItemsMarkerLinesExcluded(t *testing.T) {
	text := "   START   \n1 Clavo 2,00\n\t END \n"
	cfg := visualLines("START", "END", internal.ColumnNumber, internal.ColumnText, internal.ColumnPrice)
	items, err := ExtractItems(text, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Description != "Clavo" {
		t.Fatalf("items=%+v", items)
	}
	for _, item := range items {
		if strings.Contains(item.RawLine, "START") || strings.Contains(item.RawLine, "END") {
			t.Fatalf("marker line leaked: %q", item.RawLine)
		}
	}
}

func TestExtractItemsEmptyStartMarker(t *testing.T) {
	text := "1 Clavo 2,00\n2 Tornillo 3,00\n"
	cfg := visualLines("", "", internal.ColumnNumber, internal.ColumnText, internal.ColumnPrice)
	items, err := ExtractItems(text, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("len=%d", len(items))
	}
}

func TestExtractItemsSeparatorSkipping(t *testing.T) {
	text := "HEAD\n1 Clavo 2,00\n - - -- \n\n   \n2 Tornillo 3,00\n"
	cfg := visualLines("HEAD", "", internal.ColumnNumber, internal.ColumnText, internal.ColumnPrice)
	items, err := ExtractItems(text, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("separator broke scanning: len=%d", len(items))
	}
}

func TestExtractItemsExpertModeOptionalFields(t *testing.T) {
	cfg := internal.LineConfig{
		Mode:            internal.LineModeExpert,
		LineItemPattern: `^(\S+)\s+(\d[\d.,]*)\s+(.{1,200}?)\s+(\d[\d.,]*)\s+(\d[\d.,]*)$`,
		FieldMapping: map[string]int{
			internal.FieldSKU:         1,
			internal.FieldQuantity:    2,
			internal.FieldDescription: 3,
			internal.FieldUnitPrice:   4,
			internal.FieldLineTotal:   5,
		},
	}
	items, err := ExtractItems("ART-77 4 Bisagra bronce 2,50 10,00\n", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("len=%d", len(items))
	}
	item := items[0]
	if item.SKU == nil || *item.SKU != "ART-77" {
		t.Fatalf("sku=%v", item.SKU)
	}
	if item.LineTotal == nil || *item.LineTotal != 10 {
		t.Fatalf("lineTotal=%v", item.LineTotal)
	}
}

func TestExtractItemsEmptyColumns(t *testing.T) {
	cfg := internal.LineConfig{Mode: internal.LineModeVisual}
	items, err := ExtractItems(sampleOrder, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Fatalf("len=%d", len(items))
	}
}

func TestExtractItemsInvalidPattern(t *testing.T) {
	cfg := internal.LineConfig{Mode: internal.LineModeExpert, LineItemPattern: `([unclosed`}
	if _, err := ExtractItems(sampleOrder, cfg); err == nil {
		t.Fatal("expected error")
	}
}

func TestExtractItemsUnparseableQuantityKeepsItem(t *testing.T) {
	cfg := internal.LineConfig{
		Mode:            internal.LineModeExpert,
		LineItemPattern: `^(\S+)\s+(.{1,200}?)\s+(\d[\d.,]*)$`,
		FieldMapping: map[string]int{
			internal.FieldQuantity:    1,
			internal.FieldDescription: 2,
			internal.FieldUnitPrice:   3,
		},
	}
	items, err := ExtractItems("x.y.z Clavo 2,00\n", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("len=%d", len(items))
	}
	if items[0].Quantity != nil {
		t.Fatalf("quantity should be absent, got %v", *items[0].Quantity)
	}
	if items[0].UnitPrice == nil || *items[0].UnitPrice != 2 {
		t.Fatalf("unitPrice=%v", items[0].UnitPrice)
	}
}
