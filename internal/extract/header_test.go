package extract

import (
	"testing"

	"almacen/internal"
)

const sampleHeader = "Pedido N 0001-00004521\nFecha: 12/03/2026\nTotal: $ 1.234,56\n"

func TestExtractHeader(t *testing.T) {
	cfg := internal.HeaderConfig{
		OrderNumberPattern: `Pedido N\s*([\d-]+)`,
		DatePattern:        `Fecha:\s*([\d/]+)`,
		TotalPattern:       `Total:?\s*\$?\s*([\d.,]+)`,
	}
	fields, errs := ExtractHeader(sampleHeader, cfg)
	if len(errs) != 0 {
		t.Fatalf("errs=%v", errs)
	}
	if fields.OrderNumber == nil || *fields.OrderNumber != "0001-00004521" {
		t.Fatalf("orderNumber=%v", fields.OrderNumber)
	}
	if fields.Date == nil || *fields.Date != "12/03/2026" {
		t.Fatalf("date=%v", fields.Date)
	}
	if fields.Total == nil || *fields.Total != 1234.56 {
		t.Fatalf("total=%v", fields.Total)
	}
}

func TestExtractHeaderFieldScopedErrors(t *testing.T) {
	cfg := internal.HeaderConfig{
		OrderNumberPattern: `([broken`,
		TotalPattern:       `Total:?\s*\$?\s*([\d.,]+)`,
	}
	fields, errs := ExtractHeader(sampleHeader, cfg)
	if _, ok := errs["orderNumber"]; !ok {
		t.Fatal("missing orderNumber error")
	}
	if fields.Total == nil || *fields.Total != 1234.56 {
		t.Fatalf("broken pattern aborted total extraction: %v", fields.Total)
	}
}

func TestExtractHeaderEmptyPatternsSkipped(t *testing.T) {
	fields, errs := ExtractHeader(sampleHeader, internal.HeaderConfig{})
	if len(errs) != 0 {
		t.Fatalf("errs=%v", errs)
	}
	if fields.OrderNumber != nil || fields.Date != nil || fields.Total != nil {
		t.Fatalf("fields should be absent: %+v", fields)
	}
}

func TestExtractHeaderUnparseableTotal(t *testing.T) {
	cfg := internal.HeaderConfig{TotalPattern: `Total:\s*(\S+)`}
	fields, errs := ExtractHeader("Total: pendiente\n", cfg)
	if len(errs) != 0 {
		t.Fatalf("errs=%v", errs)
	}
	if fields.Total != nil {
		t.Fatalf("total=%v", *fields.Total)
	}
}

func TestExtractHeaderPatternWithoutGroup(t *testing.T) {
	cfg := internal.HeaderConfig{OrderNumberPattern: `Pedido N\s*[\d-]+`}
	_, errs := ExtractHeader(sampleHeader, cfg)
	if _, ok := errs["orderNumber"]; !ok {
		t.Fatal("expected capture-group error")
	}
}
