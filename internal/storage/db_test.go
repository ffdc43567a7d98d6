package storage

import (
	"path/filepath"
	"reflect"
	"testing"

	"almacen/internal"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestTemplateRoundTrip(t *testing.T) {
	db := openTestDB(t)

	tmpl := internal.Template{
		Name:              "Corralon Norte",
		Active:            true,
		SupplierID:        "sup-7",
		DetectionKeywords: []string{"Corralon Norte", "CUIT 30-55667788-9"},
		Header: internal.HeaderConfig{
			OrderNumberPattern: `Pedido\s+(\S+)`,
			TotalPattern:       `Total\s+([\d.,]+)`,
		},
		Lines: internal.LineConfig{
			TableStartMarker: "Detalle",
			TableEndMarker:   "Subtotal",
			Mode:             internal.LineModeExpert,
			LineItemPattern:  `^(\S+)\s+(\d+)\s+(.+?)\s+([\d.,]+)$`,
			FieldMapping: map[string]int{
				internal.FieldSKU:         1,
				internal.FieldQuantity:    2,
				internal.FieldDescription: 3,
				internal.FieldUnitPrice:   4,
			},
		},
	}

	id, err := db.SaveTemplate(tmpl)
	if err != nil {
		t.Fatal(err)
	}
	tmpl.ID = id

	got, err := db.GetTemplate(id)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("template not found")
	}
	if !reflect.DeepEqual(*got, tmpl) {
		t.Fatalf("round trip mismatch:\n got=%+v\nwant=%+v", *got, tmpl)
	}

	// Omitted mapping keys must stay omitted, not become zero entries.
	if _, ok := got.Lines.FieldMapping[internal.FieldLineTotal]; ok {
		t.Fatal("lineTotal key should be absent")
	}

	got.Name = "Corralon Norte SA"
	got.Active = false
	if _, err := db.SaveTemplate(*got); err != nil {
		t.Fatal(err)
	}
	updated, err := db.GetTemplate(id)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Name != "Corralon Norte SA" || updated.Active {
		t.Fatalf("update lost: %+v", updated)
	}

	active, err := db.ListTemplates(true)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 0 {
		t.Fatalf("active=%d", len(active))
	}
}

func TestDocumentUpsertDedupe(t *testing.T) {
	db := openTestDB(t)

	first, err := db.UpsertDocument("imap", "<m1@example.com>", "Pedido", "a@example.com", "2026-08-01T00:00:00Z", "h1", "/raw/h1.eml", "fetched")
	if err != nil {
		t.Fatal(err)
	}
	second, err := db.UpsertDocument("imap", "<m1@example.com>", "Pedido v2", "a@example.com", "2026-08-01T00:00:00Z", "h2", "/raw/h2.eml", "fetched")
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID {
		t.Fatalf("ids differ: %d vs %d", first.ID, second.ID)
	}
	if second.Subject != "Pedido v2" || second.Hash != "h2" {
		t.Fatalf("upsert did not refresh: %+v", second)
	}

	if err := db.UpdateDocumentStatus(first.ID, "processed"); err != nil {
		t.Fatal(err)
	}
	pending, err := db.ListDocumentsByStatus("fetched", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending=%d", len(pending))
	}
}

func TestMetadata(t *testing.T) {
	db := openTestDB(t)

	got, err := db.GetMetadata("missing")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("got=%v", *got)
	}

	if err := db.SetMetadata("catalog.last_full_sync", "2026-08-30T10:00:00Z"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetMetadata("catalog.last_full_sync", "2026-08-31T10:00:00Z"); err != nil {
		t.Fatal(err)
	}
	got, err = db.GetMetadata("catalog.last_full_sync")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || *got != "2026-08-31T10:00:00Z" {
		t.Fatalf("got=%v", got)
	}
}
