package pipeline

import (
	"testing"

	"almacen/internal"
	"almacen/internal/config"
)

func sp(v string) *string { return &v }

func fp(v float64) *float64 { return &v }

func TestMatcherBySKU(t *testing.T) {
	products := []internal.ProductRecord{
		{ID: 1, Name: "Tornillo fix 10x50", Codes: internal.ProductCodes{SKU: sp("TOR-1050")}},
		{ID: 2, Name: "Tornillo fix 10x70", Codes: internal.ProductCodes{SKU: sp("TOR-1070")}},
	}
	cfg, _ := config.Load()
	m := NewMatcher(cfg, products)

	item := internal.LineItem{LineNo: 1, RawLine: "TOR-1050 2 Tornillo fix", Description: "Tornillo fix", SKU: sp("TOR-1050"), Quantity: fp(2)}
	res := m.Match(item)
	if res.Status != internal.MatchOK || res.Reason != internal.ReasonSKU || res.Product == nil || res.Product.ID == nil || *res.Product.ID != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestMatcherExactName(t *testing.T) {
	products := []internal.ProductRecord{
		{ID: 1, Name: "Arandela plana 1/4"},
		{ID: 2, Name: "Arandela grower 1/4"},
	}
	cfg, _ := config.Load()
	m := NewMatcher(cfg, products)

	item := internal.LineItem{LineNo: 1, RawLine: "10 arandela plana 1/4 0,50", Description: "arandela plana 1/4", Quantity: fp(10)}
	res := m.Match(item)
	if res.Status != internal.MatchOK || res.Reason != internal.ReasonName {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Product == nil || *res.Product.ID != 1 {
		t.Fatalf("product=%+v", res.Product)
	}
}

func TestMatcherFuzzyAndNotFound(t *testing.T) {
	products := []internal.ProductRecord{
		{ID: 1, Name: "Bisagra bronce platil 3 pulgadas"},
		{ID: 2, Name: "Candado laminado 40mm"},
	}
	cfg, _ := config.Load()
	m := NewMatcher(cfg, products)

	item := internal.LineItem{LineNo: 1, RawLine: "4 bisagra bronce platil 3", Description: "bisagra bronce platil 3", Quantity: fp(4)}
	res := m.Match(item)
	if res.Status == internal.MatchNotFound {
		t.Fatalf("expected a fuzzy hit: %+v", res)
	}
	if len(res.Candidates) == 0 || res.Candidates[0].ID != 1 {
		t.Fatalf("candidates=%+v", res.Candidates)
	}

	miss := internal.LineItem{LineNo: 2, RawLine: "1 zzzz qqqq", Description: "zzzz qqqq", Quantity: fp(1)}
	if got := m.Match(miss); got.Status != internal.MatchNotFound {
		t.Fatalf("expected NOT_FOUND: %+v", got)
	}
}

func TestMatcherInvalidQtyCapsAtReview(t *testing.T) {
	products := []internal.ProductRecord{
		{ID: 1, Name: "Tuerca M6", Codes: internal.ProductCodes{SKU: sp("TUE-M6")}},
	}
	cfg, _ := config.Load()
	m := NewMatcher(cfg, products)

	item := internal.LineItem{LineNo: 1, RawLine: "TUE-M6 tuerca", Description: "tuerca", SKU: sp("TUE-M6")}
	res := m.Match(item)
	if res.Status != internal.MatchReview {
		t.Fatalf("status=%s", res.Status)
	}
	if res.Confidence > 0.7 {
		t.Fatalf("confidence=%f", res.Confidence)
	}
}
