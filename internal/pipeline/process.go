package pipeline

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"almacen/internal"
	"almacen/internal/config"
	"almacen/internal/document"
	"almacen/internal/extract"
	"almacen/internal/storage"
	"almacen/internal/templates"
	"almacen/internal/util"
)

type ProcessingService struct {
	db  *storage.DB
	cfg config.Config
}

func NewProcessingService(db *storage.DB, cfg config.Config) *ProcessingService {
	return &ProcessingService{db: db, cfg: cfg}
}

type ProcessResult struct {
	DocumentID int
	TemplateID *int
	Items      int
}

func (s *ProcessingService) ProcessByID(documentID int) (ProcessResult, error) {
	doc, err := s.db.GetDocumentByID(documentID)
	if err != nil {
		return ProcessResult{}, err
	}
	if doc == nil {
		return ProcessResult{}, fmt.Errorf("document not found: id=%d", documentID)
	}
	return s.ProcessDocument(*doc)
}

func (s *ProcessingService) ProcessPending(limit int, source string) (int, int, error) {
	pending, err := s.db.ListDocumentsByStatus("fetched", limit)
	if err != nil {
		return 0, 0, err
	}
	processedDocs := 0
	processedItems := 0
	for _, doc := range pending {
		if source != "" && doc.Source != source {
			continue
		}
		res, err := s.ProcessDocument(doc)
		if err != nil {
			return processedDocs, processedItems, err
		}
		processedDocs++
		processedItems += res.Items
	}
	return processedDocs, processedItems, nil
}

// ProcessDocument runs the full chain for one stored document: decode the
// raw file to text, detect the supplier template by keywords, extract header
// and items, match each item against the catalog, persist everything.
// Documents with no matching template are marked unrecognized, not failed.
func (s *ProcessingService) ProcessDocument(doc internal.DocumentRow) (ProcessResult, error) {
	start := time.Now()

	text, subject, err := s.decodeRaw(doc.RawRef)
	if err != nil {
		return ProcessResult{}, err
	}

	if err := s.db.ClearDocumentProcessing(doc.ID); err != nil {
		return ProcessResult{}, err
	}

	tmpls, err := s.db.ListTemplates(true)
	if err != nil {
		return ProcessResult{}, err
	}
	tmpl := templates.Detect(firstNonEmpty(subject, doc.Subject)+"\n"+text, tmpls)
	if tmpl == nil {
		_ = s.db.UpdateDocumentStatus(doc.ID, "unrecognized")
		_ = s.db.InsertRun(traceID(), doc.ID, map[string]float64{"totalMs": float64(time.Since(start).Milliseconds())}, map[string]int{"extracted": 0, "ok": 0, "review": 0, "notFound": 0})
		return ProcessResult{DocumentID: doc.ID, Items: 0}, nil
	}

	result, err := extract.Extract(text, *tmpl)
	if err != nil {
		_ = s.db.UpdateDocumentStatus(doc.ID, "failed")
		return ProcessResult{}, err
	}

	products, err := s.db.ListProducts()
	if err != nil {
		return ProcessResult{}, err
	}
	matcher := NewMatcher(s.cfg, products)

	templateID := tmpl.ID
	purchaseID, err := s.db.InsertPurchase(doc.ID, util.IntPtr(templateID), result)
	if err != nil {
		return ProcessResult{}, err
	}

	okCount, reviewCount, notFoundCount := 0, 0, 0
	for _, item := range result.Items {
		match := matcher.Match(item)
		if err := s.db.InsertPurchaseItem(purchaseID, item, match); err != nil {
			return ProcessResult{}, err
		}

		switch match.Status {
		case internal.MatchOK:
			okCount++
		case internal.MatchReview:
			reviewCount++
		case internal.MatchNotFound:
			notFoundCount++
		}
	}

	if err := s.db.UpdateDocumentStatus(doc.ID, "processed"); err != nil {
		return ProcessResult{}, err
	}
	_ = s.db.InsertRun(traceID(), doc.ID, map[string]float64{"totalMs": float64(time.Since(start).Milliseconds())}, map[string]int{"extracted": len(result.Items), "ok": okCount, "review": reviewCount, "notFound": notFoundCount})

	return ProcessResult{DocumentID: doc.ID, TemplateID: &templateID, Items: len(result.Items)}, nil
}

func (s *ProcessingService) decodeRaw(rawRef string) (text, subject string, err error) {
	raw, err := os.ReadFile(rawRef)
	if err != nil {
		return "", "", err
	}

	if strings.EqualFold(filepath.Ext(rawRef), ".eml") {
		decoded, err := document.DecodeEML(raw)
		if err != nil {
			return "", "", err
		}
		return decoded.Text, decoded.Subject, nil
	}

	text, err = document.DecodeFile(rawRef)
	if err != nil {
		return "", "", err
	}
	return text, "", nil
}

func traceID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
