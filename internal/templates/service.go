package templates

import (
	"errors"
	"fmt"
	"strings"

	"almacen/internal"
	"almacen/internal/extract"
)

var (
	ErrNameRequired     = errors.New("template name is required")
	ErrNoTestExtraction = errors.New("template extracted no items from the test document")
)

// Sentinel supplier values the dashboard front end is known to send.
var supplierSentinels = map[string]struct{}{
	"undefined": {},
	"null":      {},
	"none":      {},
}

// NormalizeForSave cleans user input before persistence: trimmed name,
// empty detection keywords dropped, sentinel supplier ids collapsed to the
// explicit "no supplier" empty string.
func NormalizeForSave(tmpl internal.Template) internal.Template {
	tmpl.Name = strings.TrimSpace(tmpl.Name)

	keywords := make([]string, 0, len(tmpl.DetectionKeywords))
	for _, kw := range tmpl.DetectionKeywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	tmpl.DetectionKeywords = keywords

	supplier := strings.TrimSpace(tmpl.SupplierID)
	if _, sentinel := supplierSentinels[strings.ToLower(supplier)]; sentinel {
		supplier = ""
	}
	tmpl.SupplierID = supplier

	if tmpl.Lines.Mode == "" {
		tmpl.Lines.Mode = internal.LineModeVisual
	}
	return tmpl
}

// ValidateForSave is the save-time guard: a name is always required, the
// line config must resolve, and a brand-new template must prove itself by
// extracting at least one item from the author's test document. Existing
// templates can be edited freely.
func ValidateForSave(tmpl internal.Template, testText string, isNew bool) error {
	if strings.TrimSpace(tmpl.Name) == "" {
		return ErrNameRequired
	}
	if _, err := extract.ResolveLines(tmpl.Lines); err != nil {
		return fmt.Errorf("line config: %w", err)
	}
	if !isNew {
		return nil
	}

	items, err := extract.ExtractItems(testText, tmpl.Lines)
	if err != nil {
		return fmt.Errorf("test extraction: %w", err)
	}
	if len(items) == 0 {
		return ErrNoTestExtraction
	}
	return nil
}

// Detect picks the active template whose detection keywords best cover the
// document text. At least one keyword must hit; ties go to the first
// template in list order. Inactive templates never match.
func Detect(text string, tmpls []internal.Template) *internal.Template {
	lower := strings.ToLower(text)

	var best *internal.Template
	bestScore := 0
	for i := range tmpls {
		tmpl := &tmpls[i]
		if !tmpl.Active || len(tmpl.DetectionKeywords) == 0 {
			continue
		}
		score := 0
		for _, kw := range tmpl.DetectionKeywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				score++
			}
		}
		if score > bestScore {
			best = tmpl
			bestScore = score
		}
	}
	return best
}
