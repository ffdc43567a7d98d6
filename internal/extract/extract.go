// Package extract is the supplier-document extraction engine: a template
// describing one supplier's layout is applied to the linearized text of a
// purchase order or invoice, yielding header fields and structured line
// items. All functions are pure and safe for concurrent use.
package extract

import (
	"errors"

	"almacen/internal"
)

// Documents beyond this size are refused outright; templates are meant for
// single purchase orders, not dumps.
const MaxTextBytes = 2 << 20

var (
	errPatternNoGroup = errors.New("pattern has no capture group")

	ErrEmptyText    = errors.New("document text is empty")
	ErrTextTooLarge = errors.New("document text exceeds size limit")
)

// Extract runs header and line-item extraction against the same text and
// assembles a partial-tolerant result: a failure in one path never blanks
// the other. Only structurally unusable input is a top-level error.
func Extract(text string, tmpl internal.Template) (internal.ExtractionResult, error) {
	if len(text) > MaxTextBytes {
		return internal.ExtractionResult{}, ErrTextTooLarge
	}
	if isBlank(text) {
		return internal.ExtractionResult{}, ErrEmptyText
	}

	header, fieldErrs := ExtractHeader(text, tmpl.Header)

	items, err := ExtractItems(text, tmpl.Lines)
	if err != nil {
		fieldErrs["lineItems"] = err.Error()
		items = []internal.LineItem{}
	}

	result := internal.ExtractionResult{
		OrderNumber: header.OrderNumber,
		Date:        header.Date,
		Total:       header.Total,
		Items:       items,
	}
	if len(fieldErrs) > 0 {
		result.FieldErrors = fieldErrs
	}
	return result, nil
}

func isBlank(text string) bool {
	for _, r := range text {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}
