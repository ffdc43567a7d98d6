package extract

import (
	"regexp"
	"strings"

	"almacen/internal"
	"almacen/internal/util"
)

type HeaderFields struct {
	OrderNumber *string
	Date        *string
	Total       *float64
}

// ExtractHeader applies each configured header pattern against the full text
// and takes the first capture group of the first match. Patterns fail
// independently: a broken or non-matching pattern only leaves its own field
// absent, recorded in the returned error map.
func ExtractHeader(text string, cfg internal.HeaderConfig) (HeaderFields, map[string]string) {
	fields := HeaderFields{}
	errs := map[string]string{}

	if raw, err := firstCapture(text, cfg.OrderNumberPattern); err != nil {
		errs["orderNumber"] = err.Error()
	} else if raw != nil {
		fields.OrderNumber = raw
	}

	if raw, err := firstCapture(text, cfg.DatePattern); err != nil {
		errs["date"] = err.Error()
	} else if raw != nil {
		fields.Date = raw
	}

	if raw, err := firstCapture(text, cfg.TotalPattern); err != nil {
		errs["total"] = err.Error()
	} else if raw != nil {
		// Unparseable totals are an absent field, not an error.
		fields.Total = util.ParseAmount(*raw)
	}

	return fields, errs
}

// firstCapture returns the first capture group of the first match, nil when
// the pattern is empty or does not match, and an error when it does not
// compile or captures nothing.
func firstCapture(text, pattern string) (*string, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	match := re.FindStringSubmatch(text)
	if match == nil {
		return nil, nil
	}
	if len(match) < 2 {
		return nil, errPatternNoGroup
	}
	return util.StringPtr(strings.TrimSpace(match[1])), nil
}
