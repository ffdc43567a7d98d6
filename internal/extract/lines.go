package extract

import (
	"fmt"
	"regexp"
	"strings"

	"almacen/internal"
)

// Lines made of whitespace and dashes are table separators, not data.
var reSeparator = regexp.MustCompile(`^[\s-]*$`)

// ResolveLines yields the effective pattern and mapping for a line config:
// visual mode recompiles from the column list, expert mode returns the
// hand-written pattern verbatim.
func ResolveLines(cfg internal.LineConfig) (CompiledLine, error) {
	switch cfg.Mode {
	case internal.LineModeExpert:
		mapping := cfg.FieldMapping
		if mapping == nil {
			mapping = map[string]int{}
		}
		return CompiledLine{Pattern: cfg.LineItemPattern, Mapping: mapping}, nil
	case internal.LineModeVisual, "":
		return Compile(cfg.Columns)
	default:
		return CompiledLine{}, fmt.Errorf("unknown line config mode %q", cfg.Mode)
	}
}

// candidateLines returns the trimmed lines between the start and end markers,
// separators skipped, in document order. The marker lines themselves are
// never candidates. limit <= 0 means all candidates.
func candidateLines(text string, cfg internal.LineConfig, limit int) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	active := cfg.TableStartMarker == ""

	out := []string{}
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !active {
			if strings.Contains(trimmed, cfg.TableStartMarker) {
				active = true
			}
			continue
		}
		if cfg.TableEndMarker != "" && strings.Contains(trimmed, cfg.TableEndMarker) {
			break
		}
		if reSeparator.MatchString(trimmed) {
			continue
		}
		out = append(out, trimmed)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
