package extract

import (
	"regexp"

	"almacen/internal"
)

// Diagnose explains the match outcome for the first candidate line without
// running a full extraction: the template author sees the exact line the
// pattern was tested against, whether it matched, and every captured group
// in order. Read-only; the template is never touched.
func Diagnose(text string, cfg internal.LineConfig) internal.DiagnosticReport {
	candidates := candidateLines(text, cfg, 1)
	if len(candidates) == 0 {
		return internal.DiagnosticReport{Status: internal.DiagNoCandidateLine}
	}
	candidate := candidates[0]

	compiled, err := ResolveLines(cfg)
	if err != nil {
		return internal.DiagnosticReport{Status: internal.DiagPatternError, Detail: err.Error()}
	}
	re, err := regexp.Compile(compiled.Pattern)
	if err != nil {
		return internal.DiagnosticReport{Status: internal.DiagPatternError, Detail: err.Error()}
	}

	match := re.FindStringSubmatch(candidate)
	if match == nil {
		return internal.DiagnosticReport{
			Status:        internal.DiagEvaluated,
			CandidateLine: candidate,
			Matched:       false,
		}
	}
	return internal.DiagnosticReport{
		Status:         internal.DiagEvaluated,
		CandidateLine:  candidate,
		Matched:        true,
		CapturedGroups: match[1:],
	}
}
