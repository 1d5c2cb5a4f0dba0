// Package analyzer turns free-text model replies into a populated ContractAnalysis.
//
// Normalization is an ordered list of parse strategies. Each strategy either
// yields a JSON object or declines; the first object wins and is default-filled.
// When every strategy declines, the keyword fallback produces the report, so
// Normalize never fails.
package analyzer

import (
	"encoding/json"

	"github.com/AnTengye/contractreview/backend/model"
)

// schemaKeys are the top-level fields of a ContractAnalysis. A decoded object
// must carry at least one of them to count as an analysis.
var schemaKeys = []string{"summary", "compliance_score", "risks", "missing_clauses", "key_points"}

type strategy struct {
	name   string
	source model.AnalysisSource
	try    func(cleaned string) (map[string]any, bool)
}

var strategies = []strategy{
	{name: "direct", source: model.SourceModel, try: parseDirect},
	{name: "brace_scan", source: model.SourceExtracted, try: extractObject},
	{name: "trailing_comma", source: model.SourceRepaired, try: repaired(removeTrailingCommas)},
	{name: "quote_repair", source: model.SourceRepaired, try: repaired(func(s string) string {
		return escapeInnerQuotes(removeTrailingCommas(s))
	})},
}

// repaired applies fix to the whole reply and, failing that, to each
// brace-delimited candidate in it.
func repaired(fix func(string) string) func(string) (map[string]any, bool) {
	return func(s string) (map[string]any, bool) {
		if obj, ok := parseAny(fix(s)); ok {
			return obj, true
		}
		return scanObjects(s, fix)
	}
}

// Normalize returns the analysis contained in raw, or the fallback analysis of raw.
func Normalize(raw string) model.ContractAnalysis {
	a, _ := NormalizeWithSource(raw)
	return a
}

// NormalizeWithSource is Normalize that also reports which strategy produced the result.
func NormalizeWithSource(raw string) (model.ContractAnalysis, model.AnalysisSource) {
	cleaned := stripCodeFence(raw)
	for _, s := range strategies {
		if obj, ok := s.try(cleaned); ok {
			return fromObject(obj), s.source
		}
	}
	return FallbackAnalyze(raw), model.SourceFallback
}

// StrategyNames lists the structured strategies in the order they are tried.
func StrategyNames() []string {
	names := make([]string, 0, len(strategies))
	for _, s := range strategies {
		names = append(names, s.name)
	}
	return names
}

func parseDirect(s string) (map[string]any, bool) {
	obj, ok := decodeObject(s)
	if !ok || !hasSchemaKey(obj) {
		return nil, false
	}
	return obj, true
}

// decodeObject reports whether s is a JSON object, whatever its keys.
func decodeObject(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// parseAny tries a direct parse, then brace-scan extraction.
func parseAny(s string) (map[string]any, bool) {
	if obj, ok := parseDirect(s); ok {
		return obj, true
	}
	return extractObject(s)
}

func hasSchemaKey(obj map[string]any) bool {
	for _, k := range schemaKeys {
		if _, ok := obj[k]; ok {
			return true
		}
	}
	return false
}
