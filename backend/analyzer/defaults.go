package analyzer

import (
	"math"
	"strconv"
	"strings"

	"github.com/AnTengye/contractreview/backend/model"
)

// fromObject builds a fully populated analysis from a decoded JSON object.
// Absent or wrong-typed fields get their defaults.
func fromObject(obj map[string]any) model.ContractAnalysis {
	a := model.EmptyAnalysis()

	if s, ok := stringValue(obj["summary"]); ok {
		a.Summary = s
	}
	a.ComplianceScore = scoreValue(obj["compliance_score"])

	for _, item := range listValue(obj["risks"]) {
		if r, ok := riskValue(item); ok {
			a.Risks = append(a.Risks, r)
		}
	}
	for _, item := range listValue(obj["missing_clauses"]) {
		if mc, ok := missingClauseValue(item); ok {
			a.MissingClauses = append(a.MissingClauses, mc)
		}
	}
	for _, item := range listValue(obj["key_points"]) {
		if s, ok := stringValue(item); ok {
			a.KeyPoints = append(a.KeyPoints, s)
		}
	}
	return a
}

func riskValue(v any) (model.Risk, bool) {
	switch t := v.(type) {
	case map[string]any:
		sev, _ := stringValue(t["severity"])
		return model.Risk{
			Type:        stringOr(t["type"], model.NotSpecified),
			Description: stringOr(t["description"], model.NotSpecified),
			Severity:    model.ParseSeverity(sev),
			Clause:      stringOr(t["clause"], model.NotSpecified),
			Suggestion:  stringOr(t["suggestion"], model.NotSpecified),
		}, true
	case string:
		if strings.TrimSpace(t) == "" {
			return model.Risk{}, false
		}
		return model.Risk{
			Type:        model.NotSpecified,
			Description: t,
			Severity:    model.SeverityMedium,
			Clause:      model.NotSpecified,
			Suggestion:  model.NotSpecified,
		}, true
	}
	return model.Risk{}, false
}

func missingClauseValue(v any) (model.MissingClause, bool) {
	switch t := v.(type) {
	case map[string]any:
		return model.MissingClause{
			Clause:         stringOr(t["clause"], model.NotSpecified),
			Importance:     stringOr(t["importance"], model.NotSpecified),
			Recommendation: stringOr(t["recommendation"], model.NotSpecified),
		}, true
	case string:
		if strings.TrimSpace(t) == "" {
			return model.MissingClause{}, false
		}
		return model.MissingClause{
			Clause:         t,
			Importance:     model.NotSpecified,
			Recommendation: model.NotSpecified,
		}, true
	}
	return model.MissingClause{}, false
}

// listValue accepts an array, or a single element standing in for a one-element array.
func listValue(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case nil:
		return nil
	default:
		return []any{t}
	}
}

// stringValue returns a string as given, or a formatted number or boolean.
// Blank strings count as absent.
func stringValue(v any) (string, bool) {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(t)
	default:
		return "", false
	}
	return s, strings.TrimSpace(s) != ""
}

func stringOr(v any, def string) string {
	if s, ok := stringValue(v); ok {
		return s
	}
	return def
}

// scoreValue rounds a numeric or numeric-string score into [0, 100]; anything else is 0.
func scoreValue(v any) int {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(t), "%"), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) {
		return 0
	}
	return int(math.Max(0, math.Min(100, math.Round(f))))
}
