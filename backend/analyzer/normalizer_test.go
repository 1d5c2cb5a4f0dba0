package analyzer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnTengye/contractreview/backend/model"
)

const fullReply = `{
  "summary": "Service agreement between A and B",
  "compliance_score": 82,
  "risks": [
    {"type": "payment", "description": "Late payment penalty is unbounded", "severity": "High", "clause": "4.2", "suggestion": "Cap penalties"}
  ],
  "missing_clauses": [
    {"clause": "Termination", "importance": "High", "recommendation": "Add termination for convenience"}
  ],
  "key_points": ["12 month term", "Monthly invoicing"]
}`

func TestNormalizeValidJSON(t *testing.T) {
	a, src := NormalizeWithSource(fullReply)

	assert.Equal(t, model.SourceModel, src)
	assert.Equal(t, "Service agreement between A and B", a.Summary)
	assert.Equal(t, 82, a.ComplianceScore)
	require.Len(t, a.Risks, 1)
	assert.Equal(t, model.Risk{
		Type:        "payment",
		Description: "Late payment penalty is unbounded",
		Severity:    model.SeverityHigh,
		Clause:      "4.2",
		Suggestion:  "Cap penalties",
	}, a.Risks[0])
	require.Len(t, a.MissingClauses, 1)
	assert.Equal(t, "Termination", a.MissingClauses[0].Clause)
	assert.Equal(t, []string{"12 month term", "Monthly invoicing"}, a.KeyPoints)
}

func TestNormalizeFencedJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"json tag", "```json\n" + fullReply + "\n```"},
		{"no tag", "```\n" + fullReply + "\n```"},
		{"surrounding whitespace", "\n\n  ```JSON\n" + fullReply + "\n```  \n"},
		{"single line", "```json " + strings.ReplaceAll(fullReply, "\n", "") + "```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, src := NormalizeWithSource(tt.raw)
			assert.Equal(t, model.SourceModel, src)
			assert.Equal(t, 82, a.ComplianceScore)
			assert.Len(t, a.Risks, 1)
		})
	}
}

func TestNormalizeFillsOnlyAbsentFields(t *testing.T) {
	a, src := NormalizeWithSource(`{"summary": "ok", "risks": [{"type": "scope"}]}`)

	assert.Equal(t, model.SourceModel, src)
	assert.Equal(t, "ok", a.Summary)
	assert.Equal(t, 0, a.ComplianceScore)
	require.Len(t, a.Risks, 1)
	assert.Equal(t, "scope", a.Risks[0].Type)
	assert.Equal(t, model.SeverityMedium, a.Risks[0].Severity)
	assert.Equal(t, model.NotSpecified, a.Risks[0].Description)
	assert.Equal(t, model.NotSpecified, a.Risks[0].Clause)
	assert.Equal(t, model.NotSpecified, a.Risks[0].Suggestion)
	assert.NotNil(t, a.MissingClauses)
	assert.Empty(t, a.MissingClauses)
	assert.NotNil(t, a.KeyPoints)
	assert.Empty(t, a.KeyPoints)
}

func TestNormalizeWrongTypes(t *testing.T) {
	raw := `{
	  "summary": 42,
	  "compliance_score": "91.6",
	  "risks": ["Unclear scope", 7, null],
	  "missing_clauses": "Confidentiality",
	  "key_points": "Single point"
	}`
	a := Normalize(raw)

	assert.Equal(t, "42", a.Summary)
	assert.Equal(t, 92, a.ComplianceScore)
	require.Len(t, a.Risks, 1)
	assert.Equal(t, "Unclear scope", a.Risks[0].Description)
	assert.Equal(t, model.SeverityMedium, a.Risks[0].Severity)
	require.Len(t, a.MissingClauses, 1)
	assert.Equal(t, "Confidentiality", a.MissingClauses[0].Clause)
	assert.Equal(t, []string{"Single point"}, a.KeyPoints)
}

func TestNormalizeScoreBounds(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{`{"compliance_score": 150}`, 100},
		{`{"compliance_score": -3}`, 0},
		{`{"compliance_score": "85%"}`, 85},
		{`{"compliance_score": "high"}`, 0},
		{`{"compliance_score": [1]}`, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.raw).ComplianceScore, tt.raw)
	}
}

func TestNormalizeChineseSeverity(t *testing.T) {
	a := Normalize(`{"summary":"合同概述","risks":[{"type":"付款","severity":"高"},{"type":"交付","severity":"低"}]}`)

	require.Len(t, a.Risks, 2)
	assert.Equal(t, model.SeverityHigh, a.Risks[0].Severity)
	assert.Equal(t, model.SeverityLow, a.Risks[1].Severity)
}

func TestNormalizeExtractsFromProse(t *testing.T) {
	raw := "Here is the result:\n{\"summary\":\"ok\",\"compliance_score\":70,\"risks\":[{\"type\":\"a {nested} brace\"}]}\nThanks"
	a, src := NormalizeWithSource(raw)

	assert.Equal(t, model.SourceExtracted, src)
	assert.Equal(t, "ok", a.Summary)
	assert.Equal(t, 70, a.ComplianceScore)
	require.Len(t, a.Risks, 1)
	assert.Equal(t, "a {nested} brace", a.Risks[0].Type)
}

func TestNormalizeExtractSkipsNonAnalysisObjects(t *testing.T) {
	raw := `Note {"foo": 1} then {unbalanced and finally {"summary": "second"}`
	a, src := NormalizeWithSource(raw)

	assert.Equal(t, model.SourceExtracted, src)
	assert.Equal(t, "second", a.Summary)
}

func TestNormalizeUnwrapsNestedAnalysis(t *testing.T) {
	tests := []string{
		`{"analysis": {"summary": "wrapped", "compliance_score": 64}}`,
		"Result: {\"result\": {\"summary\": \"wrapped\", \"compliance_score\": 64}} done",
	}
	for _, raw := range tests {
		a, src := NormalizeWithSource(raw)
		assert.Equal(t, model.SourceExtracted, src, raw)
		assert.Equal(t, "wrapped", a.Summary, raw)
		assert.Equal(t, 64, a.ComplianceScore, raw)
	}
}

func TestNormalizeKeepsValuesAsGiven(t *testing.T) {
	a, src := NormalizeWithSource(`{
	  "summary": "  ok  ",
	  "risks": ["  padded risk "],
	  "key_points": [1, "b", true, "  ", null, " c "]
	}`)

	assert.Equal(t, model.SourceModel, src)
	assert.Equal(t, "  ok  ", a.Summary)
	require.Len(t, a.Risks, 1)
	assert.Equal(t, "  padded risk ", a.Risks[0].Description)
	assert.Equal(t, []string{"1", "b", "true", " c "}, a.KeyPoints)
}

func TestNormalizeRepairsTrailingComma(t *testing.T) {
	tests := []string{
		`{"summary": "ok", "compliance_score": 60,}`,
		`{"summary": "ok", "compliance_score": 60, "key_points": ["a", "b",]}`,
		"Result:\n{\"summary\": \"ok\", \"compliance_score\": 60,\n}\n",
		"The model said \"ok.\n{\"summary\": \"ok\", \"compliance_score\": 60,}",
		"Odd \" quote, then ```json\n{\"summary\": \"ok\", \"compliance_score\": 60,}\n``` and more",
	}
	for _, raw := range tests {
		a, src := NormalizeWithSource(raw)
		assert.Equal(t, model.SourceRepaired, src, raw)
		assert.Equal(t, "ok", a.Summary, raw)
		assert.Equal(t, 60, a.ComplianceScore, raw)
	}
}

func TestNormalizeTrailingCommaInsideStringKept(t *testing.T) {
	a := Normalize(`{"summary": "a, }", "compliance_score": 10,}`)
	assert.Equal(t, "a, }", a.Summary)
}

func TestNormalizeRepairsInnerQuotes(t *testing.T) {
	raw := `{"summary": "The "Supplier" must deliver", "compliance_score": 55}`
	a, src := NormalizeWithSource(raw)

	assert.Equal(t, model.SourceRepaired, src)
	assert.Equal(t, `The "Supplier" must deliver`, a.Summary)
	assert.Equal(t, 55, a.ComplianceScore)
}

func TestNormalizeRepairsRawNewlines(t *testing.T) {
	a := Normalize("{\"summary\": \"line one\nline two\", \"compliance_score\": 40}")
	assert.Equal(t, "line one\nline two", a.Summary)
	assert.Equal(t, 40, a.ComplianceScore)
}

func TestNormalizeGenericFallback(t *testing.T) {
	a, src := NormalizeWithSource("I am sorry, I cannot help with that request.")

	assert.Equal(t, model.SourceFallback, src)
	assert.Equal(t, FallbackScore, a.ComplianceScore)
	require.Len(t, a.Risks, 1)
	assert.Equal(t, "general review", a.Risks[0].Type)
	assert.Equal(t, model.SeverityMedium, a.Risks[0].Severity)
	assert.Empty(t, a.MissingClauses)
	assert.NotNil(t, a.MissingClauses)
}

func TestNormalizeEmptyInput(t *testing.T) {
	for _, raw := range []string{"", "   ", "```json\n```", "{}", "[]", "null"} {
		a, src := NormalizeWithSource(raw)
		assert.Equal(t, model.SourceFallback, src, raw)
		assert.NotEmpty(t, a.Summary, raw)
		assert.NotEmpty(t, a.Risks, raw)
	}
}

func TestStrategyNamesOrder(t *testing.T) {
	assert.Equal(t, []string{"direct", "brace_scan", "trailing_comma", "quote_repair"}, StrategyNames())
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("  {\"a\":1}  "))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```{\"a\":1}```"))
}

func TestMatchBrace(t *testing.T) {
	s := `{"a": "}", "b": {"c": "\"{"}}`
	end, ok := matchBrace(s, 0)
	require.True(t, ok)
	assert.Equal(t, len(s)-1, end)

	_, ok = matchBrace(`{"a": {`, 0)
	assert.False(t, ok)
}
