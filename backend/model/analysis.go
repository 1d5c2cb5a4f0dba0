package model

import "strings"

// Severity is the risk level attached to a Risk.
type Severity string

const (
	SeverityHigh   Severity = "High"
	SeverityMedium Severity = "Medium"
	SeverityLow    Severity = "Low"
)

// Placeholders used when the model omits a field.
const (
	NotSpecified   = "Not specified"
	DefaultSummary = "No summary available"
)

// AnalysisSource records which path produced a ContractAnalysis.
type AnalysisSource string

const (
	SourceModel     AnalysisSource = "model"     // reply parsed as-is
	SourceExtracted AnalysisSource = "extracted" // JSON object found inside surrounding prose
	SourceRepaired  AnalysisSource = "repaired"  // reply parsed after syntax repair
	SourceFallback  AnalysisSource = "fallback"  // keyword heuristics, degraded mode
)

// Degraded reports whether the analysis was not derived from the model's JSON.
func (s AnalysisSource) Degraded() bool {
	return s == SourceFallback
}

// ContractAnalysis is the structured risk report shown to the user.
type ContractAnalysis struct {
	Summary         string          `json:"summary"`
	ComplianceScore int             `json:"compliance_score"`
	Risks           []Risk          `json:"risks"`
	MissingClauses  []MissingClause `json:"missing_clauses"`
	KeyPoints       []string        `json:"key_points"`
}

type Risk struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
	Clause      string   `json:"clause"`
	Suggestion  string   `json:"suggestion"`
}

type MissingClause struct {
	Clause         string `json:"clause"`
	Importance     string `json:"importance"`
	Recommendation string `json:"recommendation"`
}

// ParseSeverity maps the many spellings models use onto the three levels.
// Unknown or empty input is Medium.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "critical", "severe", "高", "高风险", "严重":
		return SeverityHigh
	case "low", "minor", "低", "低风险":
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// SeverityCounts returns the number of risks per severity, always with all three keys.
func (a *ContractAnalysis) SeverityCounts() map[Severity]int {
	counts := map[Severity]int{
		SeverityHigh:   0,
		SeverityMedium: 0,
		SeverityLow:    0,
	}
	for _, r := range a.Risks {
		counts[ParseSeverity(string(r.Severity))]++
	}
	return counts
}

// EmptyAnalysis is the fully populated zero report: default summary, score 0, empty lists.
func EmptyAnalysis() ContractAnalysis {
	return ContractAnalysis{
		Summary:        DefaultSummary,
		Risks:          []Risk{},
		MissingClauses: []MissingClause{},
		KeyPoints:      []string{},
	}
}
