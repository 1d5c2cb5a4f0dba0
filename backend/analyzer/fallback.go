package analyzer

import (
	"strings"

	"github.com/AnTengye/contractreview/backend/model"
)

// FallbackScore is the fixed score of every keyword-derived analysis.
// A score of exactly 75 marks the report as degraded.
const FallbackScore = 75

const maxFallbackRisks = 3

const fallbackSummary = "Structured analysis could not be obtained from the model. " +
	"This is a preliminary keyword-based review."

var fallbackKeyPoints = []string{
	"Preliminary keyword-based review, not model-derived",
	"Have the contract reviewed by a legal professional",
}

var (
	breachKeywords     = []string{"breach", "default", "违约"}
	ipKeywords         = []string{"intellectual property", "知识产权"}
	acceptanceKeywords = []string{"acceptance", "inspection", "验收"}
	// contextKeywords indicate the text is contract material at all. Without
	// them the absence of an IP clause says nothing.
	contextKeywords = []string{"contract", "agreement", "party", "parties", "合同", "协议", "甲方", "乙方"}
)

var (
	breachRisk = model.Risk{
		Type:        "breach liability",
		Description: "Breach or default liability terms were detected; confirm the liability is proportionate and clearly bounded.",
		Severity:    model.SeverityMedium,
		Clause:      "Breach of contract",
		Suggestion:  "Define breach events, cure periods and a cap on damages for both parties.",
	}
	ipRisk = model.Risk{
		Type:        "IP risk",
		Description: "No intellectual property terms were found; ownership of work product may be disputed.",
		Severity:    model.SeverityHigh,
		Clause:      model.NotSpecified,
		Suggestion:  "Add a clause assigning ownership and licensing of intellectual property.",
	}
	ipMissingClause = model.MissingClause{
		Clause:         "Intellectual property ownership",
		Importance:     string(model.SeverityHigh),
		Recommendation: "State who owns deliverables and pre-existing IP, and what licences each party receives.",
	}
	acceptanceRisk = model.Risk{
		Type:        "acceptance criteria",
		Description: "Acceptance or inspection terms were detected; vague criteria commonly lead to payment disputes.",
		Severity:    model.SeverityHigh,
		Clause:      "Acceptance",
		Suggestion:  "Specify objective acceptance criteria, an inspection period and the effect of silence.",
	}
	generalRisk = model.Risk{
		Type:        "general review",
		Description: "The contract could not be analysed automatically.",
		Severity:    model.SeverityMedium,
		Clause:      model.NotSpecified,
		Suggestion:  "Have the full contract reviewed by a qualified legal professional.",
	}
)

// FallbackAnalyze derives a minimal analysis from keyword presence in text.
// The result is deterministic and always carries FallbackScore.
func FallbackAnalyze(text string) model.ContractAnalysis {
	lower := strings.ToLower(text)

	a := model.ContractAnalysis{
		Summary:         fallbackSummary,
		ComplianceScore: FallbackScore,
		Risks:           []model.Risk{},
		MissingClauses:  []model.MissingClause{},
		KeyPoints:       append([]string(nil), fallbackKeyPoints...),
	}

	hasBreach := containsAny(lower, breachKeywords)
	hasAcceptance := containsAny(lower, acceptanceKeywords)
	isContract := hasBreach || hasAcceptance || containsAny(lower, contextKeywords)

	if hasBreach {
		a.Risks = append(a.Risks, breachRisk)
	}
	if isContract && !containsAny(lower, ipKeywords) {
		a.Risks = append(a.Risks, ipRisk)
		a.MissingClauses = append(a.MissingClauses, ipMissingClause)
	}
	if hasAcceptance {
		a.Risks = append(a.Risks, acceptanceRisk)
	}
	if len(a.Risks) == 0 {
		a.Risks = append(a.Risks, generalRisk)
	}
	if len(a.Risks) > maxFallbackRisks {
		a.Risks = a.Risks[:maxFallbackRisks]
	}
	return a
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
