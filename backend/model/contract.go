package model

import (
	"time"
)

// Contract is one analysis request and its outcome, kept in the transient store.
type Contract struct {
	ID         string            `json:"id"`
	Filename   string            `json:"filename"`
	Tenant     string            `json:"tenant"`
	Username   string            `json:"username,omitempty"`
	ObjectName string            `json:"-"`
	FileURL    string            `json:"file_url,omitempty"`
	Depth      string            `json:"depth"`
	TextLength int               `json:"text_length"`
	Preview    string            `json:"preview,omitempty"`
	Status     string            `json:"status"` // processing, completed, failed
	Source     AnalysisSource    `json:"source,omitempty"`
	Analysis   *ContractAnalysis `json:"analysis,omitempty"`
	ErrorMsg   string            `json:"error_msg,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// ContractStatus constants
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Analysis depth options. The value is recorded but does not change the request.
const (
	DepthQuick    = "quick"
	DepthStandard = "standard"
	DepthDeep     = "deep"
)

// NormalizeDepth maps user input to a known depth, defaulting to standard.
func NormalizeDepth(depth string) string {
	switch depth {
	case DepthQuick, DepthDeep:
		return depth
	default:
		return DepthStandard
	}
}
