package service

import (
	"context"

	"github.com/AnTengye/contractreview/backend/analyzer"
	"github.com/AnTengye/contractreview/backend/model"
	"github.com/AnTengye/contractreview/backend/pkg/logger"
)

// ContractAnalyzer returns the model's raw reply for a contract.
// LLMService implements it.
type ContractAnalyzer interface {
	Analyze(ctx context.Context, contractText string) (string, error)
}

// ReviewService runs one contract analysis end to end. It never fails: model
// errors and unparseable replies degrade to the keyword fallback.
type ReviewService struct {
	llm ContractAnalyzer
}

func NewReviewService(llm ContractAnalyzer) *ReviewService {
	return &ReviewService{llm: llm}
}

// Review analyzes contractText and reports which path produced the result.
func (s *ReviewService) Review(ctx context.Context, contractText string) (model.ContractAnalysis, model.AnalysisSource) {
	raw, err := s.llm.Analyze(ctx, contractText)
	if err != nil {
		logger.Warn(ctx, "llm analysis failed, using keyword fallback",
			"error", err,
			"llm_failure", IsLLMFailure(err),
		)
		return analyzer.FallbackAnalyze(contractText), model.SourceFallback
	}

	analysis, source := analyzer.NormalizeWithSource(raw)
	switch source {
	case model.SourceFallback:
		logger.Warn(ctx, "model reply could not be parsed, using keyword fallback",
			"strategies", analyzer.StrategyNames(),
			"reply_preview", truncate(raw, 200),
		)
	case model.SourceModel:
		logger.Debug(ctx, "model reply parsed", "source", source)
	default:
		logger.Info(ctx, "model reply recovered", "source", source)
	}
	return analysis, source
}
