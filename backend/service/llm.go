package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/AnTengye/contractreview/backend/config"
	"github.com/AnTengye/contractreview/backend/pkg/logger"
)

// TruncationMarker is appended to contract text cut at the input limit.
const TruncationMarker = "\n...(contract truncated)"

// SuggestionFailedMessage is the single suggestion returned when the model call fails.
const SuggestionFailedMessage = "Failed to get suggestions, please try again later"

const (
	suggestionTemperature = 0.5
	suggestionMaxTokens   = 500
	probeMaxTokens        = 10
	maxErrorBody          = 500
)

const analysisSystemPrompt = "You are a professional contract review expert with extensive legal knowledge and practical experience."

const analysisPromptTemplate = `Review the following contract carefully and produce a risk analysis.

Contract:
%s

Return ONLY a JSON object, without markdown code fences or any other text, in exactly this shape:
{
  "summary": "overall summary of the contract",
  "compliance_score": 85,
  "risks": [
    {
      "type": "risk type",
      "description": "risk description",
      "severity": "High|Medium|Low",
      "clause": "related clause",
      "suggestion": "suggested change"
    }
  ],
  "missing_clauses": [
    {
      "clause": "name of the missing clause",
      "importance": "importance level",
      "recommendation": "what to add"
    }
  ],
  "key_points": ["point 1", "point 2"]
}
compliance_score is an integer from 0 to 100. Answer in the language of the contract.`

const suggestionSystemPrompt = "You are an expert in optimising contract clauses."

const suggestionPromptTemplate = `Give 3 to 5 concrete suggestions to improve the following %s clause.

Current clause:
%s

Return the suggestions as short bullet points, one per line.`

// ChatMessage is one message of an OpenAI-compatible chat completion.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the OpenAI-compatible chat completion request body.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

// ChatResponse is the subset of the chat completion response we read.
type ChatResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type LLMService struct {
	config     *config.LLMConfig
	httpClient *http.Client
}

func NewLLMService(cfg *config.LLMConfig) *LLMService {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &LLMService{
		config: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BuildPrompt embeds contractText, cut to maxChars characters, in the analysis prompt.
func BuildPrompt(contractText string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = config.DefaultMaxInputChars
	}
	text, truncated := truncateText(contractText, maxChars)
	if truncated {
		text += TruncationMarker
	}
	return fmt.Sprintf(analysisPromptTemplate, text)
}

// truncateText keeps the first max characters (runes) of s.
func truncateText(s string, max int) (string, bool) {
	count := 0
	for i := range s {
		if count == max {
			return s[:i], true
		}
		count++
	}
	return s, false
}

// Analyze sends the contract to the model and returns the raw reply text.
func (s *LLMService) Analyze(ctx context.Context, contractText string) (string, error) {
	messages := []ChatMessage{
		{Role: "system", Content: analysisSystemPrompt},
		{Role: "user", Content: BuildPrompt(contractText, s.config.MaxInputChars)},
	}

	start := time.Now()
	content, err := s.complete(ctx, "analyze", messages, s.config.Temperature, s.config.MaxTokens)
	if err != nil {
		return "", err
	}

	logger.Debug(ctx, "llm analysis completed",
		"model", s.config.Model,
		"input_chars", len([]rune(contractText)),
		"reply_chars", len([]rune(content)),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}

// TestConnection sends a minimal probe. It returns false on any failure.
func (s *LLMService) TestConnection(ctx context.Context) bool {
	messages := []ChatMessage{{Role: "user", Content: "Hello"}}
	if _, err := s.complete(ctx, "probe", messages, s.config.Temperature, probeMaxTokens); err != nil {
		logger.Warn(ctx, "llm connectivity probe failed", "base_url", s.config.BaseURL, "error", err)
		return false
	}
	return true
}

// CheckConnectivity wraps TestConnection for callers that want an error.
func (s *LLMService) CheckConnectivity(ctx context.Context) error {
	if !s.TestConnection(ctx) {
		return fmt.Errorf("%w: %s", ErrConnectivity, s.config.BaseURL)
	}
	return nil
}

// SuggestClauses asks the model for improvement suggestions for one clause.
// It never fails; on error the result is a single placeholder message.
func (s *LLMService) SuggestClauses(ctx context.Context, clauseType, clauseText string) []string {
	messages := []ChatMessage{
		{Role: "system", Content: suggestionSystemPrompt},
		{Role: "user", Content: fmt.Sprintf(suggestionPromptTemplate, clauseType, clauseText)},
	}

	content, err := s.complete(ctx, "suggest", messages, suggestionTemperature, suggestionMaxTokens)
	if err != nil {
		logger.Warn(ctx, "clause suggestion failed", "clause_type", clauseType, "error", err)
		return []string{SuggestionFailedMessage}
	}

	suggestions := splitSuggestions(content)
	if len(suggestions) == 0 {
		return []string{SuggestionFailedMessage}
	}
	return suggestions
}

// splitSuggestions turns a bulleted reply into one entry per non-empty line.
func splitSuggestions(content string) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•· \t")
		line = stripOrdinal(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// stripOrdinal removes a leading "1." / "2)" / "3、" list number.
func stripOrdinal(line string) string {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 || i == len(line) {
		return line
	}
	rest := line[i:]
	for _, sep := range []string{".", ")", "、"} {
		if strings.HasPrefix(rest, sep) {
			return strings.TrimLeftFunc(rest[len(sep):], unicode.IsSpace)
		}
	}
	return line
}

func (s *LLMService) complete(ctx context.Context, op string, messages []ChatMessage, temperature float64, maxTokens int) (string, error) {
	reqBody := ChatRequest{
		Model:       s.config.Model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.BaseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{StatusCode: resp.StatusCode, Message: truncate(string(body), maxErrorBody)}
	}

	var result ChatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &APIError{StatusCode: resp.StatusCode, Message: "invalid response body: " + truncate(string(body), maxErrorBody)}
	}
	if result.Error != nil && result.Error.Message != "" {
		return "", &APIError{StatusCode: resp.StatusCode, Message: result.Error.Message}
	}
	if len(result.Choices) == 0 {
		return "", &APIError{StatusCode: resp.StatusCode, Message: "no choices in response"}
	}

	return result.Choices[0].Message.Content, nil
}
