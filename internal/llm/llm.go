// Package llm talks to an OpenAI-compatible generation service for exam
// question batches and performance diagnostics.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	"github.com/tfarias/oabsim/internal/llm/prompts"
	"github.com/tfarias/oabsim/internal/model"
)

// maxRecentTopics bounds how many recent topics are passed to generation.
const maxRecentTopics = 10

// historyWindow bounds how many results feed the historical diagnostic.
const historyWindow = 10

// Fallback texts returned when diagnostic generation fails or has no data.
// These are part of the external contract, not UI translations.
const (
	FallbackInstantDiagnostic = "O diagnóstico automático está temporariamente indisponível."
	NoDataSummary             = "Sem dados para análise."
	NoDataRecommendation      = "Realize seu primeiro simulado."
	UnavailableSummary        = "Análise estratégica temporariamente indisponível."
	UnavailableRecommendation = "Continue realizando simulados."
)

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a new LLM client.
func New(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// Ping verifies the endpoint answers a minimal completion request.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		Messages:  []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: "ping"}},
		MaxTokens: 1,
	})
	if err != nil {
		return fmt.Errorf("LLM health check: %w", err)
	}
	return nil
}

// questionBatch is the JSON envelope the generation prompt asks for.
type questionBatch struct {
	Questions []model.Question `json:"questions"`
}

// GenerateQuestions requests a batch of exam questions. Recent topics are
// deduplicated and bounded to reduce repetition; they are advisory only and
// never re-validated against the returned questions. Any upstream error or
// schema violation is a *model.GenerationError; there is no best-effort
// salvage of malformed entries.
func (c *Client) GenerateQuestions(ctx context.Context, subject string, count int, recentTopics []string) ([]model.Question, error) {
	topics := dedupeTopics(recentTopics, maxRecentTopics)
	prompt := prompts.Questions(subject, count, topics)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.7,
	})
	if err != nil {
		return nil, &model.GenerationError{Err: fmt.Errorf("LLM API call: %w", err)}
	}
	if len(resp.Choices) == 0 {
		return nil, &model.GenerationError{Err: fmt.Errorf("LLM returned no choices")}
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("generation response", "subject", subject, "count", count, "bytes", len(raw))
	if raw == "" {
		return nil, nil
	}

	var batch questionBatch
	if err := json.Unmarshal([]byte(raw), &batch); err != nil {
		return nil, &model.GenerationError{Err: fmt.Errorf("parse generation response: %w", err)}
	}
	for _, q := range batch.Questions {
		if err := q.Validate(); err != nil {
			return nil, &model.GenerationError{Err: fmt.Errorf("invalid question in response: %w", err)}
		}
	}
	return batch.Questions, nil
}

// InstantDiagnostic summarizes one finished exam into a short note. It never
// fails: on any upstream problem the fixed fallback text is returned, since
// this feedback is supplementary, not blocking.
func (c *Client) InstantDiagnostic(ctx context.Context, result model.ExamResult) string {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompts.InstantDiagnostic(result)},
		},
		Temperature: 0.3,
	})
	if err != nil {
		slog.Warn("instant diagnostic failed", "result_id", result.ID, "error", err)
		return FallbackInstantDiagnostic
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "Continue estudando para melhorar seus resultados."
	}
	return resp.Choices[0].Message.Content
}

// HistoricalDiagnostic summarizes up to the 10 most recent results into a
// structured diagnostic. Empty history short-circuits to the fixed no-data
// diagnostic without calling the service; failures return the unavailable
// diagnostic. It never returns an error.
func (c *Client) HistoricalDiagnostic(ctx context.Context, history []model.ExamResult) model.Diagnostic {
	if len(history) == 0 {
		return model.Diagnostic{
			Summary:        NoDataSummary,
			Strengths:      []string{},
			Weaknesses:     []string{},
			Recommendation: NoDataRecommendation,
		}
	}
	if len(history) > historyWindow {
		history = history[:historyWindow]
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompts.HistoricalDiagnostic(history)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.3,
	})
	if err != nil {
		slog.Warn("historical diagnostic failed", "results", len(history), "error", err)
		return unavailableDiagnostic()
	}
	if len(resp.Choices) == 0 {
		return unavailableDiagnostic()
	}

	var diag model.Diagnostic
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &diag); err != nil {
		slog.Warn("parse historical diagnostic", "error", err)
		return unavailableDiagnostic()
	}
	return diag
}

func unavailableDiagnostic() model.Diagnostic {
	return model.Diagnostic{
		Summary:        UnavailableSummary,
		Strengths:      []string{},
		Weaknesses:     []string{},
		Recommendation: UnavailableRecommendation,
	}
}

// dedupeTopics keeps the first occurrence of each topic, bounded to limit.
func dedupeTopics(topics []string, limit int) []string {
	seen := make(map[string]bool, len(topics))
	var out []string
	for _, t := range topics {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
		if len(out) == limit {
			break
		}
	}
	return out
}
