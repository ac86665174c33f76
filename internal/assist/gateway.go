package assist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/artwin/feedback-hub/internal/feedback"
	"github.com/artwin/feedback-hub/pkg/logger"
	"github.com/artwin/feedback-hub/pkg/retry"
)

// The four assist capabilities. All of them are advisory: every failure
// mode collapses to a fixed fallback value, never an error, so the
// intake and triage paths keep working with the AI endpoint down.

type Classifier interface {
	ClassifyDepartment(ctx context.Context, message string) feedback.Department
}

type Analyzer interface {
	Analyze(ctx context.Context, message string, urgency feedback.Urgency) feedback.Analysis
}

type Drafter interface {
	DraftReply(ctx context.Context, item feedback.Item) string
}

type Summarizer interface {
	SummarizeReport(ctx context.Context, items []feedback.Item, dept feedback.Department) string
}

type Assistant interface {
	Classifier
	Analyzer
	Drafter
	Summarizer
}

const (
	FallbackDraft  = "Service unavailable."
	FallbackReport = "Report generation failed."
	EmptyReport    = "No data available to generate a report."
)

// FallbackAnalysis is returned whenever analysis cannot run.
func FallbackAnalysis() feedback.Analysis {
	return feedback.Analysis{
		Sentiment:       feedback.SentimentNeutral,
		Summary:         "AI Analysis unavailable",
		SuggestedAction: "Review manually",
		UrgencyScore:    5,
	}
}

// AnalysisCache is an optional read-through cache for analysis results.
type AnalysisCache interface {
	GetAnalysis(ctx context.Context, key string) (feedback.Analysis, bool)
	SetAnalysis(ctx context.Context, key string, analysis feedback.Analysis)
}

// CacheKey derives the analysis cache key from the prompt inputs.
type CacheKey func(message string, urgency feedback.Urgency) string

type Gateway struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	retryConfig retry.Config
	cache       AnalysisCache
	cacheKey    CacheKey
}

func NewGateway(apiKey, model string, temperature float32, maxTokens int, cache AnalysisCache, cacheKey CacheKey) *Gateway {
	retryConfig := retry.Config{
		MaxAttempts:    3,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		Logger:         logger.GetLogger(),
	}

	logger.Info("Assist gateway initialized", zap.String("model", model))

	return &Gateway{
		client:      openai.NewClient(apiKey),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		retryConfig: retryConfig,
		cache:       cache,
		cacheKey:    cacheKey,
	}
}

type completionRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float32
	MaxTokens    int
	JSONResponse bool
}

func (g *Gateway) complete(ctx context.Context, req completionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	temperature := req.Temperature
	if temperature == 0 {
		temperature = g.temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = g.maxTokens
	}

	chatReq := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.UserPrompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	if req.JSONResponse {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	var content string
	err := retry.Do(ctx, g.retryConfig, func() error {
		resp, err := g.client.CreateChatCompletion(ctx, chatReq)
		if err != nil {
			return fmt.Errorf("failed to create completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("completion returned no choices")
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

const analysisSystemPrompt = "You are an expert HR and Operations assistant for Artwin. Be concise and professional."

// Analyze enriches one message with sentiment, a summary, a suggested
// action and an urgency score. The score is advisory and never
// overrides the declared urgency.
func (g *Gateway) Analyze(ctx context.Context, message string, urgency feedback.Urgency) feedback.Analysis {
	if g.cache != nil && g.cacheKey != nil {
		if cached, ok := g.cache.GetAnalysis(ctx, g.cacheKey(message, urgency)); ok {
			return cached
		}
	}

	userPrompt := fmt.Sprintf(`Analyze the following feedback message submitted to the Artwin corporate platform.
User declared urgency: %s.

Message: %q

Provide a brief summary, suggest an immediate action for the administrator, assess sentiment, and rate the actual urgency based on the content (1-10).

Respond with a JSON object with exactly these keys:
{"sentiment": "positive"|"neutral"|"negative", "summary": string, "suggestedAction": string, "urgencyScore": integer 1-10}`, urgency, message)

	content, err := g.complete(ctx, completionRequest{
		SystemPrompt: analysisSystemPrompt,
		UserPrompt:   userPrompt,
		Temperature:  0.2,
		JSONResponse: true,
	})
	if err != nil {
		logger.Warn("Analysis unavailable, using fallback", zap.Error(err))
		return FallbackAnalysis()
	}

	var analysis feedback.Analysis
	if err := json.Unmarshal([]byte(content), &analysis); err != nil {
		logger.Warn("Analysis response malformed, using fallback", zap.Error(err))
		return FallbackAnalysis()
	}

	switch analysis.Sentiment {
	case feedback.SentimentPositive, feedback.SentimentNeutral, feedback.SentimentNegative:
	default:
		analysis.Sentiment = feedback.SentimentNeutral
	}
	if analysis.UrgencyScore < 1 {
		analysis.UrgencyScore = 1
	}
	if analysis.UrgencyScore > 10 {
		analysis.UrgencyScore = 10
	}

	if g.cache != nil && g.cacheKey != nil {
		g.cache.SetAnalysis(ctx, g.cacheKey(message, urgency), analysis)
	}

	return analysis
}

// ClassifyDepartment suggests the owning department for a message.
// Anything the model returns outside the known set maps to Other.
func (g *Gateway) ClassifyDepartment(ctx context.Context, message string) feedback.Department {
	names := make([]string, 0, len(feedback.Departments()))
	for _, dept := range feedback.Departments() {
		names = append(names, string(dept))
	}

	userPrompt := fmt.Sprintf(
		"Classify the following corporate feedback into one of these exact categories: %s. Return ONLY the category name. Message: %q",
		strings.Join(names, ", "), message,
	)

	content, err := g.complete(ctx, completionRequest{
		SystemPrompt: analysisSystemPrompt,
		UserPrompt:   userPrompt,
		Temperature:  0.1,
		MaxTokens:    20,
	})
	if err != nil {
		logger.Warn("Classification unavailable, defaulting", zap.Error(err))
		return feedback.DepartmentOther
	}

	if dept, ok := feedback.ParseDepartment(strings.TrimSpace(content)); ok {
		return dept
	}
	return feedback.DepartmentOther
}

// DraftReply writes a suggested admin response for one item.
func (g *Gateway) DraftReply(ctx context.Context, item feedback.Item) string {
	userPrompt := fmt.Sprintf(`Draft a polite, professional response to this %s from a %s.
Context: The user wrote: %q.
The current status is %s.

If it's a complaint, be empathetic and assure them it's being looked at.
If it's a proposal, thank them for their initiative.
Keep it under 100 words.
Sign off as "The Artwin Team".`, item.Type, item.Role, item.Message, item.Status)

	content, err := g.complete(ctx, completionRequest{
		SystemPrompt: analysisSystemPrompt,
		UserPrompt:   userPrompt,
		Temperature:  0.4,
	})
	if err != nil {
		logger.Warn("Draft unavailable, using fallback", zap.Error(err))
		return FallbackDraft
	}
	if strings.TrimSpace(content) == "" {
		return "Could not generate draft."
	}
	return content
}

// SummarizeReport produces a short executive report over a department's
// current items.
func (g *Gateway) SummarizeReport(ctx context.Context, items []feedback.Item, dept feedback.Department) string {
	if len(items) == 0 {
		return EmptyReport
	}

	var complaints, proposals, urgent int
	for _, item := range items {
		if item.Type == feedback.TypeComplaint {
			complaints++
		} else {
			proposals++
		}
		if item.Urgency == feedback.UrgencyUrgent {
			urgent++
		}
	}

	samples := items
	if len(samples) > 5 {
		samples = samples[:5]
	}
	var recent strings.Builder
	for _, item := range samples {
		fmt.Fprintf(&recent, "- [%s] %s\n", item.Type, excerptForPrompt(item.Message))
	}

	userPrompt := fmt.Sprintf(`You are a Data-Driven Consultant for Artwin's %s department.

Here is the current data:
- Total Feedback Items: %d
- Complaints: %d
- Proposals: %d
- Urgent Items: %d

Recent feedback samples:
%s
Write a short Executive Report for the Manager.
1. Summarize the mood (Sentiment).
2. Highlight the key problem area based on the samples.
3. Provide 3 bullet points on "What to Improve" (Strategic Advice).

Format with bold headers. Keep it suitable for a Telegram message (concise).`,
		dept, len(items), complaints, proposals, urgent, recent.String())

	content, err := g.complete(ctx, completionRequest{
		SystemPrompt: analysisSystemPrompt,
		UserPrompt:   userPrompt,
		Temperature:  0.3,
	})
	if err != nil {
		logger.Warn("Report generation unavailable, using fallback", zap.Error(err))
		return FallbackReport
	}
	return content
}

func excerptForPrompt(message string) string {
	runes := []rune(message)
	if len(runes) <= 200 {
		return message
	}
	return string(runes[:200]) + "…"
}
