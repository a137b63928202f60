// Package chat answers user questions grounded in retrieved document
// chunks, with history-aware query rewriting per session.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"

	"github.com/docubot-ai/docubot/internal/index"
	"github.com/docubot-ai/docubot/internal/log"
	"github.com/docubot-ai/docubot/internal/session"
)

// Fixed user-facing responses.
const (
	// blankQuestionAnswer is returned for empty or whitespace questions
	// without calling any collaborator.
	blankQuestionAnswer = "Please provide a valid question."

	// degradedAnswer is returned when retrieval or generation fails.
	degradedAnswer = "Sorry, an error occurred while processing your question. Please try again."

	// noHistorySummary is returned by Summarize for an empty session.
	noHistorySummary = "No conversation history."
)

// snippetMaxRunes caps the source snippet length shown to users.
const snippetMaxRunes = 200

// answerSystem instructs the model to stay grounded in retrieved context.
const answerSystem = `You are an AI assistant that answers questions about the user's documents.
Answer based only on the document context provided in the conversation.
If the context does not contain the information needed to answer, say so clearly.
Provide clear and concise answers, cite sources when appropriate, and keep a professional but friendly tone.`

// Searcher is the retrieval dependency of the Answerer.
// *index.Gateway satisfies it.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]index.SearchResult, error)
}

// Config contains all required parameters for the Answerer.
type Config struct {
	Genkit   *genkit.Genkit
	Sessions *session.Store
	Searcher Searcher
	Logger   log.Logger

	// ModelName is the provider-qualified model name
	// (e.g. "googleai/gemini-2.5-flash", "ollama/llama3.3").
	ModelName string

	// Temperature passed to the model. Zero means provider default.
	Temperature float32

	// DefaultK is the number of chunks retrieved per question (default 4).
	DefaultK int

	// RetryConfig configures LLM retry behavior (zero-value uses defaults).
	RetryConfig RetryConfig

	// RateLimiter proactively limits model calls (nil = use default).
	RateLimiter *rate.Limiter
}

// validate checks if all required parameters are present.
func (cfg Config) validate() error {
	if cfg.Genkit == nil {
		return errors.New("genkit instance is required")
	}
	if cfg.Sessions == nil {
		return errors.New("session store is required")
	}
	if cfg.Searcher == nil {
		return errors.New("searcher is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	return nil
}

// Answerer turns questions into grounded answers with sources and a
// confidence score.
//
// Answerer is stateless apart from its injected dependencies; all
// configuration is captured immutably at construction time, so it is safe
// for concurrent use.
type Answerer struct {
	modelName   string
	temperature float32
	defaultK    int

	retryConfig RetryConfig
	rateLimiter *rate.Limiter

	g        *genkit.Genkit
	sessions *session.Store
	searcher Searcher
	logger   log.Logger
}

// New creates an Answerer with required configuration.
func New(cfg Config) (*Answerer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	defaultK := cfg.DefaultK
	if defaultK <= 0 {
		defaultK = 4
	}

	retryConfig := cfg.RetryConfig
	if retryConfig.MaxRetries == 0 {
		retryConfig = DefaultRetryConfig()
	}

	// Default: 10 requests/sec sustained, burst of 30.
	rl := cfg.RateLimiter
	if rl == nil {
		rl = rate.NewLimiter(10, 30)
	}

	return &Answerer{
		modelName:   cfg.ModelName,
		temperature: cfg.Temperature,
		defaultK:    defaultK,
		retryConfig: retryConfig,
		rateLimiter: rl,
		g:           cfg.Genkit,
		sessions:    cfg.Sessions,
		searcher:    cfg.Searcher,
		logger:      cfg.Logger.With("component", "chat"),
	}, nil
}

// Answer answers question within the given session.
//
// The returned Response is always well-formed. A blank question yields a
// fixed prompt for a valid question without touching the LLM, the index or
// the history. Any retrieval or generation failure yields a degraded
// response with the error logged; the session history is only mutated
// after a successful generation.
func (a *Answerer) Answer(ctx context.Context, sessionID, question string) Response {
	if strings.TrimSpace(question) == "" {
		return Response{Answer: blankQuestionAnswer, Confidence: 0, Question: question}
	}

	history := a.sessions.GetOrCreate(sessionID)
	messages := history.Messages()

	standalone, err := a.Contextualize(ctx, messages, question)
	if err != nil {
		a.logger.Error("contextualizing question", "session_id", sessionID, "error", err)
		return a.degraded(question)
	}

	results, err := a.searcher.Search(ctx, standalone, a.defaultK)
	if err != nil {
		a.logger.Error("retrieving context", "session_id", sessionID, "error", err)
		return a.degraded(question)
	}

	answer, err := a.generateAnswer(ctx, messages, results, question)
	if err != nil {
		a.logger.Error("generating answer", "session_id", sessionID, "error", err)
		return a.degraded(question)
	}

	// History is mutated only after successful generation, as one atomic
	// user/assistant pair.
	history.AddTurn(question, answer)

	sources := make([]Source, 0, len(results))
	for _, r := range results {
		sources = append(sources, Source{
			Filename: r.Filename,
			Content:  snippet(r.Content),
			Score:    r.Score,
		})
	}

	a.logger.Info("question answered",
		"session_id", sessionID,
		"sources", len(sources),
		"question_length", len(question))

	return Response{
		Answer:     answer,
		Sources:    sources,
		Confidence: confidence(sources),
		Question:   question,
	}
}

// generateAnswer runs the grounded generation: system instruction,
// retrieved chunks as a context message, full history, original question
// last.
func (a *Answerer) generateAnswer(ctx context.Context, history []*ai.Message, results []index.SearchResult, question string) (string, error) {
	var ctxBlock strings.Builder
	if len(results) == 0 {
		ctxBlock.WriteString("No relevant documents were found for this question.")
	} else {
		ctxBlock.WriteString("Document context:\n")
		for _, r := range results {
			fmt.Fprintf(&ctxBlock, "\n[%s]\n%s\n", r.Filename, r.Content)
		}
	}

	messages := make([]*ai.Message, 0, len(history)+1)
	messages = append(messages, ai.NewUserMessage(ai.NewTextPart(ctxBlock.String())))
	messages = append(messages, history...)

	opts := []ai.GenerateOption{
		ai.WithSystem(answerSystem),
		ai.WithMessages(messages...),
		ai.WithPrompt("%s", question),
	}
	opts = a.withModel(opts)

	resp, err := a.generateWithRetry(ctx, opts)
	if err != nil {
		return "", err
	}

	answer := strings.TrimSpace(resp.Text())
	if answer == "" {
		return "", errors.New("model returned empty response")
	}
	return answer, nil
}

// Summarize produces a short summary of the session's conversation.
// An empty session yields a fixed no-history string without a model call.
func (a *Answerer) Summarize(ctx context.Context, sessionID string) (string, error) {
	messages := a.sessions.GetOrCreate(sessionID).Messages()
	if len(messages) == 0 {
		return noHistorySummary, nil
	}

	var transcript strings.Builder
	for _, msg := range messages {
		role := session.RoleUser
		if msg.Role == ai.RoleModel {
			role = session.RoleAssistant
		}
		fmt.Fprintf(&transcript, "%s: %s\n", role, msg.Text())
	}

	opts := []ai.GenerateOption{
		ai.WithPrompt("Generate a concise summary of the following conversation:\n\n%s\nSummary:", transcript.String()),
	}
	opts = a.withModel(opts)

	resp, err := a.generateWithRetry(ctx, opts)
	if err != nil {
		return "", fmt.Errorf("summarizing session %s: %w", sessionID, err)
	}
	return strings.TrimSpace(resp.Text()), nil
}

// withModel appends model name and temperature options when configured.
func (a *Answerer) withModel(opts []ai.GenerateOption) []ai.GenerateOption {
	if a.modelName != "" {
		opts = append(opts, ai.WithModelName(a.modelName))
	}
	if a.temperature > 0 {
		opts = append(opts, ai.WithConfig(map[string]any{"temperature": a.temperature}))
	}
	return opts
}

// degraded builds the well-formed failure response.
func (a *Answerer) degraded(question string) Response {
	return Response{Answer: degradedAnswer, Confidence: 0, Question: question}
}

// snippet truncates content for display. The ellipsis is always appended
// so snippets are visibly excerpts.
func snippet(content string) string {
	if utf8.RuneCountInString(content) > snippetMaxRunes {
		content = string([]rune(content)[:snippetMaxRunes])
	}
	return content + "..."
}

// confidence is the arithmetic mean of the source scores, 0 when there are
// none.
func confidence(sources []Source) float64 {
	if len(sources) == 0 {
		return 0
	}
	var sum float64
	for _, s := range sources {
		sum += s.Score
	}
	return sum / float64(len(sources))
}
