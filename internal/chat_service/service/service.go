// Package service implements the chat resolution pipeline: the decision
// logic that turns one user message into one grounded answer.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"smartchat/internal/chat_service/escalation"
	"smartchat/internal/chat_service/qa"
	"smartchat/internal/chat_service/rag/schema"
	"smartchat/internal/config"
	"smartchat/internal/llm"
	"smartchat/internal/models"
	"smartchat/pkg/logger"
)

// ErrEmptyMessage rejects an empty or whitespace-only user message before
// any resolution phase runs.
var ErrEmptyMessage = errors.New("message is required")

// defaultEscalationSuffix is appended to a generated answer when the
// escalation detector fires and no suffix is configured.
const defaultEscalationSuffix = "\n\nIf you'd like, you can open a support ticket and our team will follow up with you directly."

// ContentIndex is the retrieval tier consumed by the resolver.
type ContentIndex interface {
	Query(ctx context.Context, text string, topK int) ([]schema.Match, error)
	IngestPages(ctx context.Context, pages []schema.PageDocument) (int, error)
	Count(ctx context.Context) (int64, error)
}

// Crawler refreshes the content index from the company website. Crawl never
// fails as a whole; it returns whatever pages it could fetch.
type Crawler interface {
	Crawl(ctx context.Context, maxPages int) []schema.PageDocument
}

// HistoryStore persists resolved exchanges. Persistence is best effort: a
// failure here never discards an already-computed answer.
type HistoryStore interface {
	SaveExchange(ctx context.Context, userID uint, question, answer string, source models.AnswerSource) error
}

// SourceRef identifies one page that grounded a generated answer.
type SourceRef struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// ResolutionResult is the outcome of resolving one user message.
type ResolutionResult struct {
	Answer   string              `json:"answer"`
	Source   models.AnswerSource `json:"source"`
	Escalate bool                `json:"escalate"`
	Sources  []SourceRef         `json:"sources"`
}

// Resolver orchestrates the three resolution tiers: the curated question
// table, semantic retrieval over the content index, and grounded generation.
// It is stateless across requests and safe for concurrent use.
type Resolver struct {
	table     *qa.Table
	index     ContentIndex
	crawler   Crawler
	completer llm.Completer
	detector  *escalation.Detector
	history   HistoryStore // may be nil
	log       *logger.Logger

	companyName      string
	model            string
	temperature      float32
	maxTokens        int
	topK             int
	recoveryMaxPages int
	escalationSuffix string
}

// NewResolver wires a Resolver from its collaborators and tuning config.
// history may be nil when no persistence is wanted.
func NewResolver(
	table *qa.Table,
	index ContentIndex,
	crawler Crawler,
	completer llm.Completer,
	detector *escalation.Detector,
	history HistoryStore,
	llmCfg config.LLMConfig,
	botCfg config.ChatbotConfig,
	log *logger.Logger,
) *Resolver {
	suffix := botCfg.EscalationSuffix
	if suffix == "" {
		suffix = defaultEscalationSuffix
	}
	return &Resolver{
		table:            table,
		index:            index,
		crawler:          crawler,
		completer:        completer,
		detector:         detector,
		history:          history,
		log:              log,
		companyName:      botCfg.CompanyName,
		model:            llmCfg.Model,
		temperature:      llmCfg.Temperature,
		maxTokens:        llmCfg.MaxTokens,
		topK:             botCfg.TopK,
		recoveryMaxPages: botCfg.RecoveryMaxPages,
		escalationSuffix: suffix,
	}
}

// Resolve turns one user message into one grounded answer. userID is
// optional; when non-zero the exchange is persisted best effort.
func (r *Resolver) Resolve(ctx context.Context, message string, userID uint) (*ResolutionResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	// Tier 1: curated question table. A hit short-circuits everything
	// else: no index query, no completion call.
	if answer, ok := r.table.Match(message); ok {
		result := &ResolutionResult{
			Answer:  answer,
			Source:  models.SourceStatic,
			Sources: []SourceRef{},
		}
		r.saveExchange(ctx, userID, message, result)
		return result, nil
	}

	// Tier 2: semantic retrieval, with one crawl-and-retry cycle when the
	// index comes back empty.
	matches := r.retrieve(ctx, message)

	// Tier 3: grounded generation. A completion failure is fatal for this
	// request; the caller may retry the whole request.
	answer, err := r.generate(ctx, message, matches)
	if err != nil {
		return nil, err
	}

	result := &ResolutionResult{
		Answer:  answer,
		Source:  models.SourceGenerated,
		Sources: sourceRefs(matches),
	}
	if r.detector.ShouldEscalate(answer) {
		result.Escalate = true
		result.Answer += r.escalationSuffix
	}

	r.saveExchange(ctx, userID, message, result)
	return result, nil
}

// retrieve queries the content index and, on an empty result, triggers a
// single crawl-and-ingest refill followed by one retry. A second miss is
// accepted: generation then runs with an empty context block. An
// unreachable index degrades the same way instead of failing the request.
func (r *Resolver) retrieve(ctx context.Context, message string) []schema.Match {
	matches, err := r.index.Query(ctx, message, r.topK)
	if err != nil {
		r.log.WithError(err).Warn("Content index unavailable, generating with empty context")
		return nil
	}
	if len(matches) > 0 {
		return matches
	}

	r.log.Info("No relevant content found, crawling for fresh pages")
	pages := r.crawler.Crawl(ctx, r.recoveryMaxPages)
	if len(pages) > 0 {
		if _, err := r.index.IngestPages(ctx, pages); err != nil {
			r.log.WithError(err).Warn("Failed to ingest freshly crawled pages")
		}
	}

	matches, err = r.index.Query(ctx, message, r.topK)
	if err != nil {
		r.log.WithError(err).Warn("Content index unavailable after refresh, generating with empty context")
		return nil
	}
	return matches
}

// generate composes the grounding prompt from the retrieved chunks and
// invokes the completion service once.
func (r *Resolver) generate(ctx context.Context, message string, matches []schema.Match) (string, error) {
	texts := make([]string, len(matches))
	for i, m := range matches {
		texts[i] = m.Text
	}
	contextBlock := strings.Join(texts, "\n\n")

	systemPrompt := fmt.Sprintf(
		"You are a helpful customer service assistant for %s. "+
			"You provide accurate, friendly, and professional responses about the company's services, billing, and offerings. "+
			"Use the provided context to answer questions accurately. If the context doesn't contain relevant information, "+
			"provide a helpful general response and suggest contacting %s directly for specific details.",
		r.companyName, r.companyName,
	)
	userPrompt := fmt.Sprintf(
		"Context from the %s website:\n%s\n\nUser question: %s\n\nPlease provide a helpful and accurate response based on the context above.",
		r.companyName, contextBlock, message,
	)

	answer, err := r.completer.Complete(ctx, llm.Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Model:        r.model,
		Temperature:  r.temperature,
		MaxTokens:    r.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}
	return answer, nil
}

// ForceRefresh crawls up to maxPages and ingests the result, independent of
// miss recovery. It returns pages crawled and chunks added.
func (r *Resolver) ForceRefresh(ctx context.Context, maxPages int) (int, int, error) {
	pages := r.crawler.Crawl(ctx, maxPages)
	chunks, err := r.index.IngestPages(ctx, pages)
	if err != nil {
		return len(pages), 0, err
	}
	return len(pages), chunks, nil
}

// IndexSize reports the number of vectors in the content index.
func (r *Resolver) IndexSize(ctx context.Context) (int64, error) {
	return r.index.Count(ctx)
}

// QuestionCount reports the number of curated entries.
func (r *Resolver) QuestionCount() int {
	return r.table.Len()
}

// Questions returns the curated entries in table order.
func (r *Resolver) Questions() []qa.Entry {
	return r.table.Entries()
}

// Bootstrap fills a cold index at startup: when the collection is empty it
// runs one crawl-and-ingest cycle. A count failure is reported; the caller
// decides whether to continue serving.
func (r *Resolver) Bootstrap(ctx context.Context, maxPages int) error {
	count, err := r.index.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to check index size: %w", err)
	}
	if count > 0 {
		return nil
	}

	r.log.Info("Content index is empty, performing initial site crawl")
	pages, chunks, err := r.ForceRefresh(ctx, maxPages)
	if err != nil {
		return fmt.Errorf("initial crawl failed: %w", err)
	}
	r.log.WithPayload(map[string]interface{}{"pages": pages, "chunks": chunks}).Info("Initial crawl complete")
	return nil
}

func (r *Resolver) saveExchange(ctx context.Context, userID uint, question string, result *ResolutionResult) {
	if r.history == nil || userID == 0 {
		return
	}
	if err := r.history.SaveExchange(ctx, userID, question, result.Answer, result.Source); err != nil {
		// Best effort: the answer is already computed and is returned
		// to the user regardless.
		r.log.WithError(err).Error("Failed to persist chat exchange")
	}
}

func sourceRefs(matches []schema.Match) []SourceRef {
	refs := make([]SourceRef, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, SourceRef{URL: m.Meta.URL, Title: m.Meta.Title})
	}
	return refs
}
