package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"smartchat/internal/chat_service/escalation"
	"smartchat/internal/chat_service/qa"
	"smartchat/internal/chat_service/rag/schema"
	"smartchat/internal/config"
	"smartchat/internal/llm"
	"smartchat/internal/models"
	"smartchat/pkg/logger"
)

type fakeIndex struct {
	matches     []schema.Match // returned after ingestedAt queries have run
	queryCalls  int
	queryErr    error
	ingestCalls int
	ingested    int
	emptyUntil  int // queries before this call index return no matches
}

func (f *fakeIndex) Query(ctx context.Context, text string, topK int) ([]schema.Match, error) {
	f.queryCalls++
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if f.queryCalls <= f.emptyUntil {
		return nil, nil
	}
	return f.matches, nil
}

func (f *fakeIndex) IngestPages(ctx context.Context, pages []schema.PageDocument) (int, error) {
	f.ingestCalls++
	for _, p := range pages {
		f.ingested += len(p.Chunks)
	}
	return f.ingested, nil
}

func (f *fakeIndex) Count(ctx context.Context) (int64, error) {
	return int64(f.ingested), nil
}

type fakeCrawler struct {
	calls int
	pages []schema.PageDocument
}

func (f *fakeCrawler) Crawl(ctx context.Context, maxPages int) []schema.PageDocument {
	f.calls++
	return f.pages
}

type fakeCompleter struct {
	calls   int
	answer  string
	err     error
	lastReq llm.Request
}

func (f *fakeCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

type fakeHistory struct {
	calls  int
	err    error
	userID uint
	source models.AnswerSource
}

func (f *fakeHistory) SaveExchange(ctx context.Context, userID uint, question, answer string, source models.AnswerSource) error {
	f.calls++
	f.userID = userID
	f.source = source
	return f.err
}

func newTestResolver(idx *fakeIndex, crawler *fakeCrawler, completer *fakeCompleter, history HistoryStore) *Resolver {
	table := qa.NewTable([]qa.Entry{
		{ID: 1, Question: "What are your pricing models?", Answer: "Flat monthly rates.", Category: "billing"},
	})
	llmCfg := config.LLMConfig{Temperature: 0.7, MaxTokens: 500}
	llmCfg.Model = "test-model"
	botCfg := config.ChatbotConfig{
		CompanyName:      "E2M Solutions",
		TopK:             3,
		RecoveryMaxPages: 5,
	}
	return NewResolver(table, idx, crawler, completer, escalation.NewDetector(nil), history, llmCfg, botCfg, logger.New("test", "", ""))
}

func TestResolve_EmptyMessage(t *testing.T) {
	r := newTestResolver(&fakeIndex{}, &fakeCrawler{}, &fakeCompleter{}, nil)

	for _, msg := range []string{"", "   ", "\n\t"} {
		if _, err := r.Resolve(context.Background(), msg, 0); !errors.Is(err, ErrEmptyMessage) {
			t.Errorf("Resolve(%q) error = %v, want ErrEmptyMessage", msg, err)
		}
	}
}

func TestResolve_StaticShortCircuit(t *testing.T) {
	idx := &fakeIndex{}
	completer := &fakeCompleter{answer: "should not be used"}
	r := newTestResolver(idx, &fakeCrawler{}, completer, nil)

	result, err := r.Resolve(context.Background(), "what are your pricing models?", 0)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if result.Answer != "Flat monthly rates." {
		t.Errorf("Answer = %q, want the curated answer", result.Answer)
	}
	if result.Source != models.SourceStatic {
		t.Errorf("Source = %q, want %q", result.Source, models.SourceStatic)
	}
	if result.Escalate {
		t.Error("Escalate = true for a curated answer, want false")
	}
	if result.Sources == nil || len(result.Sources) != 0 {
		t.Errorf("Sources = %v, want empty non-nil slice", result.Sources)
	}
	if idx.queryCalls != 0 {
		t.Errorf("index queried %d times on a static hit, want 0", idx.queryCalls)
	}
	if completer.calls != 0 {
		t.Errorf("completer called %d times on a static hit, want 0", completer.calls)
	}
}

func TestResolve_GeneratedWithRetrievedContext(t *testing.T) {
	idx := &fakeIndex{matches: []schema.Match{
		{Text: "chunk one", Meta: schema.PageMeta{URL: "https://example.com/services", Title: "Services"}},
		{Text: "chunk two", Meta: schema.PageMeta{URL: "https://example.com/work", Title: "Work"}},
	}}
	completer := &fakeCompleter{answer: "We offer web development and design."}
	crawler := &fakeCrawler{}
	r := newTestResolver(idx, crawler, completer, nil)

	result, err := r.Resolve(context.Background(), "what kind of projects do you build", 0)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if result.Source != models.SourceGenerated {
		t.Errorf("Source = %q, want %q", result.Source, models.SourceGenerated)
	}
	if len(result.Sources) != 2 {
		t.Fatalf("Sources has %d entries, want 2", len(result.Sources))
	}
	if result.Sources[0].URL != "https://example.com/services" || result.Sources[0].Title != "Services" {
		t.Errorf("Sources[0] = %+v, want the first match's page", result.Sources[0])
	}
	if crawler.calls != 0 {
		t.Errorf("crawler invoked %d times despite a retrieval hit, want 0", crawler.calls)
	}
	if !strings.Contains(completer.lastReq.UserPrompt, "chunk one\n\nchunk two") {
		t.Error("user prompt does not contain the retrieved chunks joined by blank lines")
	}
	if !strings.Contains(completer.lastReq.SystemPrompt, "E2M Solutions") {
		t.Error("system prompt does not mention the company name")
	}
	if completer.lastReq.Temperature != 0.7 || completer.lastReq.MaxTokens != 500 {
		t.Errorf("completion tuning = (%v, %d), want (0.7, 500)", completer.lastReq.Temperature, completer.lastReq.MaxTokens)
	}
}

func TestResolve_MissRecoveryCrawlsOnce(t *testing.T) {
	idx := &fakeIndex{
		emptyUntil: 1, // first query misses, retry hits
		matches:    []schema.Match{{Text: "fresh chunk", Meta: schema.PageMeta{URL: "https://example.com/", Title: "Home"}}},
	}
	crawler := &fakeCrawler{pages: []schema.PageDocument{
		{URL: "https://example.com/", Title: "Home", Chunks: []schema.Chunk{{Text: "fresh chunk"}}},
	}}
	completer := &fakeCompleter{answer: "Here is what I found."}
	r := newTestResolver(idx, crawler, completer, nil)

	result, err := r.Resolve(context.Background(), "something obscure", 0)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if crawler.calls != 1 {
		t.Errorf("crawler invoked %d times, want exactly 1", crawler.calls)
	}
	if idx.ingestCalls != 1 {
		t.Errorf("ingest invoked %d times, want 1", idx.ingestCalls)
	}
	if idx.queryCalls != 2 {
		t.Errorf("index queried %d times, want 2 (miss then retry)", idx.queryCalls)
	}
	if len(result.Sources) != 1 {
		t.Errorf("Sources has %d entries after recovery, want 1", len(result.Sources))
	}
}

func TestResolve_PersistentMissStillAnswers(t *testing.T) {
	idx := &fakeIndex{emptyUntil: 10} // every query misses
	crawler := &fakeCrawler{}         // crawl finds nothing
	completer := &fakeCompleter{answer: "I couldn't find that information. Please contact our team."}
	r := newTestResolver(idx, crawler, completer, nil)

	result, err := r.Resolve(context.Background(), "completely unknown topic", 0)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if crawler.calls != 1 {
		t.Errorf("crawler invoked %d times, want exactly 1 (no repeated recovery)", crawler.calls)
	}
	if result.Source != models.SourceGenerated {
		t.Errorf("Source = %q, want %q", result.Source, models.SourceGenerated)
	}
	if len(result.Sources) != 0 {
		t.Errorf("Sources has %d entries on a persistent miss, want 0", len(result.Sources))
	}
}

func TestResolve_IndexFailureDegradesToEmptyContext(t *testing.T) {
	idx := &fakeIndex{queryErr: errors.New("milvus unreachable")}
	completer := &fakeCompleter{answer: "General answer without context."}
	r := newTestResolver(idx, &fakeCrawler{}, completer, nil)

	result, err := r.Resolve(context.Background(), "anything", 0)
	if err != nil {
		t.Fatalf("Resolve() error = %v, want degraded success", err)
	}
	if completer.calls != 1 {
		t.Errorf("completer called %d times, want 1", completer.calls)
	}
	if result.Answer == "" {
		t.Error("Answer is empty after degraded generation")
	}
}

func TestResolve_CompletionFailureIsFatal(t *testing.T) {
	completerErr := fmt.Errorf("%w: upstream 500", llm.ErrCompletion)
	completer := &fakeCompleter{err: completerErr}
	history := &fakeHistory{}
	r := newTestResolver(&fakeIndex{}, &fakeCrawler{}, completer, history)

	_, err := r.Resolve(context.Background(), "anything at all", 42)
	if err == nil {
		t.Fatal("Resolve() error = nil, want completion failure")
	}
	if !errors.Is(err, llm.ErrCompletion) {
		t.Errorf("error chain does not include llm.ErrCompletion: %v", err)
	}
	if completer.calls != 1 {
		t.Errorf("completer called %d times, want 1 (no retry)", completer.calls)
	}
	if history.calls != 0 {
		t.Errorf("history written %d times on a failed resolution, want 0", history.calls)
	}
}

func TestResolve_EscalationAppendsSuffix(t *testing.T) {
	completer := &fakeCompleter{answer: "I couldn't find that in our documentation."}
	r := newTestResolver(&fakeIndex{}, &fakeCrawler{}, completer, nil)

	result, err := r.Resolve(context.Background(), "very specific question", 0)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !result.Escalate {
		t.Fatal("Escalate = false for a support-seeking answer, want true")
	}
	if !strings.HasSuffix(result.Answer, defaultEscalationSuffix) {
		t.Errorf("Answer does not end with the escalation suffix: %q", result.Answer)
	}
	if !strings.HasPrefix(result.Answer, "I couldn't find") {
		t.Error("Answer lost the generated text when the suffix was appended")
	}
}

func TestResolve_PersistenceIsBestEffort(t *testing.T) {
	history := &fakeHistory{err: errors.New("mysql down")}
	completer := &fakeCompleter{answer: "All good."}
	r := newTestResolver(&fakeIndex{}, &fakeCrawler{}, completer, history)

	result, err := r.Resolve(context.Background(), "some question", 7)
	if err != nil {
		t.Fatalf("Resolve() error = %v, want success despite persistence failure", err)
	}
	if history.calls != 1 {
		t.Errorf("history written %d times, want 1", history.calls)
	}
	if result.Answer != "All good." {
		t.Errorf("Answer = %q, want the computed answer", result.Answer)
	}
}

func TestResolve_AnonymousSkipsPersistence(t *testing.T) {
	history := &fakeHistory{}
	completer := &fakeCompleter{answer: "Answered."}
	r := newTestResolver(&fakeIndex{}, &fakeCrawler{}, completer, history)

	if _, err := r.Resolve(context.Background(), "some question", 0); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if history.calls != 0 {
		t.Errorf("history written %d times for an anonymous user, want 0", history.calls)
	}
}

func TestResolve_StaticHitPersisted(t *testing.T) {
	history := &fakeHistory{}
	r := newTestResolver(&fakeIndex{}, &fakeCrawler{}, &fakeCompleter{}, history)

	if _, err := r.Resolve(context.Background(), "What are your pricing models?", 9); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if history.calls != 1 {
		t.Errorf("history written %d times, want 1", history.calls)
	}
	if history.source != models.SourceStatic {
		t.Errorf("persisted source = %q, want %q", history.source, models.SourceStatic)
	}
	if history.userID != 9 {
		t.Errorf("persisted user id = %d, want 9", history.userID)
	}
}

func TestBootstrap_SkipsWhenIndexPopulated(t *testing.T) {
	idx := &fakeIndex{ingested: 12}
	crawler := &fakeCrawler{}
	r := newTestResolver(idx, crawler, &fakeCompleter{}, nil)

	if err := r.Bootstrap(context.Background(), 10); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	if crawler.calls != 0 {
		t.Errorf("crawler invoked %d times on a warm index, want 0", crawler.calls)
	}
}

func TestBootstrap_CrawlsWhenEmpty(t *testing.T) {
	idx := &fakeIndex{}
	crawler := &fakeCrawler{pages: []schema.PageDocument{
		{URL: "https://example.com/", Chunks: []schema.Chunk{{Text: "content"}}},
	}}
	r := newTestResolver(idx, crawler, &fakeCompleter{}, nil)

	if err := r.Bootstrap(context.Background(), 10); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	if crawler.calls != 1 {
		t.Errorf("crawler invoked %d times on a cold index, want 1", crawler.calls)
	}
	if idx.ingestCalls != 1 {
		t.Errorf("ingest invoked %d times, want 1", idx.ingestCalls)
	}
}

func TestForceRefresh(t *testing.T) {
	idx := &fakeIndex{}
	crawler := &fakeCrawler{pages: []schema.PageDocument{
		{URL: "https://example.com/a", Chunks: []schema.Chunk{{Text: "one"}, {Text: "two"}}},
		{URL: "https://example.com/b", Chunks: []schema.Chunk{{Text: "three"}}},
	}}
	r := newTestResolver(idx, crawler, &fakeCompleter{}, nil)

	pages, chunks, err := r.ForceRefresh(context.Background(), 10)
	if err != nil {
		t.Fatalf("ForceRefresh() error = %v", err)
	}
	if pages != 2 {
		t.Errorf("pages = %d, want 2", pages)
	}
	if chunks != 3 {
		t.Errorf("chunks = %d, want 3", chunks)
	}
}
