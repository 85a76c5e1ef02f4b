package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/diligence/internal/core/domain"
	"github.com/custodia-labs/diligence/internal/core/ports/driven"
	"github.com/custodia-labs/diligence/internal/core/ports/driving"
	"github.com/custodia-labs/diligence/internal/logger"
)

// Ensure GroundedQueryEngine implements the interface.
var _ driving.QueryEngine = (*GroundedQueryEngine)(nil)

// Query engine defaults.
const (
	DefaultTopK            = 8
	DefaultSearchTimeout   = 30 * time.Second
	DefaultGenerateTimeout = 3 * time.Minute
	DefaultHistoryTurns    = 6

	// insufficientEvidenceReply is the sentinel the grounded_answer prompt asks for.
	insufficientEvidenceReply = "INSUFFICIENT_EVIDENCE"

	maxExcerptLength = 300
)

// citationMarker matches [1] and [1, 3] style markers.
var citationMarker = regexp.MustCompile(`\[(\d+(?:\s*,\s*\d+)*)\]`)

// QueryConfig configures a GroundedQueryEngine.
type QueryConfig struct {
	// TopK is the number of passages requested from the index.
	TopK int

	// RelevanceFloor drops passages scoring below it.
	RelevanceFloor float64

	// SearchTimeout bounds a single search.
	SearchTimeout time.Duration

	// GenerateTimeout bounds a single generation.
	GenerateTimeout time.Duration

	// FastModel and ThoroughModel map tiers to model names.
	// Empty names use the LLM service's configured model.
	FastModel     string
	ThoroughModel string

	// DefaultTier is used when AskOptions.Tier is empty.
	DefaultTier domain.ModelTier

	// HistoryTurns is how many prior turns are sent as context.
	HistoryTurns int

	// Metrics receives query completions. Nil discards them.
	Metrics driven.MetricsRecorder
}

// QueryConfigFromSettings builds a QueryConfig from application settings.
func QueryConfigFromSettings(settings domain.AppSettings, metrics driven.MetricsRecorder) QueryConfig {
	return QueryConfig{
		TopK:            settings.Index.TopK,
		RelevanceFloor:  settings.Index.RelevanceFloor,
		SearchTimeout:   settings.Timeouts.Search,
		GenerateTimeout: settings.Timeouts.Generate,
		FastModel:       settings.LLM.Model,
		ThoroughModel:   settings.LLM.ThoroughModel,
		DefaultTier:     settings.LLM.Tier,
		Metrics:         metrics,
	}
}

// GroundedQueryEngine answers questions from retrieved passages only.
type GroundedQueryEngine struct {
	index   driven.DocumentIndex
	llm     driven.LLMService
	prompts driven.PromptStore
	cfg     QueryConfig
}

// NewGroundedQueryEngine creates a query engine. llm may be nil; questions
// with relevant passages then fail with domain.ErrLLMUnavailable.
func NewGroundedQueryEngine(
	index driven.DocumentIndex,
	llm driven.LLMService,
	prompts driven.PromptStore,
	cfg QueryConfig,
) *GroundedQueryEngine {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = DefaultSearchTimeout
	}
	if cfg.GenerateTimeout <= 0 {
		cfg.GenerateTimeout = DefaultGenerateTimeout
	}
	if cfg.HistoryTurns <= 0 {
		cfg.HistoryTurns = DefaultHistoryTurns
	}
	if !cfg.DefaultTier.IsValid() {
		cfg.DefaultTier = domain.TierFast
	}
	if cfg.Metrics == nil {
		cfg.Metrics = driven.NopMetrics{}
	}
	return &GroundedQueryEngine{
		index:   index,
		llm:     llm,
		prompts: prompts,
		cfg:     cfg,
	}
}

// Ask retrieves passages for the question and generates an answer citing them.
func (e *GroundedQueryEngine) Ask(
	ctx context.Context,
	corpus domain.CorpusHandle,
	question string,
	opts domain.AskOptions,
) (*domain.GroundedAnswer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}
	started := time.Now()

	passages, err := e.search(ctx, corpus, question)
	if err != nil {
		return nil, err
	}
	passages = e.filter(corpus, passages)
	logger.Debug("query: %d relevant passages for %q", len(passages), question)

	if len(passages) == 0 {
		return e.finish(ungrounded(question, corpus.Version), started), nil
	}
	if e.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	tier := opts.Tier
	if !tier.IsValid() {
		tier = e.cfg.DefaultTier
	}
	model := e.modelFor(tier)

	reply, err := e.generate(ctx, e.buildMessages(question, passages, opts.History), model)
	if err != nil {
		return nil, err
	}

	reply = strings.TrimSpace(reply)
	if reply == "" || strings.HasPrefix(reply, insufficientEvidenceReply) {
		return e.finish(ungrounded(question, corpus.Version), started), nil
	}

	answer := &domain.GroundedAnswer{
		Question:      question,
		Answer:        reply,
		Citations:     citationsFor(reply, passages),
		Confidence:    domain.ConfidenceGrounded,
		Model:         model,
		CorpusVersion: corpus.Version,
		AnsweredAt:    time.Now(),
	}
	return e.finish(answer, started), nil
}

func (e *GroundedQueryEngine) finish(answer *domain.GroundedAnswer, started time.Time) *domain.GroundedAnswer {
	e.cfg.Metrics.QueryAnswered(answer.Confidence, time.Since(started))
	return answer
}

func (e *GroundedQueryEngine) search(ctx context.Context, corpus domain.CorpusHandle, question string) ([]domain.Passage, error) {
	searchCtx, cancel := context.WithTimeout(ctx, e.cfg.SearchTimeout)
	defer cancel()

	passages, err := e.index.Search(searchCtx, corpus, question, e.cfg.TopK)
	if err != nil {
		return nil, e.mapTimeout(searchCtx, ctx, "search", e.cfg.SearchTimeout, err)
	}
	return passages, nil
}

func (e *GroundedQueryEngine) generate(ctx context.Context, messages []driven.ChatMessage, model string) (string, error) {
	genCtx, cancel := context.WithTimeout(ctx, e.cfg.GenerateTimeout)
	defer cancel()

	reply, err := e.llm.Chat(genCtx, messages, driven.ChatOptions{Model: model})
	if err != nil {
		return "", e.mapTimeout(genCtx, ctx, "generate", e.cfg.GenerateTimeout, err)
	}
	return reply, nil
}

// mapTimeout turns a call that hit its own deadline into an UpstreamTimeoutError.
// Cancellation of the caller's context is returned unchanged.
func (e *GroundedQueryEngine) mapTimeout(
	callCtx, parent context.Context,
	op string,
	timeout time.Duration,
	err error,
) error {
	if errors.Is(err, domain.ErrUpstreamTimeout) {
		return err
	}
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) && parent.Err() == nil {
		e.cfg.Metrics.UpstreamTimeout(op)
		return &domain.UpstreamTimeoutError{Op: op, Timeout: timeout, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// filter drops weak passages and passages from documents outside the corpus.
func (e *GroundedQueryEngine) filter(corpus domain.CorpusHandle, passages []domain.Passage) []domain.Passage {
	kept := make([]domain.Passage, 0, len(passages))
	for _, p := range passages {
		if p.Score < e.cfg.RelevanceFloor {
			continue
		}
		if !corpus.Contains(p.DocumentID) {
			logger.Warn("query: dropping passage from %s, not in corpus %s", p.DocumentName, corpus.SessionID)
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

func (e *GroundedQueryEngine) modelFor(tier domain.ModelTier) string {
	models := domain.LLMSettings{Model: e.cfg.FastModel, ThoroughModel: e.cfg.ThoroughModel}
	if model := models.ModelFor(tier); model != "" {
		return model
	}
	return e.llm.ModelName()
}

func (e *GroundedQueryEngine) buildMessages(
	question string,
	passages []domain.Passage,
	history []domain.ConversationTurn,
) []driven.ChatMessage {
	system, err := e.prompts.Load(driven.PromptGroundedAnswer)
	if err != nil {
		logger.Warn("query: load %s prompt: %v", driven.PromptGroundedAnswer, err)
	}

	messages := make([]driven.ChatMessage, 0, e.cfg.HistoryTurns+2)
	if system != "" {
		messages = append(messages, driven.ChatMessage{Role: "system", Content: system})
	}

	if len(history) > e.cfg.HistoryTurns {
		history = history[len(history)-e.cfg.HistoryTurns:]
	}
	for _, turn := range history {
		switch turn.Role {
		case domain.RoleUser:
			messages = append(messages, driven.ChatMessage{Role: "user", Content: turn.Text})
		case domain.RoleAssistant:
			messages = append(messages, driven.ChatMessage{Role: "assistant", Content: turn.Text})
		}
	}

	var b strings.Builder
	b.WriteString("Passages:\n\n")
	for i, p := range passages {
		fmt.Fprintf(&b, "[%d] %s\n%s\n\n", i+1, p.Source(), strings.TrimSpace(p.Text))
	}
	b.WriteString("Question: ")
	b.WriteString(question)

	return append(messages, driven.ChatMessage{Role: "user", Content: b.String()})
}

func ungrounded(question string, version int) *domain.GroundedAnswer {
	return &domain.GroundedAnswer{
		Question:      question,
		Answer:        domain.InsufficientEvidenceAnswer,
		Confidence:    domain.ConfidenceUngrounded,
		CorpusVersion: version,
		AnsweredAt:    time.Now(),
	}
}

// citationsFor maps [n] markers in reply to passages, in first-mention order.
// Markers outside the passage range are ignored. A reply without any valid
// marker cites every passage in rank order.
func citationsFor(reply string, passages []domain.Passage) []domain.Citation {
	seen := make(map[int]bool)
	var order []int
	for _, match := range citationMarker.FindAllStringSubmatch(reply, -1) {
		for _, part := range strings.Split(match[1], ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || n < 1 || n > len(passages) || seen[n] {
				continue
			}
			seen[n] = true
			order = append(order, n-1)
		}
	}
	if len(order) == 0 {
		for i := range passages {
			order = append(order, i)
		}
	}

	citations := make([]domain.Citation, 0, len(order))
	for _, i := range order {
		p := passages[i]
		citations = append(citations, domain.Citation{
			DocumentID:   p.DocumentID,
			DocumentName: p.DocumentName,
			Locator:      p.Locator,
			Excerpt:      excerpt(p.Text),
		})
	}
	return citations
}

// excerpt shortens text to a word boundary.
func excerpt(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= maxExcerptLength {
		return text
	}
	cut := strings.LastIndex(text[:maxExcerptLength], " ")
	if cut <= 0 {
		cut = maxExcerptLength
	}
	return text[:cut] + "..."
}
