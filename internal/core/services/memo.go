package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/diligence/internal/core/domain"
	"github.com/custodia-labs/diligence/internal/core/ports/driven"
	"github.com/custodia-labs/diligence/internal/core/ports/driving"
	"github.com/custodia-labs/diligence/internal/logger"
)

// Ensure MemoService implements the interface.
var _ driving.MemoSynthesizer = (*MemoService)(nil)

// memoPrompts maps each dimension to its question template.
var memoPrompts = map[domain.Dimension]string{
	domain.DimensionCondition: driven.PromptMemoCondition,
	domain.DimensionFinancial: driven.PromptMemoFinancial,
	domain.DimensionLegal:     driven.PromptMemoLegal,
	domain.DimensionHOA:       driven.PromptMemoHOA,
}

// MemoConfig configures a MemoService.
type MemoConfig struct {
	// Tier is the model tier for section questions.
	Tier domain.ModelTier

	// Metrics receives memo verdicts. Nil discards them.
	Metrics driven.MetricsRecorder
}

// MemoService runs the memo questions and aggregates them into a verdict.
type MemoService struct {
	engine     driving.QueryEngine
	prompts    driven.PromptStore
	classifier *RiskClassifier
	cfg        MemoConfig
}

// NewMemoService creates a memo synthesizer on top of a query engine.
func NewMemoService(engine driving.QueryEngine, prompts driven.PromptStore, cfg MemoConfig) *MemoService {
	if !cfg.Tier.IsValid() {
		cfg.Tier = domain.TierThorough
	}
	if cfg.Metrics == nil {
		cfg.Metrics = driven.NopMetrics{}
	}
	return &MemoService{
		engine:     engine,
		prompts:    prompts,
		classifier: NewRiskClassifier(),
		cfg:        cfg,
	}
}

// Run asks every memo question concurrently, classifies each answer and
// aggregates the labels. Any section error aborts the memo.
func (s *MemoService) Run(ctx context.Context, corpus domain.CorpusHandle) (*domain.InvestmentMemo, error) {
	dimensions := domain.AllDimensions()
	sections := make([]domain.MemoSection, len(dimensions))

	logger.Section("Investor memo")
	g, gctx := errgroup.WithContext(ctx)
	for i, dim := range dimensions {
		g.Go(func() error {
			section, err := s.runSection(gctx, corpus, dim)
			if err != nil {
				return fmt.Errorf("memo section %s: %w", dim, err)
			}
			sections[i] = section
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	labels := make([]domain.RiskLabel, len(sections))
	lines := make([]string, len(sections))
	for i := range sections {
		labels[i] = sections[i].Risk
		lines[i] = sections[i].Justification
	}

	memo := &domain.InvestmentMemo{
		Sections:      sections,
		Verdict:       Aggregate(labels),
		Rationale:     strings.Join(lines, "\n"),
		CorpusVersion: corpus.Version,
		GeneratedAt:   time.Now(),
	}
	s.cfg.Metrics.MemoGenerated(memo.Verdict)
	logger.Info("memo: verdict %s for corpus %s v%d", memo.Verdict, corpus.SessionID, corpus.Version)
	return memo, nil
}

func (s *MemoService) runSection(
	ctx context.Context,
	corpus domain.CorpusHandle,
	dim domain.Dimension,
) (domain.MemoSection, error) {
	question, err := s.prompts.Load(memoPrompts[dim])
	if err != nil {
		return domain.MemoSection{}, fmt.Errorf("load question: %w", err)
	}

	answer, err := s.engine.Ask(ctx, corpus, question, domain.AskOptions{Tier: s.cfg.Tier})
	if err != nil {
		return domain.MemoSection{}, err
	}

	c := s.classifier.Classify(dim, answer)
	logger.Debug("memo: %s classified %s", dim, c.Risk)
	return domain.MemoSection{
		Dimension:     dim,
		Question:      question,
		Answer:        *answer,
		Risk:          c.Risk,
		Justification: c.Justification,
		Signals:       c.Signals,
	}, nil
}
