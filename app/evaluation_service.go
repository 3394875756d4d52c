package app

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"adpulse/domain/campaign"
	"adpulse/domain/chs"
	"adpulse/domain/core"
	"adpulse/domain/insight"
	"adpulse/internal"
	"adpulse/internal/behavior"
	"adpulse/internal/config"
	"adpulse/internal/creative"
	"adpulse/internal/errors"
	"adpulse/internal/fusion"
	"adpulse/internal/insights"
	"adpulse/internal/ranking"
	"adpulse/internal/significance"
	"adpulse/internal/window"
	"adpulse/ports"
)

// EvaluationResult is the full output of one evaluation run
type EvaluationResult struct {
	RunID       core.RunID           `json:"run_id"`
	EvaluatedAt time.Time            `json:"evaluated_at"`
	ChsSummary  chs.Summary          `json:"chs_summary"`
	Hypotheses  []insight.Hypothesis `json:"hypotheses"`
	ConfigUsed  config.EvalConfig    `json:"config_used"`
}

// EvaluationService runs the full diagnosis pipeline: hypothesis
// generation, window splitting, behavioral percentile ranking, CHS
// scoring, significance evaluation, confidence fusion and ranking.
type EvaluationService struct {
	cfg       config.EvalConfig
	generator *insights.Generator
	splitter  *window.Splitter
	sig       *significance.Evaluator
	behavior  *behavior.Scorer
	creative  *creative.Scorer
	strategy  fusion.Strategy
	logger    *internal.Logger
}

// NewEvaluationService wires the pipeline stages for one configuration.
// An invalid configuration is the only fatal construction error.
func NewEvaluationService(cfg config.EvalConfig, rngPort ports.RNGPort, logger *internal.Logger) (*EvaluationService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &errors.AppError{Code: errors.CodeConfigInvalid, Message: "invalid evaluation config", Cause: err}
	}
	strategy, err := fusion.NewStrategy(cfg.FusionStrategy)
	if err != nil {
		return nil, &errors.AppError{Code: errors.CodeConfigInvalid, Message: "invalid fusion strategy", Cause: err}
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &EvaluationService{
		cfg:       cfg,
		generator: insights.NewGenerator(cfg),
		splitter:  window.NewSplitter(cfg.PreviousWindowDays, cfg.RecentWindowDays),
		sig:       significance.NewEvaluator(cfg, rngPort),
		behavior:  behavior.NewScorer(),
		creative:  creative.NewScorer(cfg),
		strategy:  strategy,
		logger:    logger,
	}, nil
}

// Evaluate runs the pipeline over one account data bundle. Per-campaign
// failures (too little data for a window pair) degrade only the affected
// hypotheses; the run itself fails only on unusable input.
func (s *EvaluationService) Evaluate(ctx context.Context, data campaign.AccountData) (*EvaluationResult, error) {
	start := time.Now()
	runID := core.NewRunID()

	hypotheses := s.generator.Generate(data)
	s.logger.Info("run %s: generated %d hypotheses across %d campaigns",
		runID, len(hypotheses), len(data.CampaignNames()))

	pairs := s.splitCampaigns(data)
	accountPair, accountErr := s.splitter.Split(data.AccountDaily)
	if accountErr != nil {
		s.logger.Warn("run %s: account series unusable for windows: %v", runID, accountErr)
	}

	// Percentile barrier: every campaign's window metrics must exist
	// before any behavior score can be computed.
	scores := s.behavior.Scores(behaviorMetrics(data.CampaignNames(), pairs))
	summary := s.creative.Summary(creativeInputs(data, pairs, scores))

	evaluated := make([]insight.Hypothesis, len(hypotheses))
	group, groupCtx := errgroup.WithContext(ctx)
	if s.cfg.MaxWorkers > 0 {
		group.SetLimit(s.cfg.MaxWorkers)
	} else {
		group.SetLimit(1)
	}
	for i, hyp := range hypotheses {
		i, hyp := i, hyp
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			evaluated[i] = s.evaluateOne(groupCtx, hyp, accountPair, accountErr == nil, pairs)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, errors.Wrap(err, "hypothesis evaluation aborted")
	}

	for i, hyp := range evaluated {
		hyp = fusion.AttachCreativeEvidence(hyp, summary)
		evaluated[i] = fusion.Finalize(hyp, s.strategy)
	}

	ranked := ranking.Rank(evaluated)
	s.logger.Info("run %s: evaluated %d hypotheses in %s", runID, len(ranked), time.Since(start))

	return &EvaluationResult{
		RunID:       runID,
		EvaluatedAt: start.UTC(),
		ChsSummary:  summary,
		Hypotheses:  ranked,
		ConfigUsed:  s.cfg,
	}, nil
}

func (s *EvaluationService) evaluateOne(
	ctx context.Context,
	hyp insight.Hypothesis,
	accountPair campaign.WindowPair,
	accountOK bool,
	pairs map[core.CampaignName]campaign.WindowPair,
) insight.Hypothesis {
	if hyp.Scope == insight.ScopeOverall {
		if !accountOK {
			return significance.Unvalidated(hyp)
		}
		return s.sig.Evaluate(ctx, hyp, accountPair)
	}
	pair, ok := pairs[hyp.CampaignName]
	if !ok {
		s.logger.Debug("hypothesis %s: no window pair for campaign %q, marking unvalidated",
			hyp.ID, hyp.CampaignName)
		return significance.Unvalidated(hyp)
	}
	return s.sig.Evaluate(ctx, hyp, pair)
}

// splitCampaigns builds window pairs for every campaign that has enough
// data. Campaigns that cannot be split are logged and skipped; their
// hypotheses are later marked unvalidated rather than failing the run.
func (s *EvaluationService) splitCampaigns(data campaign.AccountData) map[core.CampaignName]campaign.WindowPair {
	byCampaign := data.DailyByCampaign()
	pairs := make(map[core.CampaignName]campaign.WindowPair, len(byCampaign))
	for _, name := range data.CampaignNames() {
		pair, err := s.splitter.Split(byCampaign[name])
		if err != nil {
			s.logger.Debug("campaign %q: %v", name, err)
			continue
		}
		pairs[name] = pair
	}
	return pairs
}

// behaviorMetrics projects each campaign's window pair onto the metric
// values the percentile ranker compares across campaigns.
func behaviorMetrics(names []core.CampaignName, pairs map[core.CampaignName]campaign.WindowPair) []behavior.CampaignMetrics {
	metrics := make([]behavior.CampaignMetrics, 0, len(names))
	for _, name := range names {
		pair, ok := pairs[name]
		if !ok {
			metrics = append(metrics, behavior.CampaignMetrics{Name: name})
			continue
		}
		m := behavior.CampaignMetrics{Name: name}
		if v, ok := pair.Previous.Sample.ROAS(); ok {
			m.PrevROAS = insight.Float(v)
		}
		if v, ok := pair.Recent.Sample.ROAS(); ok {
			m.RecentROAS = insight.Float(v)
		}
		if pair.Previous.Sample.HasCTR() {
			m.PrevCTR = insight.Float(pair.Previous.Sample.CTR())
		}
		if pair.Recent.Sample.HasCTR() {
			m.RecentCTR = insight.Float(pair.Recent.Sample.CTR())
		}
		metrics = append(metrics, m)
	}
	return metrics
}

func creativeInputs(
	data campaign.AccountData,
	pairs map[core.CampaignName]campaign.WindowPair,
	scores map[core.CampaignName]behavior.Score,
) []creative.CampaignInput {
	profiles := data.CreativeByCampaign()
	names := data.CampaignNames()

	inputs := make([]creative.CampaignInput, 0, len(names))
	for _, name := range names {
		in := creative.CampaignInput{Name: name, Behavior: scores[name]}
		if profile, ok := profiles[name]; ok {
			in.Profile = profile
			in.HasProfile = true
		}
		if pair, ok := pairs[name]; ok {
			in.TotalImpressions = pair.Previous.Sample.Impressions + pair.Recent.Sample.Impressions
		}
		inputs = append(inputs, in)
	}
	return inputs
}
