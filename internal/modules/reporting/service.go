package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/internal/events"
	"github.com/aristath/sentinel-risk/internal/market_regime"
	"github.com/aristath/sentinel-risk/internal/metrics"
	"github.com/aristath/sentinel-risk/internal/modules/blackswan"
	"github.com/aristath/sentinel-risk/internal/modules/concentration"
	"github.com/aristath/sentinel-risk/internal/modules/correlation"
	"github.com/aristath/sentinel-risk/internal/modules/factors"
	"github.com/aristath/sentinel-risk/internal/modules/montecarlo"
	"github.com/aristath/sentinel-risk/internal/modules/portfolio"
	"github.com/aristath/sentinel-risk/internal/modules/positions"
	"github.com/aristath/sentinel-risk/internal/modules/stress"
	"github.com/aristath/sentinel-risk/internal/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const moduleName = "reporting"

// DefaultHistoryLength is the number of retained reports
const DefaultHistoryLength = 100

// TrendThreshold is the score change that counts as a direction
const TrendThreshold = 5.0

// Trend directions
const (
	TrendImproving = "improving"
	TrendWorsening = "worsening"
	TrendStable    = "stable"
)

// Trend is the movement of the risk score across recent reports
type Trend struct {
	Direction string    `json:"direction"`
	Scores    []float64 `json:"scores"` // oldest first
	Change    float64   `json:"change"`
}

// Deps are the analyses a report is composed of
type Deps struct {
	Store         *positions.Store
	Factors       *factors.Model
	Concentration *concentration.Detector
	Correlation   *correlation.Engine
	Stress        *stress.Engine
	MonteCarlo    *montecarlo.Simulator
	Regime        *market_regime.Predictor
	BlackSwan     *blackswan.Analyzer
}

// Config holds the Monte Carlo defaults used for reports
type Config struct {
	HistoryLength int
	Paths         int
	HorizonDays   int
	Confidence    float64
}

// Service generates reports and answers history queries
type Service struct {
	deps    Deps
	cfg     Config
	bus     *events.Bus
	metrics *metrics.Registry
	now     func() time.Time
	log     zerolog.Logger
	history *utils.Ring[*Report]
}

// NewService creates a report service
func NewService(deps Deps, cfg Config, bus *events.Bus, m *metrics.Registry, log zerolog.Logger) *Service {
	if cfg.HistoryLength <= 0 {
		cfg.HistoryLength = DefaultHistoryLength
	}
	if cfg.Paths <= 0 {
		cfg.Paths = 1000
	}
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = montecarlo.DefaultHorizonDays
	}
	if !(cfg.Confidence > 0 && cfg.Confidence < 1) {
		cfg.Confidence = montecarlo.DefaultConfidence
	}
	return &Service{
		deps:    deps,
		cfg:     cfg,
		bus:     bus,
		metrics: m,
		now:     time.Now,
		log:     log.With().Str("component", "risk_reports").Logger(),
		history: utils.NewRing[*Report](cfg.HistoryLength),
	}
}

// Generate runs every analysis against one frozen snapshot of the store.
// A cancelled context aborts the run and no report is recorded.
func (s *Service) Generate(ctx context.Context) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to generate report: %w", err)
	}
	done := utils.OperationTimer("risk_report", s.log)

	snap := s.deps.Store.Snapshot()
	summary := portfolio.Summarize(snap.Positions)

	var (
		exposures []factors.Exposure
		risks     []concentration.Risk
		corr      correlation.Result
		stresses  []stress.Result
		regime    market_regime.Prediction
		mc        *montecarlo.Result
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		risks = s.deps.Concentration.Detect(snap.Positions, summary)
		return nil
	})
	g.Go(func() error {
		corr = s.deps.Correlation.Build(snap.Positions)
		return nil
	})
	g.Go(func() error {
		stresses = s.deps.Stress.RunAll(snap.Positions)
		return nil
	})
	g.Go(func() error {
		regime = s.deps.Regime.Predict()
		return nil
	})
	g.Go(func() error {
		res, err := s.deps.MonteCarlo.Simulate(gctx, montecarlo.Request{
			Composition:     summary.Composition(),
			PortfolioValue:  summary.TotalValue,
			ConfidenceLevel: s.cfg.Confidence,
			HorizonDays:     s.cfg.HorizonDays,
			PathCount:       s.cfg.Paths,
		})
		if err != nil {
			return fmt.Errorf("failed to run monte carlo: %w", err)
		}
		mc = res
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to generate report: %w", err)
	}

	// factor history only advances for recorded reports
	exposures = s.deps.Factors.Compute(snap, summary)
	swan := s.deps.BlackSwan.Analyze(summary, mc.Returns())

	// reports keep the aggregate distribution, not every path
	mcCopy := *mc
	mcCopy.Paths = nil

	score, alerts := Score(Inputs{
		Concentration:        risks,
		StressTests:          stresses,
		TailRisk:             swan.TailRiskLevel,
		DiversificationScore: corr.DiversificationScore,
	})

	report := &Report{
		ID:            uuid.NewString(),
		GeneratedAt:   s.now(),
		Summary:       summary,
		Factors:       exposures,
		Concentration: risks,
		Correlation:   corr,
		StressTests:   stresses,
		MonteCarlo:    &mcCopy,
		Regime:        regime,
		BlackSwan:     swan,
		RiskScore:     score,
		RiskLevel:     domain.LevelFromScore(score),
		Alerts:        alerts,
	}

	s.history.Push(report)

	elapsed := done()
	s.metrics.ObserveReport(elapsed, score)
	s.bus.Publish(moduleName, &events.ReportGeneratedData{
		ReportID:  report.ID,
		RiskLevel: string(report.RiskLevel),
		RiskScore: score,
		Alerts:    len(alerts),
	})
	s.log.Info().
		Str("report_id", report.ID).
		Float64("risk_score", score).
		Str("risk_level", string(report.RiskLevel)).
		Int("alerts", len(alerts)).
		Int("positions", summary.PositionCount).
		Msg("Risk report generated")

	return report, nil
}

// Latest returns the most recent report
func (s *Service) Latest() (*Report, bool) {
	return s.history.Last()
}

// History returns up to limit reports, newest first. limit <= 0 returns all.
func (s *Service) History(limit int) []*Report {
	return s.history.Newest(limit)
}

// Trend compares the oldest and newest score among the last limit reports
func (s *Service) Trend(limit int) Trend {
	reports := s.History(limit)
	scores := make([]float64, len(reports))
	for i, r := range reports {
		scores[len(reports)-1-i] = r.RiskScore
	}

	t := Trend{Scores: scores, Direction: TrendStable}
	if len(scores) < 2 {
		return t
	}
	t.Change = scores[len(scores)-1] - scores[0]
	switch {
	case t.Change < -TrendThreshold:
		t.Direction = TrendImproving
	case t.Change > TrendThreshold:
		t.Direction = TrendWorsening
	}
	return t
}

// Export encodes the retained history, oldest first
func (s *Service) Export() ([]byte, error) {
	return EncodeReports(s.history.Values())
}

// Import appends decoded reports to the history, oldest first
func (s *Service) Import(data []byte) (int, error) {
	reports, err := DecodeReports(data)
	if err != nil {
		return 0, err
	}
	for _, r := range reports {
		if r != nil {
			s.history.Push(r)
		}
	}
	return len(reports), nil
}
