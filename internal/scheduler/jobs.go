package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/sentinel-risk/internal/market_regime"
	"github.com/aristath/sentinel-risk/internal/modules/reporting"
	"github.com/rs/zerolog"
)

// DefaultJobTimeout bounds a single job run
const DefaultJobTimeout = 2 * time.Minute

// ReportGenerator produces risk reports
type ReportGenerator interface {
	Generate(ctx context.Context) (*reporting.Report, error)
}

// RegimePredictor observes signals and predicts regime transitions
type RegimePredictor interface {
	Observe(s market_regime.Signals) market_regime.Prediction
	Predict() market_regime.Prediction
}

// SignalSource supplies market signals for regime classification
type SignalSource interface {
	Signals(ctx context.Context) (market_regime.Signals, error)
}

// GenerateReportJob generates a full risk report
type GenerateReportJob struct {
	log       zerolog.Logger
	generator ReportGenerator
	timeout   time.Duration
}

// GenerateReportConfig holds configuration for the report job
type GenerateReportConfig struct {
	Log       zerolog.Logger
	Generator ReportGenerator
	Timeout   time.Duration
}

// NewGenerateReportJob creates a new report job
func NewGenerateReportJob(cfg GenerateReportConfig) *GenerateReportJob {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultJobTimeout
	}
	return &GenerateReportJob{
		log:       cfg.Log.With().Str("job", "generate_risk_report").Logger(),
		generator: cfg.Generator,
		timeout:   cfg.Timeout,
	}
}

// Name returns the job name
func (j *GenerateReportJob) Name() string {
	return "generate_risk_report"
}

// Run executes the report job
func (j *GenerateReportJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	report, err := j.generator.Generate(ctx)
	if err != nil {
		return fmt.Errorf("failed to generate risk report: %w", err)
	}

	j.log.Info().
		Str("report_id", report.ID).
		Float64("risk_score", report.RiskScore).
		Int("alerts", len(report.Alerts)).
		Msg("Scheduled risk report generated")
	return nil
}

// RegimePredictionJob refreshes the regime prediction. With a signal source
// it classifies fresh signals first.
type RegimePredictionJob struct {
	log       zerolog.Logger
	predictor RegimePredictor
	source    SignalSource
	timeout   time.Duration
}

// RegimePredictionConfig holds configuration for the regime job
type RegimePredictionConfig struct {
	Log       zerolog.Logger
	Predictor RegimePredictor
	Source    SignalSource // optional
	Timeout   time.Duration
}

// NewRegimePredictionJob creates a new regime job
func NewRegimePredictionJob(cfg RegimePredictionConfig) *RegimePredictionJob {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultJobTimeout
	}
	return &RegimePredictionJob{
		log:       cfg.Log.With().Str("job", "regime_prediction").Logger(),
		predictor: cfg.Predictor,
		source:    cfg.Source,
		timeout:   cfg.Timeout,
	}
}

// Name returns the job name
func (j *RegimePredictionJob) Name() string {
	return "regime_prediction"
}

// Run executes the regime job
func (j *RegimePredictionJob) Run() error {
	var pred market_regime.Prediction
	if j.source == nil {
		pred = j.predictor.Predict()
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		defer cancel()

		signals, err := j.source.Signals(ctx)
		if err != nil {
			return fmt.Errorf("failed to read market signals: %w", err)
		}
		pred = j.predictor.Observe(signals)
	}

	j.log.Info().
		Str("regime", string(pred.CurrentRegime)).
		Float64("confidence", pred.Confidence).
		Str("most_likely_next", string(pred.MostLikelyNext.Regime)).
		Float64("stay_probability", pred.StayProbability).
		Msg("Regime prediction refreshed")
	return nil
}
