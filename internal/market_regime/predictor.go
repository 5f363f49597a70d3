package market_regime

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/aristath/sentinel-risk/internal/events"
	"github.com/aristath/sentinel-risk/internal/metrics"
	"github.com/rs/zerolog"
)

const moduleName = "market_regime"

// ErrUnknownRegime is returned for regime names outside the fixed set
var ErrUnknownRegime = errors.New("unknown regime")

// Signal is the direction of a leading indicator
type Signal string

const (
	Bullish Signal = "bullish"
	Bearish Signal = "bearish"
	Neutral Signal = "neutral"
)

// Indicator is one leading indicator reading
type Indicator struct {
	Name        string  `json:"name" msgpack:"name"`
	Signal      Signal  `json:"signal" msgpack:"signal"`
	Description string  `json:"description" msgpack:"description"`
	Value       float64 `json:"value" msgpack:"value"`
}

// Duration compares the time spent in the current regime with its typical span
type Duration struct {
	AverageDays int `json:"average_days" msgpack:"average_days"`
	MinDays     int `json:"min_days" msgpack:"min_days"`
	MaxDays     int `json:"max_days" msgpack:"max_days"`
	CurrentDays int `json:"current_days" msgpack:"current_days"`
}

// NextRegime is the most likely regime to follow the current one
type NextRegime struct {
	Regime         Regime   `json:"regime" msgpack:"regime"`
	Positioning    string   `json:"positioning" msgpack:"positioning"`
	Triggers       []string `json:"triggers" msgpack:"triggers"`
	Probability    float64  `json:"probability" msgpack:"probability"`
	ExpectedReturn float64  `json:"expected_return" msgpack:"expected_return"`
	ExpectedDays   int      `json:"expected_days" msgpack:"expected_days"`
}

// Prediction is the regime outlook at one instant
type Prediction struct {
	GeneratedAt       time.Time    `json:"generated_at" msgpack:"generated_at"`
	CurrentRegime     Regime       `json:"current_regime" msgpack:"current_regime"`
	Positioning       string       `json:"positioning" msgpack:"positioning"`
	IndicatorBias     Signal       `json:"indicator_bias" msgpack:"indicator_bias"`
	Transitions       []Transition `json:"transitions" msgpack:"transitions"`
	LeadingIndicators []Indicator  `json:"leading_indicators" msgpack:"leading_indicators"`
	MostLikelyNext    NextRegime   `json:"most_likely_next" msgpack:"most_likely_next"`
	Duration          Duration     `json:"duration" msgpack:"duration"`
	Confidence        float64      `json:"confidence" msgpack:"confidence"`
	StayProbability   float64      `json:"stay_probability" msgpack:"stay_probability"`
	ExpectedReturn    float64      `json:"expected_return" msgpack:"expected_return"`
}

// Predictor tracks the current regime and forecasts transitions out of it
type Predictor struct {
	bus     *events.Bus
	metrics *metrics.Registry
	now     func() time.Time
	log     zerolog.Logger

	mu         sync.RWMutex
	current    Regime
	confidence float64
	since      time.Time
	last       *Signals
}

// NewPredictor creates a predictor starting in sideways_quiet
func NewPredictor(bus *events.Bus, m *metrics.Registry, log zerolog.Logger) *Predictor {
	p := &Predictor{
		bus:        bus,
		metrics:    m,
		now:        time.Now,
		log:        log.With().Str("component", "regime_predictor").Logger(),
		current:    SidewaysQuiet,
		confidence: 0.5,
	}
	p.since = p.now()
	return p
}

// CurrentRegime returns the current regime and classification confidence
func (p *Predictor) CurrentRegime() (Regime, float64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current, p.confidence
}

// SetCurrentRegime overrides the current regime
func (p *Predictor) SetCurrentRegime(r Regime) error {
	if !r.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownRegime, r)
	}
	p.transition(r, 1)
	return nil
}

// Observe classifies signals against the current regime, records them for the
// leading indicators and returns the resulting prediction.
func (p *Predictor) Observe(s Signals) Prediction {
	current, _ := p.CurrentRegime()
	next, conf := Classify(s, current)

	p.mu.Lock()
	saved := s
	p.last = &saved
	p.mu.Unlock()

	p.transition(next, conf)
	return p.Predict()
}

func (p *Predictor) transition(to Regime, conf float64) {
	p.mu.Lock()
	from := p.current
	p.confidence = conf
	changed := from != to
	if changed {
		p.current = to
		p.since = p.now()
	}
	p.mu.Unlock()

	if !changed {
		return
	}

	p.log.Info().
		Str("from", string(from)).
		Str("to", string(to)).
		Float64("confidence", conf).
		Msg("Market regime changed")
	p.metrics.RegimeChanged(string(to))
	p.bus.Publish(moduleName, &events.RegimeChangedData{
		From:       string(from),
		To:         string(to),
		Confidence: conf,
	})
}

// Predict returns the transition outlook for the current regime
func (p *Predictor) Predict() Prediction {
	p.mu.RLock()
	current, conf, since := p.current, p.confidence, p.since
	var last *Signals
	if p.last != nil {
		s := *p.last
		last = &s
	}
	p.mu.RUnlock()

	now := p.now()
	transitions := Transitions(current)
	sort.SliceStable(transitions, func(i, j int) bool {
		return transitions[i].Probability > transitions[j].Probability
	})

	pred := Prediction{
		GeneratedAt:   now,
		CurrentRegime: current,
		Confidence:    conf,
		Transitions:   transitions,
	}

	for _, t := range transitions {
		if t.To == current {
			pred.StayProbability = t.Probability
			continue
		}
		if pred.MostLikelyNext.Regime == "" {
			next := ProfileOf(t.To)
			pred.MostLikelyNext = NextRegime{
				Regime:         t.To,
				Probability:    t.Probability,
				ExpectedDays:   t.ExpectedDays,
				Triggers:       t.Triggers,
				ExpectedReturn: next.ExpectedAnnualReturn,
				Positioning:    next.Positioning,
			}
		}
	}

	profile := ProfileOf(current)
	pred.ExpectedReturn = profile.ExpectedAnnualReturn
	pred.Positioning = profile.Positioning
	pred.Duration = Duration{
		AverageDays: profile.AverageDays,
		MinDays:     profile.MinDays,
		MaxDays:     profile.MaxDays,
		CurrentDays: int(math.Max(0, now.Sub(since).Hours()/24)),
	}
	pred.LeadingIndicators = LeadingIndicators(last)
	pred.IndicatorBias = bias(pred.LeadingIndicators)
	return pred
}

// LeadingIndicators reads the four leading indicators from s. A nil s or a
// zero field yields a neutral reading.
func LeadingIndicators(s *Signals) []Indicator {
	var vol, vol3m, spread, breadth, putCall float64
	if s != nil {
		vol, vol3m, spread, breadth, putCall = s.ImpliedVolatility, s.ImpliedVolatility3M, s.CreditSpreadBps, s.BreadthRatio, s.PutCallRatio
	}

	term := Indicator{Name: "vix_term_structure", Signal: Neutral, Description: "no volatility term structure observed"}
	if vol > 0 && vol3m > 0 {
		term.Value = vol / vol3m
		switch {
		case term.Value < 0.9:
			term.Signal, term.Description = Bullish, "contango: spot volatility below 3-month"
		case term.Value > 1.0:
			term.Signal, term.Description = Bearish, "backwardation: spot volatility above 3-month"
		default:
			term.Description = "flat volatility term structure"
		}
	}

	return []Indicator{
		term,
		threshold("credit_spreads", spread, spread > 0, spread < 350, spread > 500,
			"credit spreads tight", "credit spreads wide", "credit spreads normal"),
		threshold("market_breadth", breadth, breadth > 0, breadth > 0.6, breadth < 0.4,
			"broad participation", "narrow participation", "mixed participation"),
		threshold("put_call_ratio", putCall, putCall > 0, putCall < 0.7, putCall > 1.0,
			"low hedging demand", "heavy hedging demand", "balanced options flow"),
	}
}

func threshold(name string, value float64, observed, bullish, bearish bool, bull, bear, neutral string) Indicator {
	ind := Indicator{Name: name, Value: value, Signal: Neutral, Description: neutral}
	switch {
	case !observed:
		ind.Value = 0
		ind.Description = "not observed"
	case bullish:
		ind.Signal, ind.Description = Bullish, bull
	case bearish:
		ind.Signal, ind.Description = Bearish, bear
	}
	return ind
}

func bias(indicators []Indicator) Signal {
	score := 0
	for _, ind := range indicators {
		switch ind.Signal {
		case Bullish:
			score++
		case Bearish:
			score--
		}
	}
	switch {
	case score > 0:
		return Bullish
	case score < 0:
		return Bearish
	}
	return Neutral
}
