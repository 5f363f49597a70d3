package market_regime

import (
	"errors"
	"testing"
	"time"

	"github.com/aristath/sentinel-risk/internal/events"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		signals  Signals
		previous Regime
		want     Regime
	}{
		{"capitulation", Signals{ImpliedVolatility: 55, TrendReturn: -0.25}, BearVolatile, Capitulation},
		{"crash", Signals{ImpliedVolatility: 40, TrendReturn: -0.15}, BullVolatile, Crash},
		{"high vol without deep drop is not a crash", Signals{ImpliedVolatility: 40, TrendReturn: -0.05}, SidewaysQuiet, SidewaysVolatile},
		{"bubble", Signals{ImpliedVolatility: 15, TrendReturn: 0.35}, BullQuiet, Bubble},
		{"recovery after crash", Signals{ImpliedVolatility: 30, TrendReturn: 0.02}, Crash, Recovery},
		{"recovery after capitulation", Signals{ImpliedVolatility: 30, TrendReturn: 0.10}, Capitulation, Recovery},
		{"recovery holds on a mild uptrend", Signals{ImpliedVolatility: 30, TrendReturn: 0.03}, Recovery, Recovery},
		{"recovery exits on a bull trend", Signals{ImpliedVolatility: 24, TrendReturn: 0.12}, Recovery, BullVolatile},
		{"recovery exits when the trend fades", Signals{ImpliedVolatility: 30, TrendReturn: -0.01}, Recovery, SidewaysVolatile},
		{"renewed crash ends recovery", Signals{ImpliedVolatility: 40, TrendReturn: -0.15}, Recovery, Crash},
		{"no recovery from calm", Signals{ImpliedVolatility: 30, TrendReturn: 0.02}, BullQuiet, SidewaysVolatile},
		{"bull quiet", Signals{ImpliedVolatility: 12, TrendReturn: 0.15}, SidewaysQuiet, BullQuiet},
		{"bull volatile", Signals{ImpliedVolatility: 24, TrendReturn: 0.12}, SidewaysQuiet, BullVolatile},
		{"bear quiet", Signals{ImpliedVolatility: 15, TrendReturn: -0.07}, SidewaysQuiet, BearQuiet},
		{"bear volatile", Signals{ImpliedVolatility: 25, TrendReturn: -0.08}, BullQuiet, BearVolatile},
		{"boundary trend is sideways", Signals{ImpliedVolatility: 20, TrendReturn: 0.05}, SidewaysQuiet, SidewaysVolatile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, conf := Classify(tt.signals, tt.previous)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, conf, 0.5)
			assert.LessOrEqual(t, conf, 1.0)
		})
	}
}

func TestClassify_Confidence(t *testing.T) {
	_, conf := Classify(Signals{ImpliedVolatility: 12, TrendReturn: 0.15}, SidewaysQuiet)
	assert.InDelta(t, 0.95, conf, 1e-9)

	_, conf = Classify(Signals{ImpliedVolatility: 20, TrendReturn: 0.05}, SidewaysQuiet)
	assert.InDelta(t, 0.5, conf, 1e-9)

	_, conf = Classify(Signals{ImpliedVolatility: 55, TrendReturn: -0.25}, SidewaysQuiet)
	assert.InDelta(t, 1.0, conf, 1e-9)
}

func TestTransitionTable_RowsSumToOne(t *testing.T) {
	for _, r := range Regimes {
		row := Transitions(r)
		require.NotEmpty(t, row, r)

		sum := 0.0
		seen := map[Regime]bool{}
		for _, tr := range row {
			assert.True(t, tr.To.Valid(), "%s -> %s", r, tr.To)
			assert.False(t, seen[tr.To], "duplicate edge %s -> %s", r, tr.To)
			assert.NotEmpty(t, tr.Triggers)
			assert.Positive(t, tr.ExpectedDays)
			seen[tr.To] = true
			sum += tr.Probability
		}
		assert.InDelta(t, 1.0, sum, 1e-9, r)
		assert.True(t, seen[r], "%s has no self-transition", r)

		p := ProfileOf(r)
		assert.NotEmpty(t, p.Positioning)
		assert.LessOrEqual(t, p.MinDays, p.AverageDays)
		assert.LessOrEqual(t, p.AverageDays, p.MaxDays)
	}
}

func TestParseRegime(t *testing.T) {
	r, err := ParseRegime("Bull-Quiet")
	require.NoError(t, err)
	assert.Equal(t, BullQuiet, r)

	_, err = ParseRegime("moon")
	assert.True(t, errors.Is(err, ErrUnknownRegime))
}

func TestPredictor_Predict(t *testing.T) {
	p := NewPredictor(nil, nil, zerolog.Nop())
	require.NoError(t, p.SetCurrentRegime(Crash))

	pred := p.Predict()
	assert.Equal(t, Crash, pred.CurrentRegime)
	assert.Equal(t, 1.0, pred.Confidence)
	assert.InDelta(t, 0.25, pred.StayProbability, 1e-9)
	assert.Equal(t, Recovery, pred.MostLikelyNext.Regime)
	assert.InDelta(t, 0.30, pred.MostLikelyNext.Probability, 1e-9)
	assert.Equal(t, ProfileOf(Recovery).ExpectedAnnualReturn, pred.MostLikelyNext.ExpectedReturn)
	assert.Equal(t, ProfileOf(Crash).ExpectedAnnualReturn, pred.ExpectedReturn)

	for i := 1; i < len(pred.Transitions); i++ {
		assert.GreaterOrEqual(t, pred.Transitions[i-1].Probability, pred.Transitions[i].Probability)
	}
}

func TestPredictor_MostLikelyNextExcludesSelf(t *testing.T) {
	p := NewPredictor(nil, nil, zerolog.Nop())
	require.NoError(t, p.SetCurrentRegime(BullQuiet))

	pred := p.Predict()
	assert.Equal(t, BullQuiet, pred.Transitions[0].To)
	assert.InDelta(t, 0.70, pred.StayProbability, 1e-9)
	assert.Equal(t, BullVolatile, pred.MostLikelyNext.Regime)
}

func TestPredictor_SetCurrentRegimeRejectsUnknown(t *testing.T) {
	p := NewPredictor(nil, nil, zerolog.Nop())
	err := p.SetCurrentRegime("moon")
	assert.True(t, errors.Is(err, ErrUnknownRegime))

	r, _ := p.CurrentRegime()
	assert.Equal(t, SidewaysQuiet, r)
}

func TestPredictor_Duration(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	clock := t0
	p := NewPredictor(nil, nil, zerolog.Nop())
	p.now = func() time.Time { return clock }

	require.NoError(t, p.SetCurrentRegime(BearQuiet))
	clock = t0.Add(10*24*time.Hour + time.Hour)

	pred := p.Predict()
	assert.Equal(t, 10, pred.Duration.CurrentDays)
	assert.Equal(t, 180, pred.Duration.AverageDays)
	assert.Equal(t, clock, pred.GeneratedAt)

	// staying in the same regime keeps the clock running
	require.NoError(t, p.SetCurrentRegime(BearQuiet))
	assert.Equal(t, 10, p.Predict().Duration.CurrentDays)
}

func TestPredictor_RecoveryPersists(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	clock := t0
	p := NewPredictor(nil, nil, zerolog.Nop())
	p.now = func() time.Time { return clock }

	p.Observe(Signals{ImpliedVolatility: 40, TrendReturn: -0.15})
	mild := Signals{ImpliedVolatility: 30, TrendReturn: 0.03}
	assert.Equal(t, Recovery, p.Observe(mild).CurrentRegime)

	for day := 1; day <= 3; day++ {
		clock = t0.Add(time.Duration(day)*24*time.Hour + time.Hour)
		pred := p.Observe(mild)
		assert.Equal(t, Recovery, pred.CurrentRegime)
		assert.Equal(t, day, pred.Duration.CurrentDays)
	}

	assert.Equal(t, BullVolatile, p.Observe(Signals{ImpliedVolatility: 24, TrendReturn: 0.12}).CurrentRegime)
}

func TestPredictor_ObservePublishesRegimeChange(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	ch, unsub := bus.Subscribe(4)
	defer unsub()

	p := NewPredictor(bus, nil, zerolog.Nop())
	pred := p.Observe(Signals{ImpliedVolatility: 40, TrendReturn: -0.15})
	assert.Equal(t, Crash, pred.CurrentRegime)

	ev := <-ch
	assert.Equal(t, events.RegimeChanged, ev.Type)
	data := ev.Data.(*events.RegimeChangedData)
	assert.Equal(t, string(SidewaysQuiet), data.From)
	assert.Equal(t, string(Crash), data.To)

	// recovery depends on the previous regime
	pred = p.Observe(Signals{ImpliedVolatility: 30, TrendReturn: 0.03})
	assert.Equal(t, Recovery, pred.CurrentRegime)

	// unchanged regime publishes nothing
	p.Observe(Signals{ImpliedVolatility: 30, TrendReturn: 0.03})
	<-ch
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %s", ev.Type)
	default:
	}
}

func TestLeadingIndicators(t *testing.T) {
	t.Run("neutral when nothing observed", func(t *testing.T) {
		for _, ind := range LeadingIndicators(nil) {
			assert.Equal(t, Neutral, ind.Signal, ind.Name)
		}
		pred := NewPredictor(nil, nil, zerolog.Nop()).Predict()
		assert.Len(t, pred.LeadingIndicators, 4)
		assert.Equal(t, Neutral, pred.IndicatorBias)
	})

	t.Run("bullish", func(t *testing.T) {
		inds := LeadingIndicators(&Signals{
			ImpliedVolatility: 14, ImpliedVolatility3M: 18,
			CreditSpreadBps: 300, BreadthRatio: 0.7, PutCallRatio: 0.6,
		})
		for _, ind := range inds {
			assert.Equal(t, Bullish, ind.Signal, ind.Name)
		}
		assert.Equal(t, Bullish, bias(inds))
	})

	t.Run("bearish", func(t *testing.T) {
		inds := LeadingIndicators(&Signals{
			ImpliedVolatility: 40, ImpliedVolatility3M: 30,
			CreditSpreadBps: 600, BreadthRatio: 0.3, PutCallRatio: 1.2,
		})
		for _, ind := range inds {
			assert.Equal(t, Bearish, ind.Signal, ind.Name)
		}
		assert.Equal(t, Bearish, bias(inds))
	})

	t.Run("neutral band", func(t *testing.T) {
		inds := LeadingIndicators(&Signals{
			ImpliedVolatility: 19, ImpliedVolatility3M: 20,
			CreditSpreadBps: 400, BreadthRatio: 0.5, PutCallRatio: 0.85,
		})
		for _, ind := range inds {
			assert.Equal(t, Neutral, ind.Signal, ind.Name)
		}
	})
}
