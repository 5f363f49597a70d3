package market_regime

// Transition is one outgoing edge of the regime Markov chain
type Transition struct {
	To           Regime   `json:"to" msgpack:"to"`
	Triggers     []string `json:"triggers" msgpack:"triggers"`
	Probability  float64  `json:"probability" msgpack:"probability"`
	ExpectedDays int      `json:"expected_days" msgpack:"expected_days"`
}

// Profile describes the typical behaviour of a regime
type Profile struct {
	Positioning          string  `json:"positioning" msgpack:"positioning"`
	ExpectedAnnualReturn float64 `json:"expected_annual_return" msgpack:"expected_annual_return"`
	AverageDays          int     `json:"average_days" msgpack:"average_days"`
	MinDays              int     `json:"min_days" msgpack:"min_days"`
	MaxDays              int     `json:"max_days" msgpack:"max_days"`
}

var triggers = map[Regime][]string{
	BullQuiet:        {"VIX below 15", "steady earnings upgrades", "tight credit spreads"},
	BullVolatile:     {"VIX between 20 and 30 with positive trend", "policy uncertainty", "sector rotation"},
	BearQuiet:        {"slow earnings downgrades", "flattening yield curve", "weak breadth"},
	BearVolatile:     {"VIX above 25 with negative trend", "credit spreads widening past 450bp", "earnings recession"},
	SidewaysQuiet:    {"range-bound index", "low realised volatility", "neutral breadth"},
	SidewaysVolatile: {"choppy range with VIX above 20", "conflicting macro data"},
	Crash:            {"VIX above 35", "forced deleveraging", "liquidity withdrawal"},
	Recovery:         {"VIX falling from peak", "breadth thrust above 60%", "policy support"},
	Bubble:           {"trend above 30%", "speculative retail flows", "stretched valuations"},
	Capitulation:     {"VIX above 50", "put/call above 1.2", "record outflows"},
}

func edge(to Regime, p float64, days int) Transition {
	return Transition{To: to, Probability: p, ExpectedDays: days, Triggers: triggers[to]}
}

// transitionTable rows sum to 1 and include the self-transition
var transitionTable = map[Regime][]Transition{
	BullQuiet: {
		edge(BullQuiet, 0.70, 90), edge(BullVolatile, 0.15, 60), edge(SidewaysQuiet, 0.10, 90),
		edge(BearVolatile, 0.03, 120), edge(Bubble, 0.02, 180),
	},
	BullVolatile: {
		edge(BullVolatile, 0.45, 30), edge(BullQuiet, 0.20, 45), edge(SidewaysVolatile, 0.15, 30),
		edge(BearVolatile, 0.12, 45), edge(Crash, 0.05, 30), edge(Bubble, 0.03, 90),
	},
	BearQuiet: {
		edge(BearQuiet, 0.50, 60), edge(BearVolatile, 0.20, 30), edge(SidewaysQuiet, 0.20, 60),
		edge(Recovery, 0.10, 90),
	},
	BearVolatile: {
		edge(BearVolatile, 0.40, 30), edge(Crash, 0.15, 14), edge(Capitulation, 0.10, 21),
		edge(BearQuiet, 0.15, 45), edge(Recovery, 0.15, 45), edge(SidewaysVolatile, 0.05, 30),
	},
	SidewaysQuiet: {
		edge(SidewaysQuiet, 0.55, 60), edge(BullQuiet, 0.20, 60), edge(SidewaysVolatile, 0.10, 30),
		edge(BearQuiet, 0.10, 60), edge(BullVolatile, 0.05, 45),
	},
	SidewaysVolatile: {
		edge(SidewaysVolatile, 0.40, 30), edge(BullVolatile, 0.15, 30), edge(BearVolatile, 0.20, 30),
		edge(SidewaysQuiet, 0.20, 45), edge(Crash, 0.05, 21),
	},
	Crash: {
		edge(Crash, 0.25, 7), edge(Capitulation, 0.25, 10), edge(Recovery, 0.30, 21),
		edge(BearVolatile, 0.20, 14),
	},
	Recovery: {
		edge(Recovery, 0.40, 45), edge(BullVolatile, 0.25, 60), edge(BullQuiet, 0.20, 90),
		edge(BearVolatile, 0.10, 30), edge(SidewaysVolatile, 0.05, 45),
	},
	Bubble: {
		edge(Bubble, 0.45, 60), edge(Crash, 0.20, 30), edge(BullVolatile, 0.25, 45),
		edge(BearVolatile, 0.10, 60),
	},
	Capitulation: {
		edge(Capitulation, 0.20, 5), edge(Recovery, 0.50, 14), edge(BearVolatile, 0.20, 14),
		edge(Crash, 0.10, 7),
	},
}

var profileTable = map[Regime]Profile{
	BullQuiet:        {"Stay fully invested; favour quality growth and keep cash low", 0.15, 400, 120, 1200},
	BullVolatile:     {"Stay invested with tighter risk limits; rebalance into strength", 0.10, 120, 30, 365},
	BearQuiet:        {"Underweight equities; extend duration in high-grade bonds", -0.08, 180, 60, 500},
	BearVolatile:     {"Raise cash, hedge equity beta, favour treasuries and gold", -0.20, 90, 20, 300},
	SidewaysQuiet:    {"Harvest carry and dividends; sell volatility selectively", 0.04, 200, 60, 600},
	SidewaysVolatile: {"Range-trade with small position sizes and hedges on", 0.00, 90, 20, 250},
	Crash:            {"Preserve capital: cut leverage, hold cash and long volatility", -0.45, 25, 5, 60},
	Recovery:         {"Add risk gradually; rotate into cyclicals and small caps", 0.25, 150, 40, 400},
	Bubble:           {"Ride momentum with trailing stops; buy cheap tail protection", 0.30, 250, 60, 700},
	Capitulation:     {"Scale into quality assets in tranches", -0.30, 15, 3, 45},
}

// Transitions returns a copy of the outgoing edges of r
func Transitions(r Regime) []Transition {
	row := transitionTable[r]
	out := make([]Transition, len(row))
	copy(out, row)
	return out
}

// ProfileOf returns the fixed profile of r
func ProfileOf(r Regime) Profile {
	return profileTable[r]
}
