package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPortfolio = `
positions:
  - symbol: SPY
    asset_class: equity
    broker: ibkr
    currency: USD
    quantity: 10
    average_cost: 400
    current_price: 500
  - symbol: TLT
    asset_class: fixed_income
    broker: ibkr
    currency: USD
    quantity: 50
    average_cost: 100
    current_price: 100
`

func writePortfolio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "positions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testPortfolio), 0o600))
	return path
}

func run(t *testing.T, args ...string) (map[string]interface{}, []interface{}, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		return nil, nil, err
	}

	raw := stdout.Bytes()
	var obj map[string]interface{}
	if json.Unmarshal(raw, &obj) == nil {
		return obj, nil, nil
	}
	var list []interface{}
	require.NoError(t, json.Unmarshal(raw, &list), string(raw))
	return nil, list, nil
}

func TestReportCommand(t *testing.T) {
	out, _, err := run(t, "report", "--portfolio", writePortfolio(t), "--paths", "50", "--seed", "5")
	require.NoError(t, err)

	assert.NotEmpty(t, out["id"])
	assert.Contains(t, out, "risk_score")
	assert.Contains(t, out, "stress_tests")
	mc := out["monte_carlo"].(map[string]interface{})
	assert.EqualValues(t, 50, mc["path_count"])
	assert.EqualValues(t, 5, mc["seed"])
}

func TestStressCommand(t *testing.T) {
	portfolio := writePortfolio(t)

	_, all, err := run(t, "stress", "--portfolio", portfolio)
	require.NoError(t, err)
	assert.NotEmpty(t, all)

	one, _, err := run(t, "stress", "--portfolio", portfolio, "--scenario", "rate_shock")
	require.NoError(t, err)
	assert.Equal(t, "rate_shock", one["scenario_id"])
	assert.InDelta(t, 10000.0, one["value_before"], 1e-9)

	_, _, err = run(t, "stress", "--portfolio", portfolio, "--scenario", "meteor")
	assert.Error(t, err)
}

func TestSimulateCommand(t *testing.T) {
	portfolio := writePortfolio(t)

	out, _, err := run(t, "simulate", "--portfolio", portfolio, "--paths", "40", "--horizon", "10", "--seed", "9")
	require.NoError(t, err)
	assert.EqualValues(t, 40, out["path_count"])
	assert.EqualValues(t, 10, out["horizon_days"])
	assert.Nil(t, out["paths"])

	out, _, err = run(t, "simulate", "--portfolio", portfolio, "--paths", "20", "--scenario", "covid_crash_2020")
	require.NoError(t, err)
	assert.Equal(t, "covid_crash_2020", out["scenario_id"])

	_, _, err = run(t, "simulate", "--portfolio", portfolio, "--confidence", "1.5")
	assert.Error(t, err)
}

func TestRegimeCommand(t *testing.T) {
	out, _, err := run(t, "regime", "--vix", "40", "--trend", "-0.15")
	require.NoError(t, err)
	assert.Equal(t, "crash", out["current_regime"])

	out, _, err = run(t, "regime", "--current", "bull-quiet")
	require.NoError(t, err)
	assert.Equal(t, "bull_quiet", out["current_regime"])

	_, _, err = run(t, "regime", "--current", "euphoria")
	assert.Error(t, err)
}

func TestMissingPortfolioFile(t *testing.T) {
	_, _, err := run(t, "report", "--portfolio", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSimulateHelpDescribesScenarioDrift(t *testing.T) {
	var stdout bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"simulate", "--help"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, stdout.String(), "across the whole horizon")
}
