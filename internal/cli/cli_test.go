package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "optstrat/internal/errors"
	"optstrat/internal/models"
)

var ironCondorArgs = []string{
	"payoff",
	"--leg", "long:put:35:0.5:1:100",
	"--leg", "short:put:40:1:1:100",
	"--leg", "short:call:50:1:1:100",
	"--leg", "long:call:55:0.5:1:100",
	"--from", "30", "--to", "60", "--step", "5",
}

func referenceCSV(t *testing.T) string {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("..", "contracts", "testdata", "contracts.csv"))
	require.NoError(t, err)
	return path
}

// setupConfig writes a config directory pointing at the test reference data.
func setupConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	content := fmt.Sprintf(`
[contracts]
path = %q

[store]
enabled = true
path = "optstrat.db"

[ui]
color_enabled = false

[log]
level = "error"
console = false
`, referenceCSV(t))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))
	return dir
}

func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	err := Execute(zerolog.Nop(), append([]string{"--config", dir}, args...), &buf)
	return buf.String(), err
}

func runJSON(t *testing.T, dir string, target interface{}, args ...string) {
	t.Helper()
	out, err := run(t, dir, append(args, "--json")...)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), target), "output: %s", out)
}

func payoffs(report payoffReport) []float64 {
	out := make([]float64, len(report.Points))
	for i, p := range report.Points {
		out[i] = p.Payoff
	}
	return out
}

func TestPayoffIronCondor(t *testing.T) {
	dir := setupConfig(t)

	var report payoffReport
	runJSON(t, dir, &report, ironCondorArgs...)

	assert.Equal(t, "adhoc", report.Strategy)
	assert.Len(t, report.Positions, 4)
	assert.Equal(t, []float64{-400, -400, 100, 100, 100, -400, -400}, payoffs(report))
	assert.Equal(t, 100.0, report.Summary.MaxProfit)
	assert.Equal(t, -400.0, report.Summary.MaxLoss)
	require.Len(t, report.Summary.Breakevens, 2)
	assert.InDelta(t, 39, report.Summary.Breakevens[0], 1e-9)
	assert.InDelta(t, 51, report.Summary.Breakevens[1], 1e-9)
	assert.Equal(t, -100.0, report.Summary.NetPremium)
	// explicit legs carry no contract id
	assert.Len(t, report.Warnings, 4)
}

func TestPayoffTextOutput(t *testing.T) {
	dir := setupConfig(t)

	out, err := run(t, dir, append(ironCondorArgs, "--name", "condor")...)
	require.NoError(t, err)

	for _, want := range []string{
		"Strategy: condor",
		"1 Long Put 35 at 50",
		"-$400.00",
		"+$100.00",
		"Breakevens:  39, 51",
		"Net premium: $100.00 credit",
	} {
		assert.Contains(t, out, want)
	}
}

func TestPayoffDefaultRange(t *testing.T) {
	dir := setupConfig(t)

	var report payoffReport
	runJSON(t, dir, &report, "payoff", "--leg", "long:call:100:5", "--step", "10")

	// padding 0.1 of the mid strike on each side
	require.NotEmpty(t, report.Points)
	assert.Equal(t, 90.0, report.Points[0].Price)
	assert.Equal(t, 110.0, report.Points[len(report.Points)-1].Price)
	assert.True(t, report.Summary.UpsideSlope > 0)
}

func TestPayoffFromContractsAndStrategies(t *testing.T) {
	dir := setupConfig(t)
	at := []string{"--from", "2100", "--to", "2100"}

	var report payoffReport
	runJSON(t, dir, &report, append([]string{"payoff",
		"--contract", "198003244:long:20",
		"--contract", "198003980:short:15:2",
		"--save", "es-combo"}, at...)...)

	assert.Equal(t, "es-combo", report.Strategy)
	require.Len(t, report.Positions, 2)
	assert.Equal(t, int64(198003244), report.Positions[0].Leg.ContractID)
	assert.Equal(t, 1000.0, report.Positions[0].Leg.Premium)
	assert.Equal(t, 1500.0, report.Positions[1].Leg.Premium)
	// long call: 30*50 - 1000, short put: expires worthless, keeps 1500
	assert.Equal(t, []float64{2000}, payoffs(report))
	assert.Empty(t, report.Warnings)

	var records []models.StrategyRecord
	runJSON(t, dir, &records, "strategy", "list")
	require.Len(t, records, 1)
	assert.Equal(t, "es-combo", records[0].Name)
	assert.Len(t, records[0].Legs, 2)

	var shown payoffReport
	runJSON(t, dir, &shown, append([]string{"strategy", "show", "es-combo"}, at...)...)
	assert.Equal(t, []float64{2000}, payoffs(shown))

	// Selling the call back closes it.
	var merged payoffReport
	runJSON(t, dir, &merged, append([]string{"payoff", "--strategy", "es-combo",
		"--contract", "198003244:short:20"}, at...)...)
	require.Len(t, merged.Positions, 1)
	assert.Equal(t, int64(198003980), merged.Positions[0].Leg.ContractID)
	assert.Equal(t, []float64{1500}, payoffs(merged))

	_, err := run(t, dir, "strategy", "delete", "es-combo")
	require.NoError(t, err)
	_, err = run(t, dir, "strategy", "show", "es-combo")
	assert.True(t, apperrors.Is(err, apperrors.ErrStrategyNotFound), "got %v", err)
}

func TestPayoffPick(t *testing.T) {
	dir := setupConfig(t)

	var report payoffReport
	runJSON(t, dir, &report, "payoff", "--pick", "long:C:2070:ES:2016-06-17:20", "--from", "2100", "--to", "2100")
	require.Len(t, report.Positions, 1)
	assert.Equal(t, int64(198003244), report.Positions[0].Leg.ContractID)
	assert.Equal(t, "1 Long ES June-16 Call 2070 at 1000", report.Positions[0].Description)
}

func TestPayoffErrors(t *testing.T) {
	dir := setupConfig(t)

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"no legs", []string{"payoff"}, apperrors.ErrEmptyPortfolio},
		{"bad leg", []string{"payoff", "--leg", "long:put:35"}, apperrors.ErrInvalidLeg},
		{"unknown contract", []string{"payoff", "--contract", "1:long:1"}, apperrors.ErrContractNotFound},
		{"future", []string{"payoff", "--contract", "187532577:long:1"}, apperrors.ErrInvalidContractKind},
		{"ambiguous pick", []string{"payoff", "--pick", "long:C::ES::1"}, apperrors.ErrSelectionAmbiguous},
		{"no match", []string{"payoff", "--pick", "long:C:2075:ES::1"}, apperrors.ErrContractNotFound},
		{"bad step", []string{"payoff", "--leg", "long:put:35:1", "--from", "30", "--to", "40", "--step", "-1"}, apperrors.ErrInvalidRange},
		{"all closed without range", []string{"payoff", "--contract", "198003244:long:20", "--contract", "198003244:short:20"}, apperrors.ErrEmptyPortfolio},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, dir, tt.args...)
			assert.True(t, apperrors.Is(err, tt.want), "got %v, want %v", err, tt.want)
		})
	}
}

func TestStoreClosedAfterCommand(t *testing.T) {
	dir := setupConfig(t)

	for _, args := range [][]string{
		{"strategy", "list"},
		{"strategy", "show", "missing"},
		{"payoff", "--leg", "long:put:35"},
	} {
		app := &App{Logger: zerolog.Nop()}
		var buf bytes.Buffer
		_ = execute(app, append([]string{"--config", dir}, args...), &buf)
		assert.NotNil(t, app.Config, "%v: setup did not run", args)
		assert.Nil(t, app.Store, "%v left the store open", args)
	}
}

func TestContractsCommands(t *testing.T) {
	dir := setupConfig(t)

	// reads the reference file before anything is imported
	var puts []models.Contract
	runJSON(t, dir, &puts, "contracts", "list", "--right", "P")
	assert.Len(t, puts, 4)

	var imported map[string]interface{}
	runJSON(t, dir, &imported, "contracts", "import", referenceCSV(t))
	assert.Equal(t, float64(8), imported["imported"])

	var calls []models.Contract
	runJSON(t, dir, &calls, "contracts", "list", "--right", "C", "--symbol", "es")
	require.Len(t, calls, 3)
	assert.Equal(t, int64(198003214), calls[0].ID)

	var c models.Contract
	runJSON(t, dir, &c, "contracts", "show", "198003244")
	assert.Equal(t, "C", c.Right)
	assert.Equal(t, 2070.0, c.Strike)
	assert.Equal(t, 50.0, c.Multiplier)

	out, err := run(t, dir, "contracts", "list", "--strike", "2070")
	require.NoError(t, err)
	assert.Contains(t, out, "198003244")
	assert.Contains(t, out, "198003980")
	assert.Contains(t, out, "Last import:")

	_, err = run(t, dir, "contracts", "show", "42")
	assert.True(t, apperrors.Is(err, apperrors.ErrContractNotFound), "got %v", err)
	_, err = run(t, dir, "contracts", "list", "--right", "X")
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidLeg), "got %v", err)
}

func TestVersionAndConfig(t *testing.T) {
	dir := setupConfig(t)

	out, err := run(t, dir, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "optstrat v"+Version)

	out, err = run(t, dir, "config", "path")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(dir, "config.toml"))

	out, err = run(t, dir, "config")
	require.NoError(t, err)
	assert.Contains(t, out, referenceCSV(t))

	_, err = run(t, dir, "config", "validate")
	assert.NoError(t, err)
}
