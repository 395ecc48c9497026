package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pe_modeller/pkg/core/investment"
	"pe_modeller/pkg/core/sensitivity"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir()) // no stray .env
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 0, cfg.SweepWorkers)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("SWEEP_WORKERS", "8")
	t.Setenv("CACHE_TTL", "90s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 8, cfg.SweepWorkers)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
}

func TestLoad_BadValue(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SWEEP_WORKERS", "many")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadSweeps_MissingFileUsesDefaults(t *testing.T) {
	s, err := LoadSweeps(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSweeps(), s)
}

func TestLoadSweeps_RepositoryFile(t *testing.T) {
	s, err := LoadSweeps(filepath.Join("..", "..", "config", "sweeps.yaml"))
	require.NoError(t, err)
	assert.Equal(t, sensitivity.DefaultSwings(), s.Swings)
	assert.Equal(t, sensitivity.DefaultGrid(), s.Grid)
}

func TestParseSweeps_Overrides(t *testing.T) {
	doc := `
tornado:
  - parameter: exit_multiple
    low: -3
    high: 3
heatmap:
  row:
    parameter: holding_period
    deltas: [-1, 0, 1]
  column:
    parameter: exit_ebitda_margin
    deltas: [-5, 0, 5]
`
	s, err := ParseSweeps([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, []sensitivity.Swing{{Parameter: investment.ParamExitMultiple, Low: -3, High: 3}}, s.Swings)
	assert.Equal(t, investment.ParamHoldingPeriod, s.Grid.Row.Parameter)
	assert.Equal(t, []float64{-5, 0, 5}, s.Grid.Column.Deltas)
}

func TestParseSweeps_PartialKeepsDefaultGrid(t *testing.T) {
	s, err := ParseSweeps([]byte("tornado:\n  - parameter: entry_multiple\n    low: -1\n    high: 1\n"))
	require.NoError(t, err)
	assert.Len(t, s.Swings, 1)
	assert.Equal(t, sensitivity.DefaultGrid(), s.Grid)
}

func TestParseSweeps_Errors(t *testing.T) {
	_, err := ParseSweeps([]byte("tornado:\n  - parameter: ebitda\n"))
	assert.ErrorIs(t, err, investment.ErrInvalidInput)

	_, err = ParseSweeps([]byte("heatmap:\n  row: {parameter: exit_multiple}\n  column: {parameter: entry_multiple, deltas: [1]}\n"))
	assert.ErrorIs(t, err, investment.ErrInvalidInput)

	_, err = ParseSweeps([]byte("unknown_section: 1\n"))
	assert.Error(t, err)

	_, err = LoadSweeps(os.DevNull + string(os.PathSeparator) + "x")
	assert.Error(t, err)
}
