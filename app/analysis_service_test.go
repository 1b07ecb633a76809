package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conflictlens/domain/stats"
	"conflictlens/internal/config"
)

// writeSyntheticPanel writes a CSV panel with 16 groups over 20 years,
// with variation in every predictor and outcome cell.
func writeSyntheticPanel(t *testing.T, dir string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("gwgroupid,countries_gwid,year,statusname,status_pwrrank,upgraded10,geo_concentrated,incidence_flag,incidence_terr_flag,incidence_gov_flag\n")
	for g := 0; g < 16; g++ {
		rank := 5
		if g%2 == 0 {
			rank = 1
		}
		geo := 0
		if g%4 < 2 {
			geo = 1
		}
		upgraded := 0
		if g%8 < 4 {
			upgraded = 1
		}
		for year := 1990; year < 2010; year++ {
			period := 3 + g%2 + (year+g)%2
			conflict := 0
			if (year+g*5)%period == 0 {
				conflict = 1
			}
			fmt.Fprintf(&b, "%d,%d,%d,,%d,%d,%d,%d,%d,0\n",
				1000+g, 500+g%4, year, rank, upgraded, geo, conflict, conflict)
		}
	}
	path := filepath.Join(dir, "panel.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0644))
	return path
}

func testConfig(t *testing.T, dataPath string) *config.Config {
	t.Helper()
	outDir := t.TempDir()
	return &config.Config{
		Data:    config.DataConfig{Path: dataPath},
		Output:  config.OutputConfig{FiguresDir: filepath.Join(outDir, "figures"), ResultsDir: filepath.Join(outDir, "results")},
		Model:   config.ModelConfig{LagYears: []int{1, 2, 3}, ExcludedThreshold: 3, Alpha: 0.05},
		Figures: config.FigureConfig{WidthInches: 8, HeightInches: 5, Format: "png"},
	}
}

func TestRunEndToEnd(t *testing.T) {
	dataPath := writeSyntheticPanel(t, t.TempDir())
	cfg := testConfig(t, dataPath)

	result, err := NewAnalysisService(cfg).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 320, result.Observations)
	assert.NotEmpty(t, result.RunID)

	require.NotNil(t, result.Descriptives)
	assert.InDelta(t, 0.5, result.Descriptives.ExcludedShare, 1e-12)

	require.NotNil(t, result.Current)
	require.NotNil(t, result.Future)
	assert.Empty(t, result.Current.Failures)
	assert.Len(t, result.Current.Models, 5)
	assert.Len(t, result.Future.Models, 5)

	// Geo and upgrade interactions for each outcome.
	assert.Len(t, result.Interactions, 4)

	for _, path := range []string{
		filepath.Join(cfg.Output.ResultsDir, "descriptive_stats.md"),
		filepath.Join(cfg.Output.ResultsDir, "model_summary.md"),
		filepath.Join(cfg.Output.ResultsDir, "model_interpretation.md"),
		filepath.Join(cfg.Output.ResultsDir, "results.json"),
		filepath.Join(cfg.Output.ResultsDir, "run_manifest.json"),
		filepath.Join(cfg.Output.FiguresDir, "conflict_by_political_status.png"),
		filepath.Join(cfg.Output.FiguresDir, "exclusion_odds_ratios.png"),
		filepath.Join(cfg.Output.FiguresDir, "conditional_exclusion_effects.png"),
	} {
		assert.FileExists(t, path)
	}
	assert.NotEmpty(t, result.Artifacts)

	manifestData, err := os.ReadFile(filepath.Join(cfg.Output.ResultsDir, "run_manifest.json"))
	require.NoError(t, err)
	var manifest struct {
		RunID        string   `json:"run_id"`
		ModelsFitted int      `json:"models_fitted"`
		Artifacts    []string `json:"artifacts"`
	}
	require.NoError(t, json.Unmarshal(manifestData, &manifest))
	assert.Equal(t, string(result.RunID), manifest.RunID)
	assert.Equal(t, 10, manifest.ModelsFitted)
	assert.NotEmpty(t, manifest.Artifacts)
}

// TestRunDeterminism refits the same panel twice and expects bit-identical
// coefficients.
func TestRunDeterminism(t *testing.T) {
	dataPath := writeSyntheticPanel(t, t.TempDir())

	first, err := NewAnalysisService(testConfig(t, dataPath)).Run(context.Background())
	require.NoError(t, err)
	second, err := NewAnalysisService(testConfig(t, dataPath)).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, second.Current.Models, len(first.Current.Models))
	for i, model := range first.Current.Models {
		refit := second.Current.Models[i]
		require.Equal(t, model.Name, refit.Name)
		require.Len(t, refit.Estimates, len(model.Estimates))
		for j, e := range model.Estimates {
			assert.Equal(t, e.Coefficient, refit.Estimates[j].Coefficient, "term %s", e.Term)
			assert.Equal(t, e.StdErr, refit.Estimates[j].StdErr, "term %s", e.Term)
		}
		assert.Equal(t, model.LogLikelihood, refit.LogLikelihood)
	}
}

func TestRunMissingData(t *testing.T) {
	cfg := testConfig(t, filepath.Join(t.TempDir(), "absent.csv"))
	_, err := NewAnalysisService(cfg).Run(context.Background())
	require.Error(t, err)
}

func TestRunCancelledContext(t *testing.T) {
	dataPath := writeSyntheticPanel(t, t.TempDir())
	cfg := testConfig(t, dataPath)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewAnalysisService(cfg).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestInteractionOrderStable(t *testing.T) {
	dataPath := writeSyntheticPanel(t, t.TempDir())
	result, err := NewAnalysisService(testConfig(t, dataPath)).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Interactions, 4)
	wantModerators := []stats.Term{
		stats.TermGeoConcentrated, stats.TermUpgraded,
		stats.TermGeoConcentrated, stats.TermUpgraded,
	}
	for i, summary := range result.Interactions {
		assert.Equal(t, wantModerators[i], summary.Moderator)
	}
	assert.Equal(t, stats.OutcomeCurrentConflict, result.Interactions[0].Outcome)
	assert.Equal(t, stats.OutcomeFutureConflict, result.Interactions[2].Outcome)
}
