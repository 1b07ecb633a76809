package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"conflictlens/adapters/ingest"
	"conflictlens/adapters/render"
	"conflictlens/adapters/stats/descriptive"
	"conflictlens/adapters/stats/interaction"
	"conflictlens/adapters/stats/logit"
	"conflictlens/domain/core"
	"conflictlens/domain/panel"
	"conflictlens/domain/stats"
	"conflictlens/internal/config"
)

// AnalysisService coordinates the one-shot batch pipeline: load data,
// compute descriptive statistics, fit the model suites, derive interaction
// effects, and render figures and reports.
type AnalysisService struct {
	cfg          *config.Config
	descriptives *descriptive.Analyzer
	fitter       *logit.Fitter
	calculator   *interaction.Calculator
	reports      *render.ReportWriter
	charts       *render.ChartRenderer
}

// RunResult contains the complete output of an analysis run
type RunResult struct {
	RunID        core.RunID                  `json:"run_id"`
	Observations int                         `json:"observations"`
	Descriptives *stats.Descriptives         `json:"descriptives"`
	Current      *stats.ModelSuite           `json:"current_conflict_models"`
	Future       *stats.ModelSuite           `json:"future_conflict_models"`
	Interactions []*stats.InteractionSummary `json:"interaction_effects"`
	Artifacts    []core.Artifact             `json:"artifacts"`
	RuntimeMs    int64                       `json:"runtime_ms"`
}

// NewAnalysisService wires the pipeline components from configuration
func NewAnalysisService(cfg *config.Config) *AnalysisService {
	return &AnalysisService{
		cfg:          cfg,
		descriptives: descriptive.NewAnalyzer(),
		fitter:       logit.NewFitter(),
		calculator:   interaction.NewCalculator(),
		reports:      render.NewReportWriter(cfg.Output.ResultsDir, cfg.Output.HTML, cfg.Model.Alpha),
		charts:       render.NewChartRenderer(cfg.Output.FiguresDir, cfg.Figures.WidthInches, cfg.Figures.HeightInches, cfg.Figures.Format),
	}
}

// Run executes the full pipeline. Data-loading errors abort the run;
// per-model numerical failures are collected in the suites and reported,
// and the remaining independent fits still run.
func (s *AnalysisService) Run(ctx context.Context) (*RunResult, error) {
	startTime := time.Now()
	runID := core.RunID(core.NewID())

	dataset, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	descriptives, err := s.descriptives.Compute(dataset, s.cfg.Model.LagYears)
	if err != nil {
		return nil, fmt.Errorf("descriptive statistics: %w", err)
	}

	current := s.fitter.FitSuite(dataset, stats.OutcomeCurrentConflict)
	future := s.fitter.FitSuite(dataset, stats.OutcomeFutureConflict)

	interactions := s.deriveInteractions(current, future)

	reportArtifacts, err := s.reports.WriteAll(descriptives, current, future, interactions)
	if err != nil {
		return nil, fmt.Errorf("rendering reports: %w", err)
	}
	chartArtifacts, err := s.charts.RenderAll(descriptives, current, future, interactions)
	if err != nil {
		return nil, fmt.Errorf("rendering figures: %w", err)
	}

	artifacts := append(reportArtifacts, chartArtifacts...)
	artifacts = append(artifacts,
		core.Artifact{ID: core.NewID(), Kind: core.ArtifactDescriptives, Payload: descriptives, CreatedAt: core.Now()},
		core.Artifact{ID: core.NewID(), Kind: core.ArtifactModelSuite, Payload: current, CreatedAt: core.Now()},
		core.Artifact{ID: core.NewID(), Kind: core.ArtifactModelSuite, Payload: future, CreatedAt: core.Now()},
	)

	result := &RunResult{
		RunID:        runID,
		Observations: dataset.Len(),
		Descriptives: descriptives,
		Current:      current,
		Future:       future,
		Interactions: interactions,
		Artifacts:    artifacts,
		RuntimeMs:    time.Since(startTime).Milliseconds(),
	}

	manifest, err := s.writeManifest(result)
	if err != nil {
		return nil, fmt.Errorf("writing run manifest: %w", err)
	}
	result.Artifacts = append(result.Artifacts, manifest)

	return result, nil
}

// writeManifest records the run's audit trail: what ran, what it produced
// and how long it took.
func (s *AnalysisService) writeManifest(result *RunResult) (core.Artifact, error) {
	paths := make([]string, 0, len(result.Artifacts))
	for _, artifact := range result.Artifacts {
		if artifact.Path != "" {
			paths = append(paths, artifact.Path)
		}
	}

	manifest := struct {
		RunID         core.RunID     `json:"run_id"`
		Observations  int            `json:"observations"`
		ModelsFitted  int            `json:"models_fitted"`
		ModelFailures int            `json:"model_failures"`
		Interactions  int            `json:"interaction_effects"`
		Artifacts     []string       `json:"artifacts"`
		RuntimeMs     int64          `json:"runtime_ms"`
		CreatedAt     core.Timestamp `json:"created_at"`
	}{
		RunID:         result.RunID,
		Observations:  result.Observations,
		ModelsFitted:  len(result.Current.Models) + len(result.Future.Models),
		ModelFailures: len(result.Current.Failures) + len(result.Future.Failures),
		Interactions:  len(result.Interactions),
		Artifacts:     paths,
		RuntimeMs:     result.RuntimeMs,
		CreatedAt:     core.Now(),
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return core.Artifact{}, err
	}
	path := filepath.Join(s.cfg.Output.ResultsDir, "run_manifest.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return core.Artifact{}, err
	}
	log.Printf("[Analysis] Wrote %s", path)

	return core.Artifact{
		ID:        core.NewID(),
		Kind:      core.ArtifactRunManifest,
		Path:      path,
		CreatedAt: core.Now(),
	}, nil
}

func (s *AnalysisService) load(ctx context.Context) (*panel.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ingest.NewDataReader(s.cfg.Data.Path, s.cfg.Model.ExcludedThreshold).Read()
}

// deriveInteractions reads the conditional exclusion effects off the
// interaction models that converged. A missing model or term is not an
// error here: its absence is already reported with the model failures.
func (s *AnalysisService) deriveInteractions(suites ...*stats.ModelSuite) []*stats.InteractionSummary {
	pairs := []struct {
		moderator   stats.Term
		interaction stats.Term
	}{
		{stats.TermGeoConcentrated, stats.TermExcludedGeo},
		{stats.TermUpgraded, stats.TermExcludedUpgrade},
	}

	summaries := make([]*stats.InteractionSummary, 0)
	for _, suite := range suites {
		for _, pair := range pairs {
			for _, model := range suite.Models {
				if _, ok := model.Estimate(pair.interaction); !ok {
					continue
				}
				summary, err := s.calculator.ConditionalEffects(model, pair.moderator, pair.interaction)
				if err != nil {
					continue
				}
				summaries = append(summaries, summary)
				break // first model carrying the interaction wins
			}
		}
	}
	return summaries
}
