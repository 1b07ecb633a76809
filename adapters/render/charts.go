package render

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"conflictlens/domain/core"
	"conflictlens/domain/stats"
	apperrors "conflictlens/internal/errors"
)

// ChartRenderer draws the analysis figures to the figures directory.
type ChartRenderer struct {
	figuresDir string
	width      vg.Length
	height     vg.Length
	format     string
}

// NewChartRenderer creates a chart renderer
func NewChartRenderer(figuresDir string, widthInches, heightInches float64, format string) *ChartRenderer {
	return &ChartRenderer{
		figuresDir: figuresDir,
		width:      vg.Length(widthInches) * vg.Inch,
		height:     vg.Length(heightInches) * vg.Inch,
		format:     format,
	}
}

// RenderAll draws every figure. Figures are independent of one another, so
// they render concurrently; the first failure cancels the batch.
func (r *ChartRenderer) RenderAll(d *stats.Descriptives, current, future *stats.ModelSuite, interactions []*stats.InteractionSummary) ([]core.Artifact, error) {
	if err := os.MkdirAll(r.figuresDir, 0o755); err != nil {
		return nil, apperrors.Wrap(err, "creating figures directory")
	}

	type figure struct {
		name string
		draw func() (*plot.Plot, error)
	}

	figures := []figure{
		{"conflict_by_political_status", func() (*plot.Plot, error) {
			return r.statusBars("Conflict Incidence Rate by Political Status", d.ConflictByStatus)
		}},
		{"future_conflict_by_political_status", func() (*plot.Plot, error) {
			return r.statusBars("Future Conflict Incidence Rate by Political Status (1 Year Ahead)", d.FutureByStatus)
		}},
		{"exclusion_concentration_conflict", func() (*plot.Plot, error) {
			return r.crossTabBars("Exclusion, Geographic Concentration and Conflict", d.GeoCrossTab, "Dispersed Groups", "Concentrated Groups")
		}},
		{"exclusion_concentration_future_conflict", func() (*plot.Plot, error) {
			return r.crossTabBars("Exclusion, Geographic Concentration and Future Conflict", d.FutureGeoTab, "Dispersed Groups", "Concentrated Groups")
		}},
		{"exclusion_experience_conflict", func() (*plot.Plot, error) {
			return r.crossTabBars("Exclusion, Prior Governance Experience and Conflict", d.UpgradeCrossTab, "No Prior Experience", "Prior Experience")
		}},
		{"exclusion_experience_future_conflict", func() (*plot.Plot, error) {
			return r.crossTabBars("Exclusion, Prior Governance Experience and Future Conflict", d.FutureUpgradeTab, "No Prior Experience", "Prior Experience")
		}},
		{"conflict_time_trend", func() (*plot.Plot, error) {
			return r.trendLines(d.Trend)
		}},
		{"exclusion_odds_ratios", func() (*plot.Plot, error) {
			return r.oddsRatioBars(current, future)
		}},
	}
	if len(interactions) > 0 {
		figures = append(figures, figure{"conditional_exclusion_effects", func() (*plot.Plot, error) {
			return r.conditionalEffectBars(interactions)
		}})
	}

	artifacts := make([]core.Artifact, len(figures))
	var g errgroup.Group
	for i, fig := range figures {
		i, fig := i, fig
		g.Go(func() error {
			p, err := fig.draw()
			if err != nil {
				return apperrors.Wrapf(err, "drawing %s", fig.name)
			}
			path := filepath.Join(r.figuresDir, fig.name+"."+r.format)
			if err := p.Save(r.width, r.height, path); err != nil {
				return apperrors.Wrapf(err, "saving %s", fig.name)
			}
			log.Printf("[Charts] Wrote %s", path)
			artifacts[i] = core.Artifact{
				ID:        core.NewID(),
				Kind:      core.ArtifactFigure,
				Path:      path,
				CreatedAt: core.Now(),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return artifacts, nil
}

// statusBars draws the conflict rate per political status category.
func (r *ChartRenderer) statusBars(title string, cells []stats.RateCell) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "Conflict Incidence Rate"
	p.X.Label.Text = "Political Status"

	values := make(plotter.Values, len(cells))
	labels := make([]string, len(cells))
	for i, cell := range cells {
		values[i] = cell.Rate
		labels[i] = cell.Label
	}

	bars, err := plotter.NewBarChart(values, vg.Points(24))
	if err != nil {
		return nil, err
	}
	bars.LineStyle.Width = 0
	bars.Color = plotutil.Color(0)
	p.Add(bars)
	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = 0.6
	p.X.Tick.Label.XAlign = -0.8
	return p, nil
}

// crossTabBars draws grouped bars: included/excluded on the X axis, one
// bar series per moderator level.
func (r *ChartRenderer) crossTabBars(title string, tab stats.CrossTab, lowLabel, highLabel string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "Conflict Incidence Rate"
	p.X.Label.Text = "Group Exclusion Status"

	barWidth := vg.Points(28)
	for i, level := range []bool{false, true} {
		values := make(plotter.Values, 2)
		for j, excluded := range []bool{false, true} {
			if cell, ok := tab.Cell(excluded, level); ok {
				values[j] = cell.Rate
			}
		}
		bars, err := plotter.NewBarChart(values, barWidth)
		if err != nil {
			return nil, err
		}
		bars.LineStyle.Width = 0
		bars.Color = plotutil.Color(i)
		if level {
			bars.Offset = barWidth / 2
			p.Legend.Add(highLabel, bars)
		} else {
			bars.Offset = -barWidth / 2
			p.Legend.Add(lowLabel, bars)
		}
		p.Add(bars)
	}
	p.Legend.Top = true
	p.NominalX("Included Groups", "Excluded Groups")
	return p, nil
}

// trendLines draws the yearly conflict rate for included and excluded
// groups.
func (r *ChartRenderer) trendLines(trend []stats.TrendPoint) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Time Trend of Conflict Incidence by Group Exclusion Status"
	p.X.Label.Text = "Year"
	p.Y.Label.Text = "Conflict Incidence Rate"

	included := make(plotter.XYs, len(trend))
	excluded := make(plotter.XYs, len(trend))
	for i, point := range trend {
		included[i].X = float64(point.Year)
		included[i].Y = point.IncludedRate
		excluded[i].X = float64(point.Year)
		excluded[i].Y = point.ExcludedRate
	}

	if err := plotutil.AddLinePoints(p, "Included Groups", included, "Excluded Groups", excluded); err != nil {
		return nil, err
	}
	p.Legend.Top = true
	return p, nil
}

// oddsRatioBars draws the exclusion odds ratio for each fitted model in
// both suites.
func (r *ChartRenderer) oddsRatioBars(current, future *stats.ModelSuite) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Exclusion Odds Ratio Across Model Specifications"
	p.Y.Label.Text = "Odds Ratio (conflict)"
	p.X.Label.Text = "Model"

	values := plotter.Values{}
	labels := []string{}
	for _, suite := range []*stats.ModelSuite{current, future} {
		for _, model := range suite.Models {
			if e, ok := model.Estimate(stats.TermExcluded); ok {
				values = append(values, e.OddsRatio)
				labels = append(labels, model.Name)
			}
		}
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("no fitted model carries the exclusion term")
	}

	bars, err := plotter.NewBarChart(values, vg.Points(18))
	if err != nil {
		return nil, err
	}
	bars.LineStyle.Width = 0
	bars.Color = plotutil.Color(2)
	p.Add(bars)
	p.NominalX(labels...)
	return p, nil
}

// conditionalEffectBars draws the conditional exclusion odds ratio at
// each moderator level.
func (r *ChartRenderer) conditionalEffectBars(interactions []*stats.InteractionSummary) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Conditional Exclusion Effects by Moderator Level"
	p.Y.Label.Text = "Odds Ratio (conflict)"
	p.X.Label.Text = "Moderator"

	labels := make([]string, len(interactions))
	barWidth := vg.Points(26)
	for levelIdx, level := range []float64{0, 1} {
		values := make(plotter.Values, len(interactions))
		for i, summary := range interactions {
			labels[i] = fmt.Sprintf("%s (%s)", summary.Moderator, summary.Outcome)
			for _, effect := range summary.Effects {
				if effect.Level == level {
					values[i] = effect.OddsRatio
				}
			}
		}
		bars, err := plotter.NewBarChart(values, barWidth)
		if err != nil {
			return nil, err
		}
		bars.LineStyle.Width = 0
		bars.Color = plotutil.Color(levelIdx + 3)
		if level == 0 {
			bars.Offset = -barWidth / 2
			p.Legend.Add("moderator = 0", bars)
		} else {
			bars.Offset = barWidth / 2
			p.Legend.Add("moderator = 1", bars)
		}
		p.Add(bars)
	}
	p.Legend.Top = true
	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = 0.4
	p.X.Tick.Label.XAlign = -0.8
	return p, nil
}
