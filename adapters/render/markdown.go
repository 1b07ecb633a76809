package render

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gomarkdown/markdown"

	"conflictlens/domain/core"
	"conflictlens/domain/stats"
	apperrors "conflictlens/internal/errors"
)

// ReportWriter renders the analysis outputs as Markdown (and optionally
// HTML) reports in the results directory. No computation happens here.
type ReportWriter struct {
	resultsDir string
	html       bool
	alpha      float64
}

// NewReportWriter creates a report writer
func NewReportWriter(resultsDir string, html bool, alpha float64) *ReportWriter {
	return &ReportWriter{resultsDir: resultsDir, html: html, alpha: alpha}
}

// WriteAll renders every report and returns the written artifacts.
func (w *ReportWriter) WriteAll(d *stats.Descriptives, current, future *stats.ModelSuite, interactions []*stats.InteractionSummary) ([]core.Artifact, error) {
	if err := os.MkdirAll(w.resultsDir, 0o755); err != nil {
		return nil, apperrors.Wrap(err, "creating results directory")
	}

	reports := []struct {
		name    string
		content string
	}{
		{"descriptive_stats.md", w.descriptiveReport(d)},
		{"model_summary.md", w.summaryReport(current, future)},
		{"model_interpretation.md", w.interpretationReport(current, future, interactions)},
	}

	artifacts := make([]core.Artifact, 0, len(reports)+1)
	for _, report := range reports {
		paths, err := w.writeReport(report.name, report.content)
		if err != nil {
			return nil, err
		}
		for _, path := range paths {
			artifacts = append(artifacts, core.Artifact{
				ID:        core.NewID(),
				Kind:      core.ArtifactReport,
				Path:      path,
				CreatedAt: core.Now(),
			})
		}
	}

	jsonPath, err := w.writeJSON(d, current, future, interactions)
	if err != nil {
		return nil, err
	}
	artifacts = append(artifacts, core.Artifact{
		ID:        core.NewID(),
		Kind:      core.ArtifactReport,
		Path:      jsonPath,
		CreatedAt: core.Now(),
	})

	return artifacts, nil
}

// writeReport writes the Markdown file and, when enabled, an HTML twin.
func (w *ReportWriter) writeReport(name, content string) ([]string, error) {
	mdPath := filepath.Join(w.resultsDir, name)
	if err := os.WriteFile(mdPath, []byte(content), 0o644); err != nil {
		return nil, apperrors.Wrapf(err, "writing %s", name)
	}
	log.Printf("[Reports] Wrote %s", mdPath)
	paths := []string{mdPath}

	if w.html {
		htmlPath := strings.TrimSuffix(mdPath, ".md") + ".html"
		html := markdown.ToHTML([]byte(content), nil, nil)
		if err := os.WriteFile(htmlPath, html, 0o644); err != nil {
			return nil, apperrors.Wrapf(err, "writing %s", htmlPath)
		}
		log.Printf("[Reports] Wrote %s", htmlPath)
		paths = append(paths, htmlPath)
	}
	return paths, nil
}

func (w *ReportWriter) writeJSON(d *stats.Descriptives, current, future *stats.ModelSuite, interactions []*stats.InteractionSummary) (string, error) {
	payload := struct {
		Descriptives *stats.Descriptives         `json:"descriptives"`
		Current      *stats.ModelSuite           `json:"current_conflict_models"`
		Future       *stats.ModelSuite           `json:"future_conflict_models"`
		Interactions []*stats.InteractionSummary `json:"interaction_effects"`
	}{d, current, future, interactions}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", apperrors.Wrap(err, "marshaling results")
	}
	path := filepath.Join(w.resultsDir, "results.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", apperrors.Wrap(err, "writing results.json")
	}
	log.Printf("[Reports] Wrote %s", path)
	return path, nil
}

// ----------------------------------------------------------------------------
// Descriptive statistics report
// ----------------------------------------------------------------------------

func (w *ReportWriter) descriptiveReport(d *stats.Descriptives) string {
	var b strings.Builder
	b.WriteString("# Descriptive Statistics\n\n")
	fmt.Fprintf(&b, "Observations: %d\n\n", d.Observations)
	fmt.Fprintf(&b, "Percentage of excluded-group rows: %.2f%%\n\n", d.ExcludedShare*100)

	b.WriteString("## Conflict Incidence Rate by Political Status\n\n")
	writeRateTable(&b, "Status", d.ConflictByStatus)

	b.WriteString("## Future Conflict Incidence Rate by Political Status (1 Year Ahead)\n\n")
	writeRateTable(&b, "Status", d.FutureByStatus)

	b.WriteString("## Conflict Rate by Exclusion Status\n\n")
	writeRateTable(&b, "Group", d.ByExclusion)

	b.WriteString("## Future Conflict Rate by Exclusion Status\n\n")
	for _, lag := range sortedLags(d.FutureByLag) {
		fmt.Fprintf(&b, "### %d Year(s) Ahead\n\n", lag)
		writeRateTable(&b, "Group", d.FutureByLag[lag])
	}

	b.WriteString("## Exclusion and Geographic Concentration\n\n")
	writeCrossTab(&b, "Concentrated", d.GeoCrossTab)

	b.WriteString("## Exclusion and Prior Governance Experience\n\n")
	writeCrossTab(&b, "Experience", d.UpgradeCrossTab)

	b.WriteString("## Future Conflict: Exclusion and Geographic Concentration\n\n")
	writeCrossTab(&b, "Concentrated", d.FutureGeoTab)

	b.WriteString("## Future Conflict: Exclusion and Prior Governance Experience\n\n")
	writeCrossTab(&b, "Experience", d.FutureUpgradeTab)

	return b.String()
}

func writeRateTable(b *strings.Builder, label string, cells []stats.RateCell) {
	fmt.Fprintf(b, "| %s | N | Conflict Rate |\n|---|---:|---:|\n", label)
	for _, cell := range cells {
		fmt.Fprintf(b, "| %s | %d | %.4f |\n", cell.Label, cell.N, cell.Rate)
	}
	b.WriteString("\n")
}

func writeCrossTab(b *strings.Builder, levelName string, tab stats.CrossTab) {
	fmt.Fprintf(b, "| Group | %s | N | Conflict Rate |\n|---|---|---:|---:|\n", levelName)
	for _, excluded := range []bool{false, true} {
		for _, level := range []bool{false, true} {
			cell, ok := tab.Cell(excluded, level)
			if !ok {
				continue
			}
			fmt.Fprintf(b, "| %s | %s | %d | %.4f |\n",
				exclusionLabel(excluded), yesNo(level), cell.N, cell.Rate)
		}
	}
	b.WriteString("\n")
	for _, diff := range tab.Diffs {
		fmt.Fprintf(b, "- Excluded minus included rate at %s: %+.4f\n", diff.Label, diff.Rate)
	}
	if tab.Missing > 0 {
		fmt.Fprintf(b, "- Rows dropped for missing moderator: %d\n", tab.Missing)
	}
	b.WriteString("\n")
}

// ----------------------------------------------------------------------------
// Model summary tables
// ----------------------------------------------------------------------------

func (w *ReportWriter) summaryReport(current, future *stats.ModelSuite) string {
	var b strings.Builder
	b.WriteString("# Logistic Regression Results\n\n")

	b.WriteString("## Current Conflict Models\n\n")
	writeSuiteTable(&b, current)

	b.WriteString("## Future Conflict Models (1 Year Ahead)\n\n")
	writeSuiteTable(&b, future)

	return b.String()
}

func writeSuiteTable(b *strings.Builder, suite *stats.ModelSuite) {
	for _, model := range suite.Models {
		fmt.Fprintf(b, "### %s\n\n", model.Name)
		b.WriteString("| Term | Coef. | Std.Err. | z | P>\\|z\\| | Odds Ratio | AME |\n")
		b.WriteString("|---|---:|---:|---:|---:|---:|---:|\n")
		for _, e := range model.Estimates {
			fmt.Fprintf(b, "| %s | %.4f | %.4f | %.3f | %.4f | %.4f | %.4f |\n",
				e.Term, e.Coefficient, e.StdErr, e.ZValue, e.PValue, e.OddsRatio, e.MarginalEffect)
		}
		fmt.Fprintf(b, "\nN = %d, Log-Likelihood = %.2f, AIC = %.2f, Pseudo R² = %.4f\n\n",
			model.SampleSize, model.LogLikelihood, model.AIC, model.PseudoR2)
	}

	for _, failure := range suite.Failures {
		fmt.Fprintf(b, "**%s did not fit:** %s\n\n", failure.Name, failure.Reason)
	}
}

// ----------------------------------------------------------------------------
// Interpretation report
// ----------------------------------------------------------------------------

func (w *ReportWriter) interpretationReport(current, future *stats.ModelSuite, interactions []*stats.InteractionSummary) string {
	var b strings.Builder
	b.WriteString("# Ethnic Group Exclusion and Armed Conflict Analysis\n\n")

	b.WriteString("## 1. Current Conflict Analysis\n\n")
	w.interpretSuite(&b, current, "in the same year")

	b.WriteString("\n## 2. Future Conflict Analysis\n\n")
	w.interpretSuite(&b, future, "in the following year")

	if len(interactions) > 0 {
		b.WriteString("\n## 3. Conditional Effects of Exclusion\n\n")
		for _, summary := range interactions {
			w.interpretInteraction(&b, summary)
		}
	}

	return b.String()
}

func (w *ReportWriter) interpretSuite(b *strings.Builder, suite *stats.ModelSuite, horizon string) {
	if len(suite.Models) == 0 {
		b.WriteString("No model in this family converged; see model_summary.md for failure reasons.\n")
		return
	}
	baseline := suite.Models[0]

	excluded, err := baseline.MustEstimate(stats.TermExcluded)
	if err != nil {
		fmt.Fprintf(b, "Baseline model is missing the exclusion term: %v\n", err)
		return
	}

	sigStatus := "not significant"
	conclusion := "we cannot confirm a definite relationship between exclusion status and armed conflict"
	direction := "positive"
	if excluded.Coefficient < 0 {
		direction = "negative"
	}
	if excluded.Significant(w.alpha) {
		sigStatus = "statistically significant"
		if excluded.Coefficient > 0 {
			conclusion = "excluded groups are indeed more likely to engage in armed conflict"
		} else {
			conclusion = "excluded groups are actually less likely to engage in armed conflict"
		}
	}

	fmt.Fprintf(b, "1. Effect of exclusion: coefficient is %.4f, %s (p=%.4f), with a %s direction.\n",
		excluded.Coefficient, sigStatus, excluded.PValue, direction)
	fmt.Fprintf(b, "   The odds ratio is %.4f: conflict odds for excluded groups are %.2f times those of included groups %s.\n",
		excluded.OddsRatio, excluded.OddsRatio, horizon)
	fmt.Fprintf(b, "   The average marginal effect is %+.4f on the conflict probability.\n", excluded.MarginalEffect)
	fmt.Fprintf(b, "   This means that %s %s.\n\n", conclusion, horizon)

	item := 2
	item = w.interpretModerator(b, suite, stats.TermExcludedGeo, "geographic concentration", item)
	_ = w.interpretModerator(b, suite, stats.TermExcludedUpgrade, "prior governance experience", item)
}

func (w *ReportWriter) interpretModerator(b *strings.Builder, suite *stats.ModelSuite, interaction stats.Term, label string, item int) int {
	for _, model := range suite.Models {
		e, ok := model.Estimate(interaction)
		if !ok {
			continue
		}
		if e.Significant(w.alpha) {
			effect := "weakens"
			if e.Coefficient > 0 {
				effect = "strengthens"
			}
			fmt.Fprintf(b, "%d. Moderating effect of %s: interaction coefficient is %.4f, statistically significant (p=%.4f).\n",
				item, label, e.Coefficient, e.PValue)
			fmt.Fprintf(b, "   This indicates that %s %s the effect of exclusion on conflict.\n\n", label, effect)
		} else {
			fmt.Fprintf(b, "%d. Moderating effect of %s: interaction coefficient is %.4f, but not significant (p=%.4f).\n",
				item, label, e.Coefficient, e.PValue)
			fmt.Fprintf(b, "   We cannot confirm that %s moderates the exclusion-conflict relationship.\n\n", label)
		}
		return item + 1
	}
	return item
}

func (w *ReportWriter) interpretInteraction(b *strings.Builder, summary *stats.InteractionSummary) {
	fmt.Fprintf(b, "### %s x %s (%s)\n\n", stats.TermExcluded, summary.Moderator, summary.Outcome)
	for _, effect := range summary.Effects {
		fmt.Fprintf(b, "- Exclusion effect at %s=%.0f: %.4f (odds ratio %.4f)\n",
			summary.Moderator, effect.Level, effect.Effect, effect.OddsRatio)
	}
	fmt.Fprintf(b, "- Difference between levels: %.4f (interaction p=%.4f)\n\n", summary.Difference, summary.PValue)
}

// ----------------------------------------------------------------------------

func sortedLags(byLag map[int][]stats.RateCell) []int {
	lags := make([]int, 0, len(byLag))
	for lag := range byLag {
		lags = append(lags, lag)
	}
	for i := 0; i < len(lags); i++ {
		for j := i + 1; j < len(lags); j++ {
			if lags[j] < lags[i] {
				lags[i], lags[j] = lags[j], lags[i]
			}
		}
	}
	return lags
}

func exclusionLabel(excluded bool) string {
	if excluded {
		return "Excluded"
	}
	return "Included"
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
