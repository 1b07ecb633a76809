package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"conflictlens/adapters/ingest"
	"conflictlens/adapters/stats/descriptive"
	"conflictlens/adapters/stats/logit"
	"conflictlens/app"
	"conflictlens/domain/stats"
	"conflictlens/internal/config"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "conflictlens",
		Short: "Ethnic-group exclusion and armed-conflict analysis pipeline",
		Long: `conflictlens analyzes whether politically excluded ethnic groups are
more likely to engage in armed conflict, and how geographic concentration
and prior governance experience moderate that relationship.

It loads a group-country-year panel, computes descriptive cross-tabs,
fits logistic regression models with interaction terms, and renders
charts and Markdown reports.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newDescriptivesCmd(),
		newModelsCmd(),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads env configuration, applies flag overrides, and
// silences the component log chatter unless verbose output is on.
func loadConfig(dataPath, figuresDir, resultsDir string, html, verbose bool) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if dataPath != "" {
		cfg.Data.Path = dataPath
	}
	if figuresDir != "" {
		cfg.Output.FiguresDir = figuresDir
	}
	if resultsDir != "" {
		cfg.Output.ResultsDir = resultsDir
	}
	if html {
		cfg.Output.HTML = true
	}
	if verbose {
		cfg.Output.Verbose = true
	}
	if !cfg.Output.Verbose {
		log.SetOutput(io.Discard)
	}
	return cfg, nil
}

func newAnalyzeCmd() *cobra.Command {
	var dataPath, figuresDir, resultsDir string
	var html, verbose bool

	cmd := &cobra.Command{
		Use:   "analyze [data-file]",
		Short: "Run the full analysis pipeline and write reports and figures",
		Long: `Run the one-shot batch analysis: load the panel dataset, compute
descriptive statistics, fit the current- and future-conflict model
ladders, derive conditional exclusion effects, and render all charts
and Markdown reports.

Example: conflictlens analyze data/ethnic_conflict_data.csv --results-dir output/results`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				dataPath = args[0]
			}
			cfg, err := loadConfig(dataPath, figuresDir, resultsDir, html, verbose)
			if err != nil {
				return err
			}

			service := app.NewAnalysisService(cfg)
			result, err := service.Run(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("Run %s complete in %dms: %d observations analyzed\n",
				result.RunID, result.RuntimeMs, result.Observations)
			printSuiteStatus(result.Current)
			printSuiteStatus(result.Future)
			fmt.Println("Artifacts:")
			for _, artifact := range result.Artifacts {
				if artifact.Path == "" {
					continue
				}
				fmt.Printf("  [%s] %s\n", artifact.Kind, artifact.Path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&figuresDir, "figures-dir", "", "figure output directory (overrides env)")
	cmd.Flags().StringVar(&resultsDir, "results-dir", "", "report output directory (overrides env)")
	cmd.Flags().BoolVar(&html, "html", false, "also render reports as HTML")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "log pipeline progress")
	return cmd
}

func newDescriptivesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "descriptives <data-file>",
		Short: "Compute descriptive cross-tabulations and print them as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(args[0], "", "", false, false)
			if err != nil {
				return err
			}
			dataset, err := ingest.NewDataReader(cfg.Data.Path, cfg.Model.ExcludedThreshold).Read()
			if err != nil {
				return err
			}
			descriptives, err := descriptive.NewAnalyzer().Compute(dataset, cfg.Model.LagYears)
			if err != nil {
				return err
			}
			return printJSON(descriptives)
		},
	}
	return cmd
}

func newModelsCmd() *cobra.Command {
	var outcomeName string

	cmd := &cobra.Command{
		Use:   "models <data-file>",
		Short: "Fit the logistic regression suites and print them as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(args[0], "", "", false, false)
			if err != nil {
				return err
			}
			dataset, err := ingest.NewDataReader(cfg.Data.Path, cfg.Model.ExcludedThreshold).Read()
			if err != nil {
				return err
			}

			fitter := logit.NewFitter()
			switch outcomeName {
			case "current":
				return printJSON(fitter.FitSuite(dataset, stats.OutcomeCurrentConflict))
			case "future":
				return printJSON(fitter.FitSuite(dataset, stats.OutcomeFutureConflict))
			case "all":
				return printJSON([]*stats.ModelSuite{
					fitter.FitSuite(dataset, stats.OutcomeCurrentConflict),
					fitter.FitSuite(dataset, stats.OutcomeFutureConflict),
				})
			default:
				return fmt.Errorf("unknown outcome %q (use current, future or all)", outcomeName)
			}
		},
	}

	cmd.Flags().StringVar(&outcomeName, "outcome", "all", "which model family to fit (current, future, all)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("conflictlens v0.1.0")
		},
	}
}

func printSuiteStatus(suite *stats.ModelSuite) {
	fmt.Printf("%s models: %d fitted, %d failed\n", suite.Outcome, len(suite.Models), len(suite.Failures))
	for _, failure := range suite.Failures {
		fmt.Printf("  %s failed: %s\n", failure.Name, failure.Reason)
	}
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
