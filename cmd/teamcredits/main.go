package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/teamflex/teamcredits/internal/appupdate"
	"github.com/teamflex/teamcredits/internal/config"
	"github.com/teamflex/teamcredits/internal/dates"
	"github.com/teamflex/teamcredits/internal/fetch"
	"github.com/teamflex/teamcredits/internal/mapping"
	"github.com/teamflex/teamcredits/internal/version"
	"github.com/teamflex/teamcredits/internal/wizard"
)

func main() {
	if os.Getenv("TEAMCREDITS_DEBUG") != "" {
		log.SetOutput(os.Stderr)
	} else {
		log.SetOutput(io.Discard)
	}

	root := &cobra.Command{
		Use:   "teamcredits",
		Short: "teamcredits reports the team's flex and prompt credit usage.",
		Long: "teamcredits queries the analytics API for every known API key in " +
			"parallel, aggregates usage credits, and writes CSV reports plus a " +
			"console summary. Run it without a subcommand for the interactive menu.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWizard(cmd.Context())
		},
	}

	root.AddCommand(newDailyCommand())
	root.AddCommand(newByModelCommand())
	root.AddCommand(newMonthlyCommand())
	root.AddCommand(newGenerateMappingCommand())
	root.AddCommand(newVersionCommand())

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// periodFlags is the date-range flag set shared by the report subcommands.
type periodFlags struct {
	year       int
	month      int
	startMonth int
	endMonth   int
	startDate  string
	endDate    string
}

func (f *periodFlags) register(cmd *cobra.Command, withSpan bool) {
	cmd.Flags().IntVar(&f.year, "year", 0, "reporting year (e.g. 2025)")
	if withSpan {
		cmd.Flags().IntVar(&f.startMonth, "start-month", 0, "first month of the span (1-12)")
		cmd.Flags().IntVar(&f.endMonth, "end-month", 0, "last month of the span (1-12)")
	} else {
		cmd.Flags().IntVar(&f.month, "month", 0, "reporting month (1-12)")
	}
	cmd.Flags().StringVar(&f.startDate, "start-date", "", "start date YYYY-MM-DD")
	cmd.Flags().StringVar(&f.endDate, "end-date", "", "end date YYYY-MM-DD")
}

func (f *periodFlags) resolve(withSpan bool) (dates.Range, error) {
	switch {
	case f.startDate != "" && f.endDate != "":
		start, err := dates.Parse(f.startDate)
		if err != nil {
			return dates.Range{}, err
		}
		end, err := dates.Parse(f.endDate)
		if err != nil {
			return dates.Range{}, err
		}
		if end < start {
			return dates.Range{}, fmt.Errorf("end date must not be before start date")
		}
		return dates.Range{Start: start, End: end}, nil
	case withSpan && f.year != 0 && f.startMonth != 0 && f.endMonth != 0:
		return dates.SpanRange(f.year, f.startMonth, f.endMonth)
	case !withSpan && f.year != 0 && f.month != 0:
		return dates.MonthRange(f.year, f.month)
	}
	if withSpan {
		return dates.Range{}, fmt.Errorf("provide --start-date/--end-date or --year/--start-month/--end-month")
	}
	return dates.Range{}, fmt.Errorf("provide --start-date/--end-date or --year/--month")
}

func addRunFlags(cmd *cobra.Command, workers *int, jsonFile *string, verbose *bool) {
	cmd.Flags().IntVar(workers, "workers", fetch.DefaultWorkers, "parallel fetch workers")
	cmd.Flags().StringVar(jsonFile, "json-file", "", "path to an email/API-key mapping file")
	cmd.Flags().BoolVar(verbose, "verbose", false, "print per-key fetch failure reasons")
}

func newDailyCommand() *cobra.Command {
	var (
		period   periodFlags
		workers  int
		jsonFile string
		verbose  bool
	)
	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Daily flex credit totals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := period.resolve(false)
			if err != nil {
				return err
			}
			return runReport(cmd.Context(), runOptions{
				kinds:    []analysisKind{analysisDaily},
				period:   r,
				workers:  workers,
				jsonFile: jsonFile,
				verbose:  verbose,
			})
		},
	}
	period.register(cmd, false)
	addRunFlags(cmd, &workers, &jsonFile, &verbose)
	return cmd
}

func newByModelCommand() *cobra.Command {
	var (
		period   periodFlags
		workers  int
		jsonFile string
		verbose  bool
	)
	cmd := &cobra.Command{
		Use:   "by-model",
		Short: "Daily flex credits broken down per language model",
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := period.resolve(false)
			if err != nil {
				return err
			}
			return runReport(cmd.Context(), runOptions{
				kinds:    []analysisKind{analysisByModel},
				period:   r,
				workers:  workers,
				jsonFile: jsonFile,
				verbose:  verbose,
			})
		},
	}
	period.register(cmd, false)
	addRunFlags(cmd, &workers, &jsonFile, &verbose)
	return cmd
}

func newMonthlyCommand() *cobra.Command {
	var (
		period   periodFlags
		workers  int
		jsonFile string
		verbose  bool
	)
	cmd := &cobra.Command{
		Use:   "monthly",
		Short: "Flex and prompt credits aggregated by month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := period.resolve(true)
			if err != nil {
				return err
			}
			return runReport(cmd.Context(), runOptions{
				kinds:    []analysisKind{analysisMonthly},
				period:   r,
				workers:  workers,
				jsonFile: jsonFile,
				verbose:  verbose,
			})
		},
	}
	period.register(cmd, true)
	addRunFlags(cmd, &workers, &jsonFile, &verbose)
	return cmd
}

func newGenerateMappingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "generate-mapping",
		Short: "Rebuild the email/API-key mapping cache from the user directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerateMapping(cmd.Context())
		},
	}
}

func newVersionCommand() *cobra.Command {
	var checkUpdate bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Println("teamcredits " + version.String())
			if !checkUpdate {
				return nil
			}
			result, err := appupdate.Check(cmd.Context(), appupdate.CheckOptions{
				CurrentVersion: version.Version,
			})
			if err != nil {
				return fmt.Errorf("update check: %w", err)
			}
			if result.UpdateAvailable {
				fmt.Printf("Update available: %s (current %s)\n", result.LatestVersion, result.CurrentVersion)
				fmt.Println("Upgrade with: " + result.UpgradeHint)
			} else {
				fmt.Println("You are up to date.")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&checkUpdate, "check-update", false, "check GitHub for a newer release")
	return cmd
}

func runWizard(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	selection, err := wizard.Run(time.Now(), mapping.List(mappingSearchDirs(cfg)...))
	if err != nil {
		return err
	}
	if !selection.Confirmed {
		fmt.Println("Cancelled.")
		return nil
	}

	return runReport(ctx, wizardRunOptions(selection))
}

// wizardRunOptions translates a confirmed wizard selection into pipeline
// options. Interactive runs always print per-key failure reasons since there
// is no flag to ask for them.
func wizardRunOptions(selection wizard.Selection) runOptions {
	var kinds []analysisKind
	switch selection.Kind {
	case wizard.KindDaily:
		kinds = []analysisKind{analysisDaily}
	case wizard.KindByModel:
		kinds = []analysisKind{analysisByModel}
	case wizard.KindMonthly:
		kinds = []analysisKind{analysisMonthly}
	case wizard.KindBoth:
		kinds = []analysisKind{analysisDaily, analysisByModel}
	}

	return runOptions{
		kinds:    kinds,
		period:   selection.Period,
		workers:  selection.Workers,
		jsonFile: selection.MappingFile,
		verbose:  true,
	}
}
