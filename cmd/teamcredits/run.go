package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/teamflex/teamcredits/internal/aggregate"
	"github.com/teamflex/teamcredits/internal/analytics"
	"github.com/teamflex/teamcredits/internal/config"
	"github.com/teamflex/teamcredits/internal/dates"
	"github.com/teamflex/teamcredits/internal/fetch"
	"github.com/teamflex/teamcredits/internal/mapping"
	"github.com/teamflex/teamcredits/internal/report"
)

// analysisKind selects which reduction and report the pipeline produces.
type analysisKind int

const (
	analysisDaily analysisKind = iota
	analysisByModel
	analysisMonthly
)

type runOptions struct {
	kinds    []analysisKind
	period   dates.Range
	workers  int
	jsonFile string
	verbose  bool
}

// runReport is the one pipeline behind every report: resolve keys, fetch in
// parallel, then aggregate and render once per requested kind. Kinds sharing
// a field set share a single fetch.
func runReport(ctx context.Context, opts runOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.EnsureOutputDir(); err != nil {
		return err
	}

	client := analytics.NewClient(cfg.ServiceKey, analytics.WithBaseURL(cfg.APIBaseURL))

	keys, err := resolveKeys(ctx, client, cfg, opts.jsonFile)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		fmt.Println("No API keys found in the mapping file.")
		return nil
	}

	fmt.Printf("Period %s to %s | %d API keys | %d workers\n\n", opts.period.Start, opts.period.End, len(keys), opts.workers)

	fields := analytics.FlexFields
	if needsPromptCredits(opts.kinds) {
		fields = analytics.CreditFields
	}

	fetcher := func(ctx context.Context, apiKey string) ([]analytics.UsageRecord, error) {
		return client.FetchUsage(ctx, apiKey, opts.period.Start, opts.period.End, fields)
	}

	result := fetch.Parallel(ctx, keys, opts.workers, fetcher, func(p fetch.Progress) {
		fmt.Printf("\rProcessing users %d/%d | active %d | records %d | failed %d",
			p.Completed, p.Total, p.Active, p.Records, p.Failed)
	})
	fmt.Printf("\nDone. %d users processed, %d active, %d records, %d failed.\n\n",
		len(keys), result.ActiveUsers, len(result.Records), len(result.Failures))

	if opts.verbose {
		for _, failure := range result.Failures {
			fmt.Printf("  fetch failed for %s: %v\n", shortKey(failure.APIKey), failure.Err)
		}
	}

	if len(result.Records) == 0 {
		fmt.Println("No data retrieved for this period.")
		return nil
	}

	now := time.Now()
	for _, kind := range opts.kinds {
		if err := renderReport(kind, result.Records, opts.period, cfg.OutputDir, now); err != nil {
			return err
		}
	}
	return nil
}

func needsPromptCredits(kinds []analysisKind) bool {
	for _, kind := range kinds {
		if kind == analysisMonthly {
			return true
		}
	}
	return false
}

func renderReport(kind analysisKind, records []analytics.UsageRecord, period dates.Range, outputDir string, now time.Time) error {
	switch kind {
	case analysisDaily:
		daily, err := aggregate.ByDate(records)
		if err != nil {
			return err
		}
		if len(daily) == 0 {
			fmt.Println("No flex credits data found.")
			return nil
		}
		rows := report.DailyRows(daily)
		path := filepath.Join(outputDir, report.DailyFilename(period, now))
		if err := writeCSV(path, func(f *os.File) error { return report.WriteDailyCSV(f, rows) }); err != nil {
			return err
		}
		fmt.Println(report.RenderDailySummary(rows, period))
		fmt.Printf("Report saved: %s\n\n", path)

	case analysisByModel:
		dailyModel, err := aggregate.ByDateAndModel(records)
		if err != nil {
			return err
		}
		if len(dailyModel) == 0 {
			fmt.Println("No flex credits data found.")
			return nil
		}
		rows := report.ModelRows(dailyModel)
		path := filepath.Join(outputDir, report.ModelFilename(period, now))
		if err := writeCSV(path, func(f *os.File) error { return report.WriteModelCSV(f, rows) }); err != nil {
			return err
		}
		fmt.Println(report.RenderModelSummary(rows, period))
		fmt.Printf("Report saved: %s\n\n", path)

	case analysisMonthly:
		monthly, err := aggregate.ByMonth(records)
		if err != nil {
			return err
		}
		if len(monthly) == 0 {
			fmt.Println("No data to aggregate.")
			return nil
		}
		rows := report.MonthRows(monthly)
		path := filepath.Join(outputDir, report.MonthlyFilename(period, now))
		if err := writeCSV(path, func(f *os.File) error { return report.WriteMonthlyCSV(f, rows) }); err != nil {
			return err
		}
		fmt.Println(report.RenderMonthlySummary(rows, period))
		fmt.Printf("Report saved: %s\n\n", path)
	}
	return nil
}

func writeCSV(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing report: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing report file: %w", err)
	}
	return nil
}

// mappingSearchDirs lists where cached mapping files may live: the configured
// output directory, plus a parent-level output directory so runs launched
// from a subdirectory still find the shared cache.
func mappingSearchDirs(cfg config.Config) []string {
	dirs := []string{cfg.OutputDir}
	if parent := filepath.Join("..", "output"); parent != cfg.OutputDir {
		dirs = append(dirs, parent)
	}
	return dirs
}

// resolveKeys loads the key set from the explicit mapping file, the newest
// cached one, or by regenerating the cache from the user directory.
func resolveKeys(ctx context.Context, client *analytics.Client, cfg config.Config, jsonFile string) ([]string, error) {
	path := jsonFile
	if path == "" {
		latest, found := mapping.FindLatest(mappingSearchDirs(cfg)...)
		if !found {
			fmt.Println("No email/API-key mapping file found, generating one...")
			generated, err := mapping.Generate(ctx, client, cfg.OutputDir, time.Now())
			if err != nil {
				return nil, fmt.Errorf("generating mapping: %w", err)
			}
			fmt.Printf("Mapping saved: %s\n", generated)
			latest = generated
		}
		path = latest
	}

	fmt.Printf("Loading mapping: %s\n", path)
	keyMap, err := mapping.Load(path)
	if err != nil {
		return nil, err
	}
	return keyMap.Keys(), nil
}

func runGenerateMapping(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	client := analytics.NewClient(cfg.ServiceKey, analytics.WithBaseURL(cfg.APIBaseURL))

	path, err := mapping.Generate(ctx, client, cfg.OutputDir, time.Now())
	if err != nil {
		return err
	}
	keyMap, err := mapping.Load(path)
	if err != nil {
		return err
	}
	fmt.Printf("Mapping saved: %s (%d users)\n", path, len(keyMap))
	return nil
}

func shortKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return apiKey
	}
	return apiKey[:8] + "…"
}
