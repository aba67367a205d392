package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/flanksource/commons/logger"
	"github.com/spf13/cobra"

	"github.com/brel-ge/kcfg-vex/cve"
	"github.com/brel-ge/kcfg-vex/internal/cache"
	"github.com/brel-ge/kcfg-vex/internal/gitinfo"
	"github.com/brel-ge/kcfg-vex/internal/report"
	"github.com/brel-ge/kcfg-vex/kernel"
	"github.com/brel-ge/kcfg-vex/models"
)

var (
	scanDotConfig      string
	scanSBOM           string
	scanVexOut         string
	scanConfigOut      string
	scanForceRefresh   bool
	scanCacheOnly      bool
	scanWorkers        int
	scanFilter         string
	scanReportMarkdown string
	scanReportHTML     string
)

var yoctoScanCmd = &cobra.Command{
	Use:   "yocto-scan <summary.json> <linux-src>",
	Short: "Trace every advisory in a summary against a kernel source tree and emit VEX verdicts",
	Args:  cobra.ExactArgs(2),
	RunE:  runYoctoScan,
}

func init() {
	yoctoScanCmd.Flags().StringVar(&scanDotConfig, "dotconfig", "", "kernel .config file used to resolve affected vs not_affected")
	yoctoScanCmd.Flags().StringVar(&scanSBOM, "sbom", "", "CycloneDX SBOM used to identify the scanned kernel component")
	yoctoScanCmd.Flags().StringVar(&scanVexOut, "vex-out", ".", "output directory for the vex_<state>.json shard files")
	yoctoScanCmd.Flags().StringVar(&scanConfigOut, "config-out", "", "output path for the sorted <cve-id> <config-symbol> pair file")
	yoctoScanCmd.Flags().BoolVar(&scanForceRefresh, "force-refresh", false, "bypass the advisory cache and refetch")
	yoctoScanCmd.Flags().BoolVar(&scanCacheOnly, "cache-only", false, "never hit the network; treat uncached advisories as not found")
	yoctoScanCmd.Flags().IntVar(&scanWorkers, "workers", 0, "advisory worker pool size (default: runtime.NumCPU())")
	yoctoScanCmd.Flags().StringVar(&scanFilter, "filter", "", "CEL expression over id/status/product to select which summary issues to trace")
	yoctoScanCmd.Flags().StringVar(&scanReportMarkdown, "report-markdown", "", "write a Markdown verdict report to this path")
	yoctoScanCmd.Flags().StringVar(&scanReportHTML, "report-html", "", "write an HTML verdict report to this path")
}

func runYoctoScan(cmd *cobra.Command, args []string) error {
	summaryPath, srcRoot := args[0], args[1]

	summaryRaw, err := os.ReadFile(summaryPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", summaryPath, err)
	}

	ingest, err := cve.IngestSummary(summaryRaw, scanFilter)
	if err != nil {
		return fmt.Errorf("failed to ingest summary: %w", err)
	}
	if !quiet {
		logger.Infof("summary: %d to trace, %d already patched", len(ingest.ToTrace), len(ingest.Patched))
	}

	var dotConfig *kernel.DotConfig
	if scanDotConfig != "" {
		dotConfig, err = kernel.LoadDotConfig(scanDotConfig)
		if err != nil {
			return fmt.Errorf("failed to load dotconfig: %w", err)
		}
	}

	var kernelRefs []cve.KernelRef
	if scanSBOM != "" {
		sbomRaw, err := os.ReadFile(scanSBOM)
		if err != nil {
			return fmt.Errorf("failed to read sbom: %w", err)
		}
		kernelRefs, err = cve.ParseSBOM(sbomRaw)
		if err != nil {
			return fmt.Errorf("failed to parse sbom: %w", err)
		}
	}

	dir, err := resolveCacheDir()
	if err != nil {
		return err
	}
	advisoryCache, err := cache.NewAdvisoryCache(dir)
	if err != nil {
		return err
	}
	defer advisoryCache.Close()

	fetcher := cve.NewFetcher(advisoryCache, cve.WithCacheOnly(scanCacheOnly))

	workers := scanWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	verdicts := scanAdvisories(ingest.ToTrace, srcRoot, dotConfig, fetcher, workers)

	headCommit, hasHead := gitinfo.HeadCommit(srcRoot)
	if hasHead && !quiet {
		logger.Infof("kernel source tree HEAD: %s", headCommit)
	}

	if kv, err := kernel.DetectVersion(srcRoot); err == nil && !quiet {
		logger.Infof("kernel version: %s", kv.String())
		if !kernel.IsAtLeastMinSupported(kv) {
			logger.Warnf("kernel %s predates %s; Makefile shapes may be unrecognized", kv.String(), kernel.MinSupportedVersion)
		}
	}

	if err := os.MkdirAll(scanVexOut, 0755); err != nil {
		return fmt.Errorf("failed to create vex-out directory %s: %w", scanVexOut, err)
	}
	buildOpts := cve.BuildOptions{Now: time.Now()}
	if err := cve.WriteVexShards(scanVexOut, verdicts, kernelRefs, buildOpts); err != nil {
		return fmt.Errorf("failed to write vex output: %w", err)
	}

	if scanConfigOut != "" {
		if err := writeConfigPairs(scanConfigOut, verdicts); err != nil {
			return err
		}
	}

	if !quiet {
		report.PrintTerminalSummary(os.Stdout, verdicts)
	}

	if scanReportMarkdown != "" {
		md, err := report.RenderMarkdown(verdicts)
		if err != nil {
			return err
		}
		if err := os.WriteFile(scanReportMarkdown, []byte(md), 0644); err != nil {
			return fmt.Errorf("failed to write markdown report: %w", err)
		}
	}

	if scanReportHTML != "" {
		html, err := report.RenderHTML(verdicts, nil)
		if err != nil {
			return err
		}
		if err := os.WriteFile(scanReportHTML, []byte(html), 0644); err != nil {
			return fmt.Errorf("failed to write html report: %w", err)
		}
	}

	return nil
}

// scanAdvisories fetches, traces, and derives a verdict for each advisory id
// using a bounded worker pool sized to workers (SPEC_FULL.md §5: plain
// buffered channel + sync.WaitGroup, matching the teacher's preference for
// explicit concurrency primitives in its own CPU-bound paths).
func scanAdvisories(ids []string, srcRoot string, dotConfig *kernel.DotConfig, fetcher *cve.Fetcher, workers int) []models.Verdict {
	jobs := make(chan string, len(ids))
	for _, id := range ids {
		jobs <- id
	}
	close(jobs)

	results := make(chan models.Verdict, len(ids))
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := context.Background()
			for id := range jobs {
				results <- scanOne(ctx, id, srcRoot, dotConfig, fetcher)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	verdicts := make([]models.Verdict, 0, len(ids))
	for v := range results {
		verdicts = append(verdicts, v)
	}
	sort.Slice(verdicts, func(i, j int) bool { return verdicts[i].AdvisoryID < verdicts[j].AdvisoryID })
	return verdicts
}

func scanOne(ctx context.Context, id, srcRoot string, dotConfig *kernel.DotConfig, fetcher *cve.Fetcher) models.Verdict {
	doc, err := fetcher.Fetch(ctx, id, scanForceRefresh)
	if err != nil {
		return models.Verdict{AdvisoryID: id, State: models.StateUnderInvestigation, Detail: err.Error()}
	}

	files, err := cve.ExtractProgramFiles([]byte(doc))
	if err != nil {
		return models.Verdict{AdvisoryID: id, State: models.StateUnderInvestigation, Detail: err.Error()}
	}

	var results []models.TraceResult
	for _, f := range files {
		results = append(results, kernel.Trace(f, srcRoot))
	}
	union := cve.UnionSymbols(results...)

	isEnabled := dotConfig != nil && dotConfig.IntersectsAny(union, true)
	return cve.DeriveVerdict(id, union, isEnabled)
}

func writeConfigPairs(path string, verdicts []models.Verdict) error {
	var lines []string
	for _, v := range verdicts {
		for _, sym := range v.Symbols {
			lines = append(lines, v.AdvisoryID+" "+sym)
		}
	}
	sort.Strings(lines)
	return os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644)
}
