package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/flanksource/commons/logger"
	"github.com/spf13/cobra"

	"github.com/brel-ge/kcfg-vex/cve"
	"github.com/brel-ge/kcfg-vex/internal/cache"
)

var (
	fetchOutdir       string
	fetchForceRefresh bool
)

var cveFetchCmd = &cobra.Command{
	Use:   "cve-fetch <id>...",
	Short: "Fetch one or more advisories and write them as per-id JSON files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCveFetch,
}

func init() {
	cveFetchCmd.Flags().StringVar(&fetchOutdir, "outdir", ".", "directory to write <id>.json files into")
	cveFetchCmd.Flags().BoolVar(&fetchForceRefresh, "force-refresh", false, "bypass the cache and refetch")
}

func runCveFetch(cmd *cobra.Command, ids []string) error {
	dir, err := resolveCacheDir()
	if err != nil {
		return err
	}
	advisoryCache, err := cache.NewAdvisoryCache(dir)
	if err != nil {
		return err
	}
	defer advisoryCache.Close()

	fetcher := cve.NewFetcher(advisoryCache)

	if err := os.MkdirAll(fetchOutdir, 0755); err != nil {
		return fmt.Errorf("failed to create outdir %s: %w", fetchOutdir, err)
	}

	ctx := context.Background()
	for _, id := range ids {
		doc, err := fetcher.Fetch(ctx, id, fetchForceRefresh)
		if err != nil {
			logger.Errorf("failed to fetch %s: %v", id, err)
			continue
		}
		outPath := filepath.Join(fetchOutdir, id+".json")
		if err := os.WriteFile(outPath, []byte(doc), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", outPath, err)
		}
		if !quiet {
			logger.Infof("wrote %s", outPath)
		}
	}
	return nil
}
