package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/sweep/internal/output"
	"github.com/panbanda/sweep/internal/service/analysis"
)

func cacheCmd() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear the result cache",
		Subcommands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show cache statistics",
				Action: runCacheStats,
			},
			{
				Name:      "clear",
				Usage:     "Remove cached results for the given indexes, or all of them",
				ArgsUsage: "[index...]",
				Action:    runCacheClear,
			},
		},
	}
}

func runCacheStats(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	resultCache, err := openCache(cfg)
	if err != nil {
		return err
	}
	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if !resultCache.Enabled() {
		formatter.Info("Cache is disabled")
		return nil
	}

	stats, err := resultCache.GetStats()
	if err != nil {
		return err
	}
	table := output.NewTable(
		"Cache: "+cfg.Cache.Dir,
		[]string{"Entries", "Size", "Oldest", "Newest"},
		[][]string{{
			fmt.Sprintf("%d", stats.Entries),
			fmt.Sprintf("%d B", stats.TotalSize),
			stats.OldestAge.Round(time.Second).String(),
			stats.NewestAge.Round(time.Second).String(),
		}},
		nil,
		stats,
	)
	return formatter.Output(table)
}

func runCacheClear(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	// Clearing ignores --no-cache.
	cfg.Cache.Enabled = true
	resultCache, err := openCache(cfg)
	if err != nil {
		return err
	}
	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if c.NArg() > 0 {
		svc := analysis.New(analysis.WithConfig(cfg), analysis.WithCache(resultCache))
		for _, path := range c.Args().Slice() {
			if err := svc.Forget(path); err != nil {
				return fmt.Errorf("failed to clear %s: %w", path, err)
			}
			formatter.Success("Cleared cached results for %s", path)
		}
		return nil
	}

	if err := resultCache.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	formatter.Success("Cleared %s", cfg.Cache.Dir)
	return nil
}
