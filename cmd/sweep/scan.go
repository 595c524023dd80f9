package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/sweep/internal/service/analysis"
	"github.com/panbanda/sweep/pkg/config"
	"github.com/panbanda/sweep/pkg/watch"
)

// passNames are the values accepted by --disable.
var passNames = []string{"assign-only", "redundant-protocol", "redundant-public", "unused-imports"}

func scanCmd() *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Usage:     "Report unused code in an index dump",
		ArgsUsage: "<index>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "retain-public",
				Usage: "Treat public and open declarations as used",
			},
			&cli.BoolFlag{
				Name:  "retain-objc-accessible",
				Usage: "Treat declarations exposed to the Objective-C runtime as used",
			},
			&cli.BoolFlag{
				Name:  "retain-assign-only-properties",
				Usage: "Do not report properties that are only assigned",
			},
			&cli.StringSliceFlag{
				Name:  "retain-unused-imported-modules",
				Usage: "Modules whose imports are never reported as unused",
			},
			&cli.StringSliceFlag{
				Name:  "retain-names",
				Usage: "Name patterns of declarations to treat as used (e.g. 'test*')",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Gitignore-style patterns of files whose declarations are not reported",
			},
			&cli.StringSliceFlag{
				Name:  "disable",
				Usage: "Passes to skip: assign-only, redundant-protocol, redundant-public, unused-imports",
			},
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "Exit with status 1 when anything is reported",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Hide progress output",
			},
			&cli.BoolFlag{
				Name:    "watch",
				Aliases: []string{"w"},
				Usage:   "Re-run the scan whenever the index or config file changes",
			},
			&cli.DurationFlag{
				Name:  "debounce",
				Value: watch.DefaultDebounce,
				Usage: "How long the index must be unchanged before a rescan",
			},
		},
		Action: runScanCmd,
	}
}

func runScanCmd(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("scan requires exactly one index path")
	}
	path := c.Args().First()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if c.Bool("watch") {
		return watchScan(ctx, c, path)
	}

	n, err := scanOnce(ctx, c, path)
	if err != nil {
		return err
	}
	if c.Bool("strict") && n > 0 {
		return cli.Exit(fmt.Sprintf("%d results found", n), 1)
	}
	return nil
}

// scanConfig loads the configuration and applies the scan flags to it.
func scanConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	r := &cfg.Retention
	r.Public = r.Public || c.Bool("retain-public")
	r.ObjcAccessible = r.ObjcAccessible || c.Bool("retain-objc-accessible")
	r.AssignOnlyProperties = r.AssignOnlyProperties || c.Bool("retain-assign-only-properties")
	r.UnusedImportedModules = append(r.UnusedImportedModules, c.StringSlice("retain-unused-imported-modules")...)
	r.Names = append(r.Names, c.StringSlice("retain-names")...)
	cfg.Report.Exclude = append(cfg.Report.Exclude, c.StringSlice("exclude")...)

	for _, pass := range c.StringSlice("disable") {
		switch pass {
		case "assign-only":
			cfg.Analysis.AssignOnly = false
		case "redundant-protocol":
			cfg.Analysis.RedundantProtocol = false
		case "redundant-public":
			cfg.Analysis.RedundantPublic = false
		case "unused-imports":
			cfg.Analysis.UnusedImports = false
		default:
			return nil, fmt.Errorf("--disable: unknown pass %q (want one of %v)", pass, passNames)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// scanOnce runs one scan and writes its results. It returns the number of
// results written.
func scanOnce(ctx context.Context, c *cli.Context, path string) (int, error) {
	cfg, err := scanConfig(c)
	if err != nil {
		return 0, err
	}
	resultCache, err := openCache(cfg)
	if err != nil {
		return 0, err
	}

	svc := analysis.New(analysis.WithConfig(cfg), analysis.WithCache(resultCache))
	result, err := svc.Scan(ctx, path, analysis.ScanOptions{
		NoCache:  c.Bool("no-cache"),
		Progress: !c.Bool("quiet"),
	})
	if err != nil {
		return 0, err
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return 0, err
	}
	defer formatter.Close()

	if err := formatter.Results(result.Records); err != nil {
		return 0, err
	}

	// Diagnostics go to stderr so machine-readable output stays clean.
	for _, pe := range result.ImportErrors.Sorted() {
		fmt.Fprintln(os.Stderr, color.YellowString("Skipped imports in %s", pe.Error()))
	}
	if cfg.Output.Verbose {
		printStats(result)
	}
	return len(result.Records), nil
}

func printStats(result *analysis.Outcome) {
	if result.Cached {
		fmt.Fprintln(os.Stderr, color.CyanString("Results served from cache"))
		return
	}
	s := result.Stats
	fmt.Fprintln(os.Stderr, color.CyanString(
		"%d declarations, %d references, %d files: %d roots, %d reachable, %d unreachable (%s)",
		s.Declarations, s.References, s.Files, s.Roots, s.Reachable, s.Unreachable,
		s.Duration.Round(time.Millisecond)))
}

// watchScan scans once and then again whenever the index or config changes.
// Errors from individual scans are printed and do not stop the watcher.
func watchScan(ctx context.Context, c *cli.Context, path string) error {
	files := []string{path}
	if cfgPath := c.String("config"); cfgPath != "" {
		files = append(files, cfgPath)
	} else if found := config.Find(); found != "" {
		files = append(files, found)
	}

	watcher, err := watch.NewWatcher(slices.Compact(files), c.Duration("debounce"))
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Stop()

	errOut := c.App.ErrWriter
	rescan := func(string) {
		if _, err := scanOnce(ctx, c, path); err != nil {
			fmt.Fprintln(errOut, color.RedString("Scan failed: %v", err))
		}
	}
	watcher.SetCallback(rescan)
	watcher.SetQuiet(c.Bool("quiet"))
	watcher.SetOutput(errOut)
	rescan(path)

	err = watcher.Start(ctx)
	if ctx.Err() != nil {
		fmt.Fprintln(errOut, "\nStopping watch...")
		return nil
	}
	return err
}
