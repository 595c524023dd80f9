package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/sweep/internal/output"
	"github.com/panbanda/sweep/internal/service/analysis"
	"github.com/panbanda/sweep/pkg/analyzer/reachability"
)

// retentionStep is one declaration of an explained retention path.
type retentionStep struct {
	Name     string `json:"name" toon:"name"`
	Kind     string `json:"kind" toon:"kind"`
	USR      string `json:"usr" toon:"usr"`
	Location string `json:"location" toon:"location"`
}

type explanation struct {
	USR      string          `json:"usr" toon:"usr"`
	Retained bool            `json:"retained" toon:"retained"`
	Path     []retentionStep `json:"path" toon:"path"`
}

func explainCmd() *cli.Command {
	return &cli.Command{
		Name:      "explain",
		Usage:     "Show why a declaration is not reported as unused",
		ArgsUsage: "<index> <usr>",
		Description: `Prints the shortest chain of declarations from a root to the declaration
with the given USR. The first entry is kept by a retention rule, and each
following entry is referenced by the one before it, is its parent, or
overrides it.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "retain-public",
				Usage: "Treat public and open declarations as used",
			},
			&cli.BoolFlag{
				Name:  "retain-objc-accessible",
				Usage: "Treat declarations exposed to the Objective-C runtime as used",
			},
		},
		Action: runExplainCmd,
	}
}

func runExplainCmd(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("explain requires an index path and a USR")
	}
	path, usr := c.Args().Get(0), c.Args().Get(1)

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	cfg.Retention.Public = cfg.Retention.Public || c.Bool("retain-public")
	cfg.Retention.ObjcAccessible = cfg.Retention.ObjcAccessible || c.Bool("retain-objc-accessible")

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	svc := analysis.New(analysis.WithConfig(cfg))
	exp, err := svc.Explain(context.Background(), path, usr)
	if errors.Is(err, reachability.ErrNotRetained) {
		if isStructured(formatter.Format()) {
			return formatter.Output(explanation{USR: usr, Path: []retentionStep{}})
		}
		formatter.Warning("%s is not retained and is reported as unused", usr)
		return nil
	}
	if err != nil {
		return err
	}

	data := explanation{USR: usr, Retained: true}
	var lines []string
	for i, d := range exp.Path {
		step := retentionStep{Name: d.Name, Kind: string(d.Kind), Location: d.Location.String()}
		if len(d.USRs) > 0 {
			step.USR = d.USRs[0]
		}
		data.Path = append(data.Path, step)
		lines = append(lines, fmt.Sprintf("%d. %s %s  %s", i+1, step.Kind, step.Name, step.Location))
	}

	return formatter.Output(&output.Section{
		Title:   "Retention path for " + exp.Target.Name,
		Content: strings.Join(lines, "\n"),
		Data:    data,
	})
}

// isStructured reports whether f is a machine-readable format.
func isStructured(f output.Format) bool {
	return f == output.FormatJSON || f == output.FormatTOON
}
