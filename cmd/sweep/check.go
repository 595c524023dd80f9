package main

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/sweep/internal/output"
	"github.com/panbanda/sweep/internal/service/analysis"
)

func checkCmd() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Validate index dumps without scanning them",
		ArgsUsage: "<index...>",
		Action:    runCheckCmd,
	}
}

func runCheckCmd(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("check requires at least one index path")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	svc := analysis.New(analysis.WithConfig(cfg))

	var summaries []*analysis.Summary
	var failed int
	for _, path := range c.Args().Slice() {
		summary, err := svc.Check(path)
		if err != nil {
			failed++
			formatter.Error("%v", err)
			continue
		}
		summaries = append(summaries, summary)
	}

	if len(summaries) > 0 {
		rows := make([][]string, len(summaries))
		for i, s := range summaries {
			rows[i] = []string{
				s.Path,
				strconv.Itoa(s.Files),
				strconv.Itoa(s.Declarations),
				strconv.Itoa(s.References),
				strconv.Itoa(s.Symbols),
			}
		}
		table := output.NewTable(
			"Valid Indexes",
			[]string{"Index", "Files", "Declarations", "References", "Symbols"},
			rows,
			nil,
			summaries,
		)
		if err := formatter.Output(table); err != nil {
			return err
		}
	}

	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d indexes are invalid", failed, c.NArg()), 1)
	}
	return nil
}
