package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/johndauphine/sqlsrv-adapter/internal/driver"
	"github.com/johndauphine/sqlsrv-adapter/internal/logging"
	"github.com/johndauphine/sqlsrv-adapter/internal/progress"
)

// loadFile is the YAML document read by the load command:
//
//	fields: [name, serial]
//	types: [str, int]
//	rows:
//	  - [R2-D2, 1]
//	  - [C-3PO, ~]
type loadFile struct {
	Fields []string `yaml:"fields"`
	Types  []string `yaml:"types"`
	Rows   [][]any  `yaml:"rows"`
}

func readLoadFile(path string) (*loadFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var lf loadFile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", driver.ErrArgument, path, err)
	}
	if len(lf.Rows) == 0 {
		return nil, fmt.Errorf("%w: %s has no rows", driver.ErrArgument, path)
	}
	for i, row := range lf.Rows {
		if len(lf.Fields) > 0 && len(row) != len(lf.Fields) {
			return nil, fmt.Errorf("%w: row %d has %d values for %d fields", driver.ErrArgument, i+1, len(row), len(lf.Fields))
		}
	}
	return &lf, nil
}

func runLoad(c *cli.Context) error {
	table, err := requireArg(c, "table")
	if err != nil {
		return err
	}
	lf, err := readLoadFile(c.String("file"))
	if err != nil {
		return err
	}
	types, err := parseBindTypes(lf.Types)
	if err != nil {
		return err
	}

	cfg, adapter, err := connect(c)
	if err != nil {
		return err
	}
	defer adapter.Close()

	target := adapter.EscapeIdentifier(cfg.Schema, table)
	total := int64(len(lf.Rows))

	var reporter progress.Reporter = &progress.NullReporter{}
	var tracker *progress.Tracker
	switch c.String("progress") {
	case "json":
		reporter = progress.NewJSONReporter(os.Stderr, time.Second)
		tracker = progress.New(io.Discard, table, total)
	case "bar":
		tracker = progress.New(os.Stderr, table, total)
	case "none":
		tracker = progress.New(io.Discard, table, total)
	default:
		return fmt.Errorf("%w: unknown progress mode %q (use bar, json or none)", driver.ErrArgument, c.String("progress"))
	}
	defer reporter.Close()

	reporter.ReportImmediate(tracker.Update("start"))
	insertRows := func(ctx context.Context) error {
		for i, row := range lf.Rows {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := adapter.Insert(ctx, target, row, lf.Fields, types); err != nil {
				return fmt.Errorf("row %d: %w", i+1, err)
			}
			tracker.Add(1)
			reporter.Report(tracker.Update("loading"))
		}
		return nil
	}

	if c.Bool("no-tx") {
		err = insertRows(c.Context)
	} else {
		err = adapter.WithTransaction(c.Context, insertRows)
	}
	if err != nil {
		u := tracker.Update("failed")
		u.Error = err.Error()
		reporter.ReportImmediate(u)
		return err
	}
	tracker.Finish()
	reporter.ReportImmediate(tracker.Update("done"))

	logging.Debug("session %s loaded %d rows into %s", adapter.ID(), tracker.Current(), target)
	fmt.Println(styleSuccess.Render(fmt.Sprintf("%d row(s) loaded into %s", tracker.Current(), target)))
	return nil
}
