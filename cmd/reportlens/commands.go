package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"reportlens/internal"
	"reportlens/internal/analytics"
	"reportlens/internal/report"
	"reportlens/internal/snapshots"
)

// AnalyzeCommand prints the text report of each export and writes the other
// formats to the output directory.
type AnalyzeCommand struct{}

func (c *AnalyzeCommand) Name() string { return "analyze" }
func (c *AnalyzeCommand) Description() string {
	return "Prints the report of one or more exports and writes JSON, YAML and CSV files"
}

func (c *AnalyzeCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	outDir := fs.String("out", app.Config.OutputDirectory, "directory receiving the report files")
	noFiles := fs.Bool("no-files", false, "only print the text report")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("usage: %s [-out dir] [-no-files] <export.csv>...", c.Name())
	}

	var failed []string
	for _, res := range app.Analyzer.AnalyzeFiles(ctx, fs.Args()) {
		if res.Err != nil {
			app.Logger.Error(res.Err.Error())
			failed = append(failed, res.Name)
			continue
		}

		analysis := res.Data
		if err := report.WriteText(stdout, analysis.Record.Metadata, analysis.Summary); err != nil {
			return err
		}
		if *noFiles {
			continue
		}

		paths, err := report.WriteAll(*outDir, report.BaseName(res.Name), analysis.Envelope(true))
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintf(stdout, "wrote %s\n", p)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("failed to analyze %s", strings.Join(failed, ", "))
	}
	return nil
}

// ImportCommand archives exports as snapshots
type ImportCommand struct{}

func (c *ImportCommand) Name() string        { return "import" }
func (c *ImportCommand) Description() string { return "Archives one or more exports as snapshots" }

func (c *ImportCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: %s <export.csv>...", c.Name())
	}

	var failed []string
	for _, res := range app.Analyzer.AnalyzeFiles(ctx, args) {
		if res.Err != nil {
			app.Logger.Error(res.Err.Error())
			failed = append(failed, res.Name)
			continue
		}

		snap, err := app.Analyzer.Import(app.DBManager, res.Data)
		var dup *snapshots.DuplicateSnapshotError
		switch {
		case errors.As(err, &dup):
			fmt.Fprintf(stdout, "%s: already archived as %s\n", res.Name, dup.Existing.PublicID)
		case err != nil:
			app.Logger.Error(err.Error())
			failed = append(failed, res.Name)
		default:
			fmt.Fprintf(stdout, "%s: archived as %s (%s %s..%s)\n",
				res.Name, snap.PublicID, snap.Property, snap.StartDate, snap.EndDate)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("failed to import %s", strings.Join(failed, ", "))
	}
	return nil
}

// CompareCommand compares an export with the previous archived period
type CompareCommand struct{}

func (c *CompareCommand) Name() string { return "compare" }
func (c *CompareCommand) Description() string {
	return "Compares an export with the previous archived period of its property"
}

func (c *CompareCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s <export.csv>", c.Name())
	}

	analysis, err := app.Analyzer.AnalyzeFile(args[0])
	if err != nil {
		return err
	}
	cmp, err := app.Analyzer.Compare(app.DBManager, analysis)
	if err != nil {
		return err
	}
	if cmp.Previous == nil {
		fmt.Fprintf(stdout, "No earlier snapshot of %q to compare with\n", analysis.Record.Metadata.Property)
		return nil
	}

	fmt.Fprintf(stdout, "Compared with %s (%s..%s)\n", cmp.Previous.PublicID, cmp.Previous.StartDate, cmp.Previous.EndDate)
	printChange("Active users", cmp.Metrics.ActiveUsersChange)
	printChange("New users", cmp.Metrics.NewUsersChange)
	printChange("Pageviews", cmp.Metrics.PageviewsChange)
	printChange("Events", cmp.Metrics.EventsChange)
	printChange("Avg engagement", cmp.Metrics.AvgEngagementChange)
	printChange("Revenue", cmp.Metrics.RevenueChange)
	return nil
}

func printChange(label string, change *float64) {
	if change == nil {
		fmt.Fprintf(stdout, "  %-15s %s\n", label, analytics.NotAvailable)
		return
	}
	fmt.Fprintf(stdout, "  %-15s %+.2f%%\n", label, *change)
}

// SnapshotsCommand lists archived snapshots
type SnapshotsCommand struct{}

func (c *SnapshotsCommand) Name() string        { return "snapshots" }
func (c *SnapshotsCommand) Description() string { return "Lists archived snapshots, optionally for one property" }

func (c *SnapshotsCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	limit := fs.Int("limit", snapshots.DefaultListLimit, "maximum number of snapshots")
	if err := fs.Parse(args); err != nil {
		return err
	}

	list, err := snapshots.List(app.DBManager.GetConnection(), fs.Arg(0), *limit)
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}
	if len(list) == 0 {
		fmt.Fprintln(stdout, "No snapshots archived")
		return nil
	}
	for _, s := range list {
		fmt.Fprintf(stdout, "%s  %-10s %-10s  %s  %s\n", s.PublicID, s.StartDate, s.EndDate, s.Property, s.Source)
	}
	return nil
}

// MigrateCommand runs database migrations
type MigrateCommand struct{}

func (c *MigrateCommand) Name() string        { return "migrate" }
func (c *MigrateCommand) Description() string { return "Runs database migrations" }

func (c *MigrateCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if err := app.DBManager.MigrateDatabase(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	fmt.Fprintln(stdout, "Migrations completed successfully")
	return nil
}

// ServeCommand runs the HTTP API and the background jobs
type ServeCommand struct{}

func (c *ServeCommand) Name() string        { return "serve" }
func (c *ServeCommand) Description() string { return "Serves the HTTP API and runs the background jobs" }

func (c *ServeCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	return app.Serve(ctx)
}

// WatchCommand runs the inbox import and cleanup jobs without the HTTP API
type WatchCommand struct{}

func (c *WatchCommand) Name() string        { return "watch" }
func (c *WatchCommand) Description() string { return "Imports exports dropped into the inbox directory" }

func (c *WatchCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fmt.Fprintf(stdout, "Watching %s\n", app.Config.InboxDirectory)
	return app.Watch(ctx)
}

// HelpCommand implements a command to show usage information
type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "Shows usage information" }

func (c *HelpCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	printUsage(stdout)
	return nil
}
