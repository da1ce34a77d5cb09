// Command purchasing prints the purchasing plan for the confirmed events in a date window.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"gorm.io/gorm"

	"catering/internal/config"
	"catering/internal/db"
	"catering/internal/db/mock"
	"catering/internal/demand"
	"catering/internal/export"
	applog "catering/internal/log"
	"catering/internal/planning"
	"catering/internal/store"
)

var (
	loadConfigFunc      = config.Load
	newMockDatabaseFunc = mock.New
	openDatabaseFunc    = db.Initialize
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "purchasing failed: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	start     string
	end       string
	useMock   bool
	recursive bool
	asJSON    bool
	xlsxPath  string
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("purchasing", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.start, "start", "", "first day of the window (YYYY-MM-DD), defaults to today")
	fs.StringVar(&opts.end, "end", "", "last day of the window (YYYY-MM-DD), defaults to the planning horizon")
	fs.BoolVar(&opts.useMock, "mock", false, "plan against the in-memory demo database")
	fs.BoolVar(&opts.recursive, "recursive", false, "expand nested sub-recipes at every depth")
	fs.BoolVar(&opts.asJSON, "json", false, "print the plan as JSON")
	fs.StringVar(&opts.xlsxPath, "xlsx", "", "also write the plan as a workbook to this path")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

func run(ctx context.Context, args []string, out io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfigFunc()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := applog.SetLevel(cfg.Logging.Level); err != nil {
		return err
	}

	mode, err := demand.ParseMode(cfg.Planning.FlattenMode)
	if err != nil {
		return err
	}
	if opts.recursive {
		mode = demand.FlattenRecursive
	}

	var database *gorm.DB
	if opts.useMock || cfg.Database.UseMock {
		database, err = newMockDatabaseFunc(ctx)
	} else {
		database, err = openDatabaseFunc(cfg.Database)
	}
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	svc := planning.NewService(store.New(database), planning.Options{Mode: mode, HorizonDays: cfg.Planning.HorizonDays})
	start, end := svc.DefaultRange()
	if start, err = parseDay(opts.start, start); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if end, err = parseDay(opts.end, end); err != nil {
		return fmt.Errorf("end: %w", err)
	}

	plan, err := svc.CalculateSmartShoppingList(ctx, start, end)
	if err != nil {
		return err
	}

	if opts.xlsxPath != "" {
		if err := writeWorkbook(opts.xlsxPath, plan); err != nil {
			return fmt.Errorf("write workbook: %w", err)
		}
	}

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	}
	return printPlan(out, plan)
}

func writeWorkbook(path string, plan planning.Plan) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WritePurchasingWorkbook(f, plan); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func parseDay(value string, fallback time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	return time.Parse(time.DateOnly, value)
}

func printPlan(out io.Writer, plan planning.Plan) error {
	fmt.Fprintf(out, "Plan %s (%s) del %s al %s\n", plan.ID, plan.Mode, plan.Start.Format(time.DateOnly), plan.End.Format(time.DateOnly))
	for _, event := range plan.Events {
		fmt.Fprintf(out, "  %s  %s  %d pax\n", event.Date.Format(time.DateOnly), event.Name, event.Pax)
	}
	fmt.Fprintln(out)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIPO\tPRODUCTO\tCANTIDAD\tAPROVECHAMIENTO\tMOTIVO")
	for _, rec := range plan.Recommendations {
		fmt.Fprintf(tw, "%s\t%s\t%.3f %s\t%.0f%%\t%s\n", rec.Type, rec.ProductName, rec.QuantityToBuy, rec.Unit, rec.Score, rec.Reason)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, entry := range plan.Skipped {
		fmt.Fprintf(out, "omitido: %s: %s\n", entry.Subject, entry.Reason)
	}
	return nil
}
