package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"sector-insights/internal/bootstrap"
	"sector-insights/internal/report"
	"sector-insights/internal/selection"
	"sector-insights/internal/trace"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes one insight run and returns the process exit code: 1 for
// usage or setup errors, 2 when the run or any panel failed
func run(args []string) int {
	fs := flag.NewFlagSet("insight", flag.ContinueOnError)
	configPath := fs.String("config", "config.yaml", "path to config file")
	symbol := fs.String("symbol", "", "stock symbol to analyze")
	subsector := fs.String("subsector", "", "subsector to pick the company from (with -company)")
	company := fs.String("company", "", "company label, e.g. 'BBCA.JK - Bank Central Asia Tbk.' (with -subsector)")
	list := fs.Bool("list", false, "list subsectors, or the companies of -subsector, and exit")
	format := fs.String("format", "text", "output format: text, json, or csv")
	outputDir := fs.String("output", "", "save report (and chart SVG) to this directory")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *symbol == "" && !*list && (*subsector == "" || *company == "") {
		fmt.Println("Error: -symbol or -subsector with -company is required")
		fs.Usage()
		return 1
	}

	if err := bootstrap.InitializeSystem(); err != nil {
		fmt.Printf("Error initializing: %v\n", err)
		return 1
	}
	// Spans are batched, so flush before any return
	defer flushTraces()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := bootstrap.LoadConfig(ctx, *configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		return 1
	}

	source := bootstrap.DataSource(cfg)
	flow := selection.NewFlow(source)

	if *list {
		if err := printChoices(ctx, flow, *subsector); err != nil {
			fmt.Printf("Error: %v\n", err)
			return 1
		}
		return 0
	}

	if *symbol == "" {
		*symbol, err = flow.Choose(ctx, *subsector, *company)
		if err != nil {
			fmt.Printf("Error selecting company: %v\n", err)
			return 1
		}
	}

	completer, err := bootstrap.Completer(ctx, cfg)
	if err != nil {
		fmt.Printf("Error creating LLM client: %v\n", err)
		return 1
	}
	driver, _, err := bootstrap.Driver(ctx, cfg, source, completer)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return 1
	}

	fmt.Printf("🔍 Generating insights for %s\n", *symbol)
	fmt.Println(strings.Repeat("─", 77))

	result, runErr := driver.Run(ctx, *symbol)

	reporter := report.NewReporter(*outputDir)
	out, err := reporter.Generate(result, report.Format(*format))
	if err != nil {
		fmt.Printf("Error generating report: %v\n", err)
		return 1
	}
	fmt.Println(out)

	if *outputDir != "" {
		paths, err := reporter.Save(result, report.Format(*format))
		if err != nil {
			fmt.Printf("Error saving report: %v\n", err)
			return 1
		}
		for _, p := range paths {
			fmt.Printf("📄 Saved %s\n", p)
		}
	}

	if runErr != nil {
		fmt.Printf("Run failed: %v\n", runErr)
		return 2
	}
	if n := result.FailedPanels(); n > 0 {
		fmt.Printf("⚠️  %d panel(s) failed\n", n)
		return 2
	}
	return 0
}

func flushTraces() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := trace.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to flush traces: %v\n", err)
	}
}

func printChoices(ctx context.Context, flow *selection.Flow, subsector string) error {
	if subsector == "" {
		names, err := flow.Subsectors(ctx)
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	}
	opts, err := flow.Companies(ctx, subsector)
	if err != nil {
		return err
	}
	for _, o := range opts {
		fmt.Println(o.Label)
	}
	return nil
}
