package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vsinha/fgplan/pkg/config"
	"github.com/vsinha/fgplan/pkg/interfaces/cli/commands"
	"github.com/vsinha/fgplan/pkg/logger"
)

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func main() {
	// Defaults come from fgplan.yaml / FGPLAN_* when present.
	cfg, err := config.Load("fgplan")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Command line flags
	var (
		stockFile       = flag.String("stock", "", "Path to RM stock sheet (.csv or .xlsx)")
		poFile          = flag.String("po", "", "Path to RM purchase order sheet (optional)")
		formulaFiles    = flag.String("formulas", "", "Comma separated FG formula sheets")
		replacementFile = flag.String("replacement", "", "Path to RM replacement rules (optional)")
		dilutionFile    = flag.String("dilution", "", "Path to RM dilution rules (optional)")
		fgs             = flag.String("fg", "", "Comma separated FG codes to plan")
		all             = flag.Bool("all", false, "Plan every FG in the formulas")
		expected        = flag.String("expected", "", "Target capacities, e.g. FG1=250,FG2=1000")
		prodDate        = flag.String("date", "", "Production date DD/MM/YYYY (default: today)")
		decimals        = flag.Int("decimals", cfg.Planning.DecimalPlaces, "Decimal precision 0-6")
		format          = flag.String("format", "text", "Output format: text, json, csv, xlsx, xlsx-basic, xlsx-summary, pdf, html")
		outputDir       = flag.String("output", "", "Output directory for results (optional)")
		verbose         = flag.Bool("verbose", false, "Enable verbose output")
		help            = flag.Bool("help", false, "Show help message")
	)

	flag.Parse()

	level := zerolog.WarnLevel
	if *verbose {
		level = zerolog.InfoLevel
	}
	base := logger.NewWithWriter("fgplan", zerolog.ConsoleWriter{Out: os.Stderr})
	log := &logger.Logger{Logger: base.Level(level)}

	// Create command configuration
	cmdConfig := commands.Config{
		StockFile:       *stockFile,
		POFile:          *poFile,
		FormulaFiles:    splitList(*formulaFiles),
		ReplacementFile: *replacementFile,
		DilutionFile:    *dilutionFile,
		FGs:             splitList(*fgs),
		All:             *all,
		Expected:        *expected,
		ProductionDate:  *prodDate,
		DecimalPlaces:   *decimals,
		CompanyName:     cfg.Reports.CompanyName,
		OutputDir:       *outputDir,
		Format:          *format,
		Verbose:         *verbose,
		Help:            *help,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Create and execute command
	cmd := commands.NewPlanCommand(cmdConfig, log)
	if err := cmd.Execute(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
