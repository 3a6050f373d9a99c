package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/fgplan/pkg/application/services/orchestration"
	"github.com/vsinha/fgplan/pkg/application/services/session"
	"github.com/vsinha/fgplan/pkg/domain/entities"
	"github.com/vsinha/fgplan/pkg/infrastructure/events"
	"github.com/vsinha/fgplan/pkg/infrastructure/repositories/files"
	"github.com/vsinha/fgplan/pkg/infrastructure/tables"
	"github.com/vsinha/fgplan/pkg/interfaces/cli/output"
	"github.com/vsinha/fgplan/pkg/logger"
)

// Config holds configuration for the plan command
type Config struct {
	StockFile       string
	POFile          string
	FormulaFiles    []string
	ReplacementFile string
	DilutionFile    string

	FGs            []string
	All            bool
	Expected       string
	ProductionDate string
	DecimalPlaces  int
	CompanyName    string

	OutputDir string
	Format    string
	Verbose   bool
	Help      bool

	// Stdout receives progress and text output; os.Stdout when nil.
	Stdout io.Writer
}

// PlanCommand loads the input sheets, runs one planning pass and writes the result.
type PlanCommand struct {
	config Config
	log    *logger.Logger
	out    io.Writer
}

// NewPlanCommand creates a new plan command with the given configuration
func NewPlanCommand(config Config, log *logger.Logger) *PlanCommand {
	if log == nil {
		log = logger.Nop()
	}
	out := config.Stdout
	if out == nil {
		out = os.Stdout
	}
	return &PlanCommand{config: config, log: log.WithComponent("cli"), out: out}
}

func (c *PlanCommand) progress(format string, args ...any) {
	if c.config.Verbose {
		fmt.Fprintf(c.out, format, args...)
	}
}

// Execute runs the plan command
func (c *PlanCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}

	if err := c.validateInputs(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	expected, err := ParseExpected(c.config.Expected)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	prodDate, err := c.productionDate()
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if c.config.Verbose {
		c.printHeader(prodDate)
	}

	store := events.NewInMemoryEventStore(c.log)
	sessions := session.NewManager(c.log, store, 0, c.config.DecimalPlaces)
	sess := sessions.Create()

	c.progress("📂 Loading input sheets...\n")
	var warnings []string
	if warnings, err = c.load(sess); err != nil {
		return err
	}

	if c.config.All {
		_, err = sess.SelectAll()
	} else {
		_, err = sess.Select(entities.NormalizeCodes(c.config.FGs))
	}
	if err != nil {
		return fmt.Errorf("failed to select FGs: %w", err)
	}
	for fg, kg := range expected {
		if err := sess.SetExpectedCapacity(fg, kg); err != nil {
			return fmt.Errorf("failed to set expected capacity: %w", err)
		}
	}

	input, err := sess.Input(prodDate)
	if err != nil {
		return fmt.Errorf("failed to snapshot session: %w", err)
	}

	c.progress("🔄 Allocating stock in FIFO order (%d FGs, %s)...\n", len(input.Order), input.FormulaSource)
	orchestrator := orchestration.NewPlanningOrchestrator(c.log, store, c.config.CompanyName)
	started := time.Now()
	result, err := orchestrator.RunPlanning(ctx, sess.ID(), input)
	if err != nil {
		return fmt.Errorf("error running planning: %w", err)
	}
	elapsed := time.Since(started)
	result.Warnings = append(result.Warnings, warnings...)
	c.progress("✅ Planning completed in %v\n\n", elapsed)

	err = output.Generate(result, output.Config{
		Format:       c.config.Format,
		OutputDir:    c.config.OutputDir,
		Verbose:      c.config.Verbose,
		PlanningTime: elapsed,
		InputFiles:   c.inputFiles(),
		Stdout:       c.out,
	})
	if err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}

	c.progress("🏁 Production planning complete!\n")
	return nil
}

// load reads every configured sheet into the session and applies the
// rule sets. It returns the business warnings raised on the way.
func (c *PlanCommand) load(sess *session.Session) ([]string, error) {
	loader := files.NewLoader()
	var warnings []string

	stock, err := loader.LoadStock(c.config.StockFile)
	if err != nil {
		return nil, fmt.Errorf("error loading stock: %w", err)
	}
	if err := sess.LoadStock(stock); err != nil {
		return nil, err
	}
	c.progress("  RM Stock: %d rows\n", len(stock))

	if c.config.POFile != "" {
		orders, err := loader.LoadPurchaseOrders(c.config.POFile)
		if err != nil {
			return nil, fmt.Errorf("error loading purchase orders: %w", err)
		}
		if err := sess.LoadPurchaseOrders(orders); err != nil {
			return nil, err
		}
		c.progress("  RM Purchase Orders: %d rows\n", len(orders))
	}

	formulas, err := loader.LoadFormulas(c.config.FormulaFiles...)
	if err != nil {
		return nil, fmt.Errorf("error loading formulas: %w", err)
	}
	if _, err := sess.LoadFormulas(formulas); err != nil {
		return nil, err
	}
	c.progress("  FG Formulas: %d rows, %d FGs\n", len(formulas), len(formulas.FGCodes()))

	if c.config.ReplacementFile != "" {
		rules, err := loader.LoadReplacementRules(c.config.ReplacementFile)
		if err != nil {
			return nil, fmt.Errorf("error loading replacement rules: %w", err)
		}
		if err := sess.LoadReplacementRules(rules); err != nil {
			return nil, err
		}
		applied, err := sess.ApplyReplacement()
		if err != nil {
			return nil, fmt.Errorf("failed to apply replacement rules: %w", err)
		}
		c.progress("  RM Replacement: %d rules applied, %d formula rows\n", applied.Rules, applied.FormulasOut)
	}

	if c.config.DilutionFile != "" {
		rules, err := loader.LoadDilutionRules(c.config.DilutionFile)
		if err != nil {
			return nil, fmt.Errorf("error loading dilution rules: %w", err)
		}
		if _, err := sess.LoadDilutionRules(rules); err != nil {
			return nil, err
		}
		applied, ws, err := sess.ApplyDilution()
		if err != nil {
			return nil, fmt.Errorf("failed to apply dilution rules: %w", err)
		}
		warnings = append(warnings, ws...)
		c.progress("  RM Dilution: %d rules applied, %d formula rows\n", applied.Rules, applied.FormulasOut)
	}

	c.progress("\n")
	return warnings, nil
}

// ParseExpected reads "FG1=250,FG2=1000" into capacity targets in kg.
// An empty string yields no targets.
func ParseExpected(raw string) (entities.ExpectedCapacities, error) {
	expected := entities.ExpectedCapacities{}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		fg, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("expected capacity %q must look like FG=kg", pair)
		}
		code := entities.NormalizeCode(fg)
		if code.IsEmpty() {
			return nil, fmt.Errorf("expected capacity %q has no FG code", pair)
		}
		kg, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("expected capacity %q is not a number", pair)
		}
		expected[code] = kg
	}
	return expected, nil
}

func (c *PlanCommand) productionDate() (time.Time, error) {
	if c.config.ProductionDate == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	d, ok := tables.ParseDate(c.config.ProductionDate)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid production date %q, use DD/MM/YYYY", c.config.ProductionDate)
	}
	return d, nil
}

// validateInputs validates the command configuration
func (c *PlanCommand) validateInputs() error {
	if c.config.StockFile == "" {
		return fmt.Errorf("must specify -stock")
	}
	if len(c.config.FormulaFiles) == 0 {
		return fmt.Errorf("must specify at least one -formulas file")
	}
	if !c.config.All && len(c.config.FGs) == 0 {
		return fmt.Errorf("must specify -fg or -all")
	}
	if c.config.DecimalPlaces < entities.MinDecimalPlaces || c.config.DecimalPlaces > entities.MaxDecimalPlaces {
		return fmt.Errorf("-decimals must be between %d and %d", entities.MinDecimalPlaces, entities.MaxDecimalPlaces)
	}

	for name, path := range c.inputFiles() {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("%s file not found: %s", name, path)
		}
	}
	return nil
}

func (c *PlanCommand) inputFiles() map[string]string {
	files := map[string]string{"RM Stock": c.config.StockFile}
	for i, f := range c.config.FormulaFiles {
		files[fmt.Sprintf("FG Formulas #%d", i+1)] = f
	}
	if c.config.POFile != "" {
		files["RM Purchase Orders"] = c.config.POFile
	}
	if c.config.ReplacementFile != "" {
		files["RM Replacement Rules"] = c.config.ReplacementFile
	}
	if c.config.DilutionFile != "" {
		files["RM Dilution Rules"] = c.config.DilutionFile
	}
	return files
}

// printHeader prints the command header information
func (c *PlanCommand) printHeader(prodDate time.Time) {
	fmt.Fprintf(c.out, "🚀 FG Production Planner\n")
	fmt.Fprintf(c.out, "Stock: %s\n", c.config.StockFile)
	if c.config.POFile != "" {
		fmt.Fprintf(c.out, "Purchase orders: %s\n", c.config.POFile)
	}
	fmt.Fprintf(c.out, "Formulas: %s\n", strings.Join(c.config.FormulaFiles, ", "))
	fmt.Fprintf(c.out, "Production date: %s\n", prodDate.Format("02/01/2006"))
	fmt.Fprintf(c.out, "Output format: %s\n", c.config.Format)
	if c.config.OutputDir != "" {
		fmt.Fprintf(c.out, "Output directory: %s\n", c.config.OutputDir)
	}
	fmt.Fprintln(c.out)
}

// showHelp displays the help message
func (c *PlanCommand) showHelp() {
	fmt.Fprintf(c.out, `FG Production Planner - raw material allocation for finished goods

USAGE:
    fgplan -stock <file> -formulas <file> (-fg <codes> | -all) [options]

OPTIONS:
    -stock <file>         RM stock sheet (.csv or .xlsx)
    -po <file>            RM purchase order sheet (optional)
    -formulas <files>     FG formula sheets, comma separated; earlier files win on duplicates
    -replacement <file>   RM replacement rules (optional)
    -dilution <file>      RM dilution rules (optional)
    -fg <codes>           FG codes to plan, comma separated
    -all                  Plan every FG found in the formulas
    -expected <pairs>     Target capacities, e.g. FG1=250,FG2=1000 (kg)
    -date <DD/MM/YYYY>    Production date (default: today)
    -decimals <n>         Decimal precision 0-6 (default: 3)
    -format <fmt>         %s
    -output <dir>         Output directory (required for csv and report formats)
    -verbose              Enable verbose output
    -help                 Show this help message

SHEET COLUMNS (matched case-insensitively, first match wins):
    RM stock:        RM Code, Quantity
    Purchase orders: RM Code, Quantity, Arrival Date
    Formulas:        FG Code, RM Code, Quantity (kg per 25 kg batch)
    Replacement:     Old RM Code, New RM Code
    Dilution:        RM Code, Component RM Code, Percentage

EXAMPLES:
    fgplan -stock stock.xlsx -formulas formulas.xlsx -all -verbose
    fgplan -stock stock.csv -po po.csv -formulas a.csv,b.csv -fg 101,102 -expected 101=500 -date 01/03/2024
    fgplan -stock stock.xlsx -formulas f.xlsx -all -format xlsx -output reports/
`, strings.Join(output.Formats(), ", "))
}
