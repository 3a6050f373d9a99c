package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/fgplan/pkg/application/services/orchestration"
	"github.com/vsinha/fgplan/pkg/application/services/session"
	"github.com/vsinha/fgplan/pkg/domain/entities"
	"github.com/vsinha/fgplan/pkg/infrastructure/events"
	"github.com/vsinha/fgplan/pkg/interfaces/cli/output"
	"github.com/vsinha/fgplan/pkg/logger"
)

func kg(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func code(raw string) entities.Code {
	return entities.NormalizeCode(raw)
}

func main() {
	ctx := context.Background()
	log := logger.Nop()

	store := events.NewInMemoryEventStore(log)
	sessions := session.NewManager(log, store, time.Hour, entities.DefaultDecimalPlaces)
	sess := sessions.Create()

	// Two flavour bases sharing one sugar syrup
	must(sess.LoadStock([]entities.StockLine{
		{RMCode: code("SYRUP"), Quantity: kg(600)},
		{RMCode: code("VANILLA"), Quantity: kg(40)},
		{RMCode: code("COCOA"), Quantity: kg(15)},
	}))
	productionDate := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	must(sess.LoadPurchaseOrders([]entities.PurchaseOrderLine{
		{RMCode: code("COCOA"), Quantity: kg(200), ArrivalDate: productionDate.AddDate(0, 0, -3)},
	}))
	_, err := sess.LoadFormulas(entities.FormulaTable{
		{FGCode: code("VAN25"), RMCode: code("SYRUP"), Quantity: kg(20)},
		{FGCode: code("VAN25"), RMCode: code("VANILLA"), Quantity: kg(2)},
		{FGCode: code("CHOC25"), RMCode: code("SYRUP"), Quantity: kg(18)},
		{FGCode: code("CHOC25"), RMCode: code("COCOA"), Quantity: kg(5)},
	})
	must(err)

	_, err = sess.SelectAll()
	must(err)
	// Cap vanilla at 250 kg (10 batches) instead of whatever syrup remains.
	must(sess.SetExpectedCapacity(code("VAN25"), kg(250)))

	input, err := sess.Input(productionDate)
	must(err)

	fmt.Println("🔄 Planning flavour bases...")
	planner := orchestration.NewPlanningOrchestrator(log, store, "Example Flavours")
	result, err := planner.RunPlanning(ctx, sess.ID(), input)
	must(err)

	must(output.Generate(result, output.Config{Format: "text", Stdout: os.Stdout}))
}

func must(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}
