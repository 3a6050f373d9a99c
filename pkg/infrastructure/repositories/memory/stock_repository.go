package memory

import (
	"sync"

	"github.com/vsinha/fgplan/pkg/domain/entities"
	"github.com/vsinha/fgplan/pkg/domain/repositories"
)

// StockRepository provides in-memory RM stock storage
type StockRepository struct {
	mu    sync.RWMutex
	lines []entities.StockLine
}

// NewStockRepository creates a new in-memory stock repository
func NewStockRepository() *StockRepository {
	return &StockRepository{}
}

// Verify interface compliance
var _ repositories.StockRepository = (*StockRepository)(nil)

// LoadStock replaces the stored stock sheet
func (r *StockRepository) LoadStock(lines []entities.StockLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append([]entities.StockLine(nil), lines...)
	return nil
}

// GetAllStock returns the stock sheet rows as loaded
func (r *StockRepository) GetAllStock() ([]entities.StockLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]entities.StockLine(nil), r.lines...), nil
}

// GetSnapshot returns the stock keyed by RM code; the last duplicate row wins
func (r *StockRepository) GetSnapshot() (entities.StockSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return entities.NewStockSnapshot(r.lines), nil
}

// Clear removes all stock rows
func (r *StockRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = nil
	return nil
}

// PurchaseOrderRepository provides in-memory purchase order storage
type PurchaseOrderRepository struct {
	mu    sync.RWMutex
	lines []entities.PurchaseOrderLine
}

// NewPurchaseOrderRepository creates a new in-memory purchase order repository
func NewPurchaseOrderRepository() *PurchaseOrderRepository {
	return &PurchaseOrderRepository{}
}

var _ repositories.PurchaseOrderRepository = (*PurchaseOrderRepository)(nil)

// LoadPurchaseOrders replaces the stored purchase orders
func (r *PurchaseOrderRepository) LoadPurchaseOrders(lines []entities.PurchaseOrderLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append([]entities.PurchaseOrderLine(nil), lines...)
	return nil
}

// GetAllPurchaseOrders returns the purchase orders in load order
func (r *PurchaseOrderRepository) GetAllPurchaseOrders() ([]entities.PurchaseOrderLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]entities.PurchaseOrderLine(nil), r.lines...), nil
}

// Clear removes all purchase orders
func (r *PurchaseOrderRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = nil
	return nil
}
