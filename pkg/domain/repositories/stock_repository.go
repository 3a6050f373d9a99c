package repositories

import "github.com/vsinha/fgplan/pkg/domain/entities"

// StockRepository provides access to the raw material stock sheet
type StockRepository interface {
	LoadStock(lines []entities.StockLine) error
	GetAllStock() ([]entities.StockLine, error)
	GetSnapshot() (entities.StockSnapshot, error)
	Clear() error
}

// PurchaseOrderRepository provides access to open raw material purchase orders
type PurchaseOrderRepository interface {
	LoadPurchaseOrders(lines []entities.PurchaseOrderLine) error
	GetAllPurchaseOrders() ([]entities.PurchaseOrderLine, error)
	Clear() error
}
