package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DeliveryStatus classifies a purchase order line against the production date
type DeliveryStatus int

const (
	Incoming DeliveryStatus = iota
	Delayed
)

// String method for DeliveryStatus enum
func (s DeliveryStatus) String() string {
	switch s {
	case Incoming:
		return "Incoming"
	case Delayed:
		return "Delayed"
	default:
		return "Unknown"
	}
}

// PurchaseOrderLine is an open purchase order for a raw material.
// Purchase orders are reported but never added to available stock.
type PurchaseOrderLine struct {
	RMCode      Code
	Quantity    decimal.Decimal
	ArrivalDate time.Time
}

// NewPurchaseOrderLine creates a validated PurchaseOrderLine
func NewPurchaseOrderLine(rm Code, quantity decimal.Decimal, arrival time.Time) (*PurchaseOrderLine, error) {
	if rm.IsEmpty() {
		return nil, fmt.Errorf("RM code cannot be empty")
	}
	if arrival.IsZero() {
		return nil, fmt.Errorf("arrival date cannot be empty")
	}
	return &PurchaseOrderLine{RMCode: rm, Quantity: quantity, ArrivalDate: arrival}, nil
}

// StatusOn returns Delayed when the order arrives strictly before productionDate.
func (p PurchaseOrderLine) StatusOn(productionDate time.Time) DeliveryStatus {
	if dateOnly(p.ArrivalDate).Before(dateOnly(productionDate)) {
		return Delayed
	}
	return Incoming
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
