package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ReplacementRule substitutes one raw material code for another in every formula.
type ReplacementRule struct {
	OldRMCode Code
	NewRMCode Code
}

// NewReplacementRule creates a validated ReplacementRule
func NewReplacementRule(oldRM, newRM Code) (*ReplacementRule, error) {
	if oldRM.IsEmpty() {
		return nil, fmt.Errorf("old RM code cannot be empty")
	}
	if newRM.IsEmpty() {
		return nil, fmt.Errorf("new RM code cannot be empty")
	}
	return &ReplacementRule{OldRMCode: oldRM, NewRMCode: newRM}, nil
}

// DilutionRule splits a diluted raw material into one of its components.
// Percentage is the share of the component in the diluted RM, 0-100.
type DilutionRule struct {
	RMCode          Code
	ComponentRMCode Code
	Percentage      decimal.Decimal
}

// NewDilutionRule creates a validated DilutionRule
func NewDilutionRule(rm, component Code, percentage decimal.Decimal) (*DilutionRule, error) {
	if rm.IsEmpty() {
		return nil, fmt.Errorf("RM code cannot be empty")
	}
	if component.IsEmpty() {
		return nil, fmt.Errorf("component RM code cannot be empty")
	}
	if !percentage.IsPositive() {
		return nil, fmt.Errorf("percentage must be positive, got %s", percentage.String())
	}
	return &DilutionRule{RMCode: rm, ComponentRMCode: component, Percentage: percentage}, nil
}
