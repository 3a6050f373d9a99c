package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"

	"github.com/vsinha/fgplan/pkg/domain/entities"
	"github.com/vsinha/fgplan/pkg/infrastructure/tables"
)

// SelectionRequest picks the FGs to plan. All selects every FG of the
// active formula table and ignores FGCodes.
type SelectionRequest struct {
	FGCodes []string `json:"fg_codes"`
	All     bool     `json:"all"`
}

func (r *SelectionRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.FGCodes, validation.When(!r.All, validation.Required.Error("select at least one FG or set all"))),
	)
}

// DeleteFGsRequest names FGs to remove from the formula tables
type DeleteFGsRequest struct {
	FGCodes []string `json:"fg_codes"`
}

func (r *DeleteFGsRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.FGCodes, validation.Required),
	)
}

// ExpectedCapacityRequest sets one FG's target. A Kg of zero or less
// switches the FG back to automatic mode.
type ExpectedCapacityRequest struct {
	FGCode string          `json:"fg_code"`
	Kg     decimal.Decimal `json:"kg"`
}

func (r *ExpectedCapacityRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.FGCode, validation.Required),
	)
}

// SettingsRequest changes session-wide settings
type SettingsRequest struct {
	DecimalPlaces *int `json:"decimal_places"`
}

func (r *SettingsRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.DecimalPlaces,
			validation.NotNil,
			validation.Min(entities.MinDecimalPlaces),
			validation.Max(entities.MaxDecimalPlaces),
		),
	)
}

// PlanRequest runs a planning pass. An empty ProductionDate means today.
type PlanRequest struct {
	ProductionDate string `json:"production_date"`
}

func (r *PlanRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProductionDate, validation.By(func(value any) error {
			raw, _ := value.(string)
			if raw == "" {
				return nil
			}
			if _, ok := tables.ParseDate(raw); !ok {
				return validation.NewError("validation_production_date", "must be a date like DD/MM/YYYY")
			}
			return nil
		})),
	)
}
