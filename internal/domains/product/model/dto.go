package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductRequest is the body of both create and full update
type ProductRequest struct {
	CategoryID   *uuid.UUID      `json:"category_id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	PointsPrice  *int            `json:"points_price"`
	PointsReward *int            `json:"points_reward"`
	Stock        int             `json:"stock"`
	ImageURL     *string         `json:"image_url"`
}

func (req ProductRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&req.Price, validation.By(nonNegativeDecimal)),
		validation.Field(&req.PointsPrice, validation.Min(0)),
		validation.Field(&req.PointsReward, validation.Min(0)),
		validation.Field(&req.Stock, validation.Min(0)),
		validation.Field(&req.ImageURL, validation.Length(1, 2048)),
	)
}

func nonNegativeDecimal(value interface{}) error {
	d, ok := value.(decimal.Decimal)
	if !ok {
		return validation.NewError("validation_decimal", "must be a decimal")
	}
	if d.IsNegative() {
		return validation.NewError("validation_negative", "must not be negative")
	}
	return nil
}

// Apply copies the request onto p
func (req ProductRequest) Apply(p *Product) {
	p.CategoryID = req.CategoryID
	p.Name = req.Name
	p.Description = req.Description
	p.Price = req.Price.Round(2)
	p.PointsPrice = req.PointsPrice
	p.PointsReward = req.PointsReward
	p.Stock = req.Stock
	p.ImageURL = req.ImageURL
	p.UpdatedAt = time.Now()
}
