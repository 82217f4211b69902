package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BOMLine línea de receta: cuánto de un insumo consume una unidad de producto (más merma).
// (ProductID, ItemID) es único.
type BOMLine struct {
	ID              string
	ProductID       string
	ItemID          string
	ItemCode        string // resuelto desde el insumo
	QuantityPerUnit decimal.Decimal
	WastePct        decimal.Decimal
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
