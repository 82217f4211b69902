package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OutboundNote nota de salida (venta) de producto terminado.
type OutboundNote struct {
	ID          string
	WarehouseID string
	PartyID     string
	Date        time.Time
	Lines       []*OutboundLine
	CreatedAt   time.Time
}

// OutboundLine línea de salida; una vez atendida tiene sus asignaciones por lote.
type OutboundLine struct {
	ID          string
	NoteID      string
	ProductID   string
	Size        string
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
	Allocations []*Allocation
}

// Allocation traza qué lote absorbió cuánto de una línea de salida.
type Allocation struct {
	ID        string
	LineID    string
	LotID     string
	Quantity  decimal.Decimal
	CreatedAt time.Time
}
