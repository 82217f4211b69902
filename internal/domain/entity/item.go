package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item representa un insumo (materia prima) en una bodega.
// Varias filas pueden compartir Code en bodegas distintas: es el mismo material en varios lugares.
// Quantity es un valor en caché; solo el libro de movimientos lo modifica.
type Item struct {
	ID          string
	Code        string
	Name        string
	Unit        string
	WarehouseID string
	Quantity    decimal.Decimal
	MinStock    decimal.Decimal
	UnitCost    decimal.Decimal
	PartyID     string // proveedor/tercero opcional
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
