package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind tipo de movimiento del kardex. La cantidad siempre es >= 0; el tipo define la dirección.
type MovementKind string

const (
	MovementCreate              MovementKind = "CREATE"               // alta del insumo con saldo inicial
	MovementInbound             MovementKind = "INBOUND"              // entrada (compra)
	MovementOutbound            MovementKind = "OUTBOUND"             // salida
	MovementAssemblyConsumption MovementKind = "ASSEMBLY_CONSUMPTION" // consumo por nota de ensamble
	MovementAdjustment          MovementKind = "ADJUSTMENT"           // ajuste / reversión (suma)
	MovementEditNote            MovementKind = "EDIT_NOTE"            // informativo, sin efecto en saldo
)

// Valid indica si el tipo es conocido.
func (k MovementKind) Valid() bool {
	switch k {
	case MovementCreate, MovementInbound, MovementOutbound,
		MovementAssemblyConsumption, MovementAdjustment, MovementEditNote:
		return true
	}
	return false
}

// Sign devuelve +1 para entradas, -1 para salidas y 0 para movimientos informativos.
func (k MovementKind) Sign() int {
	switch k {
	case MovementCreate, MovementInbound, MovementAdjustment:
		return 1
	case MovementOutbound, MovementAssemblyConsumption:
		return -1
	}
	return 0
}

// IsOutbound true para tipos que descuentan stock.
func (k MovementKind) IsOutbound() bool { return k.Sign() < 0 }

// Compensation devuelve el tipo que anula un movimiento de este tipo.
func (k MovementKind) Compensation() MovementKind {
	if k.IsOutbound() {
		return MovementAdjustment
	}
	return MovementOutbound
}

// StockMovement registro inmutable del kardex.
// AffectsStock=false para registros sin efecto en saldo (recordMovement, EDIT_NOTE).
// SupersedesID apunta al movimiento que este registro compensa.
type StockMovement struct {
	ID               string
	TransactionID    string
	ItemID           string
	ItemCode         string
	WarehouseID      string
	Kind             MovementKind
	Quantity         decimal.Decimal
	UnitCost         decimal.Decimal
	Total            decimal.Decimal
	BalanceAfter     decimal.Decimal
	AffectsStock     bool
	PartyID          string
	Reference        string // factura / referencia libre
	Notes            string
	ProductionNoteID string
	SupersedesID     string
	Date             time.Time
	CreatedAt        time.Time
}

// SignedQuantity efecto del movimiento sobre el saldo de su fila.
func (m *StockMovement) SignedQuantity() decimal.Decimal {
	if !m.AffectsStock {
		return decimal.Zero
	}
	switch m.Kind.Sign() {
	case 1:
		return m.Quantity
	case -1:
		return m.Quantity.Neg()
	}
	return decimal.Zero
}
