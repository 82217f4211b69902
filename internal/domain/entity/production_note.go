package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ProductionNote nota de ensamble: producción de producto terminado y su consumo de insumos.
type ProductionNote struct {
	ID              string
	WarehouseID     string
	PartyID         string
	ElaborationDate time.Time
	Notes           string
	Lots            []*ProductionLot
	Materials       []*ManualMaterialLine
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TotalProduced suma de unidades producidas en todos los lotes de la nota.
func (n *ProductionNote) TotalProduced() decimal.Decimal {
	total := decimal.Zero
	for _, l := range n.Lots {
		total = total.Add(l.Produced)
	}
	return total
}

// ProductionLot lote de producto terminado (nota + producto + talla + bodega).
// WarehouseID es la bodega efectiva, resuelta al escribir (nunca vacía).
// Received es lo acreditado por traslados; Produced no cambia una vez referenciado.
type ProductionLot struct {
	ID          string
	NoteID      string
	ProductID   string
	Size        string
	WarehouseID string
	Produced    decimal.Decimal
	Received    decimal.Decimal
	Available   decimal.Decimal
	NoteDate    time.Time // fecha de elaboración de la nota (solo lectura, para FIFO)
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Capacity máximo disponible permitido: producido + recibido por traslados.
func (l *ProductionLot) Capacity() decimal.Decimal {
	return l.Produced.Add(l.Received)
}

// Take descuenta qty del disponible.
func (l *ProductionLot) Take(qty decimal.Decimal) error {
	if qty.IsNegative() || qty.GreaterThan(l.Available) {
		return fmt.Errorf("lote %s: no se pueden tomar %s de %s disponibles", l.ID, qty, l.Available)
	}
	l.Available = l.Available.Sub(qty)
	return nil
}

// Restore devuelve qty al disponible (reversión de una asignación).
func (l *ProductionLot) Restore(qty decimal.Decimal) error {
	next := l.Available.Add(qty)
	if qty.IsNegative() || next.GreaterThan(l.Capacity()) {
		return fmt.Errorf("lote %s: restaurar %s excede la capacidad %s", l.ID, qty, l.Capacity())
	}
	l.Available = next
	return nil
}

// Credit acredita qty recibida por traslado.
func (l *ProductionLot) Credit(qty decimal.Decimal) {
	l.Received = l.Received.Add(qty)
	l.Available = l.Available.Add(qty)
}

// ManualMaterialLine insumo adicional consumido por unidad de producto terminado de toda la nota.
type ManualMaterialLine struct {
	ID              string
	NoteID          string
	ItemID          string
	ItemCode        string
	QuantityPerUnit decimal.Decimal
}
