package dto

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ensamble/internal/domain/entity"
)

// OutboundNoteRequest body para POST /api/outbound-notes.
type OutboundNoteRequest struct {
	WarehouseID string                `json:"warehouse_id"`
	PartyID     string                `json:"party_id,omitempty"`
	Date        string                `json:"date"` // YYYY-MM-DD; vacío = hoy
	Lines       []OutboundLineRequest `json:"lines"`
}

// OutboundLineRequest línea de salida.
type OutboundLineRequest struct {
	ProductID string           `json:"product_id"`
	Size      string           `json:"size"`
	Quantity  decimal.Decimal  `json:"quantity"`
	UnitCost  *decimal.Decimal `json:"unit_cost,omitempty"`
}

// OutboundNoteResponse nota de salida con las asignaciones FIFO de cada línea.
type OutboundNoteResponse struct {
	ID          string                 `json:"id"`
	WarehouseID string                 `json:"warehouse_id"`
	PartyID     string                 `json:"party_id,omitempty"`
	Date        string                 `json:"date"`
	Lines       []OutboundLineResponse `json:"lines"`
}

// OutboundLineResponse salida de una línea.
type OutboundLineResponse struct {
	ID          string               `json:"id"`
	ProductID   string               `json:"product_id"`
	Size        string               `json:"size"`
	Quantity    decimal.Decimal      `json:"quantity"`
	UnitCost    decimal.Decimal      `json:"unit_cost"`
	Allocations []AllocationResponse `json:"allocations"`
}

// AllocationResponse lote que absorbió parte de la línea.
type AllocationResponse struct {
	ID       string          `json:"id"`
	LotID    string          `json:"lot_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// NewOutboundNoteResponse mapea la nota de salida.
func NewOutboundNoteResponse(n *entity.OutboundNote) OutboundNoteResponse {
	out := OutboundNoteResponse{
		ID:          n.ID,
		WarehouseID: n.WarehouseID,
		PartyID:     n.PartyID,
		Date:        n.Date.Format(DateLayout),
		Lines:       make([]OutboundLineResponse, 0, len(n.Lines)),
	}
	for _, l := range n.Lines {
		line := OutboundLineResponse{
			ID:          l.ID,
			ProductID:   l.ProductID,
			Size:        l.Size,
			Quantity:    l.Quantity,
			UnitCost:    l.UnitCost,
			Allocations: make([]AllocationResponse, 0, len(l.Allocations)),
		}
		for _, a := range l.Allocations {
			line.Allocations = append(line.Allocations, AllocationResponse{ID: a.ID, LotID: a.LotID, Quantity: a.Quantity})
		}
		out.Lines = append(out.Lines, line)
	}
	return out
}
