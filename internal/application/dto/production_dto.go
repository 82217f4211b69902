package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ensamble/internal/domain/entity"
)

// DateLayout formato de fechas de documentos (elaboración, salida).
const DateLayout = "2006-01-02"

// ProductionNoteRequest body para crear o editar una nota de ensamble.
type ProductionNoteRequest struct {
	WarehouseID     string                  `json:"warehouse_id"`
	PartyID         string                  `json:"party_id,omitempty"`
	ElaborationDate string                  `json:"elaboration_date"` // YYYY-MM-DD; vacío = hoy
	Notes           string                  `json:"notes,omitempty"`
	Lots            []ProductionLotRequest  `json:"lots"`
	Materials       []ManualMaterialRequest `json:"materials,omitempty"`
}

// ProductionLotRequest producto terminado producido en la nota.
// WarehouseID vacío = bodega de la nota.
type ProductionLotRequest struct {
	ProductID   string          `json:"product_id"`
	Size        string          `json:"size"`
	WarehouseID string          `json:"warehouse_id,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// ManualMaterialRequest insumo consumido por unidad de producto terminado de toda la nota.
type ManualMaterialRequest struct {
	ItemCode        string          `json:"item_code"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit"`
}

// ProductionNoteResponse salida de una nota de ensamble.
type ProductionNoteResponse struct {
	ID              string                   `json:"id"`
	WarehouseID     string                   `json:"warehouse_id"`
	PartyID         string                   `json:"party_id,omitempty"`
	ElaborationDate string                   `json:"elaboration_date"`
	Notes           string                   `json:"notes,omitempty"`
	Lots            []LotResponse            `json:"lots"`
	Materials       []ManualMaterialResponse `json:"materials"`
	UpdatedAt       time.Time                `json:"updated_at"`
}

// LotResponse salida de un lote.
type LotResponse struct {
	ID          string          `json:"id"`
	NoteID      string          `json:"note_id"`
	ProductID   string          `json:"product_id"`
	Size        string          `json:"size"`
	WarehouseID string          `json:"warehouse_id"`
	Produced    decimal.Decimal `json:"produced"`
	Received    decimal.Decimal `json:"received"`
	Available   decimal.Decimal `json:"available"`
}

// ManualMaterialResponse salida de un insumo manual.
type ManualMaterialResponse struct {
	ItemCode        string          `json:"item_code"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit"`
}

// NewProductionNoteResponse mapea la nota con sus lotes e insumos manuales.
func NewProductionNoteResponse(n *entity.ProductionNote) ProductionNoteResponse {
	out := ProductionNoteResponse{
		ID:              n.ID,
		WarehouseID:     n.WarehouseID,
		PartyID:         n.PartyID,
		ElaborationDate: n.ElaborationDate.Format(DateLayout),
		Notes:           n.Notes,
		Lots:            make([]LotResponse, 0, len(n.Lots)),
		Materials:       make([]ManualMaterialResponse, 0, len(n.Materials)),
		UpdatedAt:       n.UpdatedAt,
	}
	for _, l := range n.Lots {
		out.Lots = append(out.Lots, NewLotResponse(l))
	}
	for _, m := range n.Materials {
		out.Materials = append(out.Materials, ManualMaterialResponse{ItemCode: m.ItemCode, QuantityPerUnit: m.QuantityPerUnit})
	}
	return out
}

// NewLotResponse mapea un lote.
func NewLotResponse(l *entity.ProductionLot) LotResponse {
	return LotResponse{
		ID:          l.ID,
		NoteID:      l.NoteID,
		ProductID:   l.ProductID,
		Size:        l.Size,
		WarehouseID: l.WarehouseID,
		Produced:    l.Produced,
		Received:    l.Received,
		Available:   l.Available,
	}
}
