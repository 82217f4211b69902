package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ensamble/internal/domain/entity"
)

// RegisterItemRequest body para POST /api/items.
type RegisterItemRequest struct {
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Unit        string          `json:"unit"`
	WarehouseID string          `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"` // saldo inicial (movimiento CREATE)
	UnitCost    decimal.Decimal `json:"unit_cost"`
	MinStock    decimal.Decimal `json:"min_stock"`
	PartyID     string          `json:"party_id,omitempty"`
	Reference   string          `json:"reference,omitempty"`
}

// UpdateItemRequest campos no cuantitativos de un insumo.
type UpdateItemRequest struct {
	Name     *string          `json:"name"`
	Unit     *string          `json:"unit"`
	MinStock *decimal.Decimal `json:"min_stock"`
	UnitCost *decimal.Decimal `json:"unit_cost"`
	PartyID  *string          `json:"party_id"`
}

// MovementRequest body para POST /api/movements (record y apply).
// El insumo se identifica por ItemID o por ItemCode + WarehouseID.
type MovementRequest struct {
	Kind        string           `json:"kind"`
	ItemID      string           `json:"item_id,omitempty"`
	ItemCode    string           `json:"item_code,omitempty"`
	WarehouseID string           `json:"warehouse_id,omitempty"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitCost    *decimal.Decimal `json:"unit_cost,omitempty"`
	PartyID     string           `json:"party_id,omitempty"`
	Reference   string           `json:"reference,omitempty"`
	Notes       string           `json:"notes,omitempty"`
}

// ConsumeRequest consumo (Quantity > 0) o devolución (Quantity < 0) de un insumo entre bodegas.
type ConsumeRequest struct {
	ItemCode             string          `json:"item_code"`
	PreferredWarehouseID string          `json:"preferred_warehouse_id"`
	Quantity             decimal.Decimal `json:"quantity"`
	Kind                 string          `json:"kind,omitempty"`
	PartyID              string          `json:"party_id,omitempty"`
	Reference            string          `json:"reference,omitempty"`
}

// BOMDeltaRequest aplica la receta de un producto por DeltaUnits (negativo = revertir).
type BOMDeltaRequest struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	DeltaUnits  decimal.Decimal `json:"delta_units"`
	PartyID     string          `json:"party_id,omitempty"`
}

// BOMLineRequest body para PUT /api/bom.
type BOMLineRequest struct {
	ProductID       string          `json:"product_id"`
	ItemID          string          `json:"item_id"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit"`
	WastePct        decimal.Decimal `json:"waste_pct"`
}

// ItemResponse salida de una fila de insumo.
type ItemResponse struct {
	ID          string          `json:"id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Unit        string          `json:"unit"`
	WarehouseID string          `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	MinStock    decimal.Decimal `json:"min_stock"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	PartyID     string          `json:"party_id,omitempty"`
	Active      bool            `json:"active"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// MovementResponse salida de un movimiento del kardex.
type MovementResponse struct {
	ID               string          `json:"id"`
	TransactionID    string          `json:"transaction_id"`
	ItemID           string          `json:"item_id"`
	ItemCode         string          `json:"item_code"`
	WarehouseID      string          `json:"warehouse_id"`
	Kind             string          `json:"kind"`
	Quantity         decimal.Decimal `json:"quantity"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	Total            decimal.Decimal `json:"total"`
	BalanceAfter     decimal.Decimal `json:"balance_after"`
	AffectsStock     bool            `json:"affects_stock"`
	PartyID          string          `json:"party_id,omitempty"`
	Reference        string          `json:"reference,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	ProductionNoteID string          `json:"production_note_id,omitempty"`
	SupersedesID     string          `json:"supersedes_id,omitempty"`
	Date             time.Time       `json:"date"`
}

// BOMLineResponse salida de una línea de receta.
type BOMLineResponse struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"product_id"`
	ItemID          string          `json:"item_id"`
	ItemCode        string          `json:"item_code"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit"`
	WastePct        decimal.Decimal `json:"waste_pct"`
}

// BalanceDrift diferencia entre el saldo en caché de una fila y el derivado del kardex.
type BalanceDrift struct {
	ItemID      string          `json:"item_id"`
	ItemCode    string          `json:"item_code"`
	WarehouseID string          `json:"warehouse_id"`
	Cached      decimal.Decimal `json:"cached"`
	Ledger      decimal.Decimal `json:"ledger"`
}

// NewItemResponse mapea la entidad a la salida HTTP.
func NewItemResponse(i *entity.Item) ItemResponse {
	return ItemResponse{
		ID:          i.ID,
		Code:        i.Code,
		Name:        i.Name,
		Unit:        i.Unit,
		WarehouseID: i.WarehouseID,
		Quantity:    i.Quantity,
		MinStock:    i.MinStock,
		UnitCost:    i.UnitCost,
		PartyID:     i.PartyID,
		Active:      i.Active,
		UpdatedAt:   i.UpdatedAt,
	}
}

// NewMovementResponses mapea una lista de movimientos.
func NewMovementResponses(list []*entity.StockMovement) []MovementResponse {
	out := make([]MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, NewMovementResponse(m))
	}
	return out
}

// NewMovementResponse mapea un movimiento.
func NewMovementResponse(m *entity.StockMovement) MovementResponse {
	return MovementResponse{
		ID:               m.ID,
		TransactionID:    m.TransactionID,
		ItemID:           m.ItemID,
		ItemCode:         m.ItemCode,
		WarehouseID:      m.WarehouseID,
		Kind:             string(m.Kind),
		Quantity:         m.Quantity,
		UnitCost:         m.UnitCost,
		Total:            m.Total,
		BalanceAfter:     m.BalanceAfter,
		AffectsStock:     m.AffectsStock,
		PartyID:          m.PartyID,
		Reference:        m.Reference,
		Notes:            m.Notes,
		ProductionNoteID: m.ProductionNoteID,
		SupersedesID:     m.SupersedesID,
		Date:             m.Date,
	}
}

// NewBOMLineResponses mapea las líneas de receta.
func NewBOMLineResponses(lines []*entity.BOMLine) []BOMLineResponse {
	out := make([]BOMLineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, BOMLineResponse{
			ID:              l.ID,
			ProductID:       l.ProductID,
			ItemID:          l.ItemID,
			ItemCode:        l.ItemCode,
			QuantityPerUnit: l.QuantityPerUnit,
			WastePct:        l.WastePct,
		})
	}
	return out
}

// ReplenishmentSuggestionDTO insumo por debajo del stock mínimo con la cantidad sugerida a reponer.
type ReplenishmentSuggestionDTO struct {
	ItemID        string          `json:"item_id"`
	ItemCode      string          `json:"item_code"`
	ItemName      string          `json:"item_name"`
	WarehouseID   string          `json:"warehouse_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	MinStock      decimal.Decimal `json:"min_stock"`
	IdealStock    decimal.Decimal `json:"ideal_stock"`
	SuggestedQty  decimal.Decimal `json:"suggested_qty"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	EstimatedCost decimal.Decimal `json:"estimated_cost"`
	Priority      int             `json:"priority"`
}
