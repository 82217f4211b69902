package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ensamble/internal/domain/entity"
)

// TransferRequest traslado de un producto/talla entre bodegas.
type TransferRequest struct {
	ProductID       string          `json:"product_id"`
	Size            string          `json:"size"`
	FromWarehouseID string          `json:"from_warehouse_id"`
	ToWarehouseID   string          `json:"to_warehouse_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	PartyID         string          `json:"party_id,omitempty"`
}

// TransferBatchRequest varios productos/tallas entre las mismas bodegas, todo o nada.
type TransferBatchRequest struct {
	FromWarehouseID string                `json:"from_warehouse_id"`
	ToWarehouseID   string                `json:"to_warehouse_id"`
	PartyID         string                `json:"party_id,omitempty"`
	Items           []TransferItemRequest `json:"items"`
}

// TransferItemRequest ítem del traslado por lote.
type TransferItemRequest struct {
	ProductID string          `json:"product_id"`
	Size      string          `json:"size"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// TransferRecordResponse registro de traslado por lote de origen.
type TransferRecordResponse struct {
	ID              string          `json:"id"`
	TransactionID   string          `json:"transaction_id"`
	FromWarehouseID string          `json:"from_warehouse_id"`
	ToWarehouseID   string          `json:"to_warehouse_id"`
	ProductID       string          `json:"product_id"`
	Size            string          `json:"size"`
	Quantity        decimal.Decimal `json:"quantity"`
	SourceLotID     string          `json:"source_lot_id"`
	DestLotID       string          `json:"dest_lot_id"`
	CreatedAt       time.Time       `json:"created_at"`
}

// NewTransferRecordResponses mapea los registros de traslado.
func NewTransferRecordResponses(list []*entity.TransferRecord) []TransferRecordResponse {
	out := make([]TransferRecordResponse, 0, len(list))
	for _, t := range list {
		out = append(out, TransferRecordResponse{
			ID:              t.ID,
			TransactionID:   t.TransactionID,
			FromWarehouseID: t.FromWarehouseID,
			ToWarehouseID:   t.ToWarehouseID,
			ProductID:       t.ProductID,
			Size:            t.Size,
			Quantity:        t.Quantity,
			SourceLotID:     t.SourceLotID,
			DestLotID:       t.DestLotID,
			CreatedAt:       t.CreatedAt,
		})
	}
	return out
}
