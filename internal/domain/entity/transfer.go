package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferRecord registro histórico de traslado; uno por lote de origen tocado.
type TransferRecord struct {
	ID              string
	TransactionID   string
	PartyID         string
	FromWarehouseID string
	ToWarehouseID   string
	ProductID       string
	Size            string
	Quantity        decimal.Decimal
	SourceLotID     string
	DestLotID       string
	CreatedAt       time.Time
}
