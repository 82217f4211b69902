package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ensamble/internal/domain/entity"
)

// MovementFilter filtros del historial de movimientos (kardex).
type MovementFilter struct {
	ItemCode    string
	ItemID      string
	Kind        entity.MovementKind
	PartyID     string
	WarehouseID string
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

// WarehouseBalance saldo de un código de insumo en una bodega, derivado del kardex.
type WarehouseBalance struct {
	WarehouseID string          `json:"warehouse_id"`
	ItemID      string          `json:"item_id"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// ItemLedgerBalance saldo de una fila de insumo según el kardex.
type ItemLedgerBalance struct {
	ItemID   string
	Quantity decimal.Decimal
}

// StockMovementRepository puerto del libro de movimientos. Solo inserta: nunca actualiza ni borra.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	// ListEffectiveByNote movimientos con efecto en saldo de la nota que aún no han sido compensados.
	ListEffectiveByNote(ctx context.Context, noteID string) ([]*entity.StockMovement, error)
	List(ctx context.Context, f MovementFilter) ([]*entity.StockMovement, error)
	BalancesByCode(ctx context.Context, code string) ([]WarehouseBalance, error)
	LedgerBalances(ctx context.Context) ([]ItemLedgerBalance, error)
}
