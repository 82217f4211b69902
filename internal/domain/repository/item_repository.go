package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ensamble/internal/domain/entity"
)

// ItemRepository puerto de persistencia para filas de insumos por bodega.
// Lock bloquea las filas (SELECT FOR UPDATE) en orden de ID ascendente.
type ItemRepository interface {
	Create(ctx context.Context, item *entity.Item) error
	GetByID(ctx context.Context, id string) (*entity.Item, error)
	ListByCode(ctx context.Context, code string) ([]*entity.Item, error)
	// Lock bloquea, en una sola pasada, las filas cuyo ID está en ids o cuyo código está en codes.
	Lock(ctx context.Context, ids, codes []string) ([]*entity.Item, error)
	// UpdateStock solo debe llamarse desde el libro de movimientos.
	UpdateStock(ctx context.Context, id string, quantity, unitCost decimal.Decimal) error
	UpdateMetadata(ctx context.Context, item *entity.Item) error
	SetActive(ctx context.Context, id string, active bool) error
	ListBelowMinStock(ctx context.Context, warehouseID string) ([]*entity.Item, error)
	ListAll(ctx context.Context) ([]*entity.Item, error)
}
