package repository

import (
	"context"

	"github.com/jhoicas/inventario-ensamble/internal/domain/entity"
)

// BOMRepository puerto para las líneas de receta (producto, insumo).
type BOMRepository interface {
	Upsert(ctx context.Context, line *entity.BOMLine) error
	Delete(ctx context.Context, productID, itemID string) error
	ListByProduct(ctx context.Context, productID string) ([]*entity.BOMLine, error)
}
