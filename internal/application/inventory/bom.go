package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/inventario-ensamble/internal/application/dto"
	"github.com/jhoicas/inventario-ensamble/internal/domain"
	"github.com/jhoicas/inventario-ensamble/internal/domain/entity"
	inv "github.com/jhoicas/inventario-ensamble/internal/domain/inventory"
	"github.com/jhoicas/inventario-ensamble/internal/domain/repository"
)

// BOMUseCase mantenimiento de recetas (lista de materiales por producto).
type BOMUseCase struct {
	tx TxRunner
}

// NewBOMUseCase construye el caso de uso.
func NewBOMUseCase(tx TxRunner) *BOMUseCase {
	return &BOMUseCase{tx: tx}
}

// SetLine crea o reemplaza la línea (producto, insumo) de la receta.
func (uc *BOMUseCase) SetLine(ctx context.Context, in dto.BOMLineRequest) (*entity.BOMLine, error) {
	if in.ProductID == "" || in.ItemID == "" {
		return nil, domain.ErrInvalidInput
	}
	qty := inv.Round3(in.QuantityPerUnit)
	if !qty.IsPositive() || in.WastePct.IsNegative() {
		return nil, domain.ErrInvalidQuantity
	}
	now := time.Now()
	line := &entity.BOMLine{
		ID:              uuid.New().String(),
		ProductID:       in.ProductID,
		ItemID:          in.ItemID,
		QuantityPerUnit: qty,
		WastePct:        in.WastePct,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	err := uc.tx.Run(ctx, func(r repository.Repos) error {
		product, err := r.Products.GetByID(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.NotFoundf("producto %s", in.ProductID)
		}
		item, err := r.Items.GetByID(ctx, in.ItemID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.NotFoundf("insumo %s", in.ItemID)
		}
		line.ItemCode = item.Code
		return r.BOM.Upsert(ctx, line)
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

// RemoveLine elimina la línea (producto, insumo).
func (uc *BOMUseCase) RemoveLine(ctx context.Context, productID, itemID string) error {
	if productID == "" || itemID == "" {
		return domain.ErrInvalidInput
	}
	return uc.tx.Run(ctx, func(r repository.Repos) error {
		return r.BOM.Delete(ctx, productID, itemID)
	})
}

// ListBOM líneas de receta del producto.
func (uc *BOMUseCase) ListBOM(ctx context.Context, productID string) ([]*entity.BOMLine, error) {
	var lines []*entity.BOMLine
	err := uc.tx.View(ctx, func(r repository.Repos) error {
		var err error
		lines, err = r.BOM.ListByProduct(ctx, productID)
		return err
	})
	return lines, err
}
