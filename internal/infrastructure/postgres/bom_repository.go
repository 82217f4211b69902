package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-ensamble/internal/domain"
	"github.com/jhoicas/inventario-ensamble/internal/domain/entity"
	"github.com/jhoicas/inventario-ensamble/internal/domain/repository"
)

var _ repository.BOMRepository = (*BOMRepo)(nil)

// BOMRepo líneas de receta sobre PostgreSQL.
type BOMRepo struct {
	q Querier
}

// NewBOMRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBOMRepository(q Querier) *BOMRepo {
	return &BOMRepo{q: q}
}

// Upsert crea la línea o actualiza cantidad y merma si (producto, insumo) ya existe.
func (r *BOMRepo) Upsert(ctx context.Context, line *entity.BOMLine) error {
	query := `
		INSERT INTO bom_lines (id, product_id, item_id, item_code, quantity_per_unit, waste_pct, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (product_id, item_id)
		DO UPDATE SET quantity_per_unit = EXCLUDED.quantity_per_unit,
		              waste_pct = EXCLUDED.waste_pct,
		              item_code = EXCLUDED.item_code,
		              updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`
	err := r.q.QueryRow(ctx, query,
		line.ID, line.ProductID, line.ItemID, line.ItemCode, line.QuantityPerUnit, line.WastePct,
		line.CreatedAt, line.UpdatedAt,
	).Scan(&line.ID, &line.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert bom line: %w", err)
	}
	return nil
}

// Delete elimina la línea (producto, insumo).
func (r *BOMRepo) Delete(ctx context.Context, productID, itemID string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM bom_lines WHERE product_id = $1 AND item_id = $2`, productID, itemID)
	if err != nil {
		return fmt.Errorf("delete bom line: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.NotFoundf("línea de receta %s/%s", productID, itemID)
	}
	return nil
}

// ListByProduct líneas de receta del producto.
func (r *BOMRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.BOMLine, error) {
	query := `
		SELECT id, product_id, item_id, item_code, quantity_per_unit, waste_pct, created_at, updated_at
		FROM bom_lines WHERE product_id = $1 ORDER BY item_code, id`
	rows, err := r.q.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list bom lines: %w", err)
	}
	defer rows.Close()
	var list []*entity.BOMLine
	for rows.Next() {
		var l entity.BOMLine
		if err := rows.Scan(&l.ID, &l.ProductID, &l.ItemID, &l.ItemCode, &l.QuantityPerUnit,
			&l.WastePct, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan bom line: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}
