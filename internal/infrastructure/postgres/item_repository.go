package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ensamble/internal/domain"
	"github.com/jhoicas/inventario-ensamble/internal/domain/entity"
	"github.com/jhoicas/inventario-ensamble/internal/domain/repository"
)

var _ repository.ItemRepository = (*ItemRepo)(nil)

const itemColumns = `id, code, name, unit, warehouse_id, quantity, min_stock, unit_cost, party_id, active, created_at, updated_at`

// ItemRepo implementación de ItemRepository sobre PostgreSQL (usable con pool o tx).
type ItemRepo struct {
	q Querier
}

// NewItemRepository construye el adaptador de insumos. Pasar pool o tx (Querier).
func NewItemRepository(q Querier) *ItemRepo {
	return &ItemRepo{q: q}
}

// Create persiste una nueva fila de insumo.
func (r *ItemRepo) Create(ctx context.Context, item *entity.Item) error {
	query := `
		INSERT INTO items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		item.ID, item.Code, item.Name, item.Unit, item.WarehouseID, item.Quantity,
		item.MinStock, item.UnitCost, nullString(item.PartyID), item.Active, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: insumo %s en bodega %s", domain.ErrDuplicate, item.Code, item.WarehouseID)
		}
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// GetByID obtiene una fila por ID; (nil, nil) si no existe.
func (r *ItemRepo) GetByID(ctx context.Context, id string) (*entity.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`
	it, err := scanItem(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

// ListByCode filas del código en todas las bodegas, por ID.
func (r *ItemRepo) ListByCode(ctx context.Context, code string) ([]*entity.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE code = $1 ORDER BY id`
	return r.list(ctx, "list items by code", query, code)
}

// Lock bloquea (SELECT FOR UPDATE) las filas por ID o código en orden de ID ascendente.
func (r *ItemRepo) Lock(ctx context.Context, ids, codes []string) ([]*entity.Item, error) {
	if len(ids) == 0 && len(codes) == 0 {
		return nil, nil
	}
	query := `
		SELECT ` + itemColumns + ` FROM items
		WHERE id = ANY($1) OR code = ANY($2)
		ORDER BY id
		FOR UPDATE`
	return r.list(ctx, "lock items", query, ids, codes)
}

// UpdateStock escribe cantidad y costo promedio. Solo el libro de movimientos la invoca.
func (r *ItemRepo) UpdateStock(ctx context.Context, id string, quantity, unitCost decimal.Decimal) error {
	query := `UPDATE items SET quantity = $2, unit_cost = $3, updated_at = now() WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query, id, quantity, unitCost)
	if err != nil {
		return fmt.Errorf("update item stock: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.NotFoundf("insumo %s", id)
	}
	return nil
}

// UpdateMetadata actualiza los campos no cuantitativos.
func (r *ItemRepo) UpdateMetadata(ctx context.Context, item *entity.Item) error {
	query := `
		UPDATE items SET name = $2, unit = $3, min_stock = $4, unit_cost = $5, party_id = $6, updated_at = $7
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		item.ID, item.Name, item.Unit, item.MinStock, item.UnitCost, nullString(item.PartyID), item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.NotFoundf("insumo %s", item.ID)
	}
	return nil
}

// SetActive activa o desactiva (baja lógica) la fila.
func (r *ItemRepo) SetActive(ctx context.Context, id string, active bool) error {
	cmd, err := r.q.Exec(ctx, `UPDATE items SET active = $2, updated_at = now() WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("set item active: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.NotFoundf("insumo %s", id)
	}
	return nil
}

// ListBelowMinStock filas activas con cantidad < stock mínimo. warehouseID vacío = todas.
func (r *ItemRepo) ListBelowMinStock(ctx context.Context, warehouseID string) ([]*entity.Item, error) {
	query := `
		SELECT ` + itemColumns + ` FROM items
		WHERE active AND quantity < min_stock AND ($1 = '' OR warehouse_id = $1)
		ORDER BY code, id`
	return r.list(ctx, "list items below min stock", query, warehouseID)
}

// ListAll todas las filas, por ID.
func (r *ItemRepo) ListAll(ctx context.Context) ([]*entity.Item, error) {
	return r.list(ctx, "list items", `SELECT `+itemColumns+` FROM items ORDER BY id`)
}

func (r *ItemRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.Item, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var list []*entity.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		list = append(list, it)
	}
	return list, rows.Err()
}

func scanItem(row pgx.Row) (*entity.Item, error) {
	var it entity.Item
	var partyID *string
	if err := row.Scan(&it.ID, &it.Code, &it.Name, &it.Unit, &it.WarehouseID, &it.Quantity,
		&it.MinStock, &it.UnitCost, &partyID, &it.Active, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return nil, err
	}
	it.PartyID = deref(partyID)
	return &it, nil
}
