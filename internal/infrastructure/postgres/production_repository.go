package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-ensamble/internal/domain"
	"github.com/jhoicas/inventario-ensamble/internal/domain/entity"
	"github.com/jhoicas/inventario-ensamble/internal/domain/repository"
)

var (
	_ repository.ProductionNoteRepository = (*ProductionNoteRepo)(nil)
	_ repository.LotRepository            = (*LotRepo)(nil)
)

// ProductionNoteRepo notas de ensamble sobre PostgreSQL.
type ProductionNoteRepo struct {
	q Querier
}

// NewProductionNoteRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductionNoteRepository(q Querier) *ProductionNoteRepo {
	return &ProductionNoteRepo{q: q}
}

// Create persiste la cabecera; lotes e insumos manuales van por sus propios métodos.
func (r *ProductionNoteRepo) Create(ctx context.Context, n *entity.ProductionNote) error {
	query := `
		INSERT INTO production_notes (id, warehouse_id, party_id, elaboration_date, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query, n.ID, n.WarehouseID, nullString(n.PartyID), n.ElaborationDate, n.Notes, n.CreatedAt, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert production note: %w", err)
	}
	return nil
}

// Update reescribe la cabecera.
func (r *ProductionNoteRepo) Update(ctx context.Context, n *entity.ProductionNote) error {
	query := `
		UPDATE production_notes SET warehouse_id = $2, party_id = $3, elaboration_date = $4, notes = $5, updated_at = $6
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query, n.ID, n.WarehouseID, nullString(n.PartyID), n.ElaborationDate, n.Notes, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update production note: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.NotFoundf("nota %s", n.ID)
	}
	return nil
}

// Delete borra la nota; lotes e insumos manuales caen en cascada.
func (r *ProductionNoteRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM production_notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete production note: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.NotFoundf("nota %s", id)
	}
	return nil
}

// GetByID carga cabecera, lotes e insumos manuales; (nil, nil) si no existe.
func (r *ProductionNoteRepo) GetByID(ctx context.Context, id string) (*entity.ProductionNote, error) {
	return r.load(ctx, id, "")
}

// LockByID igual que GetByID con la cabecera bloqueada (FOR UPDATE).
func (r *ProductionNoteRepo) LockByID(ctx context.Context, id string) (*entity.ProductionNote, error) {
	return r.load(ctx, id, " FOR UPDATE")
}

func (r *ProductionNoteRepo) load(ctx context.Context, id, lock string) (*entity.ProductionNote, error) {
	query := `
		SELECT id, warehouse_id, party_id, elaboration_date, notes, created_at, updated_at
		FROM production_notes WHERE id = $1` + lock
	var n entity.ProductionNote
	var partyID *string
	err := r.q.QueryRow(ctx, query, id).Scan(&n.ID, &n.WarehouseID, &partyID, &n.ElaborationDate, &n.Notes, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get production note: %w", err)
	}
	n.PartyID = deref(partyID)

	lots, err := NewLotRepository(r.q).list(ctx, "list note lots", `WHERE l.note_id = $1 ORDER BY l.id`, id)
	if err != nil {
		return nil, err
	}
	n.Lots = lots

	rows, err := r.q.Query(ctx, `
		SELECT id, note_id, item_id, item_code, quantity_per_unit
		FROM manual_material_lines WHERE note_id = $1 ORDER BY item_code`, id)
	if err != nil {
		return nil, fmt.Errorf("list manual materials: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var m entity.ManualMaterialLine
		if err := rows.Scan(&m.ID, &m.NoteID, &m.ItemID, &m.ItemCode, &m.QuantityPerUnit); err != nil {
			return nil, fmt.Errorf("scan manual material: %w", err)
		}
		n.Materials = append(n.Materials, &m)
	}
	return &n, rows.Err()
}

// ReplaceMaterials reemplaza los insumos manuales de la nota.
func (r *ProductionNoteRepo) ReplaceMaterials(ctx context.Context, noteID string, lines []*entity.ManualMaterialLine) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM manual_material_lines WHERE note_id = $1`, noteID); err != nil {
		return fmt.Errorf("delete manual materials: %w", err)
	}
	for _, m := range lines {
		_, err := r.q.Exec(ctx, `
			INSERT INTO manual_material_lines (id, note_id, item_id, item_code, quantity_per_unit)
			VALUES ($1, $2, $3, $4, $5)`, m.ID, noteID, m.ItemID, m.ItemCode, m.QuantityPerUnit)
		if err != nil {
			return fmt.Errorf("insert manual material: %w", err)
		}
	}
	return nil
}

// LotRepo lotes de producto terminado sobre PostgreSQL.
type LotRepo struct {
	q Querier
}

// NewLotRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLotRepository(q Querier) *LotRepo {
	return &LotRepo{q: q}
}

// Create persiste un lote con su bodega efectiva ya resuelta.
func (r *LotRepo) Create(ctx context.Context, l *entity.ProductionLot) error {
	query := `
		INSERT INTO production_lots (id, note_id, product_id, size, warehouse_id, produced, received, available, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query, l.ID, l.NoteID, l.ProductID, l.Size, l.WarehouseID,
		l.Produced, l.Received, l.Available, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert lot: %w", err)
	}
	return nil
}

// Ensure inserta el lote o, si otra transacción ya creó el de la misma nota/producto/talla/bodega,
// toma ese. En ambos casos lo relee bloqueado con los saldos vigentes.
func (r *LotRepo) Ensure(ctx context.Context, l *entity.ProductionLot) (*entity.ProductionLot, error) {
	query := `
		INSERT INTO production_lots (id, note_id, product_id, size, warehouse_id, produced, received, available, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (note_id, product_id, size, warehouse_id) DO UPDATE SET updated_at = production_lots.updated_at
		RETURNING id`
	var id string
	err := r.q.QueryRow(ctx, query, l.ID, l.NoteID, l.ProductID, l.Size, l.WarehouseID,
		l.Produced, l.Received, l.Available, l.CreatedAt, l.UpdatedAt).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("ensure lot: %w", err)
	}
	lots, err := r.LockByIDs(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(lots) == 0 {
		return nil, domain.NotFoundf("lote %s", id)
	}
	return lots[0], nil
}

// UpdateBalance persiste disponible y recibido.
func (r *LotRepo) UpdateBalance(ctx context.Context, l *entity.ProductionLot) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE production_lots SET available = $2, received = $3, updated_at = $4 WHERE id = $1`,
		l.ID, l.Available, l.Received, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update lot balance: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.NotFoundf("lote %s", l.ID)
	}
	return nil
}

// DeleteByNote borra los lotes de la nota.
func (r *LotRepo) DeleteByNote(ctx context.Context, noteID string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM production_lots WHERE note_id = $1`, noteID); err != nil {
		return fmt.Errorf("delete note lots: %w", err)
	}
	return nil
}

// LockByNote bloquea los lotes de la nota por ID ascendente.
func (r *LotRepo) LockByNote(ctx context.Context, noteID string) ([]*entity.ProductionLot, error) {
	return r.list(ctx, "lock note lots", `WHERE l.note_id = $1 ORDER BY l.id FOR UPDATE OF l`, noteID)
}

// LockByIDs bloquea los lotes por ID ascendente.
func (r *LotRepo) LockByIDs(ctx context.Context, ids []string) ([]*entity.ProductionLot, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.list(ctx, "lock lots", `WHERE l.id = ANY($1) ORDER BY l.id FOR UPDATE OF l`, ids)
}

// LockByKeys bloquea todos los lotes de los pares producto/talla en cualquier bodega, por ID ascendente.
func (r *LotRepo) LockByKeys(ctx context.Context, keys []repository.LotKey) ([]*entity.ProductionLot, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	products := make([]string, len(keys))
	sizes := make([]string, len(keys))
	for i, k := range keys {
		products[i], sizes[i] = k.ProductID, k.Size
	}
	return r.list(ctx, "lock lots by key", `
		WHERE (l.product_id, l.size) IN (SELECT * FROM unnest($1::text[], $2::text[]))
		ORDER BY l.id FOR UPDATE OF l`, products, sizes)
}

// HasDownstream true si algún lote de la nota aparece en una asignación o en un traslado (origen o destino).
func (r *LotRepo) HasDownstream(ctx context.Context, noteID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM allocations a JOIN production_lots l ON l.id = a.lot_id WHERE l.note_id = $1
		) OR EXISTS (
			SELECT 1 FROM transfer_records t JOIN production_lots l ON l.id IN (t.source_lot_id, t.dest_lot_id)
			WHERE l.note_id = $1
		)`
	var locked bool
	if err := r.q.QueryRow(ctx, query, noteID).Scan(&locked); err != nil {
		return false, fmt.Errorf("note downstream: %w", err)
	}
	return locked, nil
}

// StockBySize disponible por talla del producto en la bodega.
func (r *LotRepo) StockBySize(ctx context.Context, productID, warehouseID string) ([]repository.SizeStock, error) {
	rows, err := r.q.Query(ctx, `
		SELECT size, SUM(available) FROM production_lots
		WHERE product_id = $1 AND warehouse_id = $2
		GROUP BY size ORDER BY size`, productID, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("stock by size: %w", err)
	}
	defer rows.Close()
	out := []repository.SizeStock{}
	for rows.Next() {
		var s repository.SizeStock
		if err := rows.Scan(&s.Size, &s.Available); err != nil {
			return nil, fmt.Errorf("scan size stock: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// list lotes con la fecha de elaboración de su nota (orden FIFO).
func (r *LotRepo) list(ctx context.Context, op, where string, args ...any) ([]*entity.ProductionLot, error) {
	query := `
		SELECT l.id, l.note_id, l.product_id, l.size, l.warehouse_id, l.produced, l.received, l.available,
		       n.elaboration_date, l.created_at, l.updated_at
		FROM production_lots l
		JOIN production_notes n ON n.id = l.note_id ` + where
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var list []*entity.ProductionLot
	for rows.Next() {
		var l entity.ProductionLot
		if err := rows.Scan(&l.ID, &l.NoteID, &l.ProductID, &l.Size, &l.WarehouseID, &l.Produced,
			&l.Received, &l.Available, &l.NoteDate, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan lot: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}
