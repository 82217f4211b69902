package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-ensamble/internal/domain/entity"
	"github.com/jhoicas/inventario-ensamble/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

const movementColumns = `id, transaction_id, item_id, item_code, warehouse_id, kind, quantity, unit_cost, total,
	balance_after, affects_stock, party_id, reference, notes, production_note_id, supersedes_id, date, created_at`

// signedQuantitySQL efecto de m sobre el saldo de su fila.
const signedQuantitySQL = `CASE WHEN NOT m.affects_stock THEN 0
	WHEN m.kind IN ('CREATE','INBOUND','ADJUSTMENT') THEN m.quantity
	WHEN m.kind IN ('OUTBOUND','ASSEMBLY_CONSUMPTION') THEN -m.quantity
	ELSE 0 END`

// StockMovementRepo kardex sobre PostgreSQL (usable con pool o tx). Solo inserta.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create persiste un movimiento del kardex.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.TransactionID, m.ItemID, m.ItemCode, m.WarehouseID, string(m.Kind),
		m.Quantity, m.UnitCost, m.Total, m.BalanceAfter, m.AffectsStock,
		nullString(m.PartyID), nullString(m.Reference), nullString(m.Notes),
		nullString(m.ProductionNoteID), nullString(m.SupersedesID), m.Date, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// ListEffectiveByNote movimientos con efecto en saldo de la nota, no compensados, en orden de inserción.
func (r *StockMovementRepo) ListEffectiveByNote(ctx context.Context, noteID string) ([]*entity.StockMovement, error) {
	query := `
		SELECT ` + movementColumns + ` FROM stock_movements m
		WHERE m.production_note_id = $1 AND m.affects_stock AND m.supersedes_id IS NULL
		  AND NOT EXISTS (SELECT 1 FROM stock_movements c WHERE c.supersedes_id = m.id)
		ORDER BY m.seq`
	return r.list(ctx, "list effective by note", query, noteID)
}

// List historial filtrado, más reciente primero.
func (r *StockMovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements m WHERE TRUE`
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		query += fmt.Sprintf(" AND "+cond, len(args))
	}
	if f.ItemCode != "" {
		add("m.item_code = $%d", f.ItemCode)
	}
	if f.ItemID != "" {
		add("m.item_id = $%d", f.ItemID)
	}
	if f.Kind != "" {
		add("m.kind = $%d", string(f.Kind))
	}
	if f.PartyID != "" {
		add("m.party_id = $%d", f.PartyID)
	}
	if f.WarehouseID != "" {
		add("m.warehouse_id = $%d", f.WarehouseID)
	}
	if f.From != nil {
		add("m.date >= $%d", *f.From)
	}
	if f.To != nil {
		add("m.date <= $%d", *f.To)
	}
	args = append(args, f.Limit, f.Offset)
	query += fmt.Sprintf(" ORDER BY m.date DESC, m.seq DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	return r.list(ctx, "list stock movements", query, args...)
}

// BalancesByCode saldo por bodega del código, sumando el kardex de cada fila.
func (r *StockMovementRepo) BalancesByCode(ctx context.Context, code string) ([]repository.WarehouseBalance, error) {
	query := `
		SELECT i.warehouse_id, i.id, COALESCE(SUM(` + signedQuantitySQL + `), 0)
		FROM items i
		LEFT JOIN stock_movements m ON m.item_id = i.id
		WHERE i.code = $1
		GROUP BY i.warehouse_id, i.id
		ORDER BY i.warehouse_id`
	rows, err := r.q.Query(ctx, query, code)
	if err != nil {
		return nil, fmt.Errorf("balances by code: %w", err)
	}
	defer rows.Close()
	out := []repository.WarehouseBalance{}
	for rows.Next() {
		var b repository.WarehouseBalance
		if err := rows.Scan(&b.WarehouseID, &b.ItemID, &b.Quantity); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// LedgerBalances saldo de cada fila con movimientos según el kardex.
func (r *StockMovementRepo) LedgerBalances(ctx context.Context) ([]repository.ItemLedgerBalance, error) {
	query := `
		SELECT m.item_id, SUM(` + signedQuantitySQL + `)
		FROM stock_movements m
		GROUP BY m.item_id
		ORDER BY m.item_id`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ledger balances: %w", err)
	}
	defer rows.Close()
	var out []repository.ItemLedgerBalance
	for rows.Next() {
		var b repository.ItemLedgerBalance
		if err := rows.Scan(&b.ItemID, &b.Quantity); err != nil {
			return nil, fmt.Errorf("scan ledger balance: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *StockMovementRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	list := []*entity.StockMovement{}
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var m entity.StockMovement
	var kind string
	var partyID, reference, notes, noteID, supersedes *string
	if err := row.Scan(&m.ID, &m.TransactionID, &m.ItemID, &m.ItemCode, &m.WarehouseID, &kind,
		&m.Quantity, &m.UnitCost, &m.Total, &m.BalanceAfter, &m.AffectsStock,
		&partyID, &reference, &notes, &noteID, &supersedes, &m.Date, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Kind = entity.MovementKind(kind)
	m.PartyID = deref(partyID)
	m.Reference = deref(reference)
	m.Notes = deref(notes)
	m.ProductionNoteID = deref(noteID)
	m.SupersedesID = deref(supersedes)
	return &m, nil
}
