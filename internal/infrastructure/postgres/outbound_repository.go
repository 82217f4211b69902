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

var _ repository.OutboundRepository = (*OutboundRepo)(nil)

// OutboundRepo notas de salida, líneas y asignaciones por lote.
type OutboundRepo struct {
	q Querier
}

// NewOutboundRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOutboundRepository(q Querier) *OutboundRepo {
	return &OutboundRepo{q: q}
}

// Create persiste cabecera y líneas (sin asignaciones).
func (r *OutboundRepo) Create(ctx context.Context, n *entity.OutboundNote) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO outbound_notes (id, warehouse_id, party_id, date, created_at)
		VALUES ($1, $2, $3, $4, $5)`, n.ID, n.WarehouseID, nullString(n.PartyID), n.Date, n.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: nota de salida %s", domain.ErrDuplicate, n.ID)
		}
		return fmt.Errorf("insert outbound note: %w", err)
	}
	for _, l := range n.Lines {
		_, err := r.q.Exec(ctx, `
			INSERT INTO outbound_lines (id, note_id, product_id, size, quantity, unit_cost)
			VALUES ($1, $2, $3, $4, $5, $6)`, l.ID, n.ID, l.ProductID, l.Size, l.Quantity, l.UnitCost)
		if err != nil {
			return fmt.Errorf("insert outbound line: %w", err)
		}
	}
	return nil
}

// CreateAllocation registra cuánto absorbió un lote de una línea.
func (r *OutboundRepo) CreateAllocation(ctx context.Context, a *entity.Allocation) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO allocations (id, line_id, lot_id, quantity, created_at)
		VALUES ($1, $2, $3, $4, $5)`, a.ID, a.LineID, a.LotID, a.Quantity, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert allocation: %w", err)
	}
	return nil
}

// LockByID carga la nota bloqueando su cabecera; (nil, nil) si no existe.
func (r *OutboundRepo) LockByID(ctx context.Context, id string) (*entity.OutboundNote, error) {
	return r.load(ctx, id, " FOR UPDATE")
}

// GetByID carga la nota con líneas y asignaciones; (nil, nil) si no existe.
func (r *OutboundRepo) GetByID(ctx context.Context, id string) (*entity.OutboundNote, error) {
	return r.load(ctx, id, "")
}

func (r *OutboundRepo) load(ctx context.Context, id, lock string) (*entity.OutboundNote, error) {
	var n entity.OutboundNote
	var partyID *string
	err := r.q.QueryRow(ctx, `
		SELECT id, warehouse_id, party_id, date, created_at
		FROM outbound_notes WHERE id = $1`+lock, id).Scan(&n.ID, &n.WarehouseID, &partyID, &n.Date, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get outbound note: %w", err)
	}
	n.PartyID = deref(partyID)

	rows, err := r.q.Query(ctx, `
		SELECT id, note_id, product_id, size, quantity, unit_cost
		FROM outbound_lines WHERE note_id = $1 ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("list outbound lines: %w", err)
	}
	byID := map[string]*entity.OutboundLine{}
	for rows.Next() {
		var l entity.OutboundLine
		if err := rows.Scan(&l.ID, &l.NoteID, &l.ProductID, &l.Size, &l.Quantity, &l.UnitCost); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan outbound line: %w", err)
		}
		n.Lines = append(n.Lines, &l)
		byID[l.ID] = &l
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list outbound lines: %w", err)
	}

	rows, err = r.q.Query(ctx, `
		SELECT a.id, a.line_id, a.lot_id, a.quantity, a.created_at
		FROM allocations a
		JOIN outbound_lines l ON l.id = a.line_id
		WHERE l.note_id = $1 ORDER BY a.seq`, id)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var a entity.Allocation
		if err := rows.Scan(&a.ID, &a.LineID, &a.LotID, &a.Quantity, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		if l, ok := byID[a.LineID]; ok {
			l.Allocations = append(l.Allocations, &a)
		}
	}
	return &n, rows.Err()
}

// Delete borra la nota; líneas y asignaciones caen en cascada.
func (r *OutboundRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM outbound_notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete outbound note: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.NotFoundf("nota de salida %s", id)
	}
	return nil
}
