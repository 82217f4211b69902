package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-ensamble/internal/domain/entity"
	"github.com/jhoicas/inventario-ensamble/internal/domain/repository"
)

var _ repository.TransferRepository = (*TransferRepo)(nil)

// TransferRepo histórico de traslados (solo inserción).
type TransferRepo struct {
	q Querier
}

// NewTransferRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransferRepository(q Querier) *TransferRepo {
	return &TransferRepo{q: q}
}

// Create persiste un registro de traslado.
func (r *TransferRepo) Create(ctx context.Context, t *entity.TransferRecord) error {
	query := `
		INSERT INTO transfer_records (id, transaction_id, party_id, from_warehouse_id, to_warehouse_id,
			product_id, size, quantity, source_lot_id, dest_lot_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query, t.ID, t.TransactionID, nullString(t.PartyID), t.FromWarehouseID, t.ToWarehouseID,
		t.ProductID, t.Size, t.Quantity, t.SourceLotID, t.DestLotID, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert transfer record: %w", err)
	}
	return nil
}

// ListByTransaction registros de una misma operación, en orden de inserción.
func (r *TransferRepo) ListByTransaction(ctx context.Context, transactionID string) ([]*entity.TransferRecord, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, transaction_id, party_id, from_warehouse_id, to_warehouse_id,
		       product_id, size, quantity, source_lot_id, dest_lot_id, created_at
		FROM transfer_records WHERE transaction_id = $1 ORDER BY seq`, transactionID)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()
	var list []*entity.TransferRecord
	for rows.Next() {
		var t entity.TransferRecord
		var partyID *string
		if err := rows.Scan(&t.ID, &t.TransactionID, &partyID, &t.FromWarehouseID, &t.ToWarehouseID,
			&t.ProductID, &t.Size, &t.Quantity, &t.SourceLotID, &t.DestLotID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		t.PartyID = deref(partyID)
		list = append(list, &t)
	}
	return list, rows.Err()
}
