package repository

import (
	"context"

	"github.com/jhoicas/inventario-ensamble/internal/domain/entity"
)

// TransferRepository puerto del histórico de traslados (solo inserción).
type TransferRepository interface {
	Create(ctx context.Context, record *entity.TransferRecord) error
	ListByTransaction(ctx context.Context, transactionID string) ([]*entity.TransferRecord, error)
}
