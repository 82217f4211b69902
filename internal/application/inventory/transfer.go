package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ensamble/internal/application/dto"
	"github.com/jhoicas/inventario-ensamble/internal/domain"
	"github.com/jhoicas/inventario-ensamble/internal/domain/entity"
	inv "github.com/jhoicas/inventario-ensamble/internal/domain/inventory"
	"github.com/jhoicas/inventario-ensamble/internal/domain/repository"
)

// TransferUseCase traslados de producto terminado entre bodegas, lote por lote en orden FIFO.
type TransferUseCase struct {
	tx       TxRunner
	notifier *Notifier
}

// NewTransferUseCase construye el caso de uso.
func NewTransferUseCase(tx TxRunner, notifier *Notifier) *TransferUseCase {
	return &TransferUseCase{tx: tx, notifier: notifier}
}

// TransferStock traslada un producto/talla de una bodega a otra.
func (uc *TransferUseCase) TransferStock(ctx context.Context, in dto.TransferRequest) ([]*entity.TransferRecord, error) {
	return uc.TransferStockBatch(ctx, dto.TransferBatchRequest{
		FromWarehouseID: in.FromWarehouseID,
		ToWarehouseID:   in.ToWarehouseID,
		PartyID:         in.PartyID,
		Items:           []dto.TransferItemRequest{{ProductID: in.ProductID, Size: in.Size, Quantity: in.Quantity}},
	})
}

// TransferStockBatch traslada varios producto/talla en una sola transacción.
// Cada lote de origen tocado genera un TransferRecord y acredita el lote de la misma nota en destino.
func (uc *TransferUseCase) TransferStockBatch(ctx context.Context, in dto.TransferBatchRequest) ([]*entity.TransferRecord, error) {
	if in.FromWarehouseID == "" || in.ToWarehouseID == "" || len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}
	if in.FromWarehouseID == in.ToWarehouseID {
		return nil, fmt.Errorf("%w: bodega origen y destino iguales", domain.ErrInvalidInput)
	}
	items := make([]dto.TransferItemRequest, 0, len(in.Items))
	for _, it := range in.Items {
		it.Size = strings.TrimSpace(it.Size)
		it.Quantity = inv.Round3(it.Quantity)
		if it.ProductID == "" || it.Size == "" {
			return nil, domain.ErrInvalidInput
		}
		if !it.Quantity.IsPositive() {
			return nil, domain.ErrInvalidQuantity
		}
		items = append(items, it)
	}

	now := time.Now()
	op := newOperation(now, in.PartyID)
	err := uc.tx.Run(ctx, func(r repository.Repos) error {
		for _, whID := range []string{in.FromWarehouseID, in.ToWarehouseID} {
			wh, err := r.Warehouses.GetByID(ctx, whID)
			if err != nil {
				return err
			}
			if wh == nil {
				return domain.NotFoundf("bodega %s", whID)
			}
		}
		codes := map[string]string{}
		keys := make([]repository.LotKey, 0, len(items))
		need := map[repository.LotKey]decimal.Decimal{}
		for _, it := range items {
			if _, ok := codes[it.ProductID]; !ok {
				product, err := r.Products.GetByID(ctx, it.ProductID)
				if err != nil {
					return err
				}
				if product == nil {
					return domain.NotFoundf("producto %s", it.ProductID)
				}
				codes[it.ProductID] = product.Code
			}
			k := repository.LotKey{ProductID: it.ProductID, Size: it.Size}
			if _, ok := need[k]; !ok {
				keys = append(keys, k)
			}
			need[k] = need[k].Add(it.Quantity)
		}

		pool, err := lockLotPool(ctx, r, keys)
		if err != nil {
			return err
		}
		var shortages []domain.Shortage
		for _, k := range keys {
			available := inv.SumAvailable(pool.candidates(k, in.FromWarehouseID))
			if available.LessThan(need[k]) {
				shortages = append(shortages, domain.NewShortage(lotResource(codes[k.ProductID], k.Size, in.FromWarehouseID), "", available, need[k]))
			}
		}
		if len(shortages) > 0 {
			return &domain.InsufficientStockError{Shortages: shortages}
		}

		for _, it := range items {
			k := repository.LotKey{ProductID: it.ProductID, Size: it.Size}
			draws, err := inv.PlanFIFO(pool.candidates(k, in.FromWarehouseID), it.Quantity, lotResource(codes[k.ProductID], k.Size, in.FromWarehouseID))
			if err != nil {
				return err
			}
			for _, d := range draws {
				rec, err := moveLot(ctx, r, pool, d, in.ToWarehouseID, op)
				if err != nil {
					return err
				}
				rec.FromWarehouseID = in.FromWarehouseID
				if err := r.Transfers.Create(ctx, rec); err != nil {
					return err
				}
				op.transfers = append(op.transfers, rec)
			}
			op.touchProduct(it.ProductID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.notifier.Committed(ctx, op.event(EventStockTransferred, op.txID))
	return op.transfers, nil
}

// moveLot descuenta el lote de origen y acredita el lote destino de la misma nota
// (lo crea con producido = disponible = 0 si no existe).
func moveLot(ctx context.Context, r repository.Repos, pool *lotPool, d inv.LotDraw, toWarehouse string, op *operation) (*entity.TransferRecord, error) {
	src := d.Lot
	if err := src.Take(d.Quantity); err != nil {
		return nil, err
	}
	src.UpdatedAt = op.now
	if err := r.Lots.UpdateBalance(ctx, src); err != nil {
		return nil, err
	}

	dest := pool.destination(src, toWarehouse)
	if dest == nil {
		lot := &entity.ProductionLot{
			ID:          newSortableID(),
			NoteID:      src.NoteID,
			ProductID:   src.ProductID,
			Size:        src.Size,
			WarehouseID: toWarehouse,
			Produced:    decimal.Zero,
			Received:    decimal.Zero,
			Available:   decimal.Zero,
			NoteDate:    src.NoteDate,
			CreatedAt:   op.now,
			UpdatedAt:   op.now,
		}
		// otra transacción pudo crear el lote destino después de bloquear el pool
		ensured, err := r.Lots.Ensure(ctx, lot)
		if err != nil {
			return nil, err
		}
		dest = ensured
		pool.add(dest)
	}
	dest.Credit(d.Quantity)
	dest.UpdatedAt = op.now
	if err := r.Lots.UpdateBalance(ctx, dest); err != nil {
		return nil, err
	}

	return &entity.TransferRecord{
		ID:            uuid.New().String(),
		TransactionID: op.txID,
		PartyID:       op.partyID,
		ToWarehouseID: toWarehouse,
		ProductID:     src.ProductID,
		Size:          src.Size,
		Quantity:      d.Quantity,
		SourceLotID:   src.ID,
		DestLotID:     dest.ID,
		CreatedAt:     op.now,
	}, nil
}
