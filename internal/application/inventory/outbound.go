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

// OutboundUseCase salidas de producto terminado con asignación FIFO por lote.
type OutboundUseCase struct {
	tx       TxRunner
	notifier *Notifier
}

// NewOutboundUseCase construye el caso de uso.
func NewOutboundUseCase(tx TxRunner, notifier *Notifier) *OutboundUseCase {
	return &OutboundUseCase{tx: tx, notifier: notifier}
}

// AllocateOutbound persiste la nota de salida y asigna cada línea a los lotes más antiguos de la bodega.
// Todo o nada: si algún producto/talla no alcanza, ninguna línea queda asignada.
func (uc *OutboundUseCase) AllocateOutbound(ctx context.Context, in dto.OutboundNoteRequest) (*entity.OutboundNote, error) {
	if in.WarehouseID == "" || len(in.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	date, err := parseDate(in.Date, now)
	if err != nil {
		return nil, err
	}
	note := &entity.OutboundNote{
		ID:          uuid.New().String(),
		WarehouseID: in.WarehouseID,
		PartyID:     in.PartyID,
		Date:        date,
		CreatedAt:   now,
	}
	for _, l := range in.Lines {
		qty := inv.Round3(l.Quantity)
		if l.ProductID == "" || strings.TrimSpace(l.Size) == "" {
			return nil, domain.ErrInvalidInput
		}
		if !qty.IsPositive() {
			return nil, domain.ErrInvalidQuantity
		}
		cost := decimal.Zero
		if l.UnitCost != nil {
			cost = *l.UnitCost
		}
		note.Lines = append(note.Lines, &entity.OutboundLine{
			ID:        uuid.New().String(),
			NoteID:    note.ID,
			ProductID: l.ProductID,
			Size:      strings.TrimSpace(l.Size),
			Quantity:  qty,
			UnitCost:  cost,
		})
	}

	op := newOperation(now, in.PartyID)
	err = uc.tx.Run(ctx, func(r repository.Repos) error {
		wh, err := r.Warehouses.GetByID(ctx, in.WarehouseID)
		if err != nil {
			return err
		}
		if wh == nil {
			return domain.NotFoundf("bodega %s", in.WarehouseID)
		}
		names := map[string]string{}
		keys := make([]repository.LotKey, 0, len(note.Lines))
		need := map[repository.LotKey]decimal.Decimal{}
		for _, l := range note.Lines {
			if _, ok := names[l.ProductID]; !ok {
				product, err := r.Products.GetByID(ctx, l.ProductID)
				if err != nil {
					return err
				}
				if product == nil {
					return domain.NotFoundf("producto %s", l.ProductID)
				}
				names[l.ProductID] = product.Code
			}
			k := repository.LotKey{ProductID: l.ProductID, Size: l.Size}
			if _, ok := need[k]; !ok {
				keys = append(keys, k)
			}
			need[k] = need[k].Add(l.Quantity)
		}

		pool, err := lockLotPool(ctx, r, keys)
		if err != nil {
			return err
		}
		var shortages []domain.Shortage
		for _, k := range keys {
			available := inv.SumAvailable(pool.candidates(k, in.WarehouseID))
			if available.LessThan(need[k]) {
				shortages = append(shortages, domain.NewShortage(lotResource(names[k.ProductID], k.Size, in.WarehouseID), "", available, need[k]))
			}
		}
		if len(shortages) > 0 {
			return &domain.InsufficientStockError{Shortages: shortages}
		}

		if err := r.Outbound.Create(ctx, note); err != nil {
			return err
		}
		for _, l := range note.Lines {
			k := repository.LotKey{ProductID: l.ProductID, Size: l.Size}
			draws, err := inv.PlanFIFO(pool.candidates(k, in.WarehouseID), l.Quantity, lotResource(names[k.ProductID], k.Size, in.WarehouseID))
			if err != nil {
				return err
			}
			for _, d := range draws {
				if err := d.Lot.Take(d.Quantity); err != nil {
					return err
				}
				d.Lot.UpdatedAt = now
				if err := r.Lots.UpdateBalance(ctx, d.Lot); err != nil {
					return err
				}
				a := &entity.Allocation{
					ID:        uuid.New().String(),
					LineID:    l.ID,
					LotID:     d.Lot.ID,
					Quantity:  d.Quantity,
					CreatedAt: now,
				}
				if err := r.Outbound.CreateAllocation(ctx, a); err != nil {
					return err
				}
				l.Allocations = append(l.Allocations, a)
				op.allocations = append(op.allocations, a)
			}
			op.touchProduct(l.ProductID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.notifier.Committed(ctx, op.event(EventOutboundAllocated, note.ID))
	return note, nil
}

// ReverseOutbound devuelve a cada lote lo asignado por la nota y la elimina.
func (uc *OutboundUseCase) ReverseOutbound(ctx context.Context, id string) error {
	op := newOperation(time.Now(), "")
	err := uc.tx.Run(ctx, func(r repository.Repos) error {
		note, err := r.Outbound.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if note == nil {
			return domain.NotFoundf("nota de salida %s", id)
		}
		var lotIDs []string
		for _, l := range note.Lines {
			op.touchProduct(l.ProductID)
			for _, a := range l.Allocations {
				lotIDs = append(lotIDs, a.LotID)
			}
		}
		lots, err := r.Lots.LockByIDs(ctx, uniqueSorted(lotIDs))
		if err != nil {
			return err
		}
		byID := make(map[string]*entity.ProductionLot, len(lots))
		for _, l := range lots {
			byID[l.ID] = l
		}
		for _, l := range note.Lines {
			for _, a := range l.Allocations {
				lot := byID[a.LotID]
				if lot == nil {
					return fmt.Errorf("%w: lote %s de la asignación %s", domain.ErrConflict, a.LotID, a.ID)
				}
				if err := lot.Restore(a.Quantity); err != nil {
					return fmt.Errorf("%w: %v", domain.ErrConflict, err)
				}
				lot.UpdatedAt = op.now
				if err := r.Lots.UpdateBalance(ctx, lot); err != nil {
					return err
				}
				op.allocations = append(op.allocations, a)
			}
		}
		return r.Outbound.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	uc.notifier.Committed(ctx, op.event(EventOutboundReversed, id))
	return nil
}

// Get carga la nota de salida con líneas y asignaciones.
func (uc *OutboundUseCase) Get(ctx context.Context, id string) (*entity.OutboundNote, error) {
	var note *entity.OutboundNote
	err := uc.tx.View(ctx, func(r repository.Repos) error {
		var err error
		note, err = r.Outbound.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if note == nil {
			return domain.NotFoundf("nota de salida %s", id)
		}
		return nil
	})
	return note, err
}

// lotPool lotes bloqueados de varios producto/talla, en todas las bodegas.
type lotPool struct {
	lots []*entity.ProductionLot
}

func lockLotPool(ctx context.Context, r repository.Repos, keys []repository.LotKey) (*lotPool, error) {
	lots, err := r.Lots.LockByKeys(ctx, keys)
	if err != nil {
		return nil, err
	}
	return &lotPool{lots: lots}, nil
}

// candidates lotes de k en la bodega con disponible > 0, en orden FIFO.
func (p *lotPool) candidates(k repository.LotKey, warehouseID string) []*entity.ProductionLot {
	var out []*entity.ProductionLot
	for _, l := range p.lots {
		if l.ProductID == k.ProductID && l.Size == k.Size && l.WarehouseID == warehouseID && l.Available.IsPositive() {
			out = append(out, l)
		}
	}
	inv.SortFIFO(out)
	return out
}

// destination lote de la misma nota en la bodega destino, si ya existe.
func (p *lotPool) destination(src *entity.ProductionLot, warehouseID string) *entity.ProductionLot {
	for _, l := range p.lots {
		if l.NoteID == src.NoteID && l.ProductID == src.ProductID && l.Size == src.Size && l.WarehouseID == warehouseID {
			return l
		}
	}
	return nil
}

func (p *lotPool) add(l *entity.ProductionLot) { p.lots = append(p.lots, l) }

func lotResource(productCode, size, warehouseID string) string {
	return fmt.Sprintf("%s/%s@%s", productCode, size, warehouseID)
}
