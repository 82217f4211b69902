package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ensamble/internal/domain"
	"github.com/jhoicas/inventario-ensamble/internal/domain/entity"
	"github.com/jhoicas/inventario-ensamble/internal/domain/repository"
)

type itemRepo struct{ s *state }

func (r itemRepo) Create(_ context.Context, item *entity.Item) error {
	if _, ok := r.s.items[item.ID]; ok {
		return domain.ErrDuplicate
	}
	for _, it := range r.s.items {
		if it.Code == item.Code && it.WarehouseID == item.WarehouseID {
			return fmt.Errorf("%w: insumo %s en bodega %s", domain.ErrDuplicate, item.Code, item.WarehouseID)
		}
	}
	r.s.items[item.ID] = *item
	return nil
}

func (r itemRepo) GetByID(_ context.Context, id string) (*entity.Item, error) {
	it, ok := r.s.items[id]
	if !ok {
		return nil, nil
	}
	return &it, nil
}

func (r itemRepo) ListByCode(_ context.Context, code string) ([]*entity.Item, error) {
	return r.filter(func(it entity.Item) bool { return it.Code == code }), nil
}

func (r itemRepo) Lock(_ context.Context, ids, codes []string) ([]*entity.Item, error) {
	idSet := toSet(ids)
	codeSet := toSet(codes)
	return r.filter(func(it entity.Item) bool {
		_, byID := idSet[it.ID]
		_, byCode := codeSet[it.Code]
		return byID || byCode
	}), nil
}

func (r itemRepo) UpdateStock(_ context.Context, id string, quantity, unitCost decimal.Decimal) error {
	it, ok := r.s.items[id]
	if !ok {
		return domain.NotFoundf("insumo %s", id)
	}
	it.Quantity = quantity
	it.UnitCost = unitCost
	r.s.items[id] = it
	return nil
}

func (r itemRepo) UpdateMetadata(_ context.Context, item *entity.Item) error {
	it, ok := r.s.items[item.ID]
	if !ok {
		return domain.NotFoundf("insumo %s", item.ID)
	}
	it.Name = item.Name
	it.Unit = item.Unit
	it.MinStock = item.MinStock
	it.UnitCost = item.UnitCost
	it.PartyID = item.PartyID
	it.UpdatedAt = item.UpdatedAt
	r.s.items[item.ID] = it
	return nil
}

func (r itemRepo) SetActive(_ context.Context, id string, active bool) error {
	it, ok := r.s.items[id]
	if !ok {
		return domain.NotFoundf("insumo %s", id)
	}
	it.Active = active
	r.s.items[id] = it
	return nil
}

func (r itemRepo) ListBelowMinStock(_ context.Context, warehouseID string) ([]*entity.Item, error) {
	out := r.filter(func(it entity.Item) bool {
		return it.Active && it.Quantity.LessThan(it.MinStock) && (warehouseID == "" || it.WarehouseID == warehouseID)
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r itemRepo) ListAll(_ context.Context) ([]*entity.Item, error) {
	return r.filter(func(entity.Item) bool { return true }), nil
}

// filter devuelve copias ordenadas por ID.
func (r itemRepo) filter(keep func(entity.Item) bool) []*entity.Item {
	var out []*entity.Item
	for _, it := range r.s.items {
		if keep(it) {
			cp := it
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type movementRepo struct{ s *state }

func (r movementRepo) Create(_ context.Context, m *entity.StockMovement) error {
	r.s.movements = append(r.s.movements, *m)
	return nil
}

func (r movementRepo) ListEffectiveByNote(_ context.Context, noteID string) ([]*entity.StockMovement, error) {
	superseded := map[string]struct{}{}
	for _, m := range r.s.movements {
		if m.SupersedesID != "" {
			superseded[m.SupersedesID] = struct{}{}
		}
	}
	var out []*entity.StockMovement
	for _, m := range r.s.movements {
		if m.ProductionNoteID != noteID || !m.AffectsStock || m.SupersedesID != "" {
			continue
		}
		if _, ok := superseded[m.ID]; ok {
			continue
		}
		cp := m
		out = append(out, &cp)
	}
	return out, nil
}

// List más recientes primero: fecha descendente, luego orden de inserción descendente.
func (r movementRepo) List(_ context.Context, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	for i := len(r.s.movements) - 1; i >= 0; i-- {
		m := r.s.movements[i]
		if !matches(m, f) {
			continue
		}
		cp := m
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if f.Offset >= len(out) {
		return []*entity.StockMovement{}, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func matches(m entity.StockMovement, f repository.MovementFilter) bool {
	switch {
	case f.ItemCode != "" && m.ItemCode != f.ItemCode,
		f.ItemID != "" && m.ItemID != f.ItemID,
		f.Kind != "" && m.Kind != f.Kind,
		f.PartyID != "" && m.PartyID != f.PartyID,
		f.WarehouseID != "" && m.WarehouseID != f.WarehouseID,
		f.From != nil && m.Date.Before(*f.From),
		f.To != nil && m.Date.After(*f.To):
		return false
	}
	return true
}

func (r movementRepo) BalancesByCode(_ context.Context, code string) ([]repository.WarehouseBalance, error) {
	sums := r.sumByItem()
	out := []repository.WarehouseBalance{}
	for _, it := range r.s.items {
		if it.Code != code {
			continue
		}
		out = append(out, repository.WarehouseBalance{
			WarehouseID: it.WarehouseID,
			ItemID:      it.ID,
			Quantity:    sums[it.ID],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WarehouseID < out[j].WarehouseID })
	return out, nil
}

func (r movementRepo) LedgerBalances(_ context.Context) ([]repository.ItemLedgerBalance, error) {
	sums := r.sumByItem()
	out := make([]repository.ItemLedgerBalance, 0, len(sums))
	for id, q := range sums {
		out = append(out, repository.ItemLedgerBalance{ItemID: id, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out, nil
}

func (r movementRepo) sumByItem() map[string]decimal.Decimal {
	sums := map[string]decimal.Decimal{}
	for i := range r.s.movements {
		m := &r.s.movements[i]
		sums[m.ItemID] = sums[m.ItemID].Add(m.SignedQuantity())
	}
	return sums
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
