package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ensamble/internal/domain"
	"github.com/jhoicas/inventario-ensamble/internal/domain/entity"
	"github.com/jhoicas/inventario-ensamble/internal/domain/repository"
)

type bomRepo struct{ s *state }

func bomKey(productID, itemID string) string { return productID + "|" + itemID }

func (r bomRepo) Upsert(_ context.Context, line *entity.BOMLine) error {
	key := bomKey(line.ProductID, line.ItemID)
	if prev, ok := r.s.bom[key]; ok {
		line.ID = prev.ID
		line.CreatedAt = prev.CreatedAt
	}
	r.s.bom[key] = *line
	return nil
}

func (r bomRepo) Delete(_ context.Context, productID, itemID string) error {
	key := bomKey(productID, itemID)
	if _, ok := r.s.bom[key]; !ok {
		return domain.NotFoundf("línea de receta %s/%s", productID, itemID)
	}
	delete(r.s.bom, key)
	return nil
}

func (r bomRepo) ListByProduct(_ context.Context, productID string) ([]*entity.BOMLine, error) {
	var out []*entity.BOMLine
	for _, l := range r.s.bom {
		if l.ProductID == productID {
			cp := l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemCode < out[j].ItemCode })
	return out, nil
}

type noteRepo struct{ s *state }

func (r noteRepo) Create(_ context.Context, note *entity.ProductionNote) error {
	if _, ok := r.s.notes[note.ID]; ok {
		return domain.ErrDuplicate
	}
	r.s.notes[note.ID] = header(note)
	return nil
}

func (r noteRepo) Update(_ context.Context, note *entity.ProductionNote) error {
	if _, ok := r.s.notes[note.ID]; !ok {
		return domain.NotFoundf("nota %s", note.ID)
	}
	r.s.notes[note.ID] = header(note)
	return nil
}

// Delete borra la nota con sus lotes e insumos manuales.
func (r noteRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.s.notes[id]; !ok {
		return domain.NotFoundf("nota %s", id)
	}
	delete(r.s.notes, id)
	delete(r.s.materials, id)
	for lid, l := range r.s.lots {
		if l.NoteID == id {
			delete(r.s.lots, lid)
		}
	}
	return nil
}

func (r noteRepo) GetByID(ctx context.Context, id string) (*entity.ProductionNote, error) {
	n, ok := r.s.notes[id]
	if !ok {
		return nil, nil
	}
	lots, _ := lotRepo(r).LockByNote(ctx, id)
	n.Lots = lots
	for _, m := range r.s.materials[id] {
		cp := m
		n.Materials = append(n.Materials, &cp)
	}
	return &n, nil
}

func (r noteRepo) LockByID(ctx context.Context, id string) (*entity.ProductionNote, error) {
	return r.GetByID(ctx, id)
}

func (r noteRepo) ReplaceMaterials(_ context.Context, noteID string, lines []*entity.ManualMaterialLine) error {
	out := make([]entity.ManualMaterialLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, *l)
	}
	r.s.materials[noteID] = out
	return nil
}

func header(note *entity.ProductionNote) entity.ProductionNote {
	h := *note
	h.Lots = nil
	h.Materials = nil
	return h
}

type lotRepo struct{ s *state }

func (r lotRepo) Create(_ context.Context, lot *entity.ProductionLot) error {
	if _, ok := r.s.lots[lot.ID]; ok {
		return domain.ErrDuplicate
	}
	if _, ok := r.s.notes[lot.NoteID]; !ok {
		return domain.NotFoundf("nota %s", lot.NoteID)
	}
	if _, ok := r.byNoteKey(lot); ok {
		return domain.ErrDuplicate
	}
	r.s.lots[lot.ID] = *lot
	return nil
}

func (r lotRepo) Ensure(ctx context.Context, lot *entity.ProductionLot) (*entity.ProductionLot, error) {
	if id, ok := r.byNoteKey(lot); ok {
		found, err := r.LockByIDs(ctx, []string{id})
		if err != nil {
			return nil, err
		}
		return found[0], nil
	}
	if err := r.Create(ctx, lot); err != nil {
		return nil, err
	}
	cp := *lot
	return &cp, nil
}

func (r lotRepo) byNoteKey(lot *entity.ProductionLot) (string, bool) {
	for id, l := range r.s.lots {
		if l.NoteID == lot.NoteID && l.ProductID == lot.ProductID && l.Size == lot.Size && l.WarehouseID == lot.WarehouseID {
			return id, true
		}
	}
	return "", false
}

func (r lotRepo) UpdateBalance(_ context.Context, lot *entity.ProductionLot) error {
	l, ok := r.s.lots[lot.ID]
	if !ok {
		return domain.NotFoundf("lote %s", lot.ID)
	}
	l.Available = lot.Available
	l.Received = lot.Received
	l.UpdatedAt = lot.UpdatedAt
	r.s.lots[lot.ID] = l
	return nil
}

func (r lotRepo) DeleteByNote(_ context.Context, noteID string) error {
	for id, l := range r.s.lots {
		if l.NoteID == noteID {
			delete(r.s.lots, id)
		}
	}
	return nil
}

func (r lotRepo) LockByNote(_ context.Context, noteID string) ([]*entity.ProductionLot, error) {
	return r.filter(func(l entity.ProductionLot) bool { return l.NoteID == noteID }), nil
}

func (r lotRepo) LockByIDs(_ context.Context, ids []string) ([]*entity.ProductionLot, error) {
	set := toSet(ids)
	return r.filter(func(l entity.ProductionLot) bool {
		_, ok := set[l.ID]
		return ok
	}), nil
}

func (r lotRepo) LockByKeys(_ context.Context, keys []repository.LotKey) ([]*entity.ProductionLot, error) {
	set := make(map[repository.LotKey]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return r.filter(func(l entity.ProductionLot) bool {
		_, ok := set[repository.LotKey{ProductID: l.ProductID, Size: l.Size}]
		return ok
	}), nil
}

func (r lotRepo) HasDownstream(_ context.Context, noteID string) (bool, error) {
	owned := map[string]struct{}{}
	for id, l := range r.s.lots {
		if l.NoteID == noteID {
			owned[id] = struct{}{}
		}
	}
	for _, allocs := range r.s.allocations {
		for _, a := range allocs {
			if _, ok := owned[a.LotID]; ok {
				return true, nil
			}
		}
	}
	for _, t := range r.s.transfers {
		_, src := owned[t.SourceLotID]
		_, dst := owned[t.DestLotID]
		if src || dst {
			return true, nil
		}
	}
	return false, nil
}

func (r lotRepo) StockBySize(_ context.Context, productID, warehouseID string) ([]repository.SizeStock, error) {
	sums := map[string]decimal.Decimal{}
	for _, l := range r.s.lots {
		if l.ProductID == productID && l.WarehouseID == warehouseID {
			sums[l.Size] = sums[l.Size].Add(l.Available)
		}
	}
	out := make([]repository.SizeStock, 0, len(sums))
	for size, q := range sums {
		out = append(out, repository.SizeStock{Size: size, Available: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Size < out[j].Size })
	return out, nil
}

// filter devuelve copias ordenadas por ID, con la fecha de elaboración de su nota.
func (r lotRepo) filter(keep func(entity.ProductionLot) bool) []*entity.ProductionLot {
	var out []*entity.ProductionLot
	for _, l := range r.s.lots {
		if !keep(l) {
			continue
		}
		cp := l
		if n, ok := r.s.notes[l.NoteID]; ok {
			cp.NoteDate = n.ElaborationDate
		}
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
