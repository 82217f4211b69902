package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/inventario-ensamble/internal/domain"
	"github.com/jhoicas/inventario-ensamble/internal/domain/entity"
)

type outboundRepo struct{ s *state }

func (r outboundRepo) Create(_ context.Context, note *entity.OutboundNote) error {
	if _, ok := r.s.outbound[note.ID]; ok {
		return domain.ErrDuplicate
	}
	h := *note
	h.Lines = nil
	r.s.outbound[note.ID] = h
	lines := make([]entity.OutboundLine, 0, len(note.Lines))
	for _, l := range note.Lines {
		cp := *l
		cp.Allocations = nil
		lines = append(lines, cp)
	}
	r.s.lines[note.ID] = lines
	return nil
}

func (r outboundRepo) CreateAllocation(_ context.Context, a *entity.Allocation) error {
	if _, ok := r.s.lots[a.LotID]; !ok {
		return domain.NotFoundf("lote %s", a.LotID)
	}
	r.s.allocations[a.LineID] = append(r.s.allocations[a.LineID], *a)
	return nil
}

func (r outboundRepo) LockByID(ctx context.Context, id string) (*entity.OutboundNote, error) {
	return r.GetByID(ctx, id)
}

func (r outboundRepo) GetByID(_ context.Context, id string) (*entity.OutboundNote, error) {
	n, ok := r.s.outbound[id]
	if !ok {
		return nil, nil
	}
	for _, l := range r.s.lines[id] {
		line := l
		for _, a := range r.s.allocations[l.ID] {
			cp := a
			line.Allocations = append(line.Allocations, &cp)
		}
		n.Lines = append(n.Lines, &line)
	}
	return &n, nil
}

func (r outboundRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.s.outbound[id]; !ok {
		return domain.NotFoundf("nota de salida %s", id)
	}
	for _, l := range r.s.lines[id] {
		delete(r.s.allocations, l.ID)
	}
	delete(r.s.lines, id)
	delete(r.s.outbound, id)
	return nil
}

type transferRepo struct{ s *state }

func (r transferRepo) Create(_ context.Context, record *entity.TransferRecord) error {
	r.s.transfers = append(r.s.transfers, *record)
	return nil
}

func (r transferRepo) ListByTransaction(_ context.Context, transactionID string) ([]*entity.TransferRecord, error) {
	var out []*entity.TransferRecord
	for _, t := range r.s.transfers {
		if t.TransactionID == transactionID {
			cp := t
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
