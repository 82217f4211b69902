package inventory_test

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ensamble/internal/application/inventory"
	"github.com/jhoicas/inventario-ensamble/internal/domain"
	"github.com/jhoicas/inventario-ensamble/internal/domain/entity"
	"github.com/jhoicas/inventario-ensamble/internal/domain/repository"
)

// expectedRejection errores de negocio válidos dentro de una secuencia aleatoria.
func expectedRejection(err error) bool {
	var short *domain.InsufficientStockError
	return errors.As(err, &short) || errors.Is(err, domain.ErrNoteLocked)
}

// sequence estado observado desde fuera durante una secuencia aleatoria de operaciones.
type sequence struct {
	f         *fixture
	rnd       *rand.Rand
	fabric    []*entity.Item
	notes     []string
	outbound  []string
	transfers []*entity.TransferRecord
}

func (s *sequence) warehouse() string {
	if s.rnd.Intn(2) == 0 {
		return whA
	}
	return whB
}

func (s *sequence) size() string { return []string{"S", "M", "L"}[s.rnd.Intn(3)] }

func (s *sequence) qty(n int) decimal.Decimal { return decimal.NewFromInt(int64(1 + s.rnd.Intn(n))) }

func (s *sequence) sizes() map[string]string {
	out := map[string]string{}
	for len(out) == 0 {
		for _, size := range []string{"S", "M", "L"} {
			if s.rnd.Intn(2) == 0 {
				out[size] = s.qty(6).String()
			}
		}
	}
	return out
}

func (s *sequence) pick(ids []string) (string, int) {
	i := s.rnd.Intn(len(ids))
	return ids[i], i
}

// step ejecuta una operación al azar; solo se toleran faltantes de stock y notas bloqueadas.
func (s *sequence) step() {
	t, f := s.f.t, s.f
	var err error
	switch op := s.rnd.Intn(9); {
	case op == 0:
		_, err = f.items.ApplyMovement(f.ctx, inventory.MovementInput{
			Kind:     entity.MovementInbound,
			ItemID:   s.fabric[s.rnd.Intn(len(s.fabric))].ID,
			Quantity: s.qty(20),
		})
	case op == 1:
		qty := s.qty(10)
		if s.rnd.Intn(3) == 0 {
			qty = qty.Neg()
		}
		_, err = f.items.ConsumeOrRestore(f.ctx, "FABRIC", s.warehouse(), qty, "", "", "")
	case op == 2:
		var note *entity.ProductionNote
		note, err = f.notes.Create(f.ctx, noteRequest(s.warehouse(), fmt.Sprintf("2026-01-%02d", 1+s.rnd.Intn(5)), s.sizes()))
		if err == nil {
			s.notes = append(s.notes, note.ID)
		}
	case op == 3 && len(s.notes) > 0:
		id, _ := s.pick(s.notes)
		_, err = f.notes.Update(f.ctx, id, noteRequest(s.warehouse(), "2026-01-03", s.sizes()))
	case op == 4 && len(s.notes) > 0:
		id, i := s.pick(s.notes)
		if err = f.notes.Delete(f.ctx, id); err == nil {
			s.notes = append(s.notes[:i], s.notes[i+1:]...)
		}
	case op == 5 || op == 6:
		var out *entity.OutboundNote
		out, err = f.outbound.AllocateOutbound(f.ctx, outboundRequest(s.warehouse(), line(s.size(), s.qty(4).String())))
		if err == nil {
			s.outbound = append(s.outbound, out.ID)
		}
	case op == 7 && len(s.outbound) > 0:
		id, i := s.pick(s.outbound)
		if err = f.outbound.ReverseOutbound(f.ctx, id); err == nil {
			s.outbound = append(s.outbound[:i], s.outbound[i+1:]...)
		}
	case op == 8:
		req := transfer(s.size(), s.qty(4).String())
		if s.rnd.Intn(2) == 0 {
			req.FromWarehouseID, req.ToWarehouseID = whB, whA
		}
		var records []*entity.TransferRecord
		records, err = f.transfers.TransferStock(f.ctx, req)
		s.transfers = append(s.transfers, records...)
	}
	if err != nil {
		require.True(t, expectedRejection(err), "error inesperado: %v", err)
	}
}

// requireLotsBalanced producido + recibido = disponible + asignado + trasladado fuera, lote por lote.
func (s *sequence) requireLotsBalanced() {
	t, f := s.f.t, s.f
	used := map[string]decimal.Decimal{}
	for _, id := range s.outbound {
		note, err := f.outbound.Get(f.ctx, id)
		require.NoError(t, err)
		for _, l := range note.Lines {
			for _, a := range l.Allocations {
				used[a.LotID] = used[a.LotID].Add(a.Quantity)
			}
		}
	}
	for _, tr := range s.transfers {
		used[tr.SourceLotID] = used[tr.SourceLotID].Add(tr.Quantity)
	}

	require.NoError(t, f.store.View(f.ctx, func(r repository.Repos) error {
		lots, err := r.Lots.LockByKeys(f.ctx, []repository.LotKey{
			{ProductID: shirt, Size: "S"}, {ProductID: shirt, Size: "M"}, {ProductID: shirt, Size: "L"},
		})
		if err != nil {
			return err
		}
		for _, l := range lots {
			in := l.Produced.Add(l.Received)
			out := l.Available.Add(used[l.ID])
			require.True(t, in.Equal(out), "lote %s: producido+recibido %s, disponible+usado %s", l.ID, in, out)
		}
		return nil
	}))
}

// ──────────────────────────────────────────────────────────────────────────────
// Secuencias aleatorias
// ──────────────────────────────────────────────────────────────────────────────

func TestSecuenciaAleatoria_LibroYLotesConsistentes(t *testing.T) {
	for _, seed := range []int64{1, 7, 42, 2026} {
		f := newFixture(t)
		s := &sequence{f: f, rnd: rand.New(rand.NewSource(seed))}
		s.fabric = []*entity.Item{f.registerItem("FABRIC", whA, "200"), f.registerItem("FABRIC", whB, "100")}
		f.setBOM(s.fabric[0].ID, "0.5", "10")

		for i := 0; i < 300; i++ {
			s.step()
			f.requireConsistent()
		}
		s.requireLotsBalanced()
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia
// ──────────────────────────────────────────────────────────────────────────────

// 50 consumos de 1 sobre 30 unidades: exactamente 30 pasan y el saldo queda en 0.
func TestConsumeOrRestore_ConcurrenteNoSobregira(t *testing.T) {
	f := newFixture(t)
	thread := f.registerItem("THREAD", whA, "30")

	var ok, short atomic.Int32
	var unexpected []error
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.items.ConsumeOrRestore(f.ctx, "THREAD", whA, d("1"), entity.MovementOutbound, "", "")
			switch {
			case err == nil:
				ok.Add(1)
			case expectedRejection(err):
				short.Add(1)
			default:
				mu.Lock()
				unexpected = append(unexpected, err)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Empty(t, unexpected)
	assert.Equal(t, int32(30), ok.Load())
	assert.Equal(t, int32(20), short.Load())
	assert.Equal(t, "0", f.quantity(thread.ID))
	f.requireConsistent()
}

// 50 salidas de 1 sobre 20 unidades en lotes: nunca se asigna más de lo producido.
func TestAllocateOutbound_ConcurrenteNoSobregira(t *testing.T) {
	f := newFixture(t)
	f.produce(whA, "2026-01-01", map[string]string{"M": "12"})
	f.produce(whA, "2026-01-02", map[string]string{"M": "8"})

	var ok atomic.Int32
	var unexpected []error
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.outbound.AllocateOutbound(f.ctx, outboundRequest(whA, line("M", "1")))
			if err == nil {
				ok.Add(1)
				return
			}
			if !expectedRejection(err) {
				mu.Lock()
				unexpected = append(unexpected, err)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Empty(t, unexpected)
	assert.Equal(t, int32(20), ok.Load())
	assert.Equal(t, map[string]string{"M": "0"}, f.sizeStock(whA))
	f.requireConsistent()
}
