package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ensamble/internal/domain"
	"github.com/jhoicas/inventario-ensamble/internal/domain/entity"
	"github.com/jhoicas/inventario-ensamble/internal/domain/repository"
	"github.com/jhoicas/inventario-ensamble/internal/infrastructure/memory"
)

func newItem(id, code, wh string) *entity.Item {
	return &entity.Item{ID: id, Code: code, Name: code, WarehouseID: wh, Quantity: decimal.Zero, Active: true}
}

func getItem(t *testing.T, s *memory.Store, id string) *entity.Item {
	t.Helper()
	var item *entity.Item
	require.NoError(t, s.View(context.Background(), func(r repository.Repos) error {
		var err error
		item, err = r.Items.GetByID(context.Background(), id)
		return err
	}))
	return item
}

// ──────────────────────────────────────────────────────────────────────────────
// Transacciones
// ──────────────────────────────────────────────────────────────────────────────

func TestStore_RunPublicaSoloSiNoHayError(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()

	require.NoError(t, s.Run(ctx, func(r repository.Repos) error {
		return r.Items.Create(ctx, newItem("i-1", "THREAD", "wh-a"))
	}))

	boom := errors.New("fallo a mitad de operación")
	err := s.Run(ctx, func(r repository.Repos) error {
		if err := r.Items.UpdateStock(ctx, "i-1", decimal.NewFromInt(50), decimal.Zero); err != nil {
			return err
		}
		if err := r.Items.Create(ctx, newItem("i-2", "FABRIC", "wh-a")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	assert.True(t, getItem(t, s, "i-1").Quantity.IsZero(), "la escritura parcial no se publica")
	assert.Nil(t, getItem(t, s, "i-2"))
}

func TestStore_ViewDescartaEscrituras(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	require.NoError(t, s.Run(ctx, func(r repository.Repos) error {
		return r.Items.Create(ctx, newItem("i-1", "THREAD", "wh-a"))
	}))

	require.NoError(t, s.View(ctx, func(r repository.Repos) error {
		return r.Items.SetActive(ctx, "i-1", false)
	}))
	assert.True(t, getItem(t, s, "i-1").Active)
}

func TestStore_ContextoCancelado(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := memory.NewStore()

	called := false
	err := s.Run(ctx, func(repository.Repos) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)

	err = s.View(ctx, func(repository.Repos) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

// ──────────────────────────────────────────────────────────────────────────────
// Repositorios
// ──────────────────────────────────────────────────────────────────────────────

func TestStore_InsumoUnicoPorBodega(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()

	err := s.Run(ctx, func(r repository.Repos) error {
		if err := r.Items.Create(ctx, newItem("i-1", "THREAD", "wh-a")); err != nil {
			return err
		}
		if err := r.Items.Create(ctx, newItem("i-2", "THREAD", "wh-b")); err != nil {
			return err
		}
		return r.Items.Create(ctx, newItem("i-3", "THREAD", "wh-a"))
	})
	assert.True(t, errors.Is(err, domain.ErrDuplicate))

	require.NoError(t, s.Run(ctx, func(r repository.Repos) error {
		if err := r.Items.Create(ctx, newItem("i-2", "THREAD", "wh-b")); err != nil {
			return err
		}
		return r.Items.Create(ctx, newItem("i-1", "THREAD", "wh-a"))
	}))
	require.NoError(t, s.View(ctx, func(r repository.Repos) error {
		rows, err := r.Items.ListByCode(ctx, "THREAD")
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "i-1", rows[0].ID, "ordenadas por ID")
		return nil
	}))
}

func TestStore_MaestrosFueraDeTransaccion(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	wh := s.Warehouses()

	require.NoError(t, wh.Create(ctx, &entity.Warehouse{ID: "w-2", Code: "B", Name: "Bodega B"}))
	require.NoError(t, wh.Create(ctx, &entity.Warehouse{ID: "w-1", Code: "A", Name: "Bodega A"}))
	err := wh.Create(ctx, &entity.Warehouse{ID: "w-3", Code: "A", Name: "Repetida"})
	assert.True(t, errors.Is(err, domain.ErrDuplicate))

	list, err := wh.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "A", list[0].Code)

	list, err = wh.List(ctx, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, list)

	missing, err := wh.GetByID(ctx, "no-existe")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_UnLotePorNotaProductoTallaYBodega(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	day := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newLot := func(id string) *entity.ProductionLot {
		return &entity.ProductionLot{ID: id, NoteID: "n-1", ProductID: "p-1", Size: "M", WarehouseID: "wh-b", NoteDate: day}
	}

	require.NoError(t, s.Run(ctx, func(r repository.Repos) error {
		if err := r.Notes.Create(ctx, &entity.ProductionNote{ID: "n-1", WarehouseID: "wh-a", ElaborationDate: day}); err != nil {
			return err
		}
		return r.Lots.Create(ctx, newLot("l-1"))
	}))

	err := s.Run(ctx, func(r repository.Repos) error { return r.Lots.Create(ctx, newLot("l-2")) })
	assert.True(t, errors.Is(err, domain.ErrDuplicate))

	require.NoError(t, s.Run(ctx, func(r repository.Repos) error {
		got, err := r.Lots.Ensure(ctx, newLot("l-3"))
		require.NoError(t, err)
		assert.Equal(t, "l-1", got.ID, "reutiliza el lote existente")
		assert.True(t, got.NoteDate.Equal(day))

		other := newLot("l-4")
		other.WarehouseID = "wh-c"
		got, err = r.Lots.Ensure(ctx, other)
		require.NoError(t, err)
		assert.Equal(t, "l-4", got.ID)
		return nil
	}))
}
