package inventory_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ensamble/internal/application/dto"
	"github.com/jhoicas/inventario-ensamble/internal/application/inventory"
	"github.com/jhoicas/inventario-ensamble/internal/domain"
	"github.com/jhoicas/inventario-ensamble/internal/domain/entity"
	"github.com/jhoicas/inventario-ensamble/internal/domain/repository"
)

func kinds(movs []*entity.StockMovement) map[entity.MovementKind]int {
	out := map[entity.MovementKind]int{}
	for _, m := range movs {
		out[m.Kind]++
	}
	return out
}

func TestProductionNote_CreateConsumeReceta(t *testing.T) {
	f := newFixture(t)
	fabric := f.registerItem("FABRIC", whA, "100")
	f.setBOM(fabric.ID, "1.5", "0")

	note := f.produce(whA, "2026-03-01", map[string]string{"M": "4", "L": "6"})

	require.Len(t, note.Lots, 2)
	for _, l := range note.Lots {
		assert.Equal(t, whA, l.WarehouseID, "sin bodega propia el lote usa la de la nota")
		assert.True(t, l.Available.Equal(l.Produced))
	}
	assert.Equal(t, "85", f.quantity(fabric.ID))
	assert.Equal(t, map[string]string{"M": "4", "L": "6"}, f.sizeStock(whA))

	history, err := f.queries.History(f.ctx, repository.MovementFilter{ItemID: fabric.ID, Kind: entity.MovementAssemblyConsumption})
	require.NoError(t, err)
	require.NotEmpty(t, history)
	for _, m := range history {
		assert.Equal(t, note.ID, m.ProductionNoteID)
	}
	assert.Contains(t, f.published.types(), inventory.EventProductionNoteCreated)
	f.requireConsistent()
}

func TestProductionNote_InsumosManualesPorUnidadTotal(t *testing.T) {
	f := newFixture(t)
	buttonsA := f.registerItem("BUTTON", whA, "6")
	buttonsB := f.registerItem("BUTTON", whB, "20")

	req := noteRequest(whA, "", map[string]string{"M": "3", "L": "2"})
	req.Materials = []dto.ManualMaterialRequest{{ItemCode: "BUTTON", QuantityPerUnit: d("2")}}
	note, err := f.notes.Create(f.ctx, req)
	require.NoError(t, err)
	require.Len(t, note.Materials, 1)

	// 2 por unidad × 5 unidades = 10: 6 de la bodega de la nota y 4 de la otra.
	assert.Equal(t, "0", f.quantity(buttonsA.ID))
	assert.Equal(t, "16", f.quantity(buttonsB.ID))

	got, err := f.notes.Get(f.ctx, note.ID)
	require.NoError(t, err)
	require.Len(t, got.Materials, 1)
	assert.Equal(t, "BUTTON", got.Materials[0].ItemCode)
	f.requireConsistent()
}

func TestProductionNote_LoteEnOtraBodega(t *testing.T) {
	f := newFixture(t)
	req := noteRequest(whA, "", nil)
	req.Lots = []dto.ProductionLotRequest{{ProductID: shirt, Size: "M", WarehouseID: whB, Quantity: d("3")}}
	_, err := f.notes.Create(f.ctx, req)
	require.NoError(t, err)

	assert.Empty(t, f.sizeStock(whA))
	assert.Equal(t, map[string]string{"M": "3"}, f.sizeStock(whB))
}

// La receta de un lote acreditado en B se consume prefiriendo la bodega de la nota (A).
func TestProductionNote_RecetaPrefiereBodegaDeLaNota(t *testing.T) {
	f := newFixture(t)
	fabricA := f.registerItem("FABRIC", whA, "5")
	fabricB := f.registerItem("FABRIC", whB, "20")
	f.setBOM(fabricA.ID, "1", "0")

	req := noteRequest(whA, "", nil)
	req.Lots = []dto.ProductionLotRequest{{ProductID: shirt, Size: "M", WarehouseID: whB, Quantity: d("2")}}
	_, err := f.notes.Create(f.ctx, req)
	require.NoError(t, err)

	assert.Equal(t, "3", f.quantity(fabricA.ID))
	assert.Equal(t, "20", f.quantity(fabricB.ID))
	f.requireConsistent()
}

func TestProductionNote_CreateInsuficienteNoPersisteNada(t *testing.T) {
	f := newFixture(t)
	fabric := f.registerItem("FABRIC", whA, "10")
	f.setBOM(fabric.ID, "1.5", "0")

	_, err := f.notes.Create(f.ctx, noteRequest(whA, "", map[string]string{"M": "10"}))
	var short *domain.InsufficientStockError
	require.True(t, errors.As(err, &short))
	assert.Equal(t, "FABRIC", short.Shortages[0].Resource)
	assert.Equal(t, "5", short.Shortages[0].Shortfall.String())

	assert.Equal(t, "10", f.quantity(fabric.ID))
	assert.Empty(t, f.sizeStock(whA))
}

func TestProductionNote_Validaciones(t *testing.T) {
	f := newFixture(t)

	_, err := f.notes.Create(f.ctx, dto.ProductionNoteRequest{WarehouseID: whA})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "sin lotes")

	_, err = f.notes.Create(f.ctx, noteRequest(whA, "", map[string]string{"M": "0"}))
	assert.True(t, errors.Is(err, domain.ErrInvalidQuantity))

	_, err = f.notes.Create(f.ctx, noteRequest(whA, "01/03/2026", map[string]string{"M": "1"}))
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "fecha mal formada")

	req := noteRequest(whA, "", map[string]string{"M": "1"})
	req.Lots = append(req.Lots, req.Lots[0])
	_, err = f.notes.Create(f.ctx, req)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "lote repetido")

	req = noteRequest(whA, "", nil)
	req.Lots = []dto.ProductionLotRequest{{ProductID: "no-existe", Size: "M", Quantity: d("1")}}
	_, err = f.notes.Create(f.ctx, req)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = f.notes.Create(f.ctx, noteRequest("no-existe", "", map[string]string{"M": "1"}))
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// Editar revierte con compensaciones y reaplica la nueva versión.
func TestProductionNote_UpdateCompensaYReaplica(t *testing.T) {
	f := newFixture(t)
	fabric := f.registerItem("FABRIC", whA, "100")
	f.setBOM(fabric.ID, "1.5", "0")
	note := f.produce(whA, "2026-03-01", map[string]string{"M": "4", "L": "6"})
	require.Equal(t, "85", f.quantity(fabric.ID))

	updated, err := f.notes.Update(f.ctx, note.ID, noteRequest(whA, "2026-03-02", map[string]string{"M": "2"}))
	require.NoError(t, err)
	assert.Equal(t, note.ID, updated.ID)
	assert.Equal(t, "2026-03-02", updated.ElaborationDate.Format(dto.DateLayout))

	assert.Equal(t, "97", f.quantity(fabric.ID))
	assert.Equal(t, map[string]string{"M": "2"}, f.sizeStock(whA))

	history, err := f.queries.History(f.ctx, repository.MovementFilter{ItemID: fabric.ID})
	require.NoError(t, err)
	counts := kinds(history)
	assert.Equal(t, 3, counts[entity.MovementAssemblyConsumption], "M y L originales más la nueva M")
	assert.Equal(t, 2, counts[entity.MovementAdjustment], "una compensación por consumo vigente")
	assert.Equal(t, 1, counts[entity.MovementEditNote])
	for _, m := range history {
		if m.Kind == entity.MovementAdjustment {
			assert.NotEmpty(t, m.SupersedesID, "la compensación apunta al movimiento que anula")
		}
		if m.Kind == entity.MovementEditNote {
			assert.False(t, m.AffectsStock)
		}
	}
	f.requireConsistent()
}

// Si la nueva versión no alcanza, la nota y los saldos quedan como estaban.
func TestProductionNote_UpdateInsuficienteEsAtomico(t *testing.T) {
	f := newFixture(t)
	fabric := f.registerItem("FABRIC", whA, "10")
	f.setBOM(fabric.ID, "1.5", "0")
	note := f.produce(whA, "", map[string]string{"M": "4"})
	require.Equal(t, "4", f.quantity(fabric.ID))

	_, err := f.notes.Update(f.ctx, note.ID, noteRequest(whA, "", map[string]string{"M": "20"}))
	var short *domain.InsufficientStockError
	require.True(t, errors.As(err, &short))
	assert.Equal(t, "10", short.Shortages[0].Available.String(), "lo revertido cuenta como disponible")
	assert.Equal(t, "20", short.Shortages[0].Shortfall.String())

	assert.Equal(t, "4", f.quantity(fabric.ID))
	assert.Equal(t, map[string]string{"M": "4"}, f.sizeStock(whA))
	f.requireConsistent()
}

// Crear y borrar deja los saldos exactamente como antes; el kardex conserva la historia.
func TestProductionNote_DeleteRestauraSaldos(t *testing.T) {
	f := newFixture(t)
	fabric := f.registerItem("FABRIC", whA, "100")
	thread := f.registerItem("THREAD", whB, "50")
	f.setBOM(fabric.ID, "1.5", "10")
	f.setBOM(thread.ID, "0.25", "0")

	note := f.produce(whA, "", map[string]string{"S": "3", "M": "4"})
	_, err := f.notes.Update(f.ctx, note.ID, noteRequest(whA, "", map[string]string{"M": "9"}))
	require.NoError(t, err)
	require.NoError(t, f.notes.Delete(f.ctx, note.ID))

	assert.Equal(t, "100", f.quantity(fabric.ID))
	assert.Equal(t, "50", f.quantity(thread.ID))
	assert.Empty(t, f.sizeStock(whA))

	_, err = f.notes.Get(f.ctx, note.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	history, err := f.queries.History(f.ctx, repository.MovementFilter{ItemCode: "FABRIC"})
	require.NoError(t, err)
	assert.Greater(t, len(history), 1, "el kardex nunca se borra")
	assert.Contains(t, f.published.types(), inventory.EventProductionNoteDeleted)
	f.requireConsistent()
}

func TestProductionNote_DeleteDesconocida(t *testing.T) {
	f := newFixture(t)
	assert.True(t, errors.Is(f.notes.Delete(f.ctx, "no-existe"), domain.ErrNotFound))
	_, err := f.notes.Update(f.ctx, "no-existe", noteRequest(whA, "", map[string]string{"M": "1"}))
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
