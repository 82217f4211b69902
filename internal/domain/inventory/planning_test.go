package inventory_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ensamble/internal/domain"
	"github.com/jhoicas/inventario-ensamble/internal/domain/entity"
	inv "github.com/jhoicas/inventario-ensamble/internal/domain/inventory"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func item(id, warehouse, qty string) *entity.Item {
	return &entity.Item{ID: id, Code: "THREAD", Name: "Hilo", WarehouseID: warehouse, Quantity: d(qty), Active: true}
}

func lot(id string, day int, available string) *entity.ProductionLot {
	return &entity.ProductionLot{
		ID:        id,
		Produced:  d(available),
		Available: d(available),
		NoteDate:  time.Date(2026, 1, day, 0, 0, 0, 0, time.UTC),
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// PlanConsumption
// ──────────────────────────────────────────────────────────────────────────────

// A=10, B=5, consumir 12 prefiriendo A → 10 de A y 2 de B.
func TestPlanConsumption_BodegaPreferidaPrimero(t *testing.T) {
	rows := []*entity.Item{item("2", "B", "5"), item("1", "A", "10")}

	draws, err := inv.PlanConsumption(rows, "A", d("12"))
	require.NoError(t, err)
	require.Len(t, draws, 2)

	assert.Equal(t, "A", draws[0].Item.WarehouseID)
	assert.Equal(t, "10", draws[0].Quantity.String())
	assert.Equal(t, "B", draws[1].Item.WarehouseID)
	assert.Equal(t, "2", draws[1].Quantity.String())
}

// Sin bodega preferida se drena primero la fila con más stock.
func TestPlanConsumption_MayorCantidadPrimero(t *testing.T) {
	rows := []*entity.Item{item("1", "A", "3"), item("2", "B", "8"), item("3", "C", "8")}

	draws, err := inv.PlanConsumption(rows, "", d("9"))
	require.NoError(t, err)
	require.Len(t, draws, 2)
	assert.Equal(t, "2", draws[0].Item.ID, "empate de cantidad se resuelve por ID")
	assert.Equal(t, "8", draws[0].Quantity.String())
	assert.Equal(t, "3", draws[1].Item.ID)
	assert.Equal(t, "1", draws[1].Quantity.String())
}

func TestPlanConsumption_IgnoraFilasInactivas(t *testing.T) {
	inactive := item("1", "A", "100")
	inactive.Active = false
	rows := []*entity.Item{inactive, item("2", "B", "5")}

	_, err := inv.PlanConsumption(rows, "A", d("6"))
	require.Error(t, err)

	var short *domain.InsufficientStockError
	require.True(t, errors.As(err, &short))
	require.Len(t, short.Shortages, 1)
	assert.Equal(t, "5", short.Shortages[0].Available.String())
	assert.Equal(t, "1", short.Shortages[0].Shortfall.String())
}

// Con 40 disponibles y 100 requeridos no se devuelve ningún plan parcial.
func TestPlanConsumption_Insuficiente(t *testing.T) {
	rows := []*entity.Item{item("1", "A", "30"), item("2", "B", "10")}

	draws, err := inv.PlanConsumption(rows, "A", d("100"))
	assert.Nil(t, draws)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))

	var short *domain.InsufficientStockError
	require.True(t, errors.As(err, &short))
	assert.Equal(t, "THREAD", short.Shortages[0].Resource)
	assert.Equal(t, "60", short.Shortages[0].Shortfall.String())
	assert.Equal(t, "30", rows[0].Quantity.String(), "las filas no se modifican")
}

// ──────────────────────────────────────────────────────────────────────────────
// FIFO
// ──────────────────────────────────────────────────────────────────────────────

// Lotes de 5 y 5, tomar 7 → 5 del más antiguo y 2 del siguiente.
func TestPlanFIFO_MasAntiguoPrimero(t *testing.T) {
	lots := []*entity.ProductionLot{lot("b", 2, "5"), lot("a", 1, "5")}
	inv.SortFIFO(lots)

	draws, err := inv.PlanFIFO(lots, d("7"), "SHIRT/M@A")
	require.NoError(t, err)
	require.Len(t, draws, 2)
	assert.Equal(t, "a", draws[0].Lot.ID)
	assert.Equal(t, "5", draws[0].Quantity.String())
	assert.Equal(t, "b", draws[1].Lot.ID)
	assert.Equal(t, "2", draws[1].Quantity.String())
}

func TestSortFIFO_EmpateDeFechaPorID(t *testing.T) {
	lots := []*entity.ProductionLot{lot("z", 1, "1"), lot("m", 1, "1"), lot("a", 3, "1")}
	inv.SortFIFO(lots)
	assert.Equal(t, []string{"m", "z", "a"}, []string{lots[0].ID, lots[1].ID, lots[2].ID})
}

// Misma fecha: la nota registrada primero sale primero aunque su lote tenga un ID mayor.
func TestSortFIFO_EmpateDeFechaPorNota(t *testing.T) {
	first := lot("z", 1, "5")
	first.NoteID = "0190a000-0000-7000-8000-000000000001"
	second := lot("a", 1, "5")
	second.NoteID = "0190a000-0000-7000-8000-000000000002"
	lots := []*entity.ProductionLot{second, first}

	inv.SortFIFO(lots)

	assert.Equal(t, "z", lots[0].ID)
	draws, err := inv.PlanFIFO(lots, d("7"), "SHIRT/M@A")
	require.NoError(t, err)
	require.Len(t, draws, 2)
	assert.Equal(t, "z", draws[0].Lot.ID)
	assert.Equal(t, "5", draws[0].Quantity.String())
}

func TestPlanFIFO_SaltaLotesAgotados(t *testing.T) {
	empty := lot("a", 1, "5")
	empty.Available = decimal.Zero
	lots := []*entity.ProductionLot{empty, lot("b", 2, "4")}

	draws, err := inv.PlanFIFO(lots, d("3"), "SHIRT/M@A")
	require.NoError(t, err)
	require.Len(t, draws, 1)
	assert.Equal(t, "b", draws[0].Lot.ID)
}

func TestPlanFIFO_Insuficiente(t *testing.T) {
	_, err := inv.PlanFIFO([]*entity.ProductionLot{lot("a", 1, "2")}, d("3"), "SHIRT/M@A")

	var short *domain.InsufficientStockError
	require.True(t, errors.As(err, &short))
	assert.Equal(t, "SHIRT/M@A", short.Shortages[0].Resource)
	assert.Equal(t, "1", short.Shortages[0].Shortfall.String())
}

// ──────────────────────────────────────────────────────────────────────────────
// Lotes
// ──────────────────────────────────────────────────────────────────────────────

func TestProductionLot_TakeRestoreRespetanCapacidad(t *testing.T) {
	l := lot("a", 1, "5")

	require.NoError(t, l.Take(d("3")))
	assert.Equal(t, "2", l.Available.String())
	assert.Error(t, l.Take(d("3")), "no se toma más de lo disponible")

	require.NoError(t, l.Restore(d("3")))
	assert.Error(t, l.Restore(d("1")), "disponible nunca supera producido + recibido")

	l.Credit(d("4"))
	assert.Equal(t, "9", l.Available.String())
	assert.Equal(t, "9", l.Capacity().String())
}
