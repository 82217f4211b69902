package inventory_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ensamble/internal/application/dto"
	"github.com/jhoicas/inventario-ensamble/internal/application/inventory"
	"github.com/jhoicas/inventario-ensamble/internal/domain"
	"github.com/jhoicas/inventario-ensamble/internal/domain/entity"
	"github.com/jhoicas/inventario-ensamble/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Registro de insumos
// ──────────────────────────────────────────────────────────────────────────────

func TestRegisterItem_SaldoInicialEnKardex(t *testing.T) {
	f := newFixture(t)
	item := f.registerItem("THREAD", whA, "10")

	assert.Equal(t, "10", f.quantity(item.ID))
	history, err := f.queries.History(f.ctx, repository.MovementFilter{ItemID: item.ID})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, entity.MovementCreate, history[0].Kind)
	assert.True(t, history[0].AffectsStock)
	assert.Equal(t, []string{inventory.EventItemRegistered}, f.published.types())
	f.requireConsistent()
}

func TestRegisterItem_MismoCodigoEnOtraBodega(t *testing.T) {
	f := newFixture(t)
	f.registerItem("THREAD", whA, "10")
	f.registerItem("THREAD", whB, "5")

	_, err := f.items.RegisterItem(f.ctx, dto.RegisterItemRequest{Code: "THREAD", Name: "Hilo", WarehouseID: whA})
	assert.True(t, errors.Is(err, domain.ErrDuplicate))
}

func TestRegisterItem_Validaciones(t *testing.T) {
	f := newFixture(t)

	_, err := f.items.RegisterItem(f.ctx, dto.RegisterItemRequest{Code: "", Name: "x", WarehouseID: whA})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = f.items.RegisterItem(f.ctx, dto.RegisterItemRequest{Code: "X", Name: "x", WarehouseID: whA, Quantity: d("-1")})
	assert.True(t, errors.Is(err, domain.ErrInvalidQuantity))

	_, err = f.items.RegisterItem(f.ctx, dto.RegisterItemRequest{Code: "X", Name: "x", WarehouseID: "no-existe"})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestAdjustItemMetadata_NoTocaCantidad(t *testing.T) {
	f := newFixture(t)
	item := f.registerItem("THREAD", whA, "10")

	name, minStock := "Hilo negro", d("4")
	updated, err := f.items.AdjustItemMetadata(f.ctx, item.ID, dto.UpdateItemRequest{Name: &name, MinStock: &minStock})
	require.NoError(t, err)
	assert.Equal(t, "Hilo negro", updated.Name)
	assert.Equal(t, "4", updated.MinStock.String())
	assert.Equal(t, "10", f.quantity(item.ID))

	_, err = f.items.AdjustItemMetadata(f.ctx, "no-existe", dto.UpdateItemRequest{Name: &name})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// ──────────────────────────────────────────────────────────────────────────────
// Movimientos directos
// ──────────────────────────────────────────────────────────────────────────────

func TestApplyMovement_EntradaRecalculaCostoPromedio(t *testing.T) {
	f := newFixture(t)
	item := f.registerItem("FABRIC", whA, "10") // costo 100

	cost := d("200")
	mov, err := f.items.ApplyMovement(f.ctx, inventory.MovementInput{
		Kind: entity.MovementInbound, ItemID: item.ID, Quantity: d("10"), UnitCost: &cost,
	})
	require.NoError(t, err)
	assert.Equal(t, "20", mov.BalanceAfter.String())
	assert.Equal(t, "2000", mov.Total.String())

	got, err := f.items.GetItem(f.ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "20", got.Quantity.String())
	assert.Equal(t, "150", got.UnitCost.String())
	f.requireConsistent()
}

func TestApplyMovement_SalidaInsuficiente(t *testing.T) {
	f := newFixture(t)
	item := f.registerItem("FABRIC", whA, "10")

	_, err := f.items.ApplyMovement(f.ctx, inventory.MovementInput{
		Kind: entity.MovementOutbound, ItemCode: "FABRIC", WarehouseID: whA, Quantity: d("25"),
	})
	var short *domain.InsufficientStockError
	require.True(t, errors.As(err, &short))
	assert.Equal(t, "15", short.Shortages[0].Shortfall.String())
	assert.Equal(t, "10", f.quantity(item.ID))
}

func TestApplyMovement_RechazaCantidadNoPositiva(t *testing.T) {
	f := newFixture(t)
	item := f.registerItem("FABRIC", whA, "10")

	for _, qty := range []string{"0", "-3", "0.0001"} {
		_, err := f.items.ApplyMovement(f.ctx, inventory.MovementInput{
			Kind: entity.MovementInbound, ItemID: item.ID, Quantity: d(qty),
		})
		assert.True(t, errors.Is(err, domain.ErrInvalidQuantity), "cantidad %s", qty)
	}
	_, err := f.items.ApplyMovement(f.ctx, inventory.MovementInput{
		Kind: entity.MovementEditNote, ItemID: item.ID, Quantity: d("1"),
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestRecordMovement_SoloHistorial(t *testing.T) {
	f := newFixture(t)
	item := f.registerItem("FABRIC", whA, "10")

	mov, err := f.items.RecordMovement(f.ctx, inventory.MovementInput{
		Kind: entity.MovementOutbound, ItemID: item.ID, Quantity: d("4"), Reference: "FAC-1",
	})
	require.NoError(t, err)
	assert.False(t, mov.AffectsStock)
	assert.Equal(t, "FAC-1", mov.Reference)
	assert.Equal(t, "10", f.quantity(item.ID))
	f.requireConsistent()
}

func TestDeactivateItem_NoParticipaEnConsumos(t *testing.T) {
	f := newFixture(t)
	a := f.registerItem("THREAD", whA, "10")
	f.registerItem("THREAD", whB, "5")
	require.NoError(t, f.items.DeactivateItem(f.ctx, a.ID))

	_, err := f.items.ConsumeOrRestore(f.ctx, "THREAD", whA, d("6"), "", "", "")
	var short *domain.InsufficientStockError
	require.True(t, errors.As(err, &short))
	assert.Equal(t, "5", short.Shortages[0].Available.String())
}

// ──────────────────────────────────────────────────────────────────────────────
// Consumo entre bodegas
// ──────────────────────────────────────────────────────────────────────────────

// A=10, B=5, consumir 12 prefiriendo A → A=0, B=3.
func TestConsumeOrRestore_BodegaPreferidaPrimero(t *testing.T) {
	f := newFixture(t)
	a := f.registerItem("THREAD", whA, "10")
	b := f.registerItem("THREAD", whB, "5")

	movs, err := f.items.ConsumeOrRestore(f.ctx, "THREAD", whA, d("12"), "", "", "OP-7")
	require.NoError(t, err)
	require.Len(t, movs, 2)
	assert.Equal(t, whA, movs[0].WarehouseID)
	assert.Equal(t, "10", movs[0].Quantity.String())
	assert.Equal(t, whB, movs[1].WarehouseID)
	assert.Equal(t, "2", movs[1].Quantity.String())
	assert.Equal(t, movs[0].TransactionID, movs[1].TransactionID, "una operación, un TransactionID")
	assert.Equal(t, entity.MovementAssemblyConsumption, movs[0].Kind)

	assert.Equal(t, "0", f.quantity(a.ID))
	assert.Equal(t, "3", f.quantity(b.ID))

	balances, err := f.queries.StockByWarehouse(f.ctx, "THREAD")
	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.Equal(t, "0", balances[0].Quantity.String())
	assert.Equal(t, "3", balances[1].Quantity.String())
	f.requireConsistent()
}

// 100 requeridos, 40 disponibles: faltante 60 y ningún cambio.
func TestConsumeOrRestore_InsuficienteEsAtomico(t *testing.T) {
	f := newFixture(t)
	a := f.registerItem("THREAD", whA, "30")
	b := f.registerItem("THREAD", whB, "10")
	events := len(f.published.types())

	_, err := f.items.ConsumeOrRestore(f.ctx, "THREAD", whA, d("100"), "", "", "")
	var short *domain.InsufficientStockError
	require.True(t, errors.As(err, &short))
	require.Len(t, short.Shortages, 1)
	assert.Equal(t, "40", short.Shortages[0].Available.String())
	assert.Equal(t, "100", short.Shortages[0].Required.String())
	assert.Equal(t, "60", short.Shortages[0].Shortfall.String())

	assert.Equal(t, "30", f.quantity(a.ID))
	assert.Equal(t, "10", f.quantity(b.ID))
	history, err := f.queries.History(f.ctx, repository.MovementFilter{ItemCode: "THREAD"})
	require.NoError(t, err)
	assert.Len(t, history, 2, "solo los CREATE")
	assert.Len(t, f.published.types(), events, "sin evento para una operación fallida")
}

func TestConsumeOrRestore_DevolucionAcreditaBodegaPreferida(t *testing.T) {
	f := newFixture(t)
	a := f.registerItem("THREAD", whA, "10")
	b := f.registerItem("THREAD", whB, "5")

	movs, err := f.items.ConsumeOrRestore(f.ctx, "THREAD", whB, d("-4"), "", "", "")
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementAdjustment, movs[0].Kind)
	assert.Equal(t, "4", movs[0].Quantity.String())
	assert.Equal(t, "10", f.quantity(a.ID))
	assert.Equal(t, "9", f.quantity(b.ID))
	f.requireConsistent()
}

func TestConsumeOrRestore_CodigoDesconocido(t *testing.T) {
	f := newFixture(t)
	_, err := f.items.ConsumeOrRestore(f.ctx, "NOPE", whA, d("1"), "", "", "")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestConsumeOrRestore_TipoQueNoDescuenta(t *testing.T) {
	f := newFixture(t)
	f.registerItem("THREAD", whA, "10")
	_, err := f.items.ConsumeOrRestore(f.ctx, "THREAD", whA, d("1"), entity.MovementInbound, "", "")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

// consumir y devolver lo mismo deja saldos idénticos y el kardex cuadrado.
func TestConsumeOrRestore_IdaYVuelta(t *testing.T) {
	f := newFixture(t)
	a := f.registerItem("THREAD", whA, "10")

	_, err := f.items.ConsumeOrRestore(f.ctx, "THREAD", whA, d("7.5"), "", "", "")
	require.NoError(t, err)
	_, err = f.items.ConsumeOrRestore(f.ctx, "THREAD", whA, d("-7.5"), "", "", "")
	require.NoError(t, err)

	assert.Equal(t, "10", f.quantity(a.ID))
	f.requireConsistent()
}

// ──────────────────────────────────────────────────────────────────────────────
// Receta (BOM)
// ──────────────────────────────────────────────────────────────────────────────

func TestApplyBOMDelta_ConsumeYRevierte(t *testing.T) {
	f := newFixture(t)
	fabric := f.registerItem("FABRIC", whA, "100")
	button := f.registerItem("BUTTON", whA, "50")
	f.setBOM(fabric.ID, "1.5", "10") // 1.65 por unidad
	f.setBOM(button.ID, "6", "0")

	movs, err := f.items.ApplyBOMDelta(f.ctx, dto.BOMDeltaRequest{ProductID: shirt, WarehouseID: whA, DeltaUnits: d("4")})
	require.NoError(t, err)
	assert.Len(t, movs, 2)
	assert.Equal(t, "93.4", f.quantity(fabric.ID))
	assert.Equal(t, "26", f.quantity(button.ID))

	_, err = f.items.ApplyBOMDelta(f.ctx, dto.BOMDeltaRequest{ProductID: shirt, WarehouseID: whA, DeltaUnits: d("-4")})
	require.NoError(t, err)
	assert.Equal(t, "100", f.quantity(fabric.ID))
	assert.Equal(t, "50", f.quantity(button.ID))
	f.requireConsistent()
}

// Con un insumo corto no se descuenta ninguno.
func TestApplyBOMDelta_ReportaFaltantesSinMutar(t *testing.T) {
	f := newFixture(t)
	fabric := f.registerItem("FABRIC", whA, "100")
	button := f.registerItem("BUTTON", whA, "1")
	f.setBOM(fabric.ID, "1.5", "0")
	f.setBOM(button.ID, "4", "0")

	_, err := f.items.ApplyBOMDelta(f.ctx, dto.BOMDeltaRequest{ProductID: shirt, WarehouseID: whA, DeltaUnits: d("2")})
	var short *domain.InsufficientStockError
	require.True(t, errors.As(err, &short))
	require.Len(t, short.Shortages, 1)
	assert.Equal(t, "BUTTON", short.Shortages[0].Resource)
	assert.Equal(t, "7", short.Shortages[0].Shortfall.String())

	assert.Equal(t, "100", f.quantity(fabric.ID))
	assert.Equal(t, "1", f.quantity(button.ID))
}

func TestBOMUseCase_SetLineReemplazaYRemove(t *testing.T) {
	f := newFixture(t)
	fabric := f.registerItem("FABRIC", whA, "100")
	f.setBOM(fabric.ID, "1.5", "0")
	f.setBOM(fabric.ID, "2", "5")

	lines, err := f.bom.ListBOM(f.ctx, shirt)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "FABRIC", lines[0].ItemCode)
	assert.Equal(t, "2", lines[0].QuantityPerUnit.String())
	assert.Equal(t, "5", lines[0].WastePct.String())

	require.NoError(t, f.bom.RemoveLine(f.ctx, shirt, fabric.ID))
	assert.True(t, errors.Is(f.bom.RemoveLine(f.ctx, shirt, fabric.ID), domain.ErrNotFound))

	_, err = f.bom.SetLine(f.ctx, dto.BOMLineRequest{ProductID: shirt, ItemID: fabric.ID, QuantityPerUnit: decimal.Zero})
	assert.True(t, errors.Is(err, domain.ErrInvalidQuantity))
}
