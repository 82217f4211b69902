package inventory

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ensamble/internal/domain"
	"github.com/jhoicas/inventario-ensamble/internal/domain/entity"
)

// Draw cantidad a descontar de una fila de insumo.
type Draw struct {
	Item     *entity.Item
	Quantity decimal.Decimal
}

// LotDraw cantidad a tomar de un lote.
type LotDraw struct {
	Lot      *entity.ProductionLot
	Quantity decimal.Decimal
}

// SumItems suma la cantidad de las filas activas.
func SumItems(rows []*entity.Item) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		if r.Active && r.Quantity.IsPositive() {
			total = total.Add(r.Quantity)
		}
	}
	return total
}

// OrderForConsumption ordena filas: bodega preferida primero, luego mayor cantidad, luego ID.
// Drenar primero el stock concentrado reduce la fragmentación.
func OrderForConsumption(rows []*entity.Item, preferredWarehouse string) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		pa, pb := a.WarehouseID == preferredWarehouse, b.WarehouseID == preferredWarehouse
		if pa != pb {
			return pa
		}
		if !a.Quantity.Equal(b.Quantity) {
			return a.Quantity.GreaterThan(b.Quantity)
		}
		return a.ID < b.ID
	})
}

// PlanConsumption calcula cuánto descontar de cada fila activa para cubrir required.
// Si el total no alcanza devuelve InsufficientStockError sin tocar las filas.
func PlanConsumption(rows []*entity.Item, preferredWarehouse string, required decimal.Decimal) ([]Draw, error) {
	active := make([]*entity.Item, 0, len(rows))
	for _, r := range rows {
		if r.Active {
			active = append(active, r)
		}
	}
	available := SumItems(active)
	if available.LessThan(required) {
		code, name := "", ""
		if len(rows) > 0 {
			code, name = rows[0].Code, rows[0].Name
		}
		return nil, &domain.InsufficientStockError{
			Shortages: []domain.Shortage{domain.NewShortage(code, name, available, required)},
		}
	}
	OrderForConsumption(active, preferredWarehouse)

	var draws []Draw
	remaining := required
	for _, r := range active {
		if !remaining.IsPositive() {
			break
		}
		if !r.Quantity.IsPositive() {
			continue
		}
		take := decimal.Min(r.Quantity, remaining)
		draws = append(draws, Draw{Item: r, Quantity: take})
		remaining = remaining.Sub(take)
	}
	return draws, nil
}

// SortFIFO ordena lotes del más antiguo al más reciente por fecha de la nota.
// Con la misma fecha decide el ID de la nota (ordenable por creación) y después el del lote.
func SortFIFO(lots []*entity.ProductionLot) {
	sort.SliceStable(lots, func(i, j int) bool {
		a, b := lots[i], lots[j]
		if !a.NoteDate.Equal(b.NoteDate) {
			return a.NoteDate.Before(b.NoteDate)
		}
		if a.NoteID != b.NoteID {
			return a.NoteID < b.NoteID
		}
		return a.ID < b.ID
	})
}

// SumAvailable suma el disponible de los lotes.
func SumAvailable(lots []*entity.ProductionLot) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lots {
		total = total.Add(l.Available)
	}
	return total
}

// PlanFIFO recorre los lotes (ya ordenados) tomando min(disponible, restante) de cada uno.
// resource identifica el grupo de lotes en el error de faltante.
func PlanFIFO(lots []*entity.ProductionLot, required decimal.Decimal, resource string) ([]LotDraw, error) {
	available := SumAvailable(lots)
	if available.LessThan(required) {
		return nil, &domain.InsufficientStockError{
			Shortages: []domain.Shortage{domain.NewShortage(resource, "", available, required)},
		}
	}
	var draws []LotDraw
	remaining := required
	for _, l := range lots {
		if !remaining.IsPositive() {
			break
		}
		if !l.Available.IsPositive() {
			continue
		}
		take := decimal.Min(l.Available, remaining)
		draws = append(draws, LotDraw{Lot: l, Quantity: take})
		remaining = remaining.Sub(take)
	}
	return draws, nil
}
