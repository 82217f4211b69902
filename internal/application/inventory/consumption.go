package inventory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ensamble/internal/domain"
	"github.com/jhoicas/inventario-ensamble/internal/domain/entity"
	inv "github.com/jhoicas/inventario-ensamble/internal/domain/inventory"
	"github.com/jhoicas/inventario-ensamble/internal/domain/repository"
)

// consumeOrRestore descuenta (signed > 0) o devuelve (signed < 0) un insumo por código entre bodegas.
//
// Consumo: valida el total global de filas activas ANTES de mutar, luego descuenta priorizando
// la bodega preferida y la mayor cantidad, con un movimiento por fila tocada.
// Devolución: acredita la fila de la bodega preferida si existe, si no cualquier fila del código.
func consumeOrRestore(
	ctx context.Context,
	r repository.Repos,
	code, preferredWarehouse string,
	signed decimal.Decimal,
	kind entity.MovementKind,
	op *operation,
) error {
	signed = inv.Round3(signed)
	if signed.IsZero() {
		return nil
	}
	rows, err := r.Items.Lock(ctx, nil, []string{code})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return domain.NotFoundf("insumo %s", code)
	}

	if signed.IsPositive() {
		if kind == "" {
			kind = entity.MovementAssemblyConsumption
		}
		if !kind.IsOutbound() {
			return fmt.Errorf("%w: tipo %s no descuenta stock", domain.ErrInvalidInput, kind)
		}
		draws, err := inv.PlanConsumption(rows, preferredWarehouse, signed)
		if err != nil {
			return err
		}
		for _, d := range draws {
			if _, err := postMovement(ctx, r, d.Item, kind, d.Quantity, d.Item.UnitCost, op, ""); err != nil {
				return err
			}
		}
		return nil
	}

	target := restoreTarget(rows, preferredWarehouse)
	_, err = postMovement(ctx, r, target, entity.MovementAdjustment, signed.Neg(), target.UnitCost, op, "")
	return err
}

// restoreTarget fila que recibe una devolución: bodega preferida, luego la primera activa, luego la primera.
func restoreTarget(rows []*entity.Item, preferredWarehouse string) *entity.Item {
	var firstActive *entity.Item
	for _, row := range rows {
		if row.WarehouseID == preferredWarehouse && row.Active {
			return row
		}
		if firstActive == nil && row.Active {
			firstActive = row
		}
	}
	for _, row := range rows {
		if row.WarehouseID == preferredWarehouse {
			return row
		}
	}
	if firstActive != nil {
		return firstActive
	}
	return rows[0]
}

// requirements cantidades requeridas por código de insumo, en orden de aparición.
type requirements struct {
	order []string
	qty   map[string]decimal.Decimal
}

func newRequirements() *requirements {
	return &requirements{qty: map[string]decimal.Decimal{}}
}

func (q *requirements) add(code string, d decimal.Decimal) {
	if _, ok := q.qty[code]; !ok {
		q.order = append(q.order, code)
		q.qty[code] = decimal.Zero
	}
	q.qty[code] = q.qty[code].Add(d)
}

func (q *requirements) codes() []string { return q.order }

// bomCache líneas de receta por producto, cargadas una vez por operación.
type bomCache map[string][]*entity.BOMLine

func (c bomCache) lines(ctx context.Context, r repository.Repos, productID string) ([]*entity.BOMLine, error) {
	if lines, ok := c[productID]; ok {
		return lines, nil
	}
	lines, err := r.BOM.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	c[productID] = lines
	return lines, nil
}

// addBOM suma a req lo que consumen delta unidades del producto según su receta.
func addBOM(req *requirements, lines []*entity.BOMLine, delta decimal.Decimal) {
	for _, l := range lines {
		req.add(l.ItemCode, inv.RequiredQuantity(delta, l.QuantityPerUnit, l.WastePct))
	}
}

// checkAvailability verifica, sobre filas ya bloqueadas, que cada requerimiento positivo
// tenga stock global suficiente. Reporta todos los faltantes juntos.
func checkAvailability(byID map[string]*entity.Item, req *requirements) error {
	byCode := map[string][]*entity.Item{}
	for _, row := range byID {
		byCode[row.Code] = append(byCode[row.Code], row)
	}
	var shortages []domain.Shortage
	for _, code := range req.order {
		need := inv.Round3(req.qty[code])
		if !need.IsPositive() {
			continue
		}
		rows := byCode[code]
		if len(rows) == 0 {
			return domain.NotFoundf("insumo %s", code)
		}
		available := inv.SumItems(rows)
		if available.LessThan(need) {
			shortages = append(shortages, domain.NewShortage(code, rows[0].Name, available, need))
		}
	}
	if len(shortages) > 0 {
		return &domain.InsufficientStockError{Shortages: shortages}
	}
	return nil
}

// applyBOMLines consume o devuelve los insumos de delta unidades de producto.
// El signo de delta decide: revertir lo viejo y aplicar lo nuevo es simétrico.
func applyBOMLines(
	ctx context.Context,
	r repository.Repos,
	lines []*entity.BOMLine,
	warehouseID string,
	delta decimal.Decimal,
	op *operation,
) error {
	if delta.IsZero() {
		return nil
	}
	for _, l := range lines {
		required := inv.RequiredQuantity(delta, l.QuantityPerUnit, l.WastePct)
		if err := consumeOrRestore(ctx, r, l.ItemCode, warehouseID, required, "", op); err != nil {
			return err
		}
	}
	return nil
}
