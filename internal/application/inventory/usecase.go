package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ensamble/internal/application/dto"
	"github.com/jhoicas/inventario-ensamble/internal/domain"
	"github.com/jhoicas/inventario-ensamble/internal/domain/entity"
	inv "github.com/jhoicas/inventario-ensamble/internal/domain/inventory"
	"github.com/jhoicas/inventario-ensamble/internal/domain/repository"
)

// ItemUseCase registro de insumos y movimientos directos del kardex.
// Toda escritura de cantidad pasa por postMovement dentro de una transacción (TxRunner).
type ItemUseCase struct {
	tx       TxRunner
	notifier *Notifier
}

// NewItemUseCase construye el caso de uso.
func NewItemUseCase(tx TxRunner, notifier *Notifier) *ItemUseCase {
	return &ItemUseCase{tx: tx, notifier: notifier}
}

// MovementInput entrada de RecordMovement / ApplyMovement.
// El insumo se identifica por ItemID o por ItemCode + WarehouseID.
type MovementInput struct {
	Kind        entity.MovementKind
	ItemID      string
	ItemCode    string
	WarehouseID string
	Quantity    decimal.Decimal
	UnitCost    *decimal.Decimal
	PartyID     string
	Reference   string
	Notes       string
}

// RegisterItem crea la fila del insumo en la bodega y registra su saldo inicial (CREATE).
// Un mismo código puede existir en varias bodegas, pero una sola vez por bodega.
func (uc *ItemUseCase) RegisterItem(ctx context.Context, in dto.RegisterItemRequest) (*entity.Item, error) {
	code := strings.TrimSpace(in.Code)
	if code == "" || strings.TrimSpace(in.Name) == "" || in.WarehouseID == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.Quantity.IsNegative() || in.UnitCost.IsNegative() || in.MinStock.IsNegative() {
		return nil, domain.ErrInvalidQuantity
	}

	now := time.Now()
	op := newOperation(now, in.PartyID)
	op.reference = in.Reference
	item := &entity.Item{
		ID:          uuid.New().String(),
		Code:        code,
		Name:        strings.TrimSpace(in.Name),
		Unit:        in.Unit,
		WarehouseID: in.WarehouseID,
		Quantity:    decimal.Zero,
		MinStock:    inv.Round3(in.MinStock),
		UnitCost:    in.UnitCost,
		PartyID:     in.PartyID,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := uc.tx.Run(ctx, func(r repository.Repos) error {
		wh, err := r.Warehouses.GetByID(ctx, in.WarehouseID)
		if err != nil {
			return err
		}
		if wh == nil {
			return domain.NotFoundf("bodega %s", in.WarehouseID)
		}
		rows, err := r.Items.ListByCode(ctx, code)
		if err != nil {
			return err
		}
		for _, row := range rows {
			if row.WarehouseID == in.WarehouseID {
				return fmt.Errorf("%w: insumo %s ya existe en la bodega", domain.ErrDuplicate, code)
			}
		}
		if err := r.Items.Create(ctx, item); err != nil {
			return err
		}
		_, err = postMovement(ctx, r, item, entity.MovementCreate, in.Quantity, item.UnitCost, op, "")
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.notifier.Committed(ctx, op.event(EventItemRegistered, item.ID))
	return item, nil
}

// AdjustItemMetadata modifica campos no cuantitativos. La cantidad nunca se edita aquí.
func (uc *ItemUseCase) AdjustItemMetadata(ctx context.Context, id string, in dto.UpdateItemRequest) (*entity.Item, error) {
	if in.MinStock != nil && in.MinStock.IsNegative() {
		return nil, domain.ErrInvalidQuantity
	}
	if in.UnitCost != nil && in.UnitCost.IsNegative() {
		return nil, domain.ErrInvalidQuantity
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, domain.ErrInvalidInput
	}
	var item *entity.Item
	err := uc.tx.Run(ctx, func(r repository.Repos) error {
		byID, err := lockItems(ctx, r, []string{id}, nil)
		if err != nil {
			return err
		}
		item = byID[id]
		if item == nil {
			return domain.NotFoundf("insumo %s", id)
		}
		if in.Name != nil {
			item.Name = strings.TrimSpace(*in.Name)
		}
		if in.Unit != nil {
			item.Unit = *in.Unit
		}
		if in.MinStock != nil {
			item.MinStock = inv.Round3(*in.MinStock)
		}
		if in.UnitCost != nil {
			item.UnitCost = *in.UnitCost
		}
		if in.PartyID != nil {
			item.PartyID = *in.PartyID
		}
		item.UpdatedAt = time.Now()
		return r.Items.UpdateMetadata(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// DeactivateItem baja lógica: la fila deja de participar en consumos. No existe borrado físico.
func (uc *ItemUseCase) DeactivateItem(ctx context.Context, id string) error {
	return uc.tx.Run(ctx, func(r repository.Repos) error {
		byID, err := lockItems(ctx, r, []string{id}, nil)
		if err != nil {
			return err
		}
		if byID[id] == nil {
			return domain.NotFoundf("insumo %s", id)
		}
		return r.Items.SetActive(ctx, id, false)
	})
}

// GetItem obtiene una fila de insumo por ID.
func (uc *ItemUseCase) GetItem(ctx context.Context, id string) (*entity.Item, error) {
	var item *entity.Item
	err := uc.tx.View(ctx, func(r repository.Repos) error {
		var err error
		item, err = r.Items.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.NotFoundf("insumo %s", id)
		}
		return nil
	})
	return item, err
}

// RecordMovement agrega una entrada al kardex SIN modificar el saldo (solo historial).
func (uc *ItemUseCase) RecordMovement(ctx context.Context, in MovementInput) (*entity.StockMovement, error) {
	if err := validateMovement(in); err != nil {
		return nil, err
	}
	op := newOperation(time.Now(), in.PartyID)
	op.reference, op.notes = in.Reference, in.Notes
	var mov *entity.StockMovement
	err := uc.tx.Run(ctx, func(r repository.Repos) error {
		item, err := resolveItem(ctx, r, in.ItemID, in.ItemCode, in.WarehouseID)
		if err != nil {
			return err
		}
		cost := item.UnitCost
		if in.UnitCost != nil {
			cost = *in.UnitCost
		}
		mov, err = recordOnly(ctx, r, item, in.Kind, in.Quantity, cost, op)
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.notifier.Committed(ctx, op.event(EventMovementRecorded, mov.ID))
	return mov, nil
}

// ApplyMovement modifica el saldo de una fila y registra el movimiento en la misma transacción.
// Las entradas con costo recalculan el costo promedio ponderado (CostCalculator);
// las salidas fallan con InsufficientStockError si el saldo no alcanza.
func (uc *ItemUseCase) ApplyMovement(ctx context.Context, in MovementInput) (*entity.StockMovement, error) {
	if err := validateMovement(in); err != nil {
		return nil, err
	}
	op := newOperation(time.Now(), in.PartyID)
	op.reference, op.notes = in.Reference, in.Notes
	var mov *entity.StockMovement
	err := uc.tx.Run(ctx, func(r repository.Repos) error {
		target, err := resolveItem(ctx, r, in.ItemID, in.ItemCode, in.WarehouseID)
		if err != nil {
			return err
		}
		byID, err := lockItems(ctx, r, []string{target.ID}, nil)
		if err != nil {
			return err
		}
		item := byID[target.ID]
		if item == nil {
			return domain.NotFoundf("insumo %s", target.ID)
		}
		if !item.Active {
			return fmt.Errorf("%w: insumo %s inactivo", domain.ErrConflict, item.Code)
		}
		cost := item.UnitCost
		if in.UnitCost != nil {
			cost = *in.UnitCost
			if in.Kind.Sign() > 0 {
				item.UnitCost = inv.CostCalculator(item.Quantity, item.UnitCost, inv.Round3(in.Quantity), cost)
			}
		}
		mov, err = postMovement(ctx, r, item, in.Kind, in.Quantity, cost, op, "")
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.notifier.Committed(ctx, op.event(EventMovementApplied, mov.ID))
	return mov, nil
}

// ConsumeOrRestore descuenta (qty > 0) o devuelve (qty < 0) un insumo entre todas sus bodegas.
// kind vacío usa ASSEMBLY_CONSUMPTION.
func (uc *ItemUseCase) ConsumeOrRestore(
	ctx context.Context,
	code, preferredWarehouse string,
	qty decimal.Decimal,
	kind entity.MovementKind,
	partyID, reference string,
) ([]*entity.StockMovement, error) {
	if code == "" {
		return nil, domain.ErrInvalidInput
	}
	if kind != "" && !kind.IsOutbound() {
		return nil, fmt.Errorf("%w: tipo %s no descuenta stock", domain.ErrInvalidInput, kind)
	}
	op := newOperation(time.Now(), partyID)
	op.reference = reference
	err := uc.tx.Run(ctx, func(r repository.Repos) error {
		return consumeOrRestore(ctx, r, code, preferredWarehouse, qty, kind, op)
	})
	if err != nil {
		return nil, err
	}
	if len(op.movements) > 0 {
		uc.notifier.Committed(ctx, op.event(EventStockConsumed, code))
	}
	return op.movements, nil
}

// ApplyBOMDelta consume (delta > 0) o devuelve (delta < 0) los insumos de la receta del producto.
// Con delta positivo valida todos los insumos antes de mutar y reporta todos los faltantes juntos.
func (uc *ItemUseCase) ApplyBOMDelta(ctx context.Context, in dto.BOMDeltaRequest) ([]*entity.StockMovement, error) {
	if in.ProductID == "" {
		return nil, domain.ErrInvalidInput
	}
	delta := inv.Round3(in.DeltaUnits)
	if delta.IsZero() {
		return nil, nil
	}
	op := newOperation(time.Now(), in.PartyID)
	err := uc.tx.Run(ctx, func(r repository.Repos) error {
		product, err := r.Products.GetByID(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.NotFoundf("producto %s", in.ProductID)
		}
		lines, err := r.BOM.ListByProduct(ctx, in.ProductID)
		if err != nil || len(lines) == 0 {
			return err
		}
		req := newRequirements()
		addBOM(req, lines, delta)
		byID, err := lockItems(ctx, r, nil, req.codes())
		if err != nil {
			return err
		}
		if err := checkAvailability(byID, req); err != nil {
			return err
		}
		op.touchProduct(product.ID)
		return applyBOMLines(ctx, r, lines, in.WarehouseID, delta, op)
	})
	if err != nil {
		return nil, err
	}
	if len(op.movements) > 0 {
		uc.notifier.Committed(ctx, op.event(EventBOMApplied, in.ProductID))
	}
	return op.movements, nil
}

func validateMovement(in MovementInput) error {
	if !in.Kind.Valid() || in.Kind == entity.MovementEditNote {
		return fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, in.Kind)
	}
	if in.ItemID == "" && (in.ItemCode == "" || in.WarehouseID == "") {
		return domain.ErrInvalidInput
	}
	if !inv.Round3(in.Quantity).IsPositive() {
		return domain.ErrInvalidQuantity
	}
	if in.UnitCost != nil && in.UnitCost.IsNegative() {
		return domain.ErrInvalidQuantity
	}
	return nil
}

// resolveItem busca la fila por ID o por código + bodega (sin bloquear).
func resolveItem(ctx context.Context, r repository.Repos, id, code, warehouseID string) (*entity.Item, error) {
	if id != "" {
		item, err := r.Items.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, domain.NotFoundf("insumo %s", id)
		}
		return item, nil
	}
	rows, err := r.Items.ListByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if row.WarehouseID == warehouseID {
			return row, nil
		}
	}
	return nil, domain.NotFoundf("insumo %s en bodega %s", code, warehouseID)
}
