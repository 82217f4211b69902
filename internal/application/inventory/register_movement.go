package inventory

import (
	"context"

	"github.com/jhoicas/inventario-ensamble/internal/application/dto"
	"github.com/jhoicas/inventario-ensamble/internal/domain/entity"
)

// movementInputFromRequest adapta el request HTTP a la entrada del caso de uso.
func movementInputFromRequest(in dto.MovementRequest) MovementInput {
	return MovementInput{
		Kind:        entity.MovementKind(in.Kind),
		ItemID:      in.ItemID,
		ItemCode:    in.ItemCode,
		WarehouseID: in.WarehouseID,
		Quantity:    in.Quantity,
		UnitCost:    in.UnitCost,
		PartyID:     in.PartyID,
		Reference:   in.Reference,
		Notes:       in.Notes,
	}
}

// ApplyMovementFromRequest usar desde handlers HTTP: movimiento con efecto en saldo.
func (uc *ItemUseCase) ApplyMovementFromRequest(ctx context.Context, in dto.MovementRequest) (*entity.StockMovement, error) {
	return uc.ApplyMovement(ctx, movementInputFromRequest(in))
}

// RecordMovementFromRequest usar desde handlers HTTP: solo historial.
func (uc *ItemUseCase) RecordMovementFromRequest(ctx context.Context, in dto.MovementRequest) (*entity.StockMovement, error) {
	return uc.RecordMovement(ctx, movementInputFromRequest(in))
}

// ConsumeFromRequest usar desde handlers HTTP: consumo o devolución entre bodegas.
func (uc *ItemUseCase) ConsumeFromRequest(ctx context.Context, in dto.ConsumeRequest) ([]*entity.StockMovement, error) {
	return uc.ConsumeOrRestore(ctx, in.ItemCode, in.PreferredWarehouseID, in.Quantity,
		entity.MovementKind(in.Kind), in.PartyID, in.Reference)
}
