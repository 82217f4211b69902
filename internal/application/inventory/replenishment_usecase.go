package inventory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ensamble/internal/application/dto"
	inv "github.com/jhoicas/inventario-ensamble/internal/domain/inventory"
	"github.com/jhoicas/inventario-ensamble/internal/domain/repository"
)

// idealStockFactor el pedido sugerido lleva la fila a 1.5 veces su stock mínimo.
var idealStockFactor = decimal.NewFromFloat(1.5)

// ReplenishmentUseCase genera la lista de reposición de insumos bajo stock mínimo.
type ReplenishmentUseCase struct {
	tx TxRunner
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(tx TxRunner) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{tx: tx}
}

// GenerateReplenishmentList devuelve las filas activas con cantidad < stock mínimo, con la cantidad
// sugerida de pedido y su costo estimado. warehouseID vacío considera todas las bodegas.
func (uc *ReplenishmentUseCase) GenerateReplenishmentList(ctx context.Context, warehouseID string) ([]dto.ReplenishmentSuggestionDTO, error) {
	suggestions := []dto.ReplenishmentSuggestionDTO{}
	err := uc.tx.View(ctx, func(r repository.Repos) error {
		rows, err := r.Items.ListBelowMinStock(ctx, warehouseID)
		if err != nil {
			return err
		}
		for _, item := range rows {
			ideal := inv.Round3(item.MinStock.Mul(idealStockFactor))
			suggested := ideal.Sub(item.Quantity)
			if suggested.IsNegative() {
				suggested = decimal.Zero
			}
			suggestions = append(suggestions, dto.ReplenishmentSuggestionDTO{
				ItemID:        item.ID,
				ItemCode:      item.Code,
				ItemName:      item.Name,
				WarehouseID:   item.WarehouseID,
				Quantity:      item.Quantity,
				MinStock:      item.MinStock,
				IdealStock:    ideal,
				SuggestedQty:  suggested,
				UnitCost:      item.UnitCost,
				EstimatedCost: inv.Round2(suggested.Mul(item.UnitCost)),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Mayor déficit relativo primero (cantidad / mínimo), luego mayor costo estimado.
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		ra, rb := coverage(a), coverage(b)
		if !ra.Equal(rb) {
			return ra.LessThan(rb)
		}
		return a.EstimatedCost.GreaterThan(b.EstimatedCost)
	})
	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	return suggestions, nil
}

func coverage(s dto.ReplenishmentSuggestionDTO) decimal.Decimal {
	if !s.MinStock.IsPositive() {
		return decimal.NewFromInt(1)
	}
	return s.Quantity.Div(s.MinStock)
}
