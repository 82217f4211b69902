package inventory

import (
	"context"

	"github.com/jhoicas/inventario-ensamble/internal/application/dto"
	"github.com/jhoicas/inventario-ensamble/internal/domain"
	"github.com/jhoicas/inventario-ensamble/internal/domain/entity"
	"github.com/jhoicas/inventario-ensamble/internal/domain/repository"
	"github.com/jhoicas/inventario-ensamble/pkg/logger"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// QueryUseCase consultas de solo lectura: kardex, saldos por bodega y por talla, verificación de saldos.
// Los saldos pasan por la caché (si está configurada); un fallo de caché cae a la base de datos.
type QueryUseCase struct {
	tx    TxRunner
	cache StockCache
	log   *logger.Logger
}

// NewQueryUseCase construye el caso de uso. cache y log pueden ser nil.
func NewQueryUseCase(tx TxRunner, cache StockCache, log *logger.Logger) *QueryUseCase {
	return &QueryUseCase{tx: tx, cache: cache, log: log}
}

// History movimientos filtrados, más recientes primero.
func (uc *QueryUseCase) History(ctx context.Context, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	if f.Limit <= 0 {
		f.Limit = defaultHistoryLimit
	}
	if f.Limit > maxHistoryLimit {
		f.Limit = maxHistoryLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.Kind != "" && !f.Kind.Valid() {
		return nil, domain.ErrInvalidInput
	}
	var list []*entity.StockMovement
	err := uc.tx.View(ctx, func(r repository.Repos) error {
		var err error
		list, err = r.Movements.List(ctx, f)
		return err
	})
	return list, err
}

// StockByWarehouse saldo del código de insumo por bodega, derivado del kardex.
func (uc *QueryUseCase) StockByWarehouse(ctx context.Context, code string) ([]repository.WarehouseBalance, error) {
	// solo se repuebla la caché si la lectura de su versión salió bien
	var version int64
	cacheable := false
	if uc.cache != nil {
		cached, v, ok, err := uc.cache.GetWarehouseStock(ctx, code)
		switch {
		case err != nil:
			uc.warn(err, "leer caché de stock por bodega")
		case ok:
			return cached, nil
		default:
			version, cacheable = v, true
		}
	}
	var balances []repository.WarehouseBalance
	err := uc.tx.View(ctx, func(r repository.Repos) error {
		rows, err := r.Items.ListByCode(ctx, code)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return domain.NotFoundf("insumo %s", code)
		}
		balances, err = r.Movements.BalancesByCode(ctx, code)
		return err
	})
	if err != nil {
		return nil, err
	}
	if cacheable {
		if err := uc.cache.SetWarehouseStock(ctx, code, version, balances); err != nil {
			uc.warn(err, "guardar caché de stock por bodega")
		}
	}
	return balances, nil
}

// StockBySize disponible por talla del producto en la bodega, sumado sobre sus lotes.
func (uc *QueryUseCase) StockBySize(ctx context.Context, productID, warehouseID string) ([]repository.SizeStock, error) {
	if productID == "" || warehouseID == "" {
		return nil, domain.ErrInvalidInput
	}
	var version int64
	cacheable := false
	if uc.cache != nil {
		cached, v, ok, err := uc.cache.GetSizeStock(ctx, productID, warehouseID)
		switch {
		case err != nil:
			uc.warn(err, "leer caché de stock por talla")
		case ok:
			return cached, nil
		default:
			version, cacheable = v, true
		}
	}
	var stock []repository.SizeStock
	err := uc.tx.View(ctx, func(r repository.Repos) error {
		product, err := r.Products.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.NotFoundf("producto %s", productID)
		}
		stock, err = r.Lots.StockBySize(ctx, productID, warehouseID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if cacheable {
		if err := uc.cache.SetSizeStock(ctx, productID, warehouseID, version, stock); err != nil {
			uc.warn(err, "guardar caché de stock por talla")
		}
	}
	return stock, nil
}

// VerifyBalances compara la cantidad en caché de cada fila con la suma de su kardex.
// Devuelve solo las filas con diferencia; vacío significa libro y saldos consistentes.
func (uc *QueryUseCase) VerifyBalances(ctx context.Context) ([]dto.BalanceDrift, error) {
	drifts := []dto.BalanceDrift{}
	err := uc.tx.View(ctx, func(r repository.Repos) error {
		items, err := r.Items.ListAll(ctx)
		if err != nil {
			return err
		}
		ledger, err := r.Movements.LedgerBalances(ctx)
		if err != nil {
			return err
		}
		byItem := make(map[string]repository.ItemLedgerBalance, len(ledger))
		for _, b := range ledger {
			byItem[b.ItemID] = b
		}
		for _, it := range items {
			sum := byItem[it.ID].Quantity
			if !sum.Equal(it.Quantity) {
				drifts = append(drifts, dto.BalanceDrift{
					ItemID:      it.ID,
					ItemCode:    it.Code,
					WarehouseID: it.WarehouseID,
					Cached:      it.Quantity,
					Ledger:      sum,
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(drifts) > 0 && uc.log != nil {
		uc.log.Error().Int("rows", len(drifts)).Msg("saldos en caché difieren del kardex")
	}
	return drifts, nil
}

func (uc *QueryUseCase) warn(err error, msg string) {
	if uc.log != nil {
		uc.log.Warn().Err(err).Msg(msg)
	}
}
