package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ensamble/internal/domain/entity"
)

// LotKey identifica el grupo de lotes de un producto y talla.
type LotKey struct {
	ProductID string
	Size      string
}

// SizeStock disponible por talla de un producto en una bodega.
type SizeStock struct {
	Size      string          `json:"size"`
	Available decimal.Decimal `json:"available"`
}

// ProductionNoteRepository puerto de notas de ensamble y sus insumos manuales.
type ProductionNoteRepository interface {
	Create(ctx context.Context, note *entity.ProductionNote) error
	Update(ctx context.Context, note *entity.ProductionNote) error
	Delete(ctx context.Context, id string) error
	// GetByID carga cabecera, lotes e insumos manuales.
	GetByID(ctx context.Context, id string) (*entity.ProductionNote, error)
	// LockByID igual que GetByID pero bloquea la cabecera.
	LockByID(ctx context.Context, id string) (*entity.ProductionNote, error)
	ReplaceMaterials(ctx context.Context, noteID string, lines []*entity.ManualMaterialLine) error
}

// LotRepository puerto de lotes de producto terminado.
type LotRepository interface {
	Create(ctx context.Context, lot *entity.ProductionLot) error
	// Ensure devuelve el lote de la misma nota, producto, talla y bodega, creándolo si no existe.
	// El lote devuelto queda bloqueado con sus saldos actuales.
	Ensure(ctx context.Context, lot *entity.ProductionLot) (*entity.ProductionLot, error)
	// UpdateBalance persiste Available y Received.
	UpdateBalance(ctx context.Context, lot *entity.ProductionLot) error
	DeleteByNote(ctx context.Context, noteID string) error
	LockByNote(ctx context.Context, noteID string) ([]*entity.ProductionLot, error)
	LockByIDs(ctx context.Context, ids []string) ([]*entity.ProductionLot, error)
	// LockByKeys bloquea todos los lotes de los pares producto/talla, en cualquier bodega.
	LockByKeys(ctx context.Context, keys []LotKey) ([]*entity.ProductionLot, error)
	// HasDownstream true si algún lote de la nota fue tocado por un traslado o una asignación de salida.
	HasDownstream(ctx context.Context, noteID string) (bool, error)
	StockBySize(ctx context.Context, productID, warehouseID string) ([]SizeStock, error)
}
