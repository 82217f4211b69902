package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-ensamble/internal/domain/entity"
	"github.com/jhoicas/inventario-ensamble/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad para el motor de inventario: si fn devuelve error nada queda aplicado.
type TxRunner interface {
	Run(ctx context.Context, fn func(r repository.Repos) error) error
	// View ejecuta lecturas en una transacción de solo lectura.
	View(ctx context.Context, fn func(r repository.Repos) error) error
}

// StockCache caché de lectura para los saldos por bodega y por talla.
// Cada Get devuelve la versión vigente de la clave; Set solo guarda si sigue siendo esa,
// así una lectura hecha antes de una invalidación no vuelve a poblar la caché con datos viejos.
type StockCache interface {
	GetWarehouseStock(ctx context.Context, itemCode string) (balances []repository.WarehouseBalance, version int64, ok bool, err error)
	SetWarehouseStock(ctx context.Context, itemCode string, version int64, balances []repository.WarehouseBalance) error
	GetSizeStock(ctx context.Context, productID, warehouseID string) (stock []repository.SizeStock, version int64, ok bool, err error)
	SetSizeStock(ctx context.Context, productID, warehouseID string, version int64, stock []repository.SizeStock) error
	// Invalidate sube la versión de los códigos y productos y borra sus saldos.
	Invalidate(ctx context.Context, itemCodes, productIDs []string) error
}

// EventPublisher publica los efectos de una operación ya confirmada.
type EventPublisher interface {
	Publish(ctx context.Context, ev Event) error
}

// KardexPDFGenerator genera la representación PDF del kardex de un insumo.
type KardexPDFGenerator interface {
	GenerateKardexPDF(ctx context.Context, data KardexData) ([]byte, error)
}

// Tipos de evento publicados tras el commit.
const (
	EventItemRegistered        = "item.registered"
	EventMovementApplied       = "movement.applied"
	EventMovementRecorded      = "movement.recorded"
	EventStockConsumed         = "stock.consumed"
	EventBOMApplied            = "bom.applied"
	EventProductionNoteCreated = "production_note.created"
	EventProductionNoteUpdated = "production_note.updated"
	EventProductionNoteDeleted = "production_note.deleted"
	EventOutboundAllocated     = "outbound.allocated"
	EventOutboundReversed      = "outbound.reversed"
	EventStockTransferred      = "stock.transferred"
)

// Event efectos de una operación confirmada: movimientos, asignaciones y traslados escritos.
type Event struct {
	Type          string
	TransactionID string
	ReferenceID   string
	OccurredAt    time.Time
	Movements     []*entity.StockMovement
	Allocations   []*entity.Allocation
	Transfers     []*entity.TransferRecord
	ItemCodes     []string
	ProductIDs    []string
}

// KardexData datos para el reporte de kardex.
type KardexData struct {
	ItemCode    string
	ItemName    string
	Unit        string
	GeneratedAt time.Time
	Balances    []repository.WarehouseBalance
	Movements   []*entity.StockMovement
}
