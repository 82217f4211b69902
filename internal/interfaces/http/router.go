package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ensamble/internal/application/inventory"
	"github.com/jhoicas/inventario-ensamble/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	WarehouseUC   *usecase.WarehouseUseCase
	ProductUC     *usecase.ProductUseCase
	ItemUC        *inventory.ItemUseCase
	QueryUC       *inventory.QueryUseCase
	BOMUC         *inventory.BOMUseCase
	ProductionUC  *inventory.ProductionNoteUseCase
	OutboundUC    *inventory.OutboundUseCase
	TransferUC    *inventory.TransferUseCase
	Replenishment *inventory.ReplenishmentUseCase
	KardexReport  *inventory.KardexReportUseCase
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	warehouses := api.Group("/warehouses")
	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC)
	warehouses.Post("/", warehouseHandler.Create)
	warehouses.Get("/", warehouseHandler.List)
	warehouses.Get("/:id", warehouseHandler.GetByID)

	inventoryHandler := NewInventoryHandler(deps.ItemUC, deps.QueryUC, deps.Replenishment, deps.KardexReport)

	products := api.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Get("/:id/stock-by-size", inventoryHandler.StockBySize)

	// Insumos por bodega
	items := api.Group("/items")
	items.Post("/", inventoryHandler.RegisterItem)
	items.Get("/code/:code/stock", inventoryHandler.StockByWarehouse)
	items.Get("/code/:code/kardex.pdf", inventoryHandler.KardexPDF)
	items.Get("/:id", inventoryHandler.GetItem)
	items.Patch("/:id", inventoryHandler.UpdateItem)
	items.Delete("/:id", inventoryHandler.DeactivateItem)

	movements := api.Group("/movements")
	movements.Get("/", inventoryHandler.History)
	movements.Post("/", inventoryHandler.ApplyMovement)
	movements.Post("/record", inventoryHandler.RecordMovement)

	api.Post("/consumptions", inventoryHandler.Consume)
	api.Get("/replenishment", inventoryHandler.GetReplenishmentList)
	api.Get("/balances/verify", inventoryHandler.VerifyBalances)

	productionHandler := NewProductionHandler(deps.ProductionUC, deps.BOMUC)

	bom := api.Group("/bom")
	bom.Put("/", productionHandler.SetBOMLine)
	bom.Post("/apply", inventoryHandler.ApplyBOMDelta)
	bom.Get("/:product_id", productionHandler.ListBOM)
	bom.Delete("/:product_id/:item_id", productionHandler.RemoveBOMLine)

	notes := api.Group("/production-notes")
	notes.Post("/", productionHandler.CreateNote)
	notes.Get("/:id", productionHandler.GetNote)
	notes.Put("/:id", productionHandler.UpdateNote)
	notes.Delete("/:id", productionHandler.DeleteNote)

	outboundHandler := NewOutboundHandler(deps.OutboundUC, deps.TransferUC)

	outbound := api.Group("/outbound-notes")
	outbound.Post("/", outboundHandler.Allocate)
	outbound.Get("/:id", outboundHandler.Get)
	outbound.Delete("/:id", outboundHandler.Reverse)

	transfers := api.Group("/transfers")
	transfers.Post("/", outboundHandler.Transfer)
	transfers.Post("/batch", outboundHandler.TransferBatch)
}
