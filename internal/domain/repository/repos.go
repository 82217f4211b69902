package repository

// Repos agrupa los repositorios atados a una misma transacción (o al pool para lecturas).
type Repos struct {
	Items      ItemRepository
	Movements  StockMovementRepository
	BOM        BOMRepository
	Notes      ProductionNoteRepository
	Lots       LotRepository
	Outbound   OutboundRepository
	Transfers  TransferRepository
	Warehouses WarehouseRepository
	Products   ProductRepository
}
