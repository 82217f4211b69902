package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ensamble/internal/application/dto"
	"github.com/jhoicas/inventario-ensamble/internal/application/inventory"
	"github.com/jhoicas/inventario-ensamble/internal/domain"
	"github.com/jhoicas/inventario-ensamble/internal/domain/entity"
	"github.com/jhoicas/inventario-ensamble/internal/domain/repository"
)

// InventoryHandler maneja insumos, movimientos, consumos y consultas de saldo.
type InventoryHandler struct {
	items         *inventory.ItemUseCase
	queries       *inventory.QueryUseCase
	replenishment *inventory.ReplenishmentUseCase
	kardex        *inventory.KardexReportUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(
	items *inventory.ItemUseCase,
	queries *inventory.QueryUseCase,
	replenishment *inventory.ReplenishmentUseCase,
	kardex *inventory.KardexReportUseCase,
) *InventoryHandler {
	return &InventoryHandler{items: items, queries: queries, replenishment: replenishment, kardex: kardex}
}

// RegisterItem godoc
// @Summary      Registrar insumo en una bodega
// @Tags         items
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterItemRequest  true  "code, name, warehouse_id, quantity inicial, unit_cost"
// @Success      201   {object}  dto.ItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/items [post]
func (h *InventoryHandler) RegisterItem(c *fiber.Ctx) error {
	var in dto.RegisterItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	item, err := h.items.RegisterItem(c.Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewItemResponse(item))
}

// GetItem godoc
// @Summary      Obtener insumo por ID
// @Tags         items
// @Produce      json
// @Param        id   path  string  true  "ID de la fila de insumo"
// @Success      200  {object}  dto.ItemResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/items/{id} [get]
func (h *InventoryHandler) GetItem(c *fiber.Ctx) error {
	item, err := h.items.GetItem(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewItemResponse(item))
}

// UpdateItem godoc
// @Summary      Actualizar metadatos del insumo (no la cantidad)
// @Tags         items
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID de la fila de insumo"
// @Param        body  body  dto.UpdateItemRequest  true  "Campos a modificar"
// @Success      200   {object}  dto.ItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/items/{id} [patch]
func (h *InventoryHandler) UpdateItem(c *fiber.Ctx) error {
	var in dto.UpdateItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	item, err := h.items.AdjustItemMetadata(c.Context(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewItemResponse(item))
}

// DeactivateItem godoc
// @Summary      Desactivar insumo (baja lógica)
// @Tags         items
// @Param        id   path  string  true  "ID de la fila de insumo"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/items/{id} [delete]
func (h *InventoryHandler) DeactivateItem(c *fiber.Ctx) error {
	if err := h.items.DeactivateItem(c.Context(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// StockByWarehouse godoc
// @Summary      Saldo del código de insumo por bodega (derivado del kardex)
// @Tags         items
// @Produce      json
// @Param        code  path  string  true  "Código del insumo"
// @Success      200   {array}   repository.WarehouseBalance
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/items/code/{code}/stock [get]
func (h *InventoryHandler) StockByWarehouse(c *fiber.Ctx) error {
	out, err := h.queries.StockByWarehouse(c.Context(), c.Params("code"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// KardexPDF godoc
// @Summary      Kardex del insumo en PDF
// @Tags         items
// @Produce      application/pdf
// @Param        code  path   string  true   "Código del insumo"
// @Param        from  query  string  false  "Desde (YYYY-MM-DD)"
// @Param        to    query  string  false  "Hasta (YYYY-MM-DD)"
// @Success      200
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/items/code/{code}/kardex.pdf [get]
func (h *InventoryHandler) KardexPDF(c *fiber.Ctx) error {
	from, to, err := parseRange(c)
	if err != nil {
		return writeError(c, err)
	}
	pdf, filename, err := h.kardex.DownloadKardexPDF(c.Context(), c.Params("code"), from, to)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdf)
}

// ApplyMovement godoc
// @Summary      Registrar movimiento con efecto en saldo
// @Tags         movements
// @Accept       json
// @Produce      json
// @Param        body  body  dto.MovementRequest  true  "kind, item_id o item_code + warehouse_id, quantity, unit_cost (entradas)"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/movements [post]
func (h *InventoryHandler) ApplyMovement(c *fiber.Ctx) error {
	var in dto.MovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	m, err := h.items.ApplyMovementFromRequest(c.Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewMovementResponse(m))
}

// RecordMovement godoc
// @Summary      Registrar movimiento solo en el historial (sin efecto en saldo)
// @Tags         movements
// @Accept       json
// @Produce      json
// @Param        body  body  dto.MovementRequest  true  "Movimiento informativo"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/movements/record [post]
func (h *InventoryHandler) RecordMovement(c *fiber.Ctx) error {
	var in dto.MovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	m, err := h.items.RecordMovementFromRequest(c.Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewMovementResponse(m))
}

// History godoc
// @Summary      Historial de movimientos (kardex)
// @Tags         movements
// @Produce      json
// @Param        item_code     query  string  false  "Código del insumo"
// @Param        item_id       query  string  false  "ID de la fila"
// @Param        kind          query  string  false  "Tipo de movimiento"
// @Param        party_id      query  string  false  "Tercero"
// @Param        warehouse_id  query  string  false  "Bodega"
// @Param        from          query  string  false  "Desde (YYYY-MM-DD)"
// @Param        to            query  string  false  "Hasta (YYYY-MM-DD)"
// @Param        limit         query  int     false  "Límite"  default(50)
// @Param        offset        query  int     false  "Offset"  default(0)
// @Success      200  {array}   dto.MovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/movements [get]
func (h *InventoryHandler) History(c *fiber.Ctx) error {
	from, to, err := parseRange(c)
	if err != nil {
		return writeError(c, err)
	}
	list, err := h.queries.History(c.Context(), repository.MovementFilter{
		ItemCode:    c.Query("item_code"),
		ItemID:      c.Query("item_id"),
		Kind:        entity.MovementKind(c.Query("kind")),
		PartyID:     c.Query("party_id"),
		WarehouseID: c.Query("warehouse_id"),
		From:        from,
		To:          to,
		Limit:       c.QueryInt("limit", 0),
		Offset:      c.QueryInt("offset", 0),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewMovementResponses(list))
}

// Consume godoc
// @Summary      Consumir o devolver insumo repartiendo entre bodegas
// @Tags         movements
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ConsumeRequest  true  "item_code, preferred_warehouse_id, quantity (negativa = devolución)"
// @Success      201   {array}   dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/consumptions [post]
func (h *InventoryHandler) Consume(c *fiber.Ctx) error {
	var in dto.ConsumeRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	list, err := h.items.ConsumeFromRequest(c.Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewMovementResponses(list))
}

// ApplyBOMDelta godoc
// @Summary      Consumir (o devolver) insumos según la receta del producto
// @Tags         bom
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BOMDeltaRequest  true  "product_id, warehouse_id, delta_units"
// @Success      201   {array}   dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/bom/apply [post]
func (h *InventoryHandler) ApplyBOMDelta(c *fiber.Ctx) error {
	var in dto.BOMDeltaRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	list, err := h.items.ApplyBOMDelta(c.Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewMovementResponses(list))
}

// StockBySize godoc
// @Summary      Disponible por talla del producto en una bodega
// @Tags         products
// @Produce      json
// @Param        id            path   string  true  "ID del producto"
// @Param        warehouse_id  query  string  true  "Bodega"
// @Success      200  {array}   repository.SizeStock
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/stock-by-size [get]
func (h *InventoryHandler) StockBySize(c *fiber.Ctx) error {
	out, err := h.queries.StockBySize(c.Context(), c.Params("id"), c.Query("warehouse_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetReplenishmentList godoc
// @Summary      Lista de reposición
// @Description  Insumos activos por debajo del stock mínimo con la cantidad sugerida de pedido.
// @Tags         items
// @Produce      json
// @Param        warehouse_id  query  string  false  "Filtrar por bodega. Vacío = todas."
// @Success      200  {array}   dto.ReplenishmentSuggestionDTO
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/replenishment [get]
func (h *InventoryHandler) GetReplenishmentList(c *fiber.Ctx) error {
	list, err := h.replenishment.GenerateReplenishmentList(c.Context(), c.Query("warehouse_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"total":          len(list),
		"replenishments": list,
	})
}

// VerifyBalances godoc
// @Summary      Comparar saldo cacheado contra el kardex
// @Tags         items
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/balances/verify [get]
func (h *InventoryHandler) VerifyBalances(c *fiber.Ctx) error {
	drift, err := h.queries.VerifyBalances(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"consistent": len(drift) == 0,
		"drift":      drift,
	})
}

// parseRange lee from/to (YYYY-MM-DD); to incluye el día completo.
func parseRange(c *fiber.Ctx) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if s := c.Query("from"); s != "" {
		t, err := time.Parse(dto.DateLayout, s)
		if err != nil {
			return nil, nil, domain.ErrInvalidInput
		}
		from = &t
	}
	if s := c.Query("to"); s != "" {
		t, err := time.Parse(dto.DateLayout, s)
		if err != nil {
			return nil, nil, domain.ErrInvalidInput
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		to = &end
	}
	return from, to, nil
}
