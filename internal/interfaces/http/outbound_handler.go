package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ensamble/internal/application/dto"
	"github.com/jhoicas/inventario-ensamble/internal/application/inventory"
)

// OutboundHandler salidas FIFO de producto terminado y traslados entre bodegas.
type OutboundHandler struct {
	outbound  *inventory.OutboundUseCase
	transfers *inventory.TransferUseCase
}

// NewOutboundHandler construye el handler.
func NewOutboundHandler(outbound *inventory.OutboundUseCase, transfers *inventory.TransferUseCase) *OutboundHandler {
	return &OutboundHandler{outbound: outbound, transfers: transfers}
}

// Allocate godoc
// @Summary      Registrar nota de salida (asignación FIFO por lote)
// @Tags         outbound-notes
// @Accept       json
// @Produce      json
// @Param        body  body  dto.OutboundNoteRequest  true  "warehouse_id y líneas producto/talla/cantidad"
// @Success      201   {object}  dto.OutboundNoteResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/outbound-notes [post]
func (h *OutboundHandler) Allocate(c *fiber.Ctx) error {
	var in dto.OutboundNoteRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	note, err := h.outbound.AllocateOutbound(c.Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewOutboundNoteResponse(note))
}

// Get godoc
// @Summary      Obtener nota de salida con sus asignaciones
// @Tags         outbound-notes
// @Produce      json
// @Param        id   path  string  true  "ID de la nota de salida"
// @Success      200  {object}  dto.OutboundNoteResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/outbound-notes/{id} [get]
func (h *OutboundHandler) Get(c *fiber.Ctx) error {
	note, err := h.outbound.Get(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewOutboundNoteResponse(note))
}

// Reverse godoc
// @Summary      Reversar nota de salida (devuelve a cada lote lo asignado)
// @Tags         outbound-notes
// @Param        id   path  string  true  "ID de la nota de salida"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/outbound-notes/{id} [delete]
func (h *OutboundHandler) Reverse(c *fiber.Ctx) error {
	if err := h.outbound.ReverseOutbound(c.Context(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Transfer godoc
// @Summary      Trasladar producto terminado entre bodegas
// @Tags         transfers
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "product_id, size, from/to warehouse, quantity"
// @Success      201   {array}   dto.TransferRecordResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfers [post]
func (h *OutboundHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	records, err := h.transfers.TransferStock(c.Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewTransferRecordResponses(records))
}

// TransferBatch godoc
// @Summary      Trasladar varios producto/talla en una sola transacción
// @Tags         transfers
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferBatchRequest  true  "from/to warehouse e items"
// @Success      201   {array}   dto.TransferRecordResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfers/batch [post]
func (h *OutboundHandler) TransferBatch(c *fiber.Ctx) error {
	var in dto.TransferBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	records, err := h.transfers.TransferStockBatch(c.Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewTransferRecordResponses(records))
}
