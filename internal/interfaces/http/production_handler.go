package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ensamble/internal/application/dto"
	"github.com/jhoicas/inventario-ensamble/internal/application/inventory"
	"github.com/jhoicas/inventario-ensamble/internal/domain/entity"
)

// ProductionHandler notas de ensamble y receta (BOM).
type ProductionHandler struct {
	notes *inventory.ProductionNoteUseCase
	bom   *inventory.BOMUseCase
}

// NewProductionHandler construye el handler.
func NewProductionHandler(notes *inventory.ProductionNoteUseCase, bom *inventory.BOMUseCase) *ProductionHandler {
	return &ProductionHandler{notes: notes, bom: bom}
}

// CreateNote godoc
// @Summary      Crear nota de ensamble
// @Description  Crea los lotes y consume los insumos de la receta y los manuales en una sola transacción.
// @Tags         production-notes
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ProductionNoteRequest  true  "Lotes e insumos manuales"
// @Success      201   {object}  dto.ProductionNoteResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/production-notes [post]
func (h *ProductionHandler) CreateNote(c *fiber.Ctx) error {
	var in dto.ProductionNoteRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	note, err := h.notes.Create(c.Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewProductionNoteResponse(note))
}

// GetNote godoc
// @Summary      Obtener nota de ensamble
// @Tags         production-notes
// @Produce      json
// @Param        id   path  string  true  "ID de la nota"
// @Success      200  {object}  dto.ProductionNoteResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/production-notes/{id} [get]
func (h *ProductionHandler) GetNote(c *fiber.Ctx) error {
	note, err := h.notes.Get(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewProductionNoteResponse(note))
}

// UpdateNote godoc
// @Summary      Editar nota de ensamble
// @Description  Revierte los consumos vigentes con movimientos compensatorios y aplica el nuevo contenido.
// @Tags         production-notes
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID de la nota"
// @Param        body  body  dto.ProductionNoteRequest  true  "Nuevo contenido"
// @Success      200   {object}  dto.ProductionNoteResponse
// @Failure      409   {object}  dto.ErrorResponse  "INSUFFICIENT_STOCK o NOTE_LOCKED_BY_DOWNSTREAM"
// @Router       /api/production-notes/{id} [put]
func (h *ProductionHandler) UpdateNote(c *fiber.Ctx) error {
	var in dto.ProductionNoteRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	note, err := h.notes.Update(c.Context(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewProductionNoteResponse(note))
}

// DeleteNote godoc
// @Summary      Borrar nota de ensamble (devuelve los insumos)
// @Tags         production-notes
// @Param        id   path  string  true  "ID de la nota"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/production-notes/{id} [delete]
func (h *ProductionHandler) DeleteNote(c *fiber.Ctx) error {
	if err := h.notes.Delete(c.Context(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetBOMLine godoc
// @Summary      Crear o actualizar línea de receta
// @Tags         bom
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BOMLineRequest  true  "product_id, item_id, quantity_per_unit, waste_pct"
// @Success      200   {object}  dto.BOMLineResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/bom [put]
func (h *ProductionHandler) SetBOMLine(c *fiber.Ctx) error {
	var in dto.BOMLineRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	line, err := h.bom.SetLine(c.Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewBOMLineResponses([]*entity.BOMLine{line})[0])
}

// RemoveBOMLine godoc
// @Summary      Eliminar línea de receta
// @Tags         bom
// @Param        product_id  path  string  true  "Producto"
// @Param        item_id     path  string  true  "Insumo"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/bom/{product_id}/{item_id} [delete]
func (h *ProductionHandler) RemoveBOMLine(c *fiber.Ctx) error {
	if err := h.bom.RemoveLine(c.Context(), c.Params("product_id"), c.Params("item_id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListBOM godoc
// @Summary      Receta del producto
// @Tags         bom
// @Produce      json
// @Param        product_id  path  string  true  "Producto"
// @Success      200  {array}  dto.BOMLineResponse
// @Router       /api/bom/{product_id} [get]
func (h *ProductionHandler) ListBOM(c *fiber.Ctx) error {
	lines, err := h.bom.ListBOM(c.Context(), c.Params("product_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewBOMLineResponses(lines))
}
