package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ensamble/internal/application/dto"
	"github.com/jhoicas/inventario-ensamble/internal/domain"
	"github.com/jhoicas/inventario-ensamble/internal/domain/entity"
	inv "github.com/jhoicas/inventario-ensamble/internal/domain/inventory"
	"github.com/jhoicas/inventario-ensamble/internal/domain/repository"
)

// ProductionNoteUseCase notas de ensamble: producen lotes de producto terminado y consumen insumos.
//
// Orden de bloqueo: cabecera de la nota, lotes de la nota, filas de insumos (una sola pasada por ID).
// Editar o borrar revierte los efectos con movimientos de compensación; nunca borra el kardex.
type ProductionNoteUseCase struct {
	tx       TxRunner
	notifier *Notifier
}

// NewProductionNoteUseCase construye el caso de uso.
func NewProductionNoteUseCase(tx TxRunner, notifier *Notifier) *ProductionNoteUseCase {
	return &ProductionNoteUseCase{tx: tx, notifier: notifier}
}

// Create valida la nota, persiste cabecera, lotes e insumos manuales y aplica el consumo.
func (uc *ProductionNoteUseCase) Create(ctx context.Context, in dto.ProductionNoteRequest) (*entity.ProductionNote, error) {
	if err := validateNoteRequest(in); err != nil {
		return nil, err
	}
	now := time.Now()
	op := newOperation(now, in.PartyID)
	var note *entity.ProductionNote
	err := uc.tx.Run(ctx, func(r repository.Repos) error {
		boms := bomCache{}
		var err error
		note, err = buildNote(ctx, r, newSortableID(), in, now)
		if err != nil {
			return err
		}
		note.CreatedAt = now
		req, err := noteRequirements(ctx, r, note, boms)
		if err != nil {
			return err
		}
		byID, err := lockItems(ctx, r, nil, req.codes())
		if err != nil {
			return err
		}
		if err := checkAvailability(byID, req); err != nil {
			return err
		}

		if err := r.Notes.Create(ctx, note); err != nil {
			return err
		}
		if err := persistNoteBody(ctx, r, note); err != nil {
			return err
		}
		op.noteID = note.ID
		op.reference = "nota " + note.ID
		return applyNote(ctx, r, note, boms, op)
	})
	if err != nil {
		return nil, err
	}
	uc.notifier.Committed(ctx, op.event(EventProductionNoteCreated, note.ID))
	return note, nil
}

// Update revierte los efectos vigentes de la nota, persiste la nueva versión y la vuelve a aplicar.
// Falla con NoteLockedError si algún lote ya fue trasladado o asignado a una salida.
func (uc *ProductionNoteUseCase) Update(ctx context.Context, id string, in dto.ProductionNoteRequest) (*entity.ProductionNote, error) {
	if err := validateNoteRequest(in); err != nil {
		return nil, err
	}
	now := time.Now()
	op := newOperation(now, in.PartyID)
	op.noteID = id
	op.reference = "nota " + id
	var note *entity.ProductionNote
	err := uc.tx.Run(ctx, func(r repository.Repos) error {
		prev, err := lockNote(ctx, r, id)
		if err != nil {
			return err
		}
		for _, l := range prev.Lots {
			op.touchProduct(l.ProductID)
		}

		boms := bomCache{}
		note, err = buildNote(ctx, r, id, in, now)
		if err != nil {
			return err
		}
		note.CreatedAt = prev.CreatedAt
		req, err := noteRequirements(ctx, r, note, boms)
		if err != nil {
			return err
		}
		entries, err := r.Movements.ListEffectiveByNote(ctx, id)
		if err != nil {
			return err
		}
		byID, err := lockItems(ctx, r, entryItemIDs(entries), req.codes())
		if err != nil {
			return err
		}
		if err := compensate(ctx, r, entries, byID, op); err != nil {
			return err
		}
		// tras la reversión, lo que vuelve al stock cuenta para la nueva versión
		if err := checkAvailability(byID, req); err != nil {
			return err
		}

		if err := r.Lots.DeleteByNote(ctx, id); err != nil {
			return err
		}
		if err := r.Notes.Update(ctx, note); err != nil {
			return err
		}
		if err := persistNoteBody(ctx, r, note); err != nil {
			return err
		}
		if err := applyNote(ctx, r, note, boms, op); err != nil {
			return err
		}
		return recordNoteEdit(ctx, r, op)
	})
	if err != nil {
		return nil, err
	}
	uc.notifier.Committed(ctx, op.event(EventProductionNoteUpdated, id))
	return note, nil
}

// Delete revierte los efectos de la nota y la elimina junto con lotes e insumos manuales.
// Los movimientos del kardex permanecen (la compensación queda registrada).
func (uc *ProductionNoteUseCase) Delete(ctx context.Context, id string) error {
	op := newOperation(time.Now(), "")
	op.noteID = id
	op.reference = "borrado nota " + id
	err := uc.tx.Run(ctx, func(r repository.Repos) error {
		prev, err := lockNote(ctx, r, id)
		if err != nil {
			return err
		}
		for _, l := range prev.Lots {
			op.touchProduct(l.ProductID)
		}
		entries, err := r.Movements.ListEffectiveByNote(ctx, id)
		if err != nil {
			return err
		}
		byID, err := lockItems(ctx, r, entryItemIDs(entries), nil)
		if err != nil {
			return err
		}
		if err := compensate(ctx, r, entries, byID, op); err != nil {
			return err
		}
		if err := r.Lots.DeleteByNote(ctx, id); err != nil {
			return err
		}
		return r.Notes.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	uc.notifier.Committed(ctx, op.event(EventProductionNoteDeleted, id))
	return nil
}

// Get carga la nota con lotes e insumos manuales.
func (uc *ProductionNoteUseCase) Get(ctx context.Context, id string) (*entity.ProductionNote, error) {
	var note *entity.ProductionNote
	err := uc.tx.View(ctx, func(r repository.Repos) error {
		var err error
		note, err = r.Notes.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if note == nil {
			return domain.NotFoundf("nota %s", id)
		}
		return nil
	})
	return note, err
}

// lockNote bloquea cabecera y lotes y aplica la guarda de dependencias aguas abajo.
func lockNote(ctx context.Context, r repository.Repos, id string) (*entity.ProductionNote, error) {
	note, err := r.Notes.LockByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, domain.NotFoundf("nota %s", id)
	}
	lots, err := r.Lots.LockByNote(ctx, id)
	if err != nil {
		return nil, err
	}
	note.Lots = lots
	locked, err := r.Lots.HasDownstream(ctx, id)
	if err != nil {
		return nil, err
	}
	if locked {
		return nil, &domain.NoteLockedError{NoteID: id}
	}
	return note, nil
}

func validateNoteRequest(in dto.ProductionNoteRequest) error {
	if in.WarehouseID == "" {
		return fmt.Errorf("%w: bodega requerida", domain.ErrInvalidInput)
	}
	if len(in.Lots) == 0 {
		return fmt.Errorf("%w: la nota requiere al menos un lote", domain.ErrInvalidInput)
	}
	for _, l := range in.Lots {
		if l.ProductID == "" || strings.TrimSpace(l.Size) == "" {
			return domain.ErrInvalidInput
		}
		if !inv.Round3(l.Quantity).IsPositive() {
			return domain.ErrInvalidQuantity
		}
	}
	seen := map[string]struct{}{}
	for _, m := range in.Materials {
		if m.ItemCode == "" {
			return domain.ErrInvalidInput
		}
		if !inv.Round3(m.QuantityPerUnit).IsPositive() {
			return domain.ErrInvalidQuantity
		}
		if _, dup := seen[m.ItemCode]; dup {
			return fmt.Errorf("%w: insumo manual %s repetido", domain.ErrInvalidInput, m.ItemCode)
		}
		seen[m.ItemCode] = struct{}{}
	}
	return nil
}

// buildNote arma la entidad resolviendo la bodega efectiva de cada lote y verificando referencias.
func buildNote(ctx context.Context, r repository.Repos, id string, in dto.ProductionNoteRequest, now time.Time) (*entity.ProductionNote, error) {
	date, err := parseDate(in.ElaborationDate, now)
	if err != nil {
		return nil, err
	}
	note := &entity.ProductionNote{
		ID:              id,
		WarehouseID:     in.WarehouseID,
		PartyID:         in.PartyID,
		ElaborationDate: date,
		Notes:           in.Notes,
		UpdatedAt:       now,
	}
	warehouses := map[string]bool{}
	checkWarehouse := func(whID string) error {
		if warehouses[whID] {
			return nil
		}
		wh, err := r.Warehouses.GetByID(ctx, whID)
		if err != nil {
			return err
		}
		if wh == nil {
			return domain.NotFoundf("bodega %s", whID)
		}
		warehouses[whID] = true
		return nil
	}
	if err := checkWarehouse(in.WarehouseID); err != nil {
		return nil, err
	}

	keys := map[string]struct{}{}
	for _, l := range in.Lots {
		whID := l.WarehouseID
		if whID == "" {
			whID = in.WarehouseID
		}
		if err := checkWarehouse(whID); err != nil {
			return nil, err
		}
		size := strings.TrimSpace(l.Size)
		key := l.ProductID + "|" + size + "|" + whID
		if _, dup := keys[key]; dup {
			return nil, fmt.Errorf("%w: lote repetido %s talla %s", domain.ErrInvalidInput, l.ProductID, size)
		}
		keys[key] = struct{}{}
		product, err := r.Products.GetByID(ctx, l.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, domain.NotFoundf("producto %s", l.ProductID)
		}
		qty := inv.Round3(l.Quantity)
		note.Lots = append(note.Lots, &entity.ProductionLot{
			ID:          newSortableID(),
			NoteID:      id,
			ProductID:   l.ProductID,
			Size:        size,
			WarehouseID: whID,
			Produced:    qty,
			Received:    decimal.Zero,
			Available:   qty,
			NoteDate:    date,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	for _, m := range in.Materials {
		rows, err := r.Items.ListByCode(ctx, m.ItemCode)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, domain.NotFoundf("insumo %s", m.ItemCode)
		}
		note.Materials = append(note.Materials, &entity.ManualMaterialLine{
			ID:              uuid.New().String(),
			NoteID:          id,
			ItemID:          rows[0].ID,
			ItemCode:        m.ItemCode,
			QuantityPerUnit: inv.Round3(m.QuantityPerUnit),
		})
	}
	return note, nil
}

func parseDate(s string, now time.Time) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(dto.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: fecha %q (formato YYYY-MM-DD)", domain.ErrInvalidInput, s)
	}
	return t, nil
}

// noteRequirements insumos que consume la nota: receta por lote más insumos manuales
// por unidad producida de toda la nota.
func noteRequirements(ctx context.Context, r repository.Repos, note *entity.ProductionNote, boms bomCache) (*requirements, error) {
	req := newRequirements()
	for _, l := range note.Lots {
		lines, err := boms.lines(ctx, r, l.ProductID)
		if err != nil {
			return nil, err
		}
		addBOM(req, lines, l.Produced)
	}
	total := note.TotalProduced()
	for _, m := range note.Materials {
		req.add(m.ItemCode, inv.Round3(m.QuantityPerUnit.Mul(total)))
	}
	return req, nil
}

func persistNoteBody(ctx context.Context, r repository.Repos, note *entity.ProductionNote) error {
	for _, l := range note.Lots {
		if err := r.Lots.Create(ctx, l); err != nil {
			return err
		}
	}
	return r.Notes.ReplaceMaterials(ctx, note.ID, note.Materials)
}

// applyNote consume la receta de cada lote y los insumos manuales, prefiriendo siempre la bodega
// de la nota: ahí se fabricó, aunque el lote quede acreditado en otra. Los movimientos quedan
// etiquetados con la nota.
func applyNote(ctx context.Context, r repository.Repos, note *entity.ProductionNote, boms bomCache, op *operation) error {
	for _, l := range note.Lots {
		op.touchProduct(l.ProductID)
		lines, err := boms.lines(ctx, r, l.ProductID)
		if err != nil {
			return err
		}
		if err := applyBOMLines(ctx, r, lines, note.WarehouseID, l.Produced, op); err != nil {
			return err
		}
	}
	total := note.TotalProduced()
	for _, m := range note.Materials {
		qty := inv.Round3(m.QuantityPerUnit.Mul(total))
		if err := consumeOrRestore(ctx, r, m.ItemCode, note.WarehouseID, qty, "", op); err != nil {
			return err
		}
	}
	return nil
}

// recordNoteEdit deja un EDIT_NOTE informativo en el historial de cada fila tocada por la edición.
func recordNoteEdit(ctx context.Context, r repository.Repos, op *operation) error {
	ids := make([]string, 0, len(op.movements))
	for _, m := range op.movements {
		ids = append(ids, m.ItemID)
	}
	byID, err := lockItems(ctx, r, ids, nil)
	if err != nil {
		return err
	}
	for _, id := range uniqueSorted(ids) {
		item := byID[id]
		if item == nil {
			continue
		}
		if _, err := recordOnly(ctx, r, item, entity.MovementEditNote, decimal.Zero, item.UnitCost, op); err != nil {
			return err
		}
	}
	return nil
}

func entryItemIDs(entries []*entity.StockMovement) []string {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ItemID)
	}
	return ids
}
