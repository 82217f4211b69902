package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ensamble/internal/domain"
	"github.com/jhoicas/inventario-ensamble/internal/domain/entity"
	inv "github.com/jhoicas/inventario-ensamble/internal/domain/inventory"
	"github.com/jhoicas/inventario-ensamble/internal/domain/repository"
)

// operation contexto de una operación compuesta: agrupa lo escrito bajo un mismo TransactionID.
type operation struct {
	txID      string
	now       time.Time
	partyID   string
	noteID    string
	reference string
	notes     string

	movements   []*entity.StockMovement
	allocations []*entity.Allocation
	transfers   []*entity.TransferRecord
	codes       map[string]struct{}
	products    map[string]struct{}
}

func newOperation(now time.Time, partyID string) *operation {
	return &operation{
		txID:     uuid.New().String(),
		now:      now,
		partyID:  partyID,
		codes:    map[string]struct{}{},
		products: map[string]struct{}{},
	}
}

// newSortableID UUIDv7: crece con el tiempo de creación, así que dentro de una misma fecha
// el orden de IDs de notas y lotes es el orden en que se registraron.
func newSortableID() string { return uuid.Must(uuid.NewV7()).String() }

func (op *operation) touchProduct(id string) { op.products[id] = struct{}{} }

func (op *operation) event(kind, referenceID string) Event {
	return Event{
		Type:          kind,
		TransactionID: op.txID,
		ReferenceID:   referenceID,
		OccurredAt:    op.now,
		Movements:     op.movements,
		Allocations:   op.allocations,
		Transfers:     op.transfers,
		ItemCodes:     sortedKeys(op.codes),
		ProductIDs:    sortedKeys(op.products),
	}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// postMovement es la única vía que modifica la cantidad en caché de un insumo:
// actualiza la fila (ya bloqueada) y agrega el movimiento al kardex en la misma transacción.
// supersedes no vacío marca el movimiento como compensación de otro.
func postMovement(
	ctx context.Context,
	r repository.Repos,
	item *entity.Item,
	kind entity.MovementKind,
	qty, unitCost decimal.Decimal,
	op *operation,
	supersedes string,
) (*entity.StockMovement, error) {
	qty = inv.Round3(qty)
	if qty.IsNegative() {
		return nil, domain.ErrInvalidQuantity
	}
	sign := decimal.NewFromInt(int64(kind.Sign()))
	next := inv.Round3(item.Quantity.Add(qty.Mul(sign)))
	if next.IsNegative() {
		return nil, &domain.InsufficientStockError{
			Shortages: []domain.Shortage{domain.NewShortage(item.Code, item.Name, item.Quantity, qty)},
		}
	}
	if kind.Sign() != 0 {
		if err := r.Items.UpdateStock(ctx, item.ID, next, item.UnitCost); err != nil {
			return nil, err
		}
		item.Quantity = next
	}
	mov := newMovement(item, kind, qty, unitCost, op)
	mov.AffectsStock = kind.Sign() != 0
	mov.SupersedesID = supersedes
	if err := r.Movements.Create(ctx, mov); err != nil {
		return nil, err
	}
	op.movements = append(op.movements, mov)
	op.codes[item.Code] = struct{}{}
	return mov, nil
}

// recordOnly registra historial SIN modificar stock.
func recordOnly(
	ctx context.Context,
	r repository.Repos,
	item *entity.Item,
	kind entity.MovementKind,
	qty, unitCost decimal.Decimal,
	op *operation,
) (*entity.StockMovement, error) {
	if qty.IsNegative() {
		return nil, domain.ErrInvalidQuantity
	}
	mov := newMovement(item, kind, inv.Round3(qty), unitCost, op)
	mov.AffectsStock = false
	if err := r.Movements.Create(ctx, mov); err != nil {
		return nil, err
	}
	op.movements = append(op.movements, mov)
	return mov, nil
}

func newMovement(item *entity.Item, kind entity.MovementKind, qty, unitCost decimal.Decimal, op *operation) *entity.StockMovement {
	return &entity.StockMovement{
		ID:               uuid.New().String(),
		TransactionID:    op.txID,
		ItemID:           item.ID,
		ItemCode:         item.Code,
		WarehouseID:      item.WarehouseID,
		Kind:             kind,
		Quantity:         qty,
		UnitCost:         unitCost,
		Total:            inv.Round2(qty.Mul(unitCost)),
		BalanceAfter:     item.Quantity,
		PartyID:          op.partyID,
		Reference:        op.reference,
		Notes:            op.notes,
		ProductionNoteID: op.noteID,
		Date:             op.now,
		CreatedAt:        op.now,
	}
}

// compensate escribe, por cada movimiento vigente, su compensación sobre la MISMA fila.
// Las filas deben estar bloqueadas por el llamador; byID se actualiza con los nuevos saldos.
func compensate(
	ctx context.Context,
	r repository.Repos,
	entries []*entity.StockMovement,
	byID map[string]*entity.Item,
	op *operation,
) error {
	for _, e := range entries {
		item, ok := byID[e.ItemID]
		if !ok {
			return domain.NotFoundf("insumo %s", e.ItemID)
		}
		if _, err := postMovement(ctx, r, item, e.Kind.Compensation(), e.Quantity, e.UnitCost, op, e.ID); err != nil {
			return err
		}
	}
	return nil
}

// lockItems bloquea en una sola pasada (ID ascendente) las filas por ID o por código.
func lockItems(ctx context.Context, r repository.Repos, ids, codes []string) (map[string]*entity.Item, error) {
	if len(ids) == 0 && len(codes) == 0 {
		return map[string]*entity.Item{}, nil
	}
	rows, err := r.Items.Lock(ctx, uniqueSorted(ids), uniqueSorted(codes))
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entity.Item, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	return byID, nil
}

func uniqueSorted(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
