package inventory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ensamble/internal/application/dto"
	"github.com/jhoicas/inventario-ensamble/internal/application/inventory"
	"github.com/jhoicas/inventario-ensamble/internal/domain/entity"
	"github.com/jhoicas/inventario-ensamble/internal/domain/repository"
	"github.com/jhoicas/inventario-ensamble/internal/infrastructure/memory"
)

const (
	whA   = "wh-a"
	whB   = "wh-b"
	shirt = "prod-shirt"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// recordingPublisher guarda los eventos publicados.
type recordingPublisher struct {
	mu     sync.Mutex
	events []inventory.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev inventory.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	t         *testing.T
	ctx       context.Context
	store     *memory.Store
	published *recordingPublisher

	items     *inventory.ItemUseCase
	queries   *inventory.QueryUseCase
	bom       *inventory.BOMUseCase
	notes     *inventory.ProductionNoteUseCase
	outbound  *inventory.OutboundUseCase
	transfers *inventory.TransferUseCase
	replenish *inventory.ReplenishmentUseCase
}

// newFixture almacén en memoria con dos bodegas (A y B) y el producto SHIRT.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	pub := &recordingPublisher{}
	notifier := inventory.NewNotifier(pub, nil, nil)

	now := time.Now()
	require.NoError(t, store.Warehouses().Create(ctx, &entity.Warehouse{ID: whA, Code: "A", Name: "Bodega A", CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, store.Warehouses().Create(ctx, &entity.Warehouse{ID: whB, Code: "B", Name: "Bodega B", CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, store.Products().Create(ctx, &entity.Product{ID: shirt, Code: "SHIRT", Name: "Camisa", CreatedAt: now, UpdatedAt: now}))

	return &fixture{
		t:         t,
		ctx:       ctx,
		store:     store,
		published: pub,
		items:     inventory.NewItemUseCase(store, notifier),
		queries:   inventory.NewQueryUseCase(store, nil, nil),
		bom:       inventory.NewBOMUseCase(store),
		notes:     inventory.NewProductionNoteUseCase(store, notifier),
		outbound:  inventory.NewOutboundUseCase(store, notifier),
		transfers: inventory.NewTransferUseCase(store, notifier),
		replenish: inventory.NewReplenishmentUseCase(store),
	}
}

func (f *fixture) registerItem(code, warehouse, qty string) *entity.Item {
	f.t.Helper()
	item, err := f.items.RegisterItem(f.ctx, dto.RegisterItemRequest{
		Code:        code,
		Name:        code,
		Unit:        "UND",
		WarehouseID: warehouse,
		Quantity:    d(qty),
		UnitCost:    d("100"),
	})
	require.NoError(f.t, err)
	return item
}

func (f *fixture) quantity(itemID string) string {
	f.t.Helper()
	item, err := f.items.GetItem(f.ctx, itemID)
	require.NoError(f.t, err)
	return item.Quantity.String()
}

func (f *fixture) setBOM(itemID, perUnit, waste string) {
	f.t.Helper()
	_, err := f.bom.SetLine(f.ctx, dto.BOMLineRequest{
		ProductID:       shirt,
		ItemID:          itemID,
		QuantityPerUnit: d(perUnit),
		WastePct:        d(waste),
	})
	require.NoError(f.t, err)
}

// produce crea una nota de SHIRT en la bodega con las tallas dadas (talla → cantidad).
func (f *fixture) produce(warehouse, date string, sizes map[string]string) *entity.ProductionNote {
	f.t.Helper()
	note, err := f.notes.Create(f.ctx, noteRequest(warehouse, date, sizes))
	require.NoError(f.t, err)
	return note
}

func noteRequest(warehouse, date string, sizes map[string]string) dto.ProductionNoteRequest {
	req := dto.ProductionNoteRequest{WarehouseID: warehouse, ElaborationDate: date}
	for _, size := range []string{"S", "M", "L", "XL"} {
		if qty, ok := sizes[size]; ok {
			req.Lots = append(req.Lots, dto.ProductionLotRequest{ProductID: shirt, Size: size, Quantity: d(qty)})
		}
	}
	return req
}

// sizeStock disponible por talla de SHIRT en la bodega.
func (f *fixture) sizeStock(warehouse string) map[string]string {
	f.t.Helper()
	stock, err := f.queries.StockBySize(f.ctx, shirt, warehouse)
	require.NoError(f.t, err)
	out := map[string]string{}
	for _, s := range stock {
		out[s.Size] = s.Available.String()
	}
	return out
}

// requireConsistent el kardex y los saldos en caché coinciden y todo lote cumple 0 ≤ disponible ≤ capacidad.
func (f *fixture) requireConsistent() {
	f.t.Helper()
	drift, err := f.queries.VerifyBalances(f.ctx)
	require.NoError(f.t, err)
	require.Empty(f.t, drift)

	err = f.store.View(f.ctx, func(r repository.Repos) error {
		lots, err := r.Lots.LockByKeys(f.ctx, []repository.LotKey{
			{ProductID: shirt, Size: "S"}, {ProductID: shirt, Size: "M"},
			{ProductID: shirt, Size: "L"}, {ProductID: shirt, Size: "XL"},
		})
		if err != nil {
			return err
		}
		for _, l := range lots {
			require.False(f.t, l.Available.IsNegative(), "lote %s con disponible negativo", l.ID)
			require.True(f.t, l.Available.LessThanOrEqual(l.Capacity()), "lote %s supera su capacidad", l.ID)
		}
		return nil
	})
	require.NoError(f.t, err)
}
