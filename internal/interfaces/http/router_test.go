package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ensamble/internal/application/dto"
	"github.com/jhoicas/inventario-ensamble/internal/application/inventory"
	"github.com/jhoicas/inventario-ensamble/internal/application/usecase"
	"github.com/jhoicas/inventario-ensamble/internal/domain/repository"
	"github.com/jhoicas/inventario-ensamble/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/inventario-ensamble/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/inventario-ensamble/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

// buildTestApp construye la API completa sobre un almacén en memoria.
func buildTestApp() *fiber.App {
	store := memory.NewStore()
	notifier := inventory.NewNotifier(nil, nil, nil)
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		WarehouseUC:   usecase.NewWarehouseUseCase(store.Warehouses()),
		ProductUC:     usecase.NewProductUseCase(store.Products()),
		ItemUC:        inventory.NewItemUseCase(store, notifier),
		QueryUC:       inventory.NewQueryUseCase(store, nil, nil),
		BOMUC:         inventory.NewBOMUseCase(store),
		ProductionUC:  inventory.NewProductionNoteUseCase(store, notifier),
		OutboundUC:    inventory.NewOutboundUseCase(store, notifier),
		TransferUC:    inventory.NewTransferUseCase(store, notifier),
		Replenishment: inventory.NewReplenishmentUseCase(store),
		KardexReport:  inventory.NewKardexReportUseCase(store, infrapdf.NewMarotoPDFGenerator()),
	})
	return app
}

// call lanza la petición con body JSON (nil = sin body) y devuelve la respuesta.
func call(t *testing.T, app *fiber.App, method, path string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// created exige 201 y devuelve el campo id del cuerpo.
func created(t *testing.T, resp *http.Response) string {
	t.Helper()
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var body struct {
		ID string `json:"id"`
	}
	decode(t, resp, &body)
	require.NotEmpty(t, body.ID)
	return body.ID
}

type seeded struct {
	whA, whB, product string
}

// seed crea dos bodegas, el producto SHIRT y el insumo THREAD (A=10, B=5).
func seed(t *testing.T, app *fiber.App) seeded {
	t.Helper()
	s := seeded{
		whA:     created(t, call(t, app, http.MethodPost, "/api/warehouses", fiber.Map{"code": "A", "name": "Bodega A"})),
		whB:     created(t, call(t, app, http.MethodPost, "/api/warehouses", fiber.Map{"code": "B", "name": "Bodega B"})),
		product: created(t, call(t, app, http.MethodPost, "/api/products", fiber.Map{"code": "SHIRT", "name": "Camisa"})),
	}
	created(t, call(t, app, http.MethodPost, "/api/items", fiber.Map{"code": "THREAD", "name": "Hilo", "warehouse_id": s.whA, "quantity": "10"}))
	created(t, call(t, app, http.MethodPost, "/api/items", fiber.Map{"code": "THREAD", "name": "Hilo", "warehouse_id": s.whB, "quantity": "5"}))
	return s
}

// ──────────────────────────────────────────────────────────────────────────────
// Maestros
// ──────────────────────────────────────────────────────────────────────────────

func TestWarehouses_CrearListarYDuplicado(t *testing.T) {
	app := buildTestApp()
	id := created(t, call(t, app, http.MethodPost, "/api/warehouses", fiber.Map{"code": "A", "name": "Bodega A"}))

	resp := call(t, app, http.MethodPost, "/api/warehouses", fiber.Map{"code": "A", "name": "Otra"})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = call(t, app, http.MethodPost, "/api/warehouses", fiber.Map{"code": "", "name": "Sin código"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = call(t, app, http.MethodGet, "/api/warehouses/"+id, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var wh dto.WarehouseResponse
	decode(t, resp, &wh)
	assert.Equal(t, "A", wh.Code)

	resp = call(t, app, http.MethodGet, "/api/warehouses?limit=10", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var list dto.WarehouseListResponse
	decode(t, resp, &list)
	assert.Len(t, list.Items, 1)
	assert.Equal(t, 10, list.Page.Limit)

	resp = call(t, app, http.MethodGet, "/api/warehouses/no-existe", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Insumos y consumos
// ──────────────────────────────────────────────────────────────────────────────

func TestConsumptions_PrefiereBodegaYReportaFaltantes(t *testing.T) {
	app := buildTestApp()
	s := seed(t, app)

	resp := call(t, app, http.MethodPost, "/api/consumptions", fiber.Map{
		"item_code": "THREAD", "preferred_warehouse_id": s.whA, "quantity": "12",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var movs []dto.MovementResponse
	decode(t, resp, &movs)
	require.Len(t, movs, 2)
	assert.Equal(t, s.whA, movs[0].WarehouseID)
	assert.Equal(t, "10", movs[0].Quantity.String())
	assert.Equal(t, "2", movs[1].Quantity.String())

	resp = call(t, app, http.MethodPost, "/api/consumptions", fiber.Map{
		"item_code": "THREAD", "preferred_warehouse_id": s.whA, "quantity": "100",
	})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	var errBody dto.ErrorResponse
	decode(t, resp, &errBody)
	assert.Equal(t, "INSUFFICIENT_STOCK", errBody.Code)
	require.Len(t, errBody.Shortages, 1)
	assert.Equal(t, "THREAD", errBody.Shortages[0].Resource)
	assert.Equal(t, "97", errBody.Shortages[0].Shortfall.String())

	resp = call(t, app, http.MethodGet, "/api/items/code/THREAD/stock", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var balances []struct {
		WarehouseID string `json:"warehouse_id"`
		Quantity    string `json:"quantity"`
	}
	decode(t, resp, &balances)
	require.Len(t, balances, 2)
	total := map[string]string{balances[0].WarehouseID: balances[0].Quantity, balances[1].WarehouseID: balances[1].Quantity}
	assert.Equal(t, "0", total[s.whA])
	assert.Equal(t, "3", total[s.whB])

	resp = call(t, app, http.MethodGet, "/api/balances/verify", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var verify struct {
		Consistent bool `json:"consistent"`
	}
	decode(t, resp, &verify)
	assert.True(t, verify.Consistent)
}

func TestItems_ErroresHTTP(t *testing.T) {
	app := buildTestApp()
	s := seed(t, app)

	resp := call(t, app, http.MethodGet, "/api/items/no-existe", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	req := httptest.NewRequest(http.MethodPost, "/api/items", bytes.NewReader([]byte("{no es json")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	var errBody dto.ErrorResponse
	decode(t, resp, &errBody)
	assert.Equal(t, "INVALID_BODY", errBody.Code)

	resp = call(t, app, http.MethodPost, "/api/movements", fiber.Map{
		"kind": "INBOUND", "item_code": "THREAD", "warehouse_id": s.whA, "quantity": "0",
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	decode(t, resp, &errBody)
	assert.Equal(t, "INVALID_QUANTITY", errBody.Code)

	resp = call(t, app, http.MethodPost, "/api/items", fiber.Map{"code": "THREAD", "name": "Hilo", "warehouse_id": s.whA})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	decode(t, resp, &errBody)
	assert.Equal(t, "DUPLICATE", errBody.Code)

	resp = call(t, app, http.MethodGet, "/api/movements?kind=TELEPORT", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = call(t, app, http.MethodGet, "/api/items/code/THREAD/kardex.pdf?from=ayer", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

// brokenRunner base de datos caída: toda transacción falla con el error crudo del driver.
type brokenRunner struct{ err error }

func (b brokenRunner) Run(context.Context, func(repository.Repos) error) error { return b.err }
func (b brokenRunner) View(context.Context, func(repository.Repos) error) error { return b.err }

func TestErrorInterno_NoExponeDetalle(t *testing.T) {
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		QueryUC: inventory.NewQueryUseCase(brokenRunner{err: errors.New(`pq: relation "items" does not exist`)}, nil, nil),
	})

	resp := call(t, app, http.MethodGet, "/api/items/code/THREAD/stock", nil)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	var errBody dto.ErrorResponse
	decode(t, resp, &errBody)
	assert.Equal(t, "INTERNAL", errBody.Code)
	assert.Equal(t, "error interno", errBody.Message)
	assert.NotContains(t, errBody.Message, "relation")
}

func TestMovements_EntradaEHistorial(t *testing.T) {
	app := buildTestApp()
	s := seed(t, app)

	resp := call(t, app, http.MethodPost, "/api/movements", fiber.Map{
		"kind": "INBOUND", "item_code": "THREAD", "warehouse_id": s.whB, "quantity": "7", "unit_cost": "50",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var mov dto.MovementResponse
	decode(t, resp, &mov)
	assert.Equal(t, "12", mov.BalanceAfter.String())
	assert.True(t, mov.AffectsStock)

	resp = call(t, app, http.MethodPost, "/api/movements/record", fiber.Map{
		"kind": "OUTBOUND", "item_code": "THREAD", "warehouse_id": s.whB, "quantity": "1",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	decode(t, resp, &mov)
	assert.False(t, mov.AffectsStock)

	resp = call(t, app, http.MethodGet, "/api/movements?item_code=THREAD&warehouse_id="+s.whB, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var history []dto.MovementResponse
	decode(t, resp, &history)
	assert.Len(t, history, 3)
}

func TestKardexPDF(t *testing.T) {
	app := buildTestApp()
	seed(t, app)

	resp := call(t, app, http.MethodGet, "/api/items/code/THREAD/kardex.pdf", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "kardex-THREAD.pdf")
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF")))

	resp = call(t, app, http.MethodGet, "/api/items/code/NOPE/kardex.pdf", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Notas de ensamble, salidas y traslados
// ──────────────────────────────────────────────────────────────────────────────

func TestProductionFlow_SalidaBloqueaNota(t *testing.T) {
	app := buildTestApp()
	s := seed(t, app)

	resp := call(t, app, http.MethodGet, "/api/items/code/THREAD/stock", nil)
	var balances []struct {
		WarehouseID string `json:"warehouse_id"`
		ItemID      string `json:"item_id"`
	}
	decode(t, resp, &balances)
	require.NotEmpty(t, balances)

	resp = call(t, app, http.MethodPut, "/api/bom", fiber.Map{
		"product_id": s.product, "item_id": balances[0].ItemID, "quantity_per_unit": "0.5",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	noteID := created(t, call(t, app, http.MethodPost, "/api/production-notes", fiber.Map{
		"warehouse_id":     s.whA,
		"elaboration_date": "2026-02-01",
		"lots":             []fiber.Map{{"product_id": s.product, "size": "M", "quantity": "8"}},
	}))

	resp = call(t, app, http.MethodGet, "/api/products/"+s.product+"/stock-by-size?warehouse_id="+s.whA, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var sizes []struct {
		Size      string `json:"size"`
		Available string `json:"available"`
	}
	decode(t, resp, &sizes)
	require.Len(t, sizes, 1)
	assert.Equal(t, "8", sizes[0].Available)

	outID := created(t, call(t, app, http.MethodPost, "/api/outbound-notes", fiber.Map{
		"warehouse_id": s.whA,
		"lines":        []fiber.Map{{"product_id": s.product, "size": "M", "quantity": "3"}},
	}))

	resp = call(t, app, http.MethodPut, "/api/production-notes/"+noteID, fiber.Map{
		"warehouse_id": s.whA,
		"lots":         []fiber.Map{{"product_id": s.product, "size": "M", "quantity": "2"}},
	})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	var errBody dto.ErrorResponse
	decode(t, resp, &errBody)
	assert.Equal(t, "NOTE_LOCKED_BY_DOWNSTREAM", errBody.Code)

	resp = call(t, app, http.MethodDelete, "/api/outbound-notes/"+outID, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	resp = call(t, app, http.MethodDelete, "/api/outbound-notes/"+outID, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = call(t, app, http.MethodDelete, "/api/production-notes/"+noteID, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp = call(t, app, http.MethodGet, "/api/balances/verify", nil)
	var verify struct {
		Consistent bool `json:"consistent"`
	}
	decode(t, resp, &verify)
	assert.True(t, verify.Consistent)
}

func TestTransfers_InsuficienteYExito(t *testing.T) {
	app := buildTestApp()
	s := seed(t, app)
	created(t, call(t, app, http.MethodPost, "/api/production-notes", fiber.Map{
		"warehouse_id": s.whA,
		"lots":         []fiber.Map{{"product_id": s.product, "size": "M", "quantity": "8"}},
	}))

	resp := call(t, app, http.MethodPost, "/api/transfers", fiber.Map{
		"product_id": s.product, "size": "M", "from_warehouse_id": s.whA, "to_warehouse_id": s.whB, "quantity": "9",
	})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	var errBody dto.ErrorResponse
	decode(t, resp, &errBody)
	assert.Equal(t, "INSUFFICIENT_STOCK", errBody.Code)
	assert.Equal(t, "1", errBody.Shortages[0].Shortfall.String())

	resp = call(t, app, http.MethodPost, "/api/transfers/batch", fiber.Map{
		"from_warehouse_id": s.whA,
		"to_warehouse_id":   s.whB,
		"items":             []fiber.Map{{"product_id": s.product, "size": "M", "quantity": "5"}},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var records []dto.TransferRecordResponse
	decode(t, resp, &records)
	require.Len(t, records, 1)
	assert.Equal(t, "5", records[0].Quantity.String())
	assert.Equal(t, s.whB, records[0].ToWarehouseID)
}
