package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/backoffice-api/internal/application/dto"
	"github.com/jhoicas/backoffice-api/internal/application/inventory"
	"github.com/jhoicas/backoffice-api/internal/application/release"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/memory"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/metrics"
	apphttp "github.com/jhoicas/backoffice-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/backoffice-api/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// App de prueba sobre el backend en memoria
// ──────────────────────────────────────────────────────────────────────────────

const (
	prodTornillo = "p-tornillo"
	prodTuerca   = "p-tuerca"
	whCentral    = "w-central"
	whTaller     = "w-taller"
)

type apiEnv struct {
	t       *testing.T
	app     *fiber.App
	metrics *metrics.Metrics
}

func newAPI(t *testing.T) *apiEnv {
	t.Helper()
	mem := memory.New()
	mem.AddProduct(entity.Product{ID: prodTornillo, CompanyID: testCompanyID, SKU: "TOR-1", Cost: decimal.NewFromInt(4)})
	mem.AddProduct(entity.Product{ID: prodTuerca, CompanyID: testCompanyID, SKU: "TUE-1", Cost: decimal.NewFromInt(1)})
	mem.AddWarehouse(entity.Warehouse{ID: whCentral, CompanyID: testCompanyID, Name: "Central", Active: true})
	mem.AddWarehouse(entity.Warehouse{ID: whTaller, CompanyID: testCompanyID, Name: "Taller", Active: true})

	m := metrics.New()
	log := zerolog.Nop()
	uow := inventory.NewUnitOfWork(m.InstrumentTx(mem), m, log)
	cat := mem.Catalog()
	ledger := inventory.NewLedger(mem.MovementRepository(), log, nil)
	movements := inventory.NewMovementUseCase(uow, cat, cat.Locations(), mem.InventoryRepository(), ledger)
	releases := release.NewWorkflowUseCase(uow, mem.StockReleaseRepository(), cat, cat.Locations(), mem.Sequence("DSP"), log)

	app := apphttp.NewApp(apphttp.AppConfig{Name: "test"}, apphttp.RouterDeps{
		Movements:  movements,
		Releases:   releases,
		Warehouses: cat,
		JWTSecret:  testJWTSecret,
		JWTIssuer:  testIssuer,
		Metrics:    m,
		Log:        log,
	})
	return &apiEnv{t: t, app: app, metrics: m}
}

func (e *apiEnv) call(method, path, role string, body any) (*http.Response, []byte) {
	e.t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if role != "" {
		req.Header.Set("Authorization", tokenForRole(e.t, role))
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	return resp, out
}

func (e *apiEnv) purchase(productID, locationID string, qty int64) {
	e.t.Helper()
	resp, body := e.call(http.MethodPost, "/api/inventory/movements", pkgjwt.RoleBodeguero, dto.RegisterMovementRequest{
		ProductID: productID, LocationID: locationID, Type: string(entity.MovementPurchase), Quantity: qty,
	})
	require.Equal(e.t, http.StatusCreated, resp.StatusCode, string(body))
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

// ──────────────────────────────────────────────────────────────────────────────
// Despachos
// ──────────────────────────────────────────────────────────────────────────────

func TestReleaseAPI_FlujoCompletoDeTraslado(t *testing.T) {
	api := newAPI(t)
	api.purchase(prodTornillo, whCentral, 100)

	resp, body := api.call(http.MethodPost, "/api/stock-releases", pkgjwt.RoleVendedor, dto.CreateReleaseRequest{
		FromLocationID: whCentral, ToLocationID: whTaller, Notes: "Pedido de producción",
		Items: []dto.ReleaseItemRequest{{ProductID: prodTornillo, Quantity: 30}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	created := decode[dto.ReleaseResponse](t, body)
	assert.Equal(t, "PENDING", created.Status)
	assert.Equal(t, dto.KindTransfer, created.Kind)
	assert.Equal(t, testUserID, created.RequestedBy)

	base := "/api/stock-releases/" + created.ID
	resp, _ = api.call(http.MethodPost, base+"/approve", pkgjwt.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, body = api.call(http.MethodPost, base+"/release", pkgjwt.RoleBodeguero, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "RELEASED", decode[dto.ReleaseResponse](t, body).Status)
	resp, body = api.call(http.MethodPost, base+"/receive", pkgjwt.RoleBodeguero, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	done := decode[dto.ReleaseResponse](t, body)
	assert.Equal(t, "COMPLETED", done.Status)
	assert.True(t, decimal.NewFromInt(120).Equal(done.TotalCost))

	resp, body = api.call(http.MethodGet, "/api/inventory/levels/"+prodTornillo+"/"+whTaller, pkgjwt.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(30), decode[dto.StockLevelResponse](t, body).Quantity)

	resp, body = api.call(http.MethodGet, "/api/inventory/movements?reference_id="+created.ID, pkgjwt.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[dto.MovementListResponse](t, body).Items, 2)
}

func TestReleaseAPI_StockInsuficienteDevuelveDetalle(t *testing.T) {
	api := newAPI(t)
	api.purchase(prodTornillo, whCentral, 5)

	resp, body := api.call(http.MethodPost, "/api/stock-releases", pkgjwt.RoleAdmin, dto.CreateReleaseRequest{
		FromLocationID: whCentral,
		Items:          []dto.ReleaseItemRequest{{ProductID: prodTornillo, Quantity: 8}},
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var er struct {
		Code    string                       `json:"code"`
		Details dto.InsufficientStockDetails `json:"details"`
	}
	require.NoError(t, json.Unmarshal(body, &er))
	assert.Equal(t, "INSUFFICIENT_STOCK", er.Code)
	assert.Equal(t, prodTornillo, er.Details.ProductID)
	assert.Equal(t, int64(5), er.Details.Available)
	assert.Equal(t, int64(8), er.Details.Requested)
}

func TestReleaseAPI_Validacion(t *testing.T) {
	api := newAPI(t)
	cases := []struct {
		name string
		body any
	}{
		{"sin ítems", dto.CreateReleaseRequest{FromLocationID: whCentral}},
		{"cantidad cero", dto.CreateReleaseRequest{FromLocationID: whCentral, Items: []dto.ReleaseItemRequest{{ProductID: prodTornillo}}}},
		{"mismo origen y destino", dto.CreateReleaseRequest{FromLocationID: whCentral, ToLocationID: whCentral,
			Items: []dto.ReleaseItemRequest{{ProductID: prodTornillo, Quantity: 1}}}},
		{"cantidad que desborda", dto.CreateReleaseRequest{FromLocationID: whCentral,
			Items: []dto.ReleaseItemRequest{{ProductID: prodTornillo, Quantity: math.MaxInt64}, {ProductID: prodTornillo, Quantity: 2}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := api.call(http.MethodPost, "/api/stock-releases", pkgjwt.RoleAdmin, tc.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, string(body), "VALIDATION")
		})
	}
}

func TestReleaseAPI_TransicionInvalida(t *testing.T) {
	api := newAPI(t)
	api.purchase(prodTuerca, whCentral, 10)
	_, body := api.call(http.MethodPost, "/api/stock-releases", pkgjwt.RoleAdmin, dto.CreateReleaseRequest{
		FromLocationID: whCentral, Items: []dto.ReleaseItemRequest{{ProductID: prodTuerca, Quantity: 2}},
	})
	id := decode[dto.ReleaseResponse](t, body).ID

	resp, body := api.call(http.MethodPost, "/api/stock-releases/"+id+"/release", pkgjwt.RoleAdmin, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(body), "INVALID_TRANSITION")
}

func TestReleaseAPI_RBAC(t *testing.T) {
	api := newAPI(t)
	api.purchase(prodTuerca, whCentral, 10)
	_, body := api.call(http.MethodPost, "/api/stock-releases", pkgjwt.RoleVendedor, dto.CreateReleaseRequest{
		FromLocationID: whCentral, Items: []dto.ReleaseItemRequest{{ProductID: prodTuerca, Quantity: 2}},
	})
	id := decode[dto.ReleaseResponse](t, body).ID

	resp, _ := api.call(http.MethodPost, "/api/stock-releases/"+id+"/approve", pkgjwt.RoleBodeguero, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = api.call(http.MethodDelete, "/api/stock-releases/"+id, pkgjwt.RoleVendedor, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = api.call(http.MethodPost, "/api/inventory/movements", pkgjwt.RoleVendedor, dto.RegisterMovementRequest{
		ProductID: prodTuerca, LocationID: whCentral, Type: "PURCHASE", Quantity: 1,
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = api.call(http.MethodGet, "/api/stock-releases", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestReleaseAPI_ListarBuscarYEstadisticas(t *testing.T) {
	api := newAPI(t)
	api.purchase(prodTuerca, whCentral, 50)
	for _, notes := range []string{"Reposición bodega norte", "Consumo interno"} {
		resp, body := api.call(http.MethodPost, "/api/stock-releases", pkgjwt.RoleAdmin, dto.CreateReleaseRequest{
			FromLocationID: whCentral, ToLocationID: whTaller, Notes: notes,
			Items: []dto.ReleaseItemRequest{{ProductID: prodTuerca, Quantity: 1}},
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	}

	resp, body := api.call(http.MethodGet, "/api/stock-releases?search=REPOSICION", pkgjwt.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	list := decode[dto.ReleaseListResponse](t, body)
	require.Len(t, list.Items, 1)
	assert.Equal(t, 1, list.Page.Total)

	resp, _ = api.call(http.MethodGet, "/api/stock-releases?status=NOPE", pkgjwt.RoleVendedor, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = api.call(http.MethodGet, "/api/stock-releases?from=2026-02-10&to=2026-02-01", pkgjwt.RoleVendedor, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = api.call(http.MethodGet, "/api/stock-releases/statistics", pkgjwt.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	st := decode[dto.ReleaseStatisticsResponse](t, body)
	assert.Equal(t, 2, st.Total)
	assert.Equal(t, 2, st.ByStatus["PENDING"])
	assert.Equal(t, 0, st.ByStatus["COMPLETED"])
}

func TestReleaseAPI_CancelarYEliminar(t *testing.T) {
	api := newAPI(t)
	api.purchase(prodTuerca, whCentral, 10)
	_, body := api.call(http.MethodPost, "/api/stock-releases", pkgjwt.RoleAdmin, dto.CreateReleaseRequest{
		FromLocationID: whCentral, ToLocationID: whTaller, Items: []dto.ReleaseItemRequest{{ProductID: prodTuerca, Quantity: 4}},
	})
	id := decode[dto.ReleaseResponse](t, body).ID
	base := "/api/stock-releases/" + id
	api.call(http.MethodPost, base+"/approve", pkgjwt.RoleAdmin, nil)
	api.call(http.MethodPost, base+"/release", pkgjwt.RoleAdmin, nil)

	resp, _ := api.call(http.MethodPost, base+"/cancel", pkgjwt.RoleAdmin, dto.CancelReleaseRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "motivo obligatorio")

	resp, body = api.call(http.MethodPost, base+"/cancel", pkgjwt.RoleAdmin, dto.CancelReleaseRequest{Reason: "error de digitación"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "CANCELLED", decode[dto.ReleaseResponse](t, body).Status)

	_, body = api.call(http.MethodGet, "/api/inventory/levels/"+prodTuerca+"/"+whCentral, pkgjwt.RoleAdmin, nil)
	assert.Equal(t, int64(10), decode[dto.StockLevelResponse](t, body).Quantity)

	resp, _ = api.call(http.MethodDelete, base, pkgjwt.RoleAdmin, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = api.call(http.MethodGet, base, pkgjwt.RoleAdmin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Inventario y bodegas
// ──────────────────────────────────────────────────────────────────────────────

func TestInventoryAPI_TrasladoYReservas(t *testing.T) {
	api := newAPI(t)
	api.purchase(prodTornillo, whCentral, 20)

	resp, body := api.call(http.MethodPost, "/api/inventory/transfers", pkgjwt.RoleBodeguero, dto.TransferRequest{
		ProductID: prodTornillo, FromLocationID: whCentral, ToLocationID: whTaller, Quantity: 5,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	assert.Len(t, decode[dto.MovementListResponse](t, body).Items, 2)

	resp, body = api.call(http.MethodPost, "/api/inventory/reservations", pkgjwt.RoleVendedor, dto.ReservationRequest{
		ProductID: prodTornillo, LocationID: whCentral, Quantity: 10,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	snap := decode[dto.SnapshotResponse](t, body)
	assert.Equal(t, int64(10), snap.ReservedAfter)
	assert.Equal(t, int64(5), snap.Available)

	resp, _ = api.call(http.MethodPost, "/api/inventory/reservations", pkgjwt.RoleVendedor, dto.ReservationRequest{
		ProductID: prodTornillo, LocationID: whCentral, Quantity: 6,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = api.call(http.MethodPost, "/api/inventory/reservations/release", pkgjwt.RoleVendedor, dto.ReservationRequest{
		ProductID: prodTornillo, LocationID: whCentral, Quantity: 11,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = api.call(http.MethodGet, "/api/inventory/reconcile/"+prodTornillo+"/"+whCentral, pkgjwt.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[dto.ReconciliationResponse](t, body).Balanced)
}

func TestInventoryAPI_TipoInvalido(t *testing.T) {
	api := newAPI(t)
	resp, body := api.call(http.MethodPost, "/api/inventory/movements", pkgjwt.RoleAdmin, dto.RegisterMovementRequest{
		ProductID: prodTornillo, LocationID: whCentral, Type: "TELEPORT", Quantity: 1,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "VALIDATION")
}

func TestInventoryAPI_CursorDelLedger(t *testing.T) {
	api := newAPI(t)
	for i := 0; i < 3; i++ {
		api.purchase(prodTuerca, whCentral, 1)
	}
	resp, body := api.call(http.MethodGet, "/api/inventory/movements?limit=2", pkgjwt.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	first := decode[dto.MovementListResponse](t, body)
	require.Len(t, first.Items, 2)
	require.NotNil(t, first.Next)

	q := "/api/inventory/movements?limit=2&after_at=" + first.Next.AfterAt.Format("2006-01-02T15:04:05.999999999Z07:00") +
		"&after_seq=" + jsonNumber(first.Next.AfterSeq)
	resp, body = api.call(http.MethodGet, q, pkgjwt.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	second := decode[dto.MovementListResponse](t, body)
	require.Len(t, second.Items, 1)
	assert.Nil(t, second.Next)
	assert.Equal(t, int64(3), second.Items[0].QuantityAfter)
}

func jsonNumber(n int64) string {
	raw, _ := json.Marshal(n)
	return string(raw)
}

func TestWarehouseAPI(t *testing.T) {
	api := newAPI(t)
	api.purchase(prodTuerca, whTaller, 7)

	resp, body := api.call(http.MethodGet, "/api/warehouses", pkgjwt.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[dto.WarehouseListResponse](t, body).Items, 2)

	resp, _ = api.call(http.MethodGet, "/api/warehouses/no-existe", pkgjwt.RoleVendedor, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = api.call(http.MethodGet, "/api/warehouses/"+whTaller+"/stock", pkgjwt.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	levels := decode[[]dto.StockLevelResponse](t, body)
	require.Len(t, levels, 1)
	assert.Equal(t, int64(7), levels[0].Available)
}

func TestMetricsEndpoint(t *testing.T) {
	api := newAPI(t)
	api.purchase(prodTuerca, whCentral, 3)

	resp, body := api.call(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `backoffice_inventory_movements_total{type="PURCHASE"} 1`)
}
