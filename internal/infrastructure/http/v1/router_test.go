package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"smartsupply/internal/core/apperror"
	"smartsupply/internal/core/numerator"
	"smartsupply/internal/domain/catalog"
	"smartsupply/internal/domain/gate"
	"smartsupply/internal/domain/inventory"
	"smartsupply/internal/infrastructure/http/v1/handlers"
	"smartsupply/internal/infrastructure/http/v1/middleware"
	"smartsupply/pkg/logger"
)

type envelope struct {
	Success  bool            `json:"success"`
	Data     json.RawMessage `json:"data"`
	Message  string          `json:"message"`
	GateType gate.Tier       `json:"gate_type"`
	Error    *struct {
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

type apiHarness struct {
	t      *testing.T
	router *gin.Engine
	store  *inventory.MemoryStore
}

func newAPI(t *testing.T, requireConfirmation bool) *apiHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := inventory.NewMemoryStore()
	cat := catalog.NewMemoryRepository()
	engine := inventory.NewEngine(store, cat, store, store, store, &numerator.MockGenerator{})

	router := NewRouter(RouterConfig{
		Logger:              logger.FromZap(zaptest.NewLogger(t)),
		Engine:              engine,
		Queries:             inventory.NewQueryService(store, cat, store, store),
		Catalog:             catalog.NewService(cat, nil),
		RequireConfirmation: requireConfirmation,
		AppName:             "smartsupply",
		Version:             "test",
		HealthChecks: map[string]handlers.Pinger{
			"database": handlers.PingFunc(func(context.Context) error { return nil }),
		},
	})
	return &apiHarness{t: t, router: router, store: store}
}

func (a *apiHarness) do(method, path, body string, headers ...string) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(path, "/api/") {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (a *apiHarness) seed() {
	a.t.Helper()
	rec, _ := a.do(http.MethodPost, "/api/v1/catalog/products",
		`{"sku":"SKU-1","name":"Pallet jack","category":"tools","unitPrice":"25.00"}`,
		middleware.HeaderConfirmOperation, gate.OpCreateProduct)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	for _, name := range []string{"North", "South"} {
		rec, _ = a.do(http.MethodPost, "/api/v1/catalog/warehouses", `{"name":"`+name+`","region":"eu","capacity":500}`,
			middleware.HeaderConfirmOperation, gate.OpCreateWarehouse)
		require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	}
}

func TestRouter_Health(t *testing.T) {
	api := newAPI(t, false)

	rec, _ := api.do(http.MethodGet, "/health/live", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = api.do(http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestRouter_MovementLifecycle(t *testing.T) {
	api := newAPI(t, false)
	api.seed()

	rec, env := api.do(http.MethodPost, "/api/v1/movements/inbound",
		`{"product":"SKU-1","warehouse":"North","quantity":10,"batchNumber":"B-1","unitCost":"12.00","reorderLevel":8}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, env.Success)
	assert.Equal(t, gate.SoftGate, env.GateType)

	var result inventory.MovementResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.NotEmpty(t, result.ReferenceNumber)
	assert.Equal(t, gate.OpInbound, result.Operation)

	rec, env = api.do(http.MethodPost, "/api/v1/movements/transfer",
		`{"product":"SKU-1","warehouse":"North","destinationWarehouse":"South","quantity":4}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, gate.HardGate, env.GateType)

	rec, env = api.do(http.MethodPost, "/api/v1/movements/outbound",
		`{"product":"SKU-1","warehouse":"North","quantity":7}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, apperror.CodeInsufficientStock, env.Error.Code)
	assert.EqualValues(t, 1, env.Error.Details["shortfall"])
	assert.Equal(t, gate.HardGate, env.GateType)

	rec, env = api.do(http.MethodGet, "/api/v1/stock?product=SKU-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, gate.ReadOnly, env.GateType)
	var level inventory.StockLevel
	require.NoError(t, json.Unmarshal(env.Data, &level))
	assert.Equal(t, int64(10), level.Total)

	rec, env = api.do(http.MethodGet, "/api/v1/stock/low", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var low struct {
		Items []inventory.LowStockItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &low))
	require.Len(t, low.Items, 2)
	assert.Equal(t, "South", low.Items[0].WarehouseName)
	assert.Equal(t, int64(4), low.Items[0].OnHand)
	assert.Equal(t, int64(4), low.Items[0].Shortage)
	assert.Equal(t, "North", low.Items[1].WarehouseName)

	rec, env = api.do(http.MethodGet, "/api/v1/movements?warehouse=South", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var history struct {
		Items []inventory.MovementRecord `json:"items"`
		Count int                        `json:"count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Equal(t, 1, history.Count)
	assert.Equal(t, inventory.Transfer, history.Items[0].Type)
}

func TestRouter_MovementErrors(t *testing.T) {
	api := newAPI(t, false)
	api.seed()

	tests := []struct {
		name string
		path string
		body string
		code int
		err  string
	}{
		{"fractional quantity", "/movements/outbound", `{"product":"SKU-1","warehouse":"North","quantity":2.5}`, http.StatusBadRequest, apperror.CodeInvalidQuantity},
		{"zero quantity", "/movements/damage", `{"product":"SKU-1","warehouse":"North","quantity":0,"reason":"broken"}`, http.StatusBadRequest, apperror.CodeInvalidQuantity},
		{"unknown product", "/movements/inbound", `{"product":"NOPE","warehouse":"North","quantity":1}`, http.StatusNotFound, apperror.CodeNotFound},
		{"unknown batch", "/movements/outbound", `{"product":"SKU-1","warehouse":"North","quantity":1,"batchNumber":"X"}`, http.StatusNotFound, apperror.CodeBatchNotFound},
		{"malformed body", "/movements/inbound", `{"product":`, http.StatusBadRequest, apperror.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := api.do(http.MethodPost, "/api/v1"+tt.path, tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.err, env.Error.Code)
			assert.False(t, env.Success)
		})
	}

	assert.Empty(t, api.store.Movements())
}

func TestRouter_DuplicateReference(t *testing.T) {
	api := newAPI(t, false)
	api.seed()

	body := `{"product":"SKU-1","warehouse":"North","quantity":3,"referenceNumber":"PO-1"}`
	rec, _ := api.do(http.MethodPost, "/api/v1/movements/inbound", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env := api.do(http.MethodPost, "/api/v1/movements/inbound", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apperror.CodeDuplicateReference, env.Error.Code)
	assert.Len(t, api.store.Movements(), 1)
}

func TestRouter_Confirmation(t *testing.T) {
	api := newAPI(t, true)
	api.seed()
	inbound := `{"product":"SKU-1","warehouse":"North","quantity":3}`

	rec, env := api.do(http.MethodPost, "/api/v1/movements/inbound", inbound)
	assert.Equal(t, http.StatusPreconditionRequired, rec.Code)
	assert.Equal(t, apperror.CodeConfirmationRequired, env.Error.Code)
	assert.Equal(t, gate.SoftGate, env.GateType)

	rec, _ = api.do(http.MethodPost, "/api/v1/movements/inbound", inbound,
		middleware.HeaderConfirmOperation, gate.OpInbound)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = api.do(http.MethodGet, "/api/v1/stock?product=SKU-1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_GateLookup(t *testing.T) {
	api := newAPI(t, false)

	tests := []struct {
		op    string
		tier  gate.Tier
		known bool
	}{
		{gate.OpQueryStock, gate.ReadOnly, true},
		{gate.OpCreateProduct, gate.SoftGate, true},
		{gate.OpDamage, gate.HardGate, true},
		{"drop_database", gate.HardGate, false},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			rec, env := api.do(http.MethodGet, "/api/v1/gate/"+tt.op, "")
			require.Equal(t, http.StatusOK, rec.Code)

			var got struct {
				Tier                 gate.Tier `json:"tier"`
				Known                bool      `json:"known"`
				RequiresConfirmation bool      `json:"requiresConfirmation"`
			}
			require.NoError(t, json.Unmarshal(env.Data, &got))
			assert.Equal(t, tt.tier, got.Tier)
			assert.Equal(t, tt.known, got.Known)
			assert.Equal(t, tt.tier != gate.ReadOnly, got.RequiresConfirmation)
		})
	}
}

func TestRouter_CatalogDuplicate(t *testing.T) {
	api := newAPI(t, false)
	api.seed()

	rec, env := api.do(http.MethodPost, "/api/v1/catalog/products", `{"sku":"SKU-1","name":"Again"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apperror.CodeDuplicate, env.Error.Code)

	rec, env = api.do(http.MethodGet, "/api/v1/catalog/warehouses?search=nor", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 1, list.Count)
}
