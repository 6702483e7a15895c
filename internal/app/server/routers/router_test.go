package routers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fulfilment/internal/app/domains/modules/mdorder"
	"fulfilment/internal/app/domains/modules/mdpolicy"
	"fulfilment/internal/app/domains/modules/mdranker"
	"fulfilment/internal/app/domains/modules/mdresolve"
	"fulfilment/internal/app/domains/modules/mdsession"
	"fulfilment/internal/app/domains/repo/rpevent"
	"fulfilment/internal/app/domains/repo/rporder"
	"fulfilment/internal/app/domains/services/svorder"
	"fulfilment/internal/app/domains/services/svsession"
	"fulfilment/internal/app/domains/services/svsubstitution"
	"fulfilment/internal/app/pkg/logger"
	"fulfilment/internal/app/server/handlers/order"
	"fulfilment/internal/app/server/handlers/session"
	"fulfilment/internal/app/server/handlers/substitution"
	"fulfilment/internal/app/server/middlewares"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Meta struct {
		Code    int    `json:"code"`
		Type    string `json:"type"`
		Message string `json:"message"`
		Details []struct {
			Path string `json:"path"`
			Info string `json:"info"`
		} `json:"details"`
	} `json:"meta"`
	Data json.RawMessage `json:"data"`
}

func newTestRouter(t *testing.T, limiter *middlewares.RateLimiter) *gin.Engine {
	t.Helper()
	log := logger.NewNop()

	events := rpevent.NewMemoryEventRepository()
	module := mdorder.NewOrderModule(rporder.NewMemoryOrderRepository(events), events)
	ranker := mdranker.NewRanker(nil, log)
	resolver := mdresolve.NewResolver(ranker, mdpolicy.New(mdpolicy.Config{}), mdresolve.Config{Parallelism: 2, K: 5}, log)
	sessions := mdsession.NewMemoryStore(mdsession.Config{}, nil)

	orderService := svorder.NewOrderService(module, resolver, sessions, nil, log)
	return SetupRoutes(
		order.NewOrderHandler(orderService),
		substitution.NewSubstitutionHandler(svsubstitution.NewSubstitutionService(ranker, log)),
		session.NewSessionHandler(svsession.NewSessionService(sessions, nil, log)),
		limiter,
		log,
	)
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func createOrder(t *testing.T, r http.Handler) {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/orders", map[string]interface{}{
		"orderId":    "ORD-1",
		"customerId": "CUST-1",
		"items": []map[string]interface{}{
			{"lineId": 1, "productCode": "MILK-1L", "qty": 4, "unit": "pcs"},
			{"lineId": 10, "productCode": "YOGURT", "qty": 5, "unit": "pcs"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var data struct {
		OrderID   string        `json:"orderId"`
		State     string        `json:"state"`
		Items     []interface{} `json:"items"`
		Shortages []interface{} `json:"shortages"`
	}
	decode(t, w, &data)
	assert.Equal(t, "ORD-1", data.OrderID)
	assert.Equal(t, "PICKING", data.State)
	assert.Len(t, data.Items, 2)
	assert.Empty(t, data.Shortages)
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, nil)
	w := do(t, r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, w.Header().Get(middlewares.HeaderRequestID))
}

func TestCreateOrder_Validation(t *testing.T) {
	r := newTestRouter(t, nil)
	w := do(t, r, http.MethodPost, "/api/orders", map[string]interface{}{"orderId": "ORD-1", "items": []interface{}{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w, nil)
	assert.Equal(t, "ValidationError", env.Meta.Type)
}

func TestNullItemsAreRejected(t *testing.T) {
	r := newTestRouter(t, nil)
	createOrder(t, r)
	before := eventCount(t, r, "ORD-1")

	for _, path := range []string{
		"/api/orders",
		"/api/orders/shortage/proactive-call",
		"/api/orders/shortage/preflight",
	} {
		t.Run(path, func(t *testing.T) {
			w := do(t, r, http.MethodPost, path, map[string]interface{}{"orderId": "ORD-2", "items": []interface{}{nil}})
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			env := decode(t, w, nil)
			assert.Equal(t, "ValidationError", env.Meta.Type)
		})
	}

	// 订单未被修改
	w := do(t, r, http.MethodGet, "/api/orders/ORD-2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, before, eventCount(t, r, "ORD-1"))
}

func eventCount(t *testing.T, r http.Handler, orderID string) int {
	t.Helper()
	w := do(t, r, http.MethodGet, "/api/orders/"+orderID+"/events", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var events []interface{}
	decode(t, w, &events)
	return len(events)
}

func TestPickShortageFlow(t *testing.T) {
	r := newTestRouter(t, nil)
	createOrder(t, r)

	// 拣货数量大于期望数量
	w := do(t, r, http.MethodPost, "/api/orders/events/pick-shortage", map[string]interface{}{
		"orderId": "ORD-1", "lineId": 10, "expectedQty": 4, "pickedQty": 5,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/orders/events/pick-shortage", map[string]interface{}{
		"orderId": "ORD-1", "lineId": 10, "productCode": "YOGURT", "expectedQty": 5, "pickedQty": 0,
		"pickerId": "picker-1", "comment": "shelf empty",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res struct {
		OrderID      string  `json:"orderId"`
		LineID       int64   `json:"lineId"`
		ShortageQty  float64 `json:"shortageQty"`
		Action       string  `json:"action"`
		Replacements []struct {
			ProductCode  string  `json:"productCode"`
			AvailableQty float64 `json:"availableQty"`
			Unit         string  `json:"unit"`
		} `json:"replacements"`
		Notifications []string `json:"notifications"`
		OrderState    string   `json:"orderState"`
	}
	decode(t, w, &res)
	assert.Equal(t, "REPLACE", res.Action)
	assert.Equal(t, 5.0, res.ShortageQty)
	require.Len(t, res.Replacements, 3)
	assert.Equal(t, "REPL_001", res.Replacements[0].ProductCode)
	assert.Equal(t, "pcs", res.Replacements[0].Unit)
	assert.Equal(t, "AWAITING_DECISION", res.OrderState)
	assert.Equal(t, "Picker note: shelf empty", res.Notifications[1])

	w = do(t, r, http.MethodGet, "/api/orders/ORD-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		State        string  `json:"state"`
		PendingLines []int64 `json:"pendingLines"`
	}
	decode(t, w, &detail)
	assert.Equal(t, "AWAITING_DECISION", detail.State)
	assert.Equal(t, []int64{10}, detail.PendingLines)

	w = do(t, r, http.MethodGet, "/api/orders/ORD-1/events", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var events []map[string]interface{}
	decode(t, w, &events)
	assert.NotEmpty(t, events)

	// 无意图解析服务：无表态，订单保持待确认
	w = do(t, r, http.MethodPost, "/api/orders/ORD-1/customer-response", map[string]interface{}{
		"sessionId": "s1", "text": "no thanks",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, r, http.MethodPost, "/api/orders/ORD-1/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &detail)
	assert.Equal(t, "CANCELLED", detail.State)

	w = do(t, r, http.MethodPost, "/api/orders/ORD-1/fulfil", map[string]interface{}{"reason": "late"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Conflict", decode(t, w, nil).Meta.Type)
}

func TestProactiveCall(t *testing.T) {
	r := newTestRouter(t, nil)
	w := do(t, r, http.MethodPost, "/api/orders/shortage/proactive-call", map[string]interface{}{
		"items": []map[string]interface{}{{"from": map[string]interface{}{"lineId": 1, "qty": 4}}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res struct {
		Decisions []struct {
			LineID         int64   `json:"lineId"`
			Action         string  `json:"action"`
			ReplacementQty float64 `json:"replacementQty"`
		} `json:"decisions"`
	}
	decode(t, w, &res)
	require.Len(t, res.Decisions, 1)
	assert.Equal(t, int64(1), res.Decisions[0].LineID)
	assert.Equal(t, "REPLACE", res.Decisions[0].Action)
	assert.Equal(t, 4.0, res.Decisions[0].ReplacementQty)

	w = do(t, r, http.MethodPost, "/api/orders/shortage/proactive-call", map[string]interface{}{"items": []interface{}{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateClaim_NotImplemented(t *testing.T) {
	r := newTestRouter(t, nil)
	w := do(t, r, http.MethodPost, "/api/orders/claims/create", map[string]interface{}{
		"orderId": "ORD-9", "customerId": "CUST-1", "channel": "nlu", "description": "broken eggs",
	})
	require.Equal(t, http.StatusNotImplemented, w.Code)

	var stub struct {
		Endpoint    string   `json:"endpoint"`
		Status      string   `json:"status"`
		Description []string `json:"description"`
	}
	env := decode(t, w, &stub)
	assert.Equal(t, "NotImplemented", env.Meta.Type)
	assert.Equal(t, "/api/orders/claims/create", stub.Endpoint)
	assert.Equal(t, "NOT_IMPLEMENTED", stub.Status)
	assert.Len(t, stub.Description, 3)
}

func TestNotFound(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(t, r, http.MethodGet, "/api/orders/ORD-404", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NotFound", decode(t, w, nil).Meta.Type)

	w = do(t, r, http.MethodDelete, "/api/sessions/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSuggest(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(t, r, http.MethodPost, "/substitution/suggest", map[string]interface{}{"sku": "MILK-1L", "k": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res struct {
		SKU             string `json:"sku"`
		Recommendations []struct {
			SKU   string  `json:"sku"`
			Score float64 `json:"score"`
		} `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "MILK-1L", res.SKU)
	assert.Len(t, res.Recommendations, 2)

	w = do(t, r, http.MethodPost, "/substitution/suggest", map[string]interface{}{"sku": "MILK-1L", "k": 25})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRateLimit(t *testing.T) {
	r := newTestRouter(t, middlewares.NewRateLimiter(0.001, 1))

	w := do(t, r, http.MethodDelete, "/api/sessions/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodDelete, "/api/sessions/missing", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "TooManyRequests", decode(t, w, nil).Meta.Type)

	// 健康检查不限流
	w = do(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
