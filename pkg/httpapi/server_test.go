package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayeshabutt275/MAD-Fall-25/pkg/auth"
	"github.com/ayeshabutt275/MAD-Fall-25/pkg/catalog"
	"github.com/ayeshabutt275/MAD-Fall-25/pkg/order"
	"github.com/ayeshabutt275/MAD-Fall-25/pkg/storage/memstore"
	"github.com/ayeshabutt275/MAD-Fall-25/pkg/version"
)

type fixture struct {
	store   *memstore.Store
	server  *Server
	handler http.Handler
	foods   []catalog.FoodItem
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	return logger
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	store, err := memstore.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logger := quietLogger()
	catalogService := catalog.NewService(store, catalog.WithLogger(logger))
	seed, err := catalog.DefaultSeed()
	require.NoError(t, err)
	foods, err := catalogService.Seed(context.Background(), seed)
	require.NoError(t, err)

	orderService := order.NewService(store, order.WithLogger(logger))
	authService := auth.NewService(store, auth.BcryptHasher{Cost: 4}, auth.NewTokens("test-secret", time.Hour), auth.WithLogger(logger))

	server := New(catalogService, orderService, authService, store, cfg, logger)
	return &fixture{store: store, server: server, handler: server.Handler(), foods: foods}
}

func (f *fixture) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

type placedResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Order   order.Order `json:"order"`
}

func (f *fixture) placeOrder(t *testing.T, headers ...string) order.Order {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/orders", map[string]any{
		"items": []map[string]any{
			{"_id": "a", "name": "Zinger", "price": 600, "quantity": 2, "category": "Burger"},
		},
		"customerName":  "Ali",
		"phone":         "0300",
		"address":       "Street 1, Lahore",
		"totalAmount":   1300,
		"paymentMethod": "cash",
	}, headers...)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var body placedResponse
	decodeBody(t, rec, &body)
	return body.Order
}

func TestRootAndHealth(t *testing.T) {
	f := newFixture(t, Config{})

	rec := f.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Food Delivery API"}`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var health map[string]string
	decodeBody(t, rec, &health)
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "connected", health["database"])
	assert.Equal(t, version.Version(), health["version"])
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestListFoods(t *testing.T) {
	f := newFixture(t, Config{})

	rec := f.do(t, http.MethodGet, "/api/foods", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all []catalog.FoodItem
	decodeBody(t, rec, &all)
	assert.Len(t, all, len(f.foods))

	rec = f.do(t, http.MethodGet, "/api/foods?category=Pizza", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var pizzas []catalog.FoodItem
	decodeBody(t, rec, &pizzas)
	require.NotEmpty(t, pizzas)
	for _, p := range pizzas {
		assert.Equal(t, catalog.CategoryPizza, p.Category)
	}

	rec = f.do(t, http.MethodGet, "/api/foods?category=Sushi", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorResponse
	decodeBody(t, rec, &body)
	assert.False(t, body.Success)
	assert.Contains(t, body.Message, "Sushi")
}

func TestSignupAndLogin(t *testing.T) {
	f := newFixture(t, Config{})
	form := map[string]string{"name": "Ali", "email": "ali@example.com", "password": "secret1", "phone": "0300"}

	rec := f.do(t, http.MethodPost, "/api/auth/signup", form)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created sessionResponse
	decodeBody(t, rec, &created)
	assert.True(t, created.Success)
	assert.NotEmpty(t, created.Token)
	assert.Equal(t, "ali@example.com", created.User.Email)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = f.do(t, http.MethodPost, "/api/auth/signup", form)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var dup errorResponse
	decodeBody(t, rec, &dup)
	assert.Equal(t, "User with this email already exists", dup.Message)

	rec = f.do(t, http.MethodPost, "/api/auth/signup", map[string]string{"name": "B", "email": "b@example.com", "password": "12345"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var short errorResponse
	decodeBody(t, rec, &short)
	assert.Equal(t, "Password must be at least 6 characters", short.Message)

	rec = f.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "ali@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)
	var session sessionResponse
	decodeBody(t, rec, &session)
	assert.Equal(t, "Login successful", session.Message)
	assert.Equal(t, created.User.ID, session.User.ID)

	wrong := f.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "ali@example.com", "password": "nope123"})
	unknown := f.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "who@example.com", "password": "nope123"})
	assert.Equal(t, http.StatusBadRequest, wrong.Code)
	assert.Equal(t, http.StatusBadRequest, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())

	rec = f.do(t, http.MethodPost, "/api/auth/login", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlaceGetAndListOrders(t *testing.T) {
	f := newFixture(t, Config{})

	placed := f.placeOrder(t)
	assert.EqualValues(t, 1300, placed.TotalAmount)
	assert.Equal(t, order.StatusPending, placed.Status)
	assert.Regexp(t, `^ORD-\d{6}$`, placed.Number)

	rec := f.do(t, http.MethodGet, "/api/orders/"+placed.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got placedResponse
	decodeBody(t, rec, &got)
	assert.Equal(t, placed.Number, got.Order.Number)
	assert.Equal(t, placed.Items, got.Order.Items)

	time.Sleep(2 * time.Millisecond)
	second := f.placeOrder(t)

	rec = f.do(t, http.MethodGet, "/api/orders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Success bool          `json:"success"`
		Orders  []order.Order `json:"orders"`
	}
	decodeBody(t, rec, &list)
	require.Len(t, list.Orders, 2)
	assert.Equal(t, second.ID, list.Orders[0].ID)
	assert.Equal(t, placed.ID, list.Orders[1].ID)
}

func TestPlaceOrderValidation(t *testing.T) {
	f := newFixture(t, Config{})

	rec := f.do(t, http.MethodPost, "/api/orders", map[string]any{
		"items":        []any{},
		"customerName": "Ali",
		"phone":        "0300",
		"address":      "Street 1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorResponse
	decodeBody(t, rec, &body)
	assert.Equal(t, "Failed to place order", body.Message)
	assert.Equal(t, "at least one item is required", body.Error)

	rec = f.do(t, http.MethodPost, "/api/orders", "[")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderBearerToken(t *testing.T) {
	f := newFixture(t, Config{})
	token, err := f.server.auth.Tokens().Issue("user-1")
	require.NoError(t, err)

	placed := f.placeOrder(t, "Authorization", "Bearer "+token)
	assert.Equal(t, "user-1", placed.UserID)

	rec := f.do(t, http.MethodGet, "/api/orders", nil, "Authorization", "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t, Config{})
	placed := f.placeOrder(t)
	path := "/api/orders/" + placed.ID + "/status"

	rec := f.do(t, http.MethodPatch, path, map[string]string{"status": "on-the-way"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPatch, path, map[string]string{"status": "preparing"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body placedResponse
	decodeBody(t, rec, &body)
	assert.Equal(t, "Order status updated", body.Message)
	assert.Equal(t, order.StatusPreparing, body.Order.Status)

	rec = f.do(t, http.MethodPatch, path, map[string]string{"status": "cancelled"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodPatch, path, map[string]string{"status": "preparing"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPatch, path, map[string]string{"status": "lost"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPatch, "/api/orders/000000000000000000000000/status", map[string]string{"status": "preparing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = f.do(t, http.MethodGet, "/api/orders/garbage", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBackendUnavailable(t *testing.T) {
	f := newFixture(t, Config{})
	require.NoError(t, f.store.Close())

	cases := []struct {
		method, path string
		body         any
	}{
		{http.MethodGet, "/api/foods", nil},
		{http.MethodGet, "/api/orders", nil},
		{http.MethodPost, "/api/auth/signup", map[string]string{"name": "A", "email": "a@example.com", "password": "secret1"}},
		{http.MethodPost, "/api/auth/login", map[string]string{"email": "a@example.com", "password": "secret1"}},
		{http.MethodPost, "/api/orders", map[string]any{
			"items":        []map[string]any{{"_id": "a", "name": "Zinger", "price": 600, "quantity": 1}},
			"customerName": "Ali", "phone": "0300", "address": "Street 1",
		}},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := f.do(t, tc.method, tc.path, tc.body)
			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
			var body errorResponse
			decodeBody(t, rec, &body)
			assert.False(t, body.Success)
			assert.Equal(t, "Database unavailable", body.Error)
		})
	}

	rec := f.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "unavailable")
}

func TestUnknownRouteAndMethod(t *testing.T) {
	f := newFixture(t, Config{})

	rec := f.do(t, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	rec = f.do(t, http.MethodDelete, "/api/orders", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, Config{CORSOrigins: []string{"https://app.example.com"}})

	rec := f.do(t, http.MethodOptions, "/api/orders", nil,
		"Origin", "https://app.example.com",
		"Access-Control-Request-Method", "POST")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = f.do(t, http.MethodGet, "/", nil, "Origin", "https://evil.example.com")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestAuthRateLimit(t *testing.T) {
	f := newFixture(t, Config{AuthRateLimit: 0.001, AuthRateBurst: 1})
	creds := map[string]string{"email": "x@example.com", "password": "secret1"}

	first := f.do(t, http.MethodPost, "/api/auth/login", creds)
	assert.Equal(t, http.StatusBadRequest, first.Code)
	second := f.do(t, http.MethodPost, "/api/auth/login", creds)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	rec := f.do(t, http.MethodGet, "/api/foods", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRateLimitIgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	f := newFixture(t, Config{AuthRateLimit: 0.001, AuthRateBurst: 1})
	creds := map[string]string{"email": "x@example.com", "password": "secret1"}

	limited := 0
	for i := 0; i < 20; i++ {
		rec := f.do(t, http.MethodPost, "/api/auth/login", creds, "X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		if rec.Code == http.StatusTooManyRequests {
			limited++
		}
	}
	assert.Equal(t, 19, limited)
}

func TestAuthRateLimitTrustsConfiguredProxy(t *testing.T) {
	// httptest requests come from 192.0.2.1.
	trusted, err := ParseTrustedProxies([]string{"192.0.2.0/24"})
	require.NoError(t, err)
	f := newFixture(t, Config{AuthRateLimit: 0.001, AuthRateBurst: 1, TrustedProxies: trusted})
	creds := map[string]string{"email": "x@example.com", "password": "secret1"}

	rec := f.do(t, http.MethodPost, "/api/auth/login", creds, "X-Forwarded-For", "198.51.100.1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/auth/login", creds, "X-Forwarded-For", "198.51.100.2")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// A client-supplied leftmost hop does not change the key.
	rec = f.do(t, http.MethodPost, "/api/auth/login", creds, "X-Forwarded-For", "203.0.113.9, 198.51.100.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestClientResolver(t *testing.T) {
	trusted, err := ParseTrustedProxies([]string{"10.0.0.0/8", " 127.0.0.1 ", ""})
	require.NoError(t, err)
	resolver := clientResolver{trusted: trusted}

	cases := []struct {
		remote, forwarded, want string
	}{
		{"203.0.113.7:5555", "198.51.100.1", "203.0.113.7"},
		{"127.0.0.1:80", "", "127.0.0.1"},
		{"127.0.0.1:80", "198.51.100.1", "198.51.100.1"},
		{"127.0.0.1:80", "198.51.100.1, 10.1.2.3", "198.51.100.1"},
		{"[::ffff:10.0.0.5]:80", "198.51.100.4", "198.51.100.4"},
		{"10.0.0.5:80", "10.0.0.6, 10.0.0.7", "10.0.0.5"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tc.remote
		if tc.forwarded != "" {
			req.Header.Set("X-Forwarded-For", tc.forwarded)
		}
		assert.Equal(t, tc.want, resolver.ip(req), tc.remote+" "+tc.forwarded)
	}

	_, err = ParseTrustedProxies([]string{"not-an-ip"})
	assert.Error(t, err)
}

func TestPanicIsRecovered(t *testing.T) {
	h := recoverer(quietLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, Config{})
	f.do(t, http.MethodGet, "/api/foods", nil)

	rec := f.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "food_delivery_http_requests_total")
	assert.Contains(t, rec.Body.String(), `route="/api/foods"`)
}

func TestImagesServed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pizza.png"), []byte("png"), 0o644))
	f := newFixture(t, Config{ImagesDir: dir})

	rec := f.do(t, http.MethodGet, "/images/pizza.png", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png", strings.TrimSpace(rec.Body.String()))

	rec = f.do(t, http.MethodGet, "/images/missing.png", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
