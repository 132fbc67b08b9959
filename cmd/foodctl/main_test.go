package main

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayeshabutt275/MAD-Fall-25/pkg/auth"
	"github.com/ayeshabutt275/MAD-Fall-25/pkg/catalog"
	"github.com/ayeshabutt275/MAD-Fall-25/pkg/httpapi"
	"github.com/ayeshabutt275/MAD-Fall-25/pkg/order"
	"github.com/ayeshabutt275/MAD-Fall-25/pkg/storage/memstore"
)

type harness struct {
	t   *testing.T
	api string
	dir string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store, err := memstore.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	catalogService := catalog.NewService(store)
	seed, err := catalog.DefaultSeed()
	require.NoError(t, err)
	_, err = catalogService.Seed(context.Background(), seed)
	require.NoError(t, err)

	server := httpapi.New(
		catalogService,
		order.NewService(store),
		auth.NewService(store, auth.BcryptHasher{Cost: 4}, auth.NewTokens("test-secret", time.Hour)),
		store,
		httpapi.Config{},
		logger,
	)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return &harness{t: t, api: ts.URL, dir: t.TempDir()}
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	var out bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	full := append([]string{"-api", h.api, "-dir", h.dir}, args...)
	err := run(context.Background(), full, &out, logger)
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, out)
	return out
}

func TestMenuFilters(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("menu", "-category", "Burger")
	assert.Contains(t, out, "Beef Burger")
	assert.NotContains(t, out, "BBQ Chicken Pizza")

	out = h.mustRun("menu", "-q", "zzz")
	assert.Equal(t, "no items\n", out)

	_, err := h.run("menu", "-category", "Sushi")
	require.Error(t, err)
}

func TestCartCommandsPersist(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, "cart is empty\n", h.mustRun("cart"))

	h.mustRun("cart", "add", "beef burger")
	out := h.mustRun("cart", "add", "Beef Burger")
	assert.Contains(t, out, "Rs 900")

	out = h.mustRun("cart", "show")
	assert.Contains(t, out, "2 items")

	_, err := h.run("cart", "add", "Unicorn Steak")
	require.Error(t, err)
	_, err = h.run("cart", "set", "x", "many")
	require.Error(t, err)

	h.mustRun("cart", "clear")
	assert.Equal(t, "cart is empty\n", h.mustRun("cart"))
}

func TestCheckoutClearsCart(t *testing.T) {
	h := newHarness(t)
	h.mustRun("cart", "add", "Beef Burger")

	out := h.mustRun("signup", "-name", "Ali", "-email", "ali@example.com", "-password", "secret1")
	assert.Contains(t, out, "signed in as Ali <ali@example.com>")
	assert.Equal(t, "Ali <ali@example.com>\n", h.mustRun("whoami"))

	out = h.mustRun("checkout", "-name", "Ali", "-phone", "0300", "-address", "Street 1", "-city", "Lahore")
	assert.Contains(t, out, "total Rs 550")
	assert.Contains(t, out, "status pending")
	assert.Equal(t, "cart is empty\n", h.mustRun("cart"))

	_, err := h.run("checkout", "-name", "Ali", "-phone", "0300", "-address", "Street 1")
	require.Error(t, err)
}

func TestOrderStatusFlow(t *testing.T) {
	h := newHarness(t)
	h.mustRun("signup", "-name", "Sara", "-email", "sara@example.com", "-password", "secret1")
	h.mustRun("logout")
	assert.Equal(t, "not signed in\n", h.mustRun("whoami"))
	h.mustRun("login", "-email", "sara@example.com", "-password", "secret1")

	h.mustRun("cart", "add", "Beef Burger")
	h.mustRun("checkout", "-name", "Sara", "-phone", "0300", "-address", "Street 2", "-payment", "card")

	out := h.mustRun("orders")
	ids := regexp.MustCompile(`[0-9a-f]{24}`).FindAllString(out, -1)
	require.Len(t, ids, 1)
	id := ids[0]

	out = h.mustRun("order", id)
	assert.Contains(t, out, "status: pending")
	assert.Contains(t, out, "payment: card")
	assert.Contains(t, out, "next: preparing, cancelled")

	out = h.mustRun("status", id, "preparing")
	assert.Contains(t, out, "is now preparing")

	_, err := h.run("status", id, "delivered")
	require.Error(t, err)
	_, err = h.run("status", id, "shipped")
	require.Error(t, err)

	h.mustRun("status", id, "cancelled")
	out = h.mustRun("order", id)
	assert.Contains(t, out, "status: cancelled")
	assert.NotContains(t, out, "next:")
}

func orderIDs(t *testing.T, out string) []string {
	t.Helper()
	return regexp.MustCompile(`[0-9a-f]{24}`).FindAllString(out, -1)
}

func TestOrdersStatusFilterAndReorder(t *testing.T) {
	h := newHarness(t)
	h.mustRun("signup", "-name", "Sara", "-email", "sara@example.com", "-password", "secret1")

	h.mustRun("cart", "add", "Beef Burger")
	h.mustRun("checkout", "-name", "Sara", "-phone", "0300", "-address", "Street 2")
	ids := orderIDs(t, h.mustRun("orders"))
	require.Len(t, ids, 1)
	delivered := ids[0]
	for _, next := range []string{"preparing", "on-the-way", "delivered"} {
		h.mustRun("status", delivered, next)
	}

	h.mustRun("cart", "add", "Beef Burger")
	h.mustRun("checkout", "-name", "Sara", "-phone", "0300", "-address", "Street 2")
	all := orderIDs(t, h.mustRun("orders", "-status", "all"))
	require.Len(t, all, 2)
	pending := all[0]
	if pending == delivered {
		pending = all[1]
	}

	assert.Equal(t, []string{delivered}, orderIDs(t, h.mustRun("orders", "-status", "delivered")))
	assert.Equal(t, []string{pending}, orderIDs(t, h.mustRun("orders", "-status", "pending")))
	assert.Equal(t, "no orders\n", h.mustRun("orders", "-status", "cancelled"))
	_, err := h.run("orders", "-status", "shipped")
	require.Error(t, err)

	_, err = h.run("reorder", pending)
	require.Error(t, err)
	assert.Equal(t, "cart is empty\n", h.mustRun("cart"))

	out := h.mustRun("reorder", delivered)
	assert.Contains(t, out, "Beef Burger")
	assert.Contains(t, out, "Rs 450")
	out = h.mustRun("reorder", delivered)
	assert.Contains(t, out, "2 items")
	assert.Contains(t, out, "Rs 900")
}

func TestLoginFailureKeepsSignedOut(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("login", "-email", "nobody@example.com", "-password", "secret1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid email or password")
	assert.NoFileExists(t, filepath.Join(h.dir, "session.json"))
}

func TestUsage(t *testing.T) {
	h := newHarness(t)
	_, err := h.run()
	require.Error(t, err)

	_, err = h.run("dance")
	require.Error(t, err)
}
