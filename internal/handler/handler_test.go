package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"storefront/internal/domain/checkout"
	"storefront/internal/domain/model"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/usecase"
)

type memSlot struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memSlot) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", repository.ErrNotFound
	}
	return v, nil
}

func (m *memSlot) Set(ctx context.Context, key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

type catalogStub map[string]model.Product

func (c catalogStub) GetProductDetail(ctx context.Context, id string) (model.Product, error) {
	p, ok := c[id]
	if !ok {
		return model.Product{}, usecase.NewHTTPError(http.StatusNotFound, "not found")
	}
	return p, nil
}

type failingCreator struct{}

func (failingCreator) CreateOrder(ctx context.Context, o model.Order) (model.Order, error) {
	return model.Order{}, errors.New("connection reset")
}

// fixedSession stands in for middleware.Session.
func fixedSession(id string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if id != "" {
				c.Set(middleware.CtxSessionIDKey, id)
			}
			return next(c)
		}
	}
}

func newShopEcho(t *testing.T, sessionID string) *echo.Echo {
	t.Helper()
	log := zap.NewNop()
	catalog := catalogStub{
		"slab": {ID: "slab", Name: "Paving slab", Price: decimal.NewFromInt(100), IsActive: true},
	}
	carts := usecase.NewCartUsecase(&memSlot{data: map[string]string{}}, catalog, checkout.DefaultPricing(), time.Hour, log)
	flows := usecase.NewCheckoutUsecase(carts, failingCreator{}, nil, checkout.DefaultConfig(), log)

	e := echo.New()
	NewCartHandler(carts).RegisterRoutes(e, fixedSession(sessionID))
	NewCheckoutHandler(flows).RegisterRoutes(e, fixedSession(sessionID))
	return e
}

func serve(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var out ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestWriteError_RendersHTTPErrorFields(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	err := &usecase.HTTPError{Status: http.StatusBadRequest, Message: "missing required fields", Missing: []string{"email"}}
	require.NoError(t, writeError(c, err))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	out := decodeError(t, rec)
	assert.Equal(t, "missing required fields", out.Error)
	assert.Equal(t, []string{"email"}, out.Missing)
	assert.False(t, out.Retryable)
}

func TestWriteError_UnknownErrorIs500(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	e := echo.New()
	e.Use(middleware.RequestLogger(zap.New(core)))
	e.GET("/fail", func(c echo.Context) error { return writeError(c, errors.New("boom")) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", decodeError(t, rec).Error)

	entries := logs.FilterMessage("unhandled error").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "boom", entries[0].ContextMap()["error"])
	assert.Equal(t, "/fail", entries[0].ContextMap()["path"])
}

func TestCartHandler_AddAndUpdate(t *testing.T) {
	e := newShopEcho(t, "s1")

	rec := serve(e, http.MethodPost, "/cart/items", `{"product_id":"slab","quantity":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var cart usecase.CartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cart))
	assert.Equal(t, 2, cart.Summary.ItemCount)
	assert.Equal(t, "250", cart.Summary.FinalTotal.String())

	rec = serve(e, http.MethodPatch, "/cart/items/slab", `{"quantity":5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cart))
	assert.True(t, cart.Summary.DeliveryFee.IsZero())

	rec = serve(e, http.MethodDelete, "/cart/items/slab", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cart))
	assert.Empty(t, cart.Items)
}

func TestCartHandler_BadRequests(t *testing.T) {
	e := newShopEcho(t, "s1")

	rec := serve(e, http.MethodPost, "/cart/items", `{"product_id":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid body", decodeError(t, rec).Error)

	rec = serve(e, http.MethodPost, "/cart/items", `{"product_id":"nope","quantity":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "product not available", decodeError(t, rec).Error)

	rec = serve(newShopEcho(t, ""), http.MethodGet, "/cart", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckoutHandler_ValidationListsMissingFields(t *testing.T) {
	e := newShopEcho(t, "s1")
	require.Equal(t, http.StatusOK, serve(e, http.MethodPost, "/cart/items", `{"product_id":"slab","quantity":1}`).Code)
	require.Equal(t, http.StatusOK, serve(e, http.MethodPost, "/checkout", "").Code)

	rec := serve(e, http.MethodPost, "/checkout/next", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"name", "email", "phone"}, decodeError(t, rec).Missing)
}

func TestCheckoutHandler_SubmitFailureIsRetryable(t *testing.T) {
	e := newShopEcho(t, "s1")
	require.Equal(t, http.StatusOK, serve(e, http.MethodPost, "/cart/items", `{"product_id":"slab","quantity":1}`).Code)
	require.Equal(t, http.StatusOK, serve(e, http.MethodPost, "/checkout", "").Code)
	require.Equal(t, http.StatusOK, serve(e, http.MethodPut, "/checkout/contact",
		`{"name":"Jane","email":"jane@example.com","phone":"555"}`).Code)
	require.Equal(t, http.StatusOK, serve(e, http.MethodPost, "/checkout/next", "").Code)

	rec := serve(e, http.MethodPost, "/checkout/submit", "")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.True(t, decodeError(t, rec).Retryable)

	rec = serve(e, http.MethodGet, "/checkout", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var st checkout.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, checkout.StepReview, st.Step)
	assert.Equal(t, 1, st.Summary.ItemCount)
}

func TestCheckoutHandler_NoFlowIs404(t *testing.T) {
	e := newShopEcho(t, "s1")
	assert.Equal(t, http.StatusNotFound, serve(e, http.MethodGet, "/checkout", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(e, http.MethodPost, "/checkout/back", "").Code)
}
