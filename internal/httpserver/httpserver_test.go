package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vmelnikov/food_ordering/internal/cart"
	"github.com/vmelnikov/food_ordering/internal/events"
	"github.com/vmelnikov/food_ordering/internal/kitchen"
	"github.com/vmelnikov/food_ordering/internal/menu"
	"github.com/vmelnikov/food_ordering/internal/models"
	"github.com/vmelnikov/food_ordering/internal/orders"
	"github.com/vmelnikov/food_ordering/internal/payments"
	"github.com/vmelnikov/food_ordering/internal/users"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

type testApp struct {
	e  *echo.Echo
	db *gorm.DB
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	menuRepo := menu.NewRepo(db)
	menuSvc := menu.NewService(menuRepo, nil, nil)
	carts := cart.NewMemoryStore()
	cartSvc := cart.NewService(carts, menuSvc)
	orderSvc := orders.NewService(orders.NewRepo(db), carts, menuSvc, users.NewRepo(db), events.NopSink{})
	kitchenSvc := kitchen.NewService(orders.NewRepo(db), events.NopSink{})
	paymentSvc := payments.NewService(db, orders.NewRepo(db))

	e := echo.New()
	Register(e, &Deps{
		Menu:     &MenuHandler{Menu: menuSvc},
		Cart:     &CartHandler{Cart: cartSvc},
		Orders:   &OrdersHandler{Orders: orderSvc},
		Kitchen:  &KitchenHandler{Kitchen: kitchenSvc},
		Payments: &PaymentsHandler{Payments: paymentSvc},
	})

	return &testApp{e: e, db: db}
}

func (a *testApp) seedItem(t *testing.T, name, slug, price string) *models.MenuItem {
	t.Helper()

	cat := models.Category{Name: "Mains", Slug: "mains-" + slug, IsActive: true}
	require.NoError(t, a.db.Create(&cat).Error)

	item := models.MenuItem{
		CategoryID: cat.ID, Name: name, Slug: slug,
		BasePrice: d(price), MinQuantity: d("1"), StepQuantity: d("1"),
		IsAvailable: true, PrepTime: 10,
		CustomizationType: models.CustomizationNone,
	}
	require.NoError(t, a.db.Create(&item).Error)
	return &item
}

func (a *testApp) request(t *testing.T, method, path, session string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if session != "" {
		req.Header.Set(HeaderSession, session)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func TestCartToKitchenFlow(t *testing.T) {
	app := newTestApp(t)
	item := app.seedItem(t, "Veggie Burger", "veggie-burger", "8.50")

	// add to cart without a session; the server issues one
	rec := app.request(t, http.MethodPost, "/api/v1/cart/items", "", map[string]any{
		"menuItemId": item.ID.String(),
		"quantity":   2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	session := rec.Header().Get(HeaderSession)
	require.NotEmpty(t, session)

	var cartResp cart.Cart
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cartResp))
	require.Len(t, cartResp.Items, 1)
	require.Equal(t, "17", cartResp.Total.String())

	// place the order
	rec = app.request(t, http.MethodPost, "/api/v1/orders", session, map[string]any{})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var order models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	require.Regexp(t, `^ORD-\d{8}-\d{3}$`, order.OrderNumber)
	require.Equal(t, models.StatusReceived, order.Status)

	// cart is gone
	rec = app.request(t, http.MethodGet, "/api/v1/cart", session, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cartResp))
	require.Empty(t, cartResp.Items)

	// kitchen sees it and advances it
	rec = app.request(t, http.MethodGet, "/api/v1/kitchen/orders", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var queue []models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &queue))
	require.Len(t, queue, 1)

	path := fmt.Sprintf("/api/v1/kitchen/orders/%s/status", order.OrderNumber)
	rec = app.request(t, http.MethodPatch, path, "", map[string]any{
		"status":    "PREPARING",
		"changedBy": "chef-1",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// an invalid jump is a 409
	rec = app.request(t, http.MethodPatch, path, "", map[string]any{
		"status": "COMPLETED",
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	// pay for it
	rec = app.request(t, http.MethodPost, "/api/v1/payments", "", map[string]any{
		"orderId": order.ID.String(),
		"amount":  order.TotalAmount,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var payment models.Payment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payment))
	require.Equal(t, models.PaymentSuccess, payment.Status)

	rec = app.request(t, http.MethodGet, fmt.Sprintf("/api/v1/orders/%s/payment", order.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.request(t, http.MethodGet, fmt.Sprintf("/api/v1/payments/order/%s", order.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestOrderHistoryByContact(t *testing.T) {
	app := newTestApp(t)
	item := app.seedItem(t, "Falafel Wrap", "falafel-wrap", "6.50")

	rec := app.request(t, http.MethodPost, "/api/v1/cart/items", "", map[string]any{
		"menuItemId": item.ID.String(),
		"quantity":   1,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	session := rec.Header().Get(HeaderSession)

	rec = app.request(t, http.MethodPost, "/api/v1/orders", session, map[string]any{
		"contact": map[string]any{"phone": "+15550003333", "name": "Omar"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = app.request(t, http.MethodGet, "/api/v1/orders/history?phone=%2B15550003333", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var history []models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 1)

	rec = app.request(t, http.MethodGet, "/api/v1/orders/history", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMenuEndpoints(t *testing.T) {
	app := newTestApp(t)
	app.seedItem(t, "Masala Chai", "masala-chai", "1.80")

	rec := app.request(t, http.MethodGet, "/api/v1/menu/items", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page menu.ItemPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.EqualValues(t, 1, page.Total)

	rec = app.request(t, http.MethodGet, "/api/v1/menu/items/masala-chai", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.request(t, http.MethodGet, "/api/v1/menu/items/no-such-item", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var errResp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	require.Equal(t, "ITEM_NOT_FOUND", errResp.Error.Code)

	// search without ES falls back to the database
	rec = app.request(t, http.MethodGet, "/api/v1/menu/search?q=chai", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.EqualValues(t, 1, page.Total)
}

func TestOrderWithoutSessionRejected(t *testing.T) {
	app := newTestApp(t)

	rec := app.request(t, http.MethodPost, "/api/v1/orders", "", map[string]any{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartValidationErrors(t *testing.T) {
	app := newTestApp(t)
	item := app.seedItem(t, "Samosa", "samosa", "3.50")

	// below minimum quantity
	rec := app.request(t, http.MethodPost, "/api/v1/cart/items", "", map[string]any{
		"menuItemId": item.ID.String(),
		"quantity":   0.5,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// unknown item
	rec = app.request(t, http.MethodPost, "/api/v1/cart/items", "", map[string]any{
		"menuItemId": "no-such-item",
		"quantity":   1,
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}
