package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vmelnikov/food_ordering/internal/errs"
	"github.com/vmelnikov/food_ordering/internal/orders"
)

type OrdersHandler struct {
	Orders *orders.Service
}

func (h *OrdersHandler) CreateOrder(c echo.Context) error {
	sid := sessionID(c)
	if sid == "" {
		return writeError(c, errs.Validationf("SESSION_REQUIRED", HeaderSession,
			"a session header is required to place an order"))
	}

	var req orders.CreateRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, errs.Validationf("INVALID_BODY", "", "malformed request body"))
	}
	req.SessionID = sid

	order, err := h.Orders.Create(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, order)
}

func (h *OrdersHandler) GetOrder(c echo.Context) error {
	order, err := h.Orders.Get(c.Request().Context(), c.Param("idOrNumber"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrdersHandler) ListOrders(c echo.Context) error {
	sid := sessionID(c)
	if sid == "" {
		return writeError(c, errs.Validationf("SESSION_REQUIRED", HeaderSession,
			"a session header is required to list orders"))
	}

	list, err := h.Orders.ListBySession(c.Request().Context(), sid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *OrdersHandler) OrderHistory(c echo.Context) error {
	list, err := h.Orders.History(c.Request().Context(), c.QueryParam("phone"), c.QueryParam("email"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}
