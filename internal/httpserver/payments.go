package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/vmelnikov/food_ordering/internal/errs"
	"github.com/vmelnikov/food_ordering/internal/payments"
)

type PaymentsHandler struct {
	Payments *payments.Service
}

func (h *PaymentsHandler) ProcessPayment(c echo.Context) error {
	var req payments.ProcessRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, errs.Validationf("INVALID_BODY", "", "malformed request body"))
	}
	if req.OrderID == uuid.Nil {
		return writeError(c, errs.Validationf("ORDER_REQUIRED", "orderId", "orderId is required"))
	}

	payment, err := h.Payments.Process(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, payment)
}

func (h *PaymentsHandler) GetPayment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeError(c, errs.Validationf("INVALID_ID", "id", "malformed payment id"))
	}

	payment, err := h.Payments.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, payment)
}

func (h *PaymentsHandler) GetOrderPayment(c echo.Context) error {
	orderID, err := uuid.Parse(c.Param("orderID"))
	if err != nil {
		return writeError(c, errs.Validationf("INVALID_ID", "orderID", "malformed order id"))
	}

	payment, err := h.Payments.GetByOrder(c.Request().Context(), orderID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, payment)
}
