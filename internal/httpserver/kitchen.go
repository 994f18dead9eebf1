package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vmelnikov/food_ordering/internal/errs"
	"github.com/vmelnikov/food_ordering/internal/kitchen"
	"github.com/vmelnikov/food_ordering/internal/models"
)

type KitchenHandler struct {
	Kitchen *kitchen.Service
}

func (h *KitchenHandler) GetQueue(c echo.Context) error {
	var status *models.OrderStatus
	if s := c.QueryParam("status"); s != "" {
		st := models.OrderStatus(s)
		status = &st
	}

	list, err := h.Kitchen.Queue(c.Request().Context(), status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *KitchenHandler) GetOrder(c echo.Context) error {
	order, err := h.Kitchen.Order(c.Request().Context(), c.Param("idOrNumber"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *KitchenHandler) UpdateStatus(c echo.Context) error {
	var req kitchen.StatusUpdate
	if err := c.Bind(&req); err != nil {
		return writeError(c, errs.Validationf("INVALID_BODY", "", "malformed request body"))
	}

	order, err := h.Kitchen.UpdateStatus(c.Request().Context(), c.Param("idOrNumber"), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *KitchenHandler) GetStats(c echo.Context) error {
	stats, err := h.Kitchen.Stats(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}
