package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/vmelnikov/food_ordering/internal/cart"
	"github.com/vmelnikov/food_ordering/internal/errs"
)

type CartHandler struct {
	Cart *cart.Service
}

func (h *CartHandler) GetCart(c echo.Context) error {
	result, err := h.Cart.Get(c.Request().Context(), sessionID(c))
	if err != nil {
		return writeError(c, err)
	}
	c.Response().Header().Set(HeaderSession, result.SessionID)
	return c.JSON(http.StatusOK, result)
}

func (h *CartHandler) AddItem(c echo.Context) error {
	var req cart.AddItemRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, errs.Validationf("INVALID_BODY", "", "malformed request body"))
	}

	result, err := h.Cart.AddItem(c.Request().Context(), sessionID(c), req)
	if err != nil {
		return writeError(c, err)
	}
	c.Response().Header().Set(HeaderSession, result.SessionID)
	return c.JSON(http.StatusCreated, result)
}

func (h *CartHandler) UpdateItem(c echo.Context) error {
	itemID, err := uuid.Parse(c.Param("itemID"))
	if err != nil {
		return writeError(c, errs.Validationf("INVALID_ID", "itemID", "malformed cart item id"))
	}

	var req cart.UpdateItemRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, errs.Validationf("INVALID_BODY", "", "malformed request body"))
	}

	result, err := h.Cart.UpdateItem(c.Request().Context(), sessionID(c), itemID, req)
	if err != nil {
		return writeError(c, err)
	}
	c.Response().Header().Set(HeaderSession, result.SessionID)
	return c.JSON(http.StatusOK, result)
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	itemID, err := uuid.Parse(c.Param("itemID"))
	if err != nil {
		return writeError(c, errs.Validationf("INVALID_ID", "itemID", "malformed cart item id"))
	}

	result, err := h.Cart.RemoveItem(c.Request().Context(), sessionID(c), itemID)
	if err != nil {
		return writeError(c, err)
	}
	c.Response().Header().Set(HeaderSession, result.SessionID)
	return c.JSON(http.StatusOK, result)
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	sid := sessionID(c)
	if sid == "" {
		return c.NoContent(http.StatusNoContent)
	}
	if err := h.Cart.Clear(c.Request().Context(), sid); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
