package httpserver

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/vmelnikov/food_ordering/internal/errs"
	"github.com/vmelnikov/food_ordering/internal/menu"
)

type MenuHandler struct {
	Menu *menu.Service
}

func (h *MenuHandler) GetCategories(c echo.Context) error {
	cats, err := h.Menu.Categories(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, cats)
}

func (h *MenuHandler) GetCategory(c echo.Context) error {
	cat, err := h.Menu.Category(c.Request().Context(), c.Param("idOrSlug"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *MenuHandler) GetItems(c echo.Context) error {
	ctx := c.Request().Context()

	filter := menu.ListFilter{
		Search:    c.QueryParam("search"),
		Page:      intParam(c, "page", 1),
		PerPage:   intParam(c, "limit", 20),
		SortBy:    c.QueryParam("sortBy"),
		SortOrder: c.QueryParam("sortOrder"),
	}

	if cat := c.QueryParam("categoryId"); cat != "" {
		if id, err := uuid.Parse(cat); err == nil {
			filter.CategoryID = &id
		} else {
			found, err := h.Menu.Category(ctx, cat)
			if err != nil {
				return writeError(c, err)
			}
			filter.CategoryID = &found.ID
		}
	}
	for _, p := range []struct {
		name string
		dst  **decimal.Decimal
	}{{"minPrice", &filter.MinPrice}, {"maxPrice", &filter.MaxPrice}} {
		if raw := c.QueryParam(p.name); raw != "" {
			v, err := decimal.NewFromString(raw)
			if err != nil {
				return writeError(c, errs.Validationf("INVALID_FILTER", p.name,
					"%s must be a decimal number", p.name))
			}
			*p.dst = &v
		}
	}
	// unavailable items are hidden unless explicitly requested
	available := true
	filter.Available = &available
	if raw := c.QueryParam("includeUnavailable"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return writeError(c, errs.Validationf("INVALID_FILTER", "includeUnavailable",
				"includeUnavailable must be true or false"))
		}
		if v {
			filter.Available = nil
		}
	}

	page, err := h.Menu.Items(ctx, filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *MenuHandler) GetItem(c echo.Context) error {
	detail, err := h.Menu.Item(c.Request().Context(), c.Param("idOrSlug"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *MenuHandler) SearchItems(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return writeError(c, errs.Validationf("QUERY_REQUIRED", "q",
			"search query is required"))
	}

	page, err := h.Menu.SearchItems(c.Request().Context(), q,
		intParam(c, "page", 1), intParam(c, "perPage", 20))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func intParam(c echo.Context, name string, def int) int {
	v := c.QueryParam(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
