// Package httpserver exposes the REST surface and maps service errors to
// HTTP statuses.
package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vmelnikov/food_ordering/internal/logging"
)

type Deps struct {
	Menu     *MenuHandler
	Cart     *CartHandler
	Orders   *OrdersHandler
	Kitchen  *KitchenHandler
	Payments *PaymentsHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	v1 := e.Group("/api/v1")

	m := v1.Group("/menu")
	m.GET("/categories", d.Menu.GetCategories)
	m.GET("/categories/:idOrSlug", d.Menu.GetCategory)
	m.GET("/items", d.Menu.GetItems)
	m.GET("/items/:idOrSlug", d.Menu.GetItem)
	m.GET("/search", d.Menu.SearchItems)

	cart := v1.Group("/cart")
	cart.GET("", d.Cart.GetCart)
	cart.POST("/items", d.Cart.AddItem)
	cart.PATCH("/items/:itemID", d.Cart.UpdateItem)
	cart.DELETE("/items/:itemID", d.Cart.RemoveItem)
	cart.DELETE("", d.Cart.ClearCart)

	orders := v1.Group("/orders")
	orders.POST("", d.Orders.CreateOrder)
	orders.GET("", d.Orders.ListOrders)
	orders.GET("/history", d.Orders.OrderHistory)
	orders.GET("/:idOrNumber", d.Orders.GetOrder)
	orders.GET("/:orderID/payment", d.Payments.GetOrderPayment)

	kitchen := v1.Group("/kitchen")
	kitchen.GET("/orders", d.Kitchen.GetQueue)
	kitchen.GET("/orders/:idOrNumber", d.Kitchen.GetOrder)
	kitchen.PATCH("/orders/:idOrNumber/status", d.Kitchen.UpdateStatus)
	kitchen.GET("/stats", d.Kitchen.GetStats)

	payments := v1.Group("/payments")
	payments.POST("", d.Payments.ProcessPayment)
	payments.GET("/order/:orderID", d.Payments.GetOrderPayment)
	payments.GET("/:id", d.Payments.GetPayment)
}

// RequestLogger attaches the process logger to every request context and
// emits one line per request.
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			l := logger
			if rid := req.Header.Get(echo.HeaderXRequestID); rid != "" {
				l = l.With("request_id", rid)
			}
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), l)))

			err := next(c)

			l.Info("http_request",
				"method", req.Method,
				"path", req.URL.Path,
				"status", c.Response().Status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return err
		}
	}
}
