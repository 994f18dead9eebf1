package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vmelnikov/food_ordering/internal/errs"
	"github.com/vmelnikov/food_ordering/internal/logging"
)

// HeaderSession carries the opaque cart session token. The server issues
// one on the first cart write and echoes it back on every cart response.
const HeaderSession = "X-Session-Id"

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// writeError maps the service error taxonomy onto HTTP statuses. Internal
// details never leave the process; they go to the log instead.
func writeError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errs.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, errs.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errs.ErrConflict):
		status = http.StatusConflict
	}

	body := errorBody{Code: "INTERNAL", Message: "internal error"}
	if e, ok := errs.AsError(err); ok {
		body = errorBody{Code: e.Code, Message: e.Message, Field: e.Field}
	}
	if status == http.StatusInternalServerError {
		logging.FromContext(c.Request().Context()).Error("request_failed",
			"method", c.Request().Method, "path", c.Path(), "error", err)
		body.Message = "internal error"
	}

	return c.JSON(status, errorResponse{Error: body})
}

func sessionID(c echo.Context) string {
	return c.Request().Header.Get(HeaderSession)
}
