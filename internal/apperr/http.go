package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HTTPStatus maps the error taxonomy onto response codes.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindAlreadyExists, KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// ErrorHandler renders every error through the uniform envelope
// {timestamp, status, error} plus validationErrors for field failures.
func ErrorHandler() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := "Internal server error"
		var fields map[string]string

		var ae *Error
		var he *echo.HTTPError
		switch {
		case errors.As(err, &ae):
			status = ae.HTTPStatus()
			message = ae.Message
			fields = ae.Fields
		case errors.As(err, &he):
			status = he.Code
			message = fmt.Sprint(he.Message)
		default:
			c.Logger().Errorf("unhandled error: %v", err)
		}

		body := echo.Map{
			"timestamp": time.Now().Format(time.RFC3339),
			"status":    status,
			"error":     message,
		}
		if len(fields) > 0 {
			body["validationErrors"] = fields
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, body)
		}
		if werr != nil {
			c.Logger().Errorf("error response write failed: %v", werr)
		}
	}
}
