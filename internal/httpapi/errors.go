package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/tradegrid/internal/apperr"
)

// respondErr maps the error taxonomy to HTTP statuses. Unknown errors are
// masked as a generic 500 so internals never leak to callers.
func respondErr(c echo.Context, err error) error {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": echo.Map{"code": "INTERNAL", "message": "internal error"},
		})
	}

	status := http.StatusInternalServerError
	switch ae.Code {
	case apperr.ErrNotFound.Code:
		status = http.StatusNotFound
	case apperr.ErrForbidden.Code:
		status = http.StatusForbidden
	case apperr.ErrDuplicatePurchase.Code:
		status = http.StatusConflict
	case apperr.ErrInvalidState.Code:
		status = http.StatusConflict
	case apperr.ErrInvalidInput.Code:
		status = http.StatusBadRequest
	case apperr.ErrLookup.Code, apperr.ErrStorage.Code:
		// Retryable: the shard directory or object store is unavailable.
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, echo.Map{
		"error": echo.Map{"code": ae.Code, "message": ae.Message},
	})
}
