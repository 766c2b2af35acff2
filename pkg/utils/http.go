package utils

import (
	"github.com/labstack/echo/v4"
)

func GetRequestID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

func GetIPAddress(c echo.Context) string {
	return c.RealIP()
}

// ReadRequest binds the body into request and validates it.
func ReadRequest(c echo.Context, request interface{}) error {
	if err := c.Bind(request); err != nil {
		return err
	}
	return ValidateStruct(c.Request().Context(), request)
}
