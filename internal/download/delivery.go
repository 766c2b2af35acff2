package download

import "github.com/labstack/echo/v4"

type Handler interface {
	Download() echo.HandlerFunc
	Cancel() echo.HandlerFunc
}
