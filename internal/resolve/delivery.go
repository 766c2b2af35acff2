package resolve

import "github.com/labstack/echo/v4"

type Handler interface {
	Resolve() echo.HandlerFunc
}
