package batch

import "github.com/labstack/echo/v4"

type Handler interface {
	Run() echo.HandlerFunc
	Progress() echo.HandlerFunc
}
