package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func registerSensorEndpoints(rest *echo.Echo, deps *Deps) {
	group := rest.Group("/sensor")

	// the latest measurement snapshot
	group.GET("/", func(c echo.Context) error {
		return c.JSONPretty(http.StatusOK, deps.Monitor.Snapshot(), indentationChar)
	})
}
