package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type alarmStatus struct {
	Bitmask uint32   `json:"bitmask"`
	Active  []string `json:"active"`
}

func registerAlarmEndpoints(rest *echo.Echo, deps *Deps) {
	group := rest.Group("/alarm")

	group.GET("/", func(c echo.Context) error {
		active := deps.Alarms.Active()
		return c.JSONPretty(http.StatusOK, alarmStatus{
			Bitmask: uint32(active),
			Active:  active.Names(),
		}, indentationChar)
	})
}
