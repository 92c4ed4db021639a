package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type meterStatus struct {
	ID       string  `json:"id"`
	Contacts uint64  `json:"contacts"`
	Volume   float64 `json:"volume"`
}

func registerMeterEndpoints(rest *echo.Echo, deps *Deps) {
	group := rest.Group("/meter")

	group.GET("/", func(c echo.Context) error {
		status := []meterStatus{}
		for _, meter := range deps.Meters {
			contacts, volume := meter.Totals()
			status = append(status, meterStatus{ID: meter.GetId(), Contacts: contacts, Volume: volume})
		}
		return c.JSONPretty(http.StatusOK, status, indentationChar)
	})

	group.GET("/:"+urlParamId+"/", func(c echo.Context) error {
		for _, meter := range deps.Meters {
			if meter.GetId() == c.Param(urlParamId) {
				contacts, volume := meter.Totals()
				return c.JSONPretty(http.StatusOK,
					meterStatus{ID: meter.GetId(), Contacts: contacts, Volume: volume}, indentationChar)
			}
		}
		return returnNotFound(c, c.Param(urlParamId))
	})
}
