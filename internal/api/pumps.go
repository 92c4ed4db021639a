package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

func registerPumpEndpoints(rest *echo.Echo, deps *Deps) {
	group := rest.Group("/pump")

	// returns the state of all configured pumps
	group.GET("/", func(c echo.Context) error {
		return c.JSONPretty(http.StatusOK, deps.Pumps.Snapshots(), indentationChar)
	})

	group.GET("/:"+urlParamId+"/", func(c echo.Context) error {
		pump := deps.Pumps.Pump(c.Param(urlParamId))
		if pump == nil {
			return returnNotFound(c, c.Param(urlParamId))
		}
		return c.JSONPretty(http.StatusOK, pump.Snapshot(), indentationChar)
	})

	group.POST("/:"+urlParamId+"/hoa/", func(c echo.Context) error {
		pump := deps.Pumps.Pump(c.Param(urlParamId))
		if pump == nil {
			return returnNotFound(c, c.Param(urlParamId))
		}
		var request hoaRequest
		if err := c.Bind(&request); err != nil {
			return returnBadRequest(c, err.Error())
		}
		mode, err := parseHOA(request.HOA)
		if err != nil {
			return returnBadRequest(c, err.Error())
		}
		pump.SetHOA(mode)
		return c.JSONPretty(http.StatusOK, pump.Snapshot(), indentationChar)
	})

	group.POST("/:"+urlParamId+"/prime/", func(c echo.Context) error {
		pump := deps.Pumps.Pump(c.Param(urlParamId))
		if pump == nil {
			return returnNotFound(c, c.Param(urlParamId))
		}
		pump.Prime(time.Now())
		return c.JSONPretty(http.StatusOK, pump.Snapshot(), indentationChar)
	})

	group.POST("/:"+urlParamId+"/calibrate/", func(c echo.Context) error {
		pump := deps.Pumps.Pump(c.Param(urlParamId))
		if pump == nil {
			return returnNotFound(c, c.Param(urlParamId))
		}
		pump.Calibrate(time.Now())
		return c.JSONPretty(http.StatusOK, pump.Snapshot(), indentationChar)
	})

	group.POST("/:"+urlParamId+"/resetLockout/", func(c echo.Context) error {
		pump := deps.Pumps.Pump(c.Param(urlParamId))
		if pump == nil {
			return returnNotFound(c, c.Param(urlParamId))
		}
		pump.ResetLockout()
		return c.JSONPretty(http.StatusOK, pump.Snapshot(), indentationChar)
	})
}
