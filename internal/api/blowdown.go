package api

import (
	"net/http"

	"github.com/boilerctl/boilerctl/internal/configuration"
	"github.com/labstack/echo/v4"
)

type hoaRequest struct {
	HOA string `json:"hoa"`
}

func registerBlowdownEndpoints(rest *echo.Echo, deps *Deps) {
	group := rest.Group("/blowdown")

	group.GET("/", func(c echo.Context) error {
		return c.JSONPretty(http.StatusOK, deps.Blowdown.Snapshot(), indentationChar)
	})

	group.POST("/hoa/", func(c echo.Context) error {
		var request hoaRequest
		if err := c.Bind(&request); err != nil {
			return returnBadRequest(c, err.Error())
		}
		mode, err := parseHOA(request.HOA)
		if err != nil {
			return returnBadRequest(c, err.Error())
		}
		deps.Blowdown.SetHOA(mode)
		return c.JSONPretty(http.StatusOK, deps.Blowdown.Snapshot(), indentationChar)
	})

	// clears a latched blowdown timeout
	group.POST("/reset/", func(c echo.Context) error {
		deps.Blowdown.ResetTimeout()
		return c.JSONPretty(http.StatusOK, deps.Blowdown.Snapshot(), indentationChar)
	})

	group.POST("/resetDaily/", func(c echo.Context) error {
		deps.Blowdown.ResetDailyTotal()
		return c.JSONPretty(http.StatusOK, deps.Blowdown.Snapshot(), indentationChar)
	})
}

func parseHOA(value string) (configuration.HOAMode, error) {
	switch configuration.HOAMode(value) {
	case configuration.HOAOff, configuration.HOAHand, configuration.HOAAuto:
		return configuration.HOAMode(value), nil
	}
	return "", echo.NewHTTPError(http.StatusBadRequest, "hoa must be one of off|hand|auto")
}
