package api

import (
	"net/http"
	"time"

	"github.com/boilerctl/boilerctl/internal/fuzzy"
	"github.com/labstack/echo/v4"
)

type manualInputRequest struct {
	Value float64 `json:"value"`
}

func registerFuzzyEndpoints(rest *echo.Echo, deps *Deps) {
	group := rest.Group("/fuzzy")

	// the most recent advisory evaluation
	group.GET("/", func(c echo.Context) error {
		return c.JSONPretty(http.StatusOK, deps.Fuzzy.LastResult(), indentationChar)
	})

	group.GET("/inputs/", func(c echo.Context) error {
		return c.JSONPretty(http.StatusOK, deps.Fuzzy.ManualInputs(), indentationChar)
	})

	// records a bench chemistry test result, e.g. POST /fuzzy/inputs/tds/
	group.POST("/inputs/:"+urlParamId+"/", func(c echo.Context) error {
		input := fuzzy.InputByName(c.Param(urlParamId))
		if input < 0 {
			return returnNotFound(c, c.Param(urlParamId))
		}
		var request manualInputRequest
		if err := c.Bind(&request); err != nil {
			return returnBadRequest(c, err.Error())
		}
		if err := deps.Fuzzy.SetManualInput(input, request.Value, time.Now()); err != nil {
			return returnBadRequest(c, err.Error())
		}
		return c.JSONPretty(http.StatusOK, deps.Fuzzy.ManualInputs(), indentationChar)
	})

	group.DELETE("/inputs/:"+urlParamId+"/", func(c echo.Context) error {
		input := fuzzy.InputByName(c.Param(urlParamId))
		if input < 0 {
			return returnNotFound(c, c.Param(urlParamId))
		}
		deps.Fuzzy.ClearManualInput(input)
		return c.JSONPretty(http.StatusOK, deps.Fuzzy.ManualInputs(), indentationChar)
	})
}
