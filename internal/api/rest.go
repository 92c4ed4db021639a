package api

import (
	"net/http"

	"github.com/boilerctl/boilerctl/internal/alarms"
	"github.com/boilerctl/boilerctl/internal/blowdown"
	"github.com/boilerctl/boilerctl/internal/fuzzy"
	"github.com/boilerctl/boilerctl/internal/meters"
	"github.com/boilerctl/boilerctl/internal/pumps"
	"github.com/boilerctl/boilerctl/internal/sensors"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	urlParamId      = "id"
	indentationChar = "  "
)

type (
	Result struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	}
)

// Deps are the controller subsystems the REST service exposes.
type Deps struct {
	Blowdown *blowdown.Controller
	Pumps    *pumps.Engine
	Fuzzy    *fuzzy.Engine
	Meters   []*meters.Meter
	Alarms   *alarms.Poller
	Monitor  *sensors.Monitor
}

func CreateRestService(deps *Deps) *echo.Echo {
	echoRest := echo.New()
	echoRest.HideBanner = true

	// Root level middleware
	echoRest.Pre(middleware.AddTrailingSlash())

	echoRest.Use(middleware.Secure())

	echoRest.Use(middleware.Logger())
	echoRest.Use(middleware.Recover())

	echoRest.GET("/alive/", isAlive)

	registerBlowdownEndpoints(echoRest, deps)
	registerPumpEndpoints(echoRest, deps)
	if deps.Fuzzy != nil {
		registerFuzzyEndpoints(echoRest, deps)
	}
	registerMeterEndpoints(echoRest, deps)
	registerAlarmEndpoints(echoRest, deps)
	registerSensorEndpoints(echoRest, deps)

	return echoRest
}

// returns an empty "ok" answer
func isAlive(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// return a "not found" message
func returnNotFound(c echo.Context, id string) (err error) {
	return c.JSONPretty(http.StatusNotFound, &Result{
		Name:    "Not found",
		Message: "No item with id '" + id + "' found",
	}, indentationChar)
}

// return a "bad request" message
func returnBadRequest(c echo.Context, message string) (err error) {
	return c.JSONPretty(http.StatusBadRequest, &Result{
		Name:    "Bad request",
		Message: message,
	}, indentationChar)
}

// return the error message of an error
func returnError(c echo.Context, e error) (err error) {
	return c.JSONPretty(http.StatusInternalServerError, &Result{
		Name:    "Unknown Error",
		Message: e.Error(),
	}, indentationChar)
}
