package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boilerctl/boilerctl/internal/alarms"
	"github.com/boilerctl/boilerctl/internal/api"
	"github.com/boilerctl/boilerctl/internal/blowdown"
	"github.com/boilerctl/boilerctl/internal/configuration"
	"github.com/boilerctl/boilerctl/internal/controller"
	"github.com/boilerctl/boilerctl/internal/fuzzy"
	"github.com/boilerctl/boilerctl/internal/hal"
	"github.com/boilerctl/boilerctl/internal/meters"
	"github.com/boilerctl/boilerctl/internal/persistence"
	"github.com/boilerctl/boilerctl/internal/pumps"
	"github.com/boilerctl/boilerctl/internal/sensors"
	"github.com/boilerctl/boilerctl/internal/statistics"
	"github.com/boilerctl/boilerctl/internal/telemetry"
	"github.com/boilerctl/boilerctl/internal/ui"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HandTimeout is how long a valve or pump stays in hand before reverting to
// auto.
const HandTimeout = 600 * time.Second

// objects holds everything the daemon wires together.
type objects struct {
	monitor            *sensors.Monitor
	blowdownController *blowdown.Controller
	fuzzyEngine        *fuzzy.Engine
	pumpEngine         *pumps.Engine
	meterList          []*meters.Meter
	alarmPoller        *alarms.Poller
}

func RunDaemon() {
	config := configuration.CurrentConfig

	pers := persistence.NewPersistence(config.DbPath)
	if err := pers.Init(); err != nil {
		ui.Fatal("Unable to initialize persistence: %v", err)
	}

	obj := InitializeObjects()

	var publisher telemetry.Publisher
	if config.Mqtt != nil {
		p, err := telemetry.NewPahoPublisher(*config.Mqtt)
		if err != nil {
			ui.Warning("Telemetry disabled, cannot connect to broker: %v", err)
		} else {
			publisher = p
			defer func() {
				_ = publisher.Close()
			}()
		}
	}

	loop := controller.NewController(
		config,
		obj.monitor,
		obj.blowdownController,
		obj.fuzzyEngine,
		obj.pumpEngine,
		obj.meterList,
		obj.alarmPoller,
		pers,
		publisher,
	)
	loop.Restore(time.Now())

	ctx, cancel := context.WithCancel(context.Background())

	var g run.Group
	{
		if config.Statistics.Enabled {
			// === Prometheus Exporter
			port := config.Statistics.Port
			if port <= 0 || port >= 65535 {
				port = 9000
			}
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			server := &http.Server{
				Addr:    fmt.Sprintf(":%d", port),
				Handler: mux,
			}

			g.Add(func() error {
				err := server.ListenAndServe()
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				ui.Error("Cannot start prometheus metrics endpoint (%s)", err.Error())
				return err
			}, func(err error) {
				ui.Info("Stopping statistics server...")
				timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer timeoutCancel()
				if err := server.Shutdown(timeoutCtx); err != nil {
					ui.Warning("Error stopping statistics server: " + err.Error())
				} else {
					ui.Info("Statistics server stopped.")
				}
			})
		}
	}
	{
		if config.Api.Enabled {
			// === REST API
			restService := api.CreateRestService(&api.Deps{
				Blowdown: obj.blowdownController,
				Pumps:    obj.pumpEngine,
				Fuzzy:    obj.fuzzyEngine,
				Meters:   obj.meterList,
				Alarms:   obj.alarmPoller,
				Monitor:  obj.monitor,
			})

			g.Add(func() error {
				addr := fmt.Sprintf("%s:%d", config.Api.Host, config.Api.Port)
				err := restService.Start(addr)
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				ui.Error("Cannot start REST api endpoint (%s)", err.Error())
				return err
			}, func(err error) {
				ui.Info("Stopping REST api...")
				timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer timeoutCancel()
				if err := restService.Shutdown(timeoutCtx); err != nil {
					ui.Warning("Error stopping REST api: " + err.Error())
				} else {
					ui.Info("REST api stopped.")
				}
			})
		}
	}
	{
		// === measurement monitor
		g.Add(func() error {
			err := obj.monitor.Run(ctx)
			ui.Info("Measurement monitor stopped.")
			return err
		}, func(err error) {
			if err != nil {
				ui.Warning("Error monitoring sensors: %v", err)
			}
		})
	}
	{
		// === control loop
		g.Add(func() error {
			err := loop.Run(ctx)
			ui.Info("Control loop stopped.")
			return err
		}, func(err error) {
			if err != nil {
				ui.Warning("Something went wrong: %v", err)
			}
			// leave the plant in a safe state
			obj.pumpEngine.StopAll(time.Now())
		})
	}
	{
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

		g.Add(func() error {
			<-sig
			ui.Info("Received SIGTERM signal, exiting...")
			return nil
		}, func(err error) {
			defer close(sig)
			cancel()
		})
	}

	if err := g.Run(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	} else {
		ui.Info("Done.")
		os.Exit(0)
	}
}

func InitializeObjects() *objects {
	config := configuration.CurrentConfig

	condSensor := mustSensor(config.Sensors.Conductivity)
	tempSensor := mustSensor(config.Sensors.Temperature)
	flowSensor := mustSensor(config.Sensors.Flow)
	monitor := sensors.NewMonitor(condSensor, tempSensor, flowSensor, config)

	valve, err := hal.NewValve(config.Valve)
	if err != nil {
		ui.Fatal("Unable to process valve configuration: %v", err)
	}
	blowdownController := blowdown.NewController(valve, config.Blowdown, config.Sampling, HandTimeout)

	var meterList []*meters.Meter
	for _, meterConfig := range config.Meters {
		counter, err := hal.NewPulseCounter(meterConfig.ID, meterConfig.Counter)
		if err != nil {
			ui.Fatal("Unable to process meter configuration: %s (%v)", meterConfig.ID, err)
		}
		meterList = append(meterList, meters.NewMeter(meterConfig, counter))
	}

	var fuzzyEngine *fuzzy.Engine
	if config.Fuzzy.Enabled {
		fuzzyEngine, err = fuzzy.NewEngine(config.Fuzzy)
		if err != nil {
			ui.Fatal("Unable to build fuzzy rule base: %v", err)
		}
	}

	var pumpList []*pumps.Pump
	for _, pumpConfig := range config.Pumps {
		drive, err := hal.NewPumpDrive(pumpConfig.ID, pumpConfig.Drive)
		if err != nil {
			ui.Fatal("Unable to process pump configuration: %s (%v)", pumpConfig.ID, err)
		}
		pumpList = append(pumpList, pumps.NewPump(pumpConfig, drive, HandTimeout))
	}
	pumpEngine := pumps.NewEngine(pumpList)

	alarmPoller := alarms.NewPoller(config.Alarms, config.Blowdown.Setpoint)

	if config.Statistics.Enabled {
		statistics.Register(statistics.NewBlowdownCollector(blowdownController))
		statistics.Register(statistics.NewPumpCollector(pumpEngine))
		statistics.Register(statistics.NewMeterCollector(meterList))
		statistics.Register(statistics.NewAlarmCollector(alarmPoller))
		if fuzzyEngine != nil {
			statistics.Register(statistics.NewFuzzyCollector(fuzzyEngine))
		}
	}

	return &objects{
		monitor:            monitor,
		blowdownController: blowdownController,
		fuzzyEngine:        fuzzyEngine,
		pumpEngine:         pumpEngine,
		meterList:          meterList,
		alarmPoller:        alarmPoller,
	}
}

func mustSensor(config configuration.SensorConfig) sensors.Sensor {
	sensor, err := sensors.NewSensor(config)
	if err != nil {
		ui.Fatal("Unable to process sensor configuration: %s (%v)", config.ID, err)
	}

	currentValue, err := sensor.GetValue()
	if err != nil {
		ui.Warning("Error reading sensor %s: %v", config.ID, err)
	}
	sensor.SetMovingAvg(currentValue)

	sensors.SensorMap.Set(config.ID, sensor)
	return sensor
}
