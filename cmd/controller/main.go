// Command controller is the single-cabin control-core's entrypoint (spec
// §3): it wires configuration, the driver connection, the scheduler, the
// door controller, the event loop, and the status side-car together, then
// runs until a shutdown signal arrives. Grounded on cmd/server/main.go's
// config-then-logging-then-servers bootstrap order and its
// signal.Notify/graceful-shutdown shape, trimmed from a multi-elevator
// HTTP manager down to the single cabin this system drives.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harmelin-systems/elevator-core/internal/domain"
	"github.com/harmelin-systems/elevator-core/internal/door"
	"github.com/harmelin-systems/elevator-core/internal/driverio"
	"github.com/harmelin-systems/elevator-core/internal/eventloop"
	"github.com/harmelin-systems/elevator-core/internal/infra/config"
	"github.com/harmelin-systems/elevator-core/internal/infra/logging"
	"github.com/harmelin-systems/elevator-core/internal/infra/metrics"
	"github.com/harmelin-systems/elevator-core/internal/infra/statusapi"
	"github.com/harmelin-systems/elevator-core/internal/scheduler"
)

func main() {
	cfg, err := config.InitConfig()
	if err != nil {
		slog.Error("failed to initialize configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logging.InitLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	slog.InfoContext(ctx, "control core starting up",
		slog.String("environment", cfg.Environment),
		slog.String("driver_address", cfg.DriverAddress),
		slog.Int("num_floors", cfg.NumFloors),
		slog.Bool("metrics_enabled", cfg.MetricsEnabled),
		slog.Bool("status_ws_enabled", cfg.StatusWSEnabled))

	driverClient, err := driverio.Dial(cfg.DriverAddress, cfg.NumFloors, slog.Default())
	if err != nil {
		slog.ErrorContext(ctx, "failed to dial driver", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer driverClient.Close()

	doorCtrl, closed := door.New(ctx,
		door.WithHoldOpen(cfg.DoorHoldOpen),
		door.WithPollPeriod(cfg.PollPeriod),
		door.WithLogger(slog.Default()))

	var recorder scheduler.Recorder
	if cfg.MetricsEnabled {
		recorder = metrics.New()
	}

	sched := buildScheduler(cfg, driverClient, doorCtrl, recorder)

	stop := make(chan struct{})
	defer close(stop)
	pollers := driverClient.StartPollers(stop, cfg.PollPeriod)

	loop := eventloop.New(sched, eventloop.Sensors{
		CallButtons: pollers.CallButtons,
		FloorSensor: pollers.FloorSensor,
		StopButton:  pollers.StopButton,
		Obstruction: pollers.Obstruction,
		Closed:      closed,
	}, slog.Default())

	go loop.Run(ctx)

	var statusSrv *statusapi.Server
	statusErrCh := make(chan error, 1)
	statusAddr := fmt.Sprintf(":%d", cfg.StatusPort)
	statusSrv = statusapi.New(statusAddr, sched, slog.Default(),
		statusapi.WithMetrics(cfg.MetricsEnabled),
		statusapi.WithWebSocket(cfg.StatusWSEnabled))
	go func() {
		if err := statusSrv.ListenAndServe(); err != nil {
			statusErrCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.InfoContext(ctx, "received shutdown signal", slog.String("signal", sig.String()))
	case err := <-statusErrCh:
		slog.ErrorContext(ctx, "status side-car failed", slog.String("error", err.Error()))
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := statusSrv.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(ctx, "status side-car shutdown failed", slog.String("error", err.Error()))
	}

	slog.InfoContext(ctx, "control core stopped")
}

// buildScheduler constructs a calibrated or uncalibrated Scheduler
// depending on whether the driver reports a resting floor at startup.
func buildScheduler(cfg *config.Config, driverClient *driverio.Client, doorCtrl *door.Controller, recorder scheduler.Recorder) *scheduler.Scheduler {
	opts := []scheduler.Option{
		scheduler.WithLogger(slog.Default()),
		scheduler.WithQueueCapacity(cfg.QueueCapacity),
	}
	if recorder != nil {
		opts = append(opts, scheduler.WithRecorder(recorder))
	}

	if floor, ok := driverClient.FloorSensor(); ok {
		return scheduler.New(floor, cfg.NumFloors, doorCtrl, driverClient, opts...)
	}

	// Unknown resting position: drive down until the first floor sensor
	// reading calibrates the cabin (spec §4.5/§6).
	driverClient.SetMotorDirection(domain.DirectionDown)
	return scheduler.NewUncalibrated(cfg.NumFloors, doorCtrl, driverClient, opts...)
}
