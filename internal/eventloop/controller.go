// Package eventloop implements the event controller (spec §3, §4.5): it
// owns the scheduler and the sensor channels feeding it, and serialises every external event — call buttons, floor sensor, stop
// button, obstruction sensor, door-close timer — through a single select
// loop so the scheduler is only ever touched by one goroutine. Grounded on
// original_source/src/single_elevator_controller/event_controller.rs,
// whose ElevatorController/EventChannel pair is carried over as a single
// Controller selecting over Go channels instead of crossbeam_channel
// receivers.
package eventloop

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/harmelin-systems/elevator-core/internal/constants"
	"github.com/harmelin-systems/elevator-core/internal/domain"
	"github.com/harmelin-systems/elevator-core/internal/infra/telemetry"
	"github.com/harmelin-systems/elevator-core/internal/scheduler"
)

// Sensors is the set of channels the event loop selects over. It is built
// from a driverio.Client's pollers, with Closed coming from the door
// controller.
type Sensors struct {
	CallButtons <-chan domain.Request
	FloorSensor <-chan domain.Floor
	StopButton  <-chan bool
	Obstruction <-chan bool
	Closed      <-chan struct{}
}

// Controller is the single-goroutine owner of a Scheduler: Run selects
// over every sensor channel until ctx is cancelled.
type Controller struct {
	scheduler *scheduler.Scheduler
	sensors   Sensors
	logger    *slog.Logger
	tracer    *telemetry.Tracer
}

// New builds a Controller over an already-constructed Scheduler and its
// sensor channels.
func New(s *scheduler.Scheduler, sensors Sensors, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{scheduler: s, sensors: sensors, logger: logger, tracer: telemetry.New()}
}

// Run blocks, dispatching sensor events to the scheduler, until ctx is
// cancelled or any sensor channel closes; a closed channel is logged at
// error level before Run returns.
func (c *Controller) Run(ctx context.Context) {
	c.logger.Info("event loop started", "component", constants.ComponentEventLoop)
	defer c.logger.Info("event loop stopped", "component", constants.ComponentEventLoop)

	for {
		select {
		case <-ctx.Done():
			return

		case call, ok := <-c.sensors.CallButtons:
			if !ok {
				c.logger.Error("sensor channel closed", "component", constants.ComponentEventLoop, "channel", "call_button")
				return
			}
			c.dispatch(ctx, "call_button", call.Floor.Value(), func() { c.scheduler.HandleCallButton(call) })

		case floor, ok := <-c.sensors.FloorSensor:
			if !ok {
				c.logger.Error("sensor channel closed", "component", constants.ComponentEventLoop, "channel", "floor_sensor")
				return
			}
			c.dispatch(ctx, "floor_sensor", floor.Value(), func() { c.scheduler.HandleFloorSensor(floor) })

		case pressed, ok := <-c.sensors.StopButton:
			if !ok {
				c.logger.Error("sensor channel closed", "component", constants.ComponentEventLoop, "channel", "stop_button")
				return
			}
			c.dispatch(ctx, "stop_button", -1, func() { c.scheduler.HandleStopButton(pressed) })

		case obstructed, ok := <-c.sensors.Obstruction:
			if !ok {
				c.logger.Error("sensor channel closed", "component", constants.ComponentEventLoop, "channel", "obstruction")
				return
			}
			c.dispatch(ctx, "obstruction", -1, func() { c.scheduler.HandleObstruction(obstructed) })

		case _, ok := <-c.sensors.Closed:
			if !ok {
				c.logger.Error("sensor channel closed", "component", constants.ComponentEventLoop, "channel", "door_closed")
				return
			}
			c.dispatch(ctx, "door_closed", -1, func() { c.scheduler.HandleCloseDoor() })
		}
	}
}

// dispatch spans and runs fn, recovering only to log a protocol
// violation at error level with full context before re-panicking (spec
// §7): a panic here is never silently absorbed, it crashes the event
// loop goroutine exactly as a fail-loud invariant violation must.
func (c *Controller) dispatch(ctx context.Context, event string, floor int, fn func()) {
	_, span := c.tracer.StartEvent(ctx, event, floor)
	defer span.End()
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("protocol violation",
				"component", constants.ComponentEventLoop,
				"event", event,
				"panic", fmt.Sprintf("%v", r))
			panic(r)
		}
	}()
	fn()
}
