// Package driverio is the thin client boundary to the hardware driver
// (spec §4.6, C7): it owns a TCP connection, encodes/decodes the driver's
// binary frame protocol, and runs the four 25ms sensor-poller goroutines
// that feed the event controller. Grounded on
// original_source/src/main.rs's raw TCP scratch client for the connection
// handling, and in spirit on the `elevio::poll::*`/`Elevator` boundary
// referenced from
// original_source/src/single_elevator_controller/event_controller.rs — the
// driver process itself, and its wire protocol beyond this client's own
// framing, are an external collaborator out of scope here.
package driverio

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/harmelin-systems/elevator-core/internal/constants"
	"github.com/harmelin-systems/elevator-core/internal/domain"
)

// Default circuit breaker tuning: five consecutive frame failures trips
// it, a five-second cooldown before probing again, two successful trial
// frames to fully close it.
const (
	breakerMaxFailures   = 5
	breakerResetTimeout  = 5 * time.Second
	breakerHalfOpenTrial = 2
)

// command identifies a frame's payload layout, mirroring the driver
// protocol's request/response opcodes.
type command byte

const (
	cmdMotorDirection  command = 1
	cmdDoorLight       command = 2
	cmdCallButtonLight command = 3
	cmdFloorSensor     command = 4
	cmdCallButtons     command = 5
	cmdStopButton      command = 6
	cmdObstruction     command = 7
)

// Client dials a hardware driver over TCP and exposes the synchronous
// writes and poll reads the scheduler and event loop need.
type Client struct {
	conn      net.Conn
	reader    *bufio.Reader
	wmu       sync.Mutex
	logger    *slog.Logger
	breaker   *CircuitBreaker
	numFloors int
}

// Dial connects to the driver at addr. Connection failure is reported as
// an external DomainError (spec §7 "Driver init failure").
func Dial(addr string, numFloors int, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, domain.NewExternalError(
			fmt.Sprintf("driver dial failed: %s", addr),
			err,
		).WithContext("component", constants.ComponentDriver)
	}
	return &Client{
		conn:      conn,
		reader:    bufio.NewReader(conn),
		logger:    logger,
		breaker:   NewCircuitBreaker(breakerMaxFailures, breakerResetTimeout, breakerHalfOpenTrial),
		numFloors: numFloors,
	}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// writeFrame sends a 1-byte command followed by a length-prefixed payload:
// a single big-endian uint16 length header followed by that many payload
// bytes. Writes are serialised — the driver connection is shared by every
// caller of the synchronous setters.
func (c *Client) writeFrame(cmd command, payload []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	return c.breaker.Execute(context.Background(), func() error {
		header := make([]byte, 3)
		header[0] = byte(cmd)
		binary.BigEndian.PutUint16(header[1:], uint16(len(payload)))

		if _, err := c.conn.Write(header); err != nil {
			return err
		}
		if len(payload) == 0 {
			return nil
		}
		_, err := c.conn.Write(payload)
		return err
	})
}

// readFrame blocks until a full frame is available on the connection.
func (c *Client) readFrame() (command, []byte, error) {
	var cmd command
	var payload []byte

	err := c.breaker.Execute(context.Background(), func() error {
		header := make([]byte, 3)
		if _, err := io.ReadFull(c.reader, header); err != nil {
			return err
		}
		cmd = command(header[0])
		length := binary.BigEndian.Uint16(header[1:])
		payload = make([]byte, length)
		if length > 0 {
			if _, err := io.ReadFull(c.reader, payload); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return cmd, payload, nil
}

// MotorDirection commands the cabin's motor.
func (c *Client) MotorDirection(d domain.Direction) {
	var b byte
	switch d {
	case domain.DirectionUp:
		b = 1
	case domain.DirectionDown:
		b = 2
	default:
		b = 0
	}
	if err := c.writeFrame(cmdMotorDirection, []byte{b}); err != nil {
		c.logger.Error("motor direction write failed", "component", constants.ComponentDriver, "error", err)
	}
}

// CallButtonLight sets a single call-button light on or off.
func (c *Client) CallButtonLight(floor domain.Floor, light domain.LightID, on bool) {
	payload := []byte{byte(floor.Value()), byte(light), boolByte(on)}
	if err := c.writeFrame(cmdCallButtonLight, payload); err != nil {
		c.logger.Error("call button light write failed", "component", constants.ComponentDriver, "error", err)
	}
}

// SetCallButtonLight implements scheduler.CabinDriver with argument order
// matching that interface.
func (c *Client) SetCallButtonLight(floor domain.Floor, light domain.LightID, on bool) {
	c.CallButtonLight(floor, light, on)
}

// SetMotorDirection implements scheduler.CabinDriver.
func (c *Client) SetMotorDirection(d domain.Direction) { c.MotorDirection(d) }

// SetDoorLight implements scheduler.CabinDriver.
func (c *Client) SetDoorLight(on bool) { c.DoorLight(on) }

// DoorLight sets the cabin door light on or off.
func (c *Client) DoorLight(on bool) {
	if err := c.writeFrame(cmdDoorLight, []byte{boolByte(on)}); err != nil {
		c.logger.Error("door light write failed", "component", constants.ComponentDriver, "error", err)
	}
}

// FloorSensor requests a single floor-sensor reading. The second return
// value is false when the cabin is between floors (uncalibrated).
func (c *Client) FloorSensor() (domain.Floor, bool) {
	if err := c.writeFrame(cmdFloorSensor, nil); err != nil {
		c.logger.Error("floor sensor request failed", "component", constants.ComponentDriver, "error", err)
		return 0, false
	}
	_, payload, err := c.readFrame()
	if err != nil || len(payload) < 2 {
		return 0, false
	}
	if payload[0] == 0 {
		return 0, false
	}
	return domain.NewFloor(int(payload[1])), true
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// Pollers bundles the channels fed by the four sensor-poller goroutines.
type Pollers struct {
	CallButtons chan domain.Request
	FloorSensor chan domain.Floor
	StopButton  chan bool
	Obstruction chan bool
}

// StartPollers launches the four 25ms poller goroutines and returns the
// channels they publish onto; pollers exit when stop is closed.
func (c *Client) StartPollers(stop <-chan struct{}, period time.Duration) Pollers {
	if period <= 0 {
		period = constants.DefaultPollPeriod
	}
	p := Pollers{
		CallButtons: make(chan domain.Request),
		FloorSensor: make(chan domain.Floor),
		StopButton:  make(chan bool),
		Obstruction: make(chan bool),
	}

	go c.pollCallButtons(stop, period, p.CallButtons)
	go c.pollFloorSensor(stop, period, p.FloorSensor)
	go c.pollStopButton(stop, period, p.StopButton)
	go c.pollObstruction(stop, period, p.Obstruction)

	return p
}

func (c *Client) pollCallButtons(stop <-chan struct{}, period time.Duration, out chan<- domain.Request) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	var seen []domain.Request

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := c.writeFrame(cmdCallButtons, nil); err != nil {
				continue
			}
			_, payload, err := c.readFrame()
			if err != nil {
				continue
			}
			for _, req := range c.decodeCallButtons(payload) {
				if !containsRequest(seen, req) {
					seen = append(seen, req)
					select {
					case out <- req:
					case <-stop:
						return
					}
				}
			}
		}
	}
}

// decodeCallButtons parses the driver's call-button frame payload,
// rejecting any floor byte outside the configured building range: unlike
// FloorSensor/pollBoolSignal readings, this payload reflects whatever a
// remote hardware driver sent, so it gets the same validated construction
// as any other untrusted input.
func (c *Client) decodeCallButtons(payload []byte) []domain.Request {
	var reqs []domain.Request
	for i := 0; i+1 < len(payload); i += 2 {
		floor, err := domain.NewFloorWithValidation(int(payload[i]), 0, c.numFloors-1)
		if err != nil {
			c.logger.Warn("dropping call button with out-of-range floor",
				"component", constants.ComponentDriver, "error", err)
			continue
		}
		switch payload[i+1] {
		case 0:
			reqs = append(reqs, domain.NewCabRequest(floor))
		case 1:
			reqs = append(reqs, domain.NewHallRequest(floor, domain.DirectionUp))
		case 2:
			reqs = append(reqs, domain.NewHallRequest(floor, domain.DirectionDown))
		}
	}
	return reqs
}

func containsRequest(reqs []domain.Request, r domain.Request) bool {
	for _, existing := range reqs {
		if existing.Equal(r) {
			return true
		}
	}
	return false
}

func (c *Client) pollFloorSensor(stop <-chan struct{}, period time.Duration, out chan<- domain.Floor) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	var last domain.Floor = domain.UncalibratedSentinel

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			floor, ok := c.FloorSensor()
			if !ok || floor == last {
				continue
			}
			last = floor
			select {
			case out <- floor:
			case <-stop:
				return
			}
		}
	}
}

func (c *Client) pollStopButton(stop <-chan struct{}, period time.Duration, out chan<- bool) {
	c.pollBoolSignal(stop, period, cmdStopButton, out)
}

func (c *Client) pollObstruction(stop <-chan struct{}, period time.Duration, out chan<- bool) {
	c.pollBoolSignal(stop, period, cmdObstruction, out)
}

func (c *Client) pollBoolSignal(stop <-chan struct{}, period time.Duration, cmd command, out chan<- bool) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := c.writeFrame(cmd, nil); err != nil {
				continue
			}
			_, payload, err := c.readFrame()
			if err != nil || len(payload) == 0 {
				continue
			}
			select {
			case out <- payload[0] != 0:
			case <-stop:
				return
			}
		}
	}
}
