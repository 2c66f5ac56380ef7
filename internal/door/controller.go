// Package door implements the door controller (spec §3, §4.2): opening the
// door starts a hold-open timer that the door stays open for
// (constants.DefaultDoorHoldOpen), obstruction continuously resets that
// timer, and expiry without obstruction emits a close event. Grounded on
// original_source/src/single_elevator_controller/door_control.rs, whose two
// threads (a close_counter poll loop and an open/obstruction multiplexer)
// are carried over as two goroutines communicating through channels instead
// of crossbeam_channel + Arc<Mutex<bool>>.
package door

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/harmelin-systems/elevator-core/internal/constants"
)

// Controller drives a single cabin door: Open starts the hold-open timer,
// Obstruction reports whether something is blocking the door, and Closed
// delivers one event each time the timer expires without an active
// obstruction.
type Controller struct {
	holdOpen   time.Duration
	pollPeriod time.Duration
	logger     *slog.Logger

	ctx           context.Context
	openCh        chan struct{}
	obstructionCh chan bool
	closedCh      chan struct{}

	mu           sync.RWMutex
	isOpen       bool
	isObstructed bool
}

// Option configures a Controller at construction time.
type Option func(*Controller)

// WithHoldOpen overrides the default hold-open duration.
func WithHoldOpen(d time.Duration) Option {
	return func(c *Controller) { c.holdOpen = d }
}

// WithPollPeriod overrides the default timer poll period.
func WithPollPeriod(d time.Duration) Option {
	return func(c *Controller) { c.pollPeriod = d }
}

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// New constructs a Controller and starts its background goroutines. The
// returned channel delivers a close event each time the hold-open timer
// expires; ctx cancellation stops both goroutines.
func New(ctx context.Context, opts ...Option) (*Controller, <-chan struct{}) {
	c := &Controller{
		ctx:           ctx,
		holdOpen:      constants.DefaultDoorHoldOpen,
		pollPeriod:    constants.DefaultPollPeriod,
		logger:        slog.Default(),
		openCh:        make(chan struct{}),
		obstructionCh: make(chan bool),
		closedCh:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	go c.runCloseTimer(ctx)
	go c.runStateMultiplexer(ctx)

	return c, c.closedCh
}

// Open signals that the door has just opened, (re)arming the hold-open
// timer. It is a no-op once the controller's context has been cancelled.
func (c *Controller) Open() {
	select {
	case c.openCh <- struct{}{}:
	case <-c.ctx.Done():
	}
}

// Obstruction reports the current obstruction sensor reading. While
// obstructed is true the hold-open timer is held at zero elapsed time. It
// is a no-op once the controller's context has been cancelled.
func (c *Controller) Obstruction(obstructed bool) {
	select {
	case c.obstructionCh <- obstructed:
	case <-c.ctx.Done():
	}
}

// runStateMultiplexer is the single owner of isOpen/isObstructed,
// serialising updates from Open and Obstruction the way the original's
// second thread serialises its two crossbeam receivers.
func (c *Controller) runStateMultiplexer(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.openCh:
			c.setOpen(true)
		case obstructed := <-c.obstructionCh:
			c.setObstructed(obstructed)
		}
	}
}

func (c *Controller) setOpen(v bool) {
	c.mu.Lock()
	c.isOpen = v
	c.mu.Unlock()
}

func (c *Controller) setObstructed(v bool) {
	c.mu.Lock()
	c.isObstructed = v
	c.mu.Unlock()
}

func (c *Controller) open() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isOpen
}

func (c *Controller) obstructed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isObstructed
}

// runCloseTimer polls isOpen; once open, it resets its elapsed timer every
// tick the door is obstructed and closes the door — clearing isOpen and
// emitting a close event — once holdOpen has elapsed without obstruction.
func (c *Controller) runCloseTimer(ctx context.Context) {
	ticker := time.NewTicker(c.pollPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !c.open() {
				continue
			}
			c.waitForClose(ctx, ticker)
		}
	}
}

func (c *Controller) waitForClose(ctx context.Context, ticker *time.Ticker) {
	begin := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.obstructed() {
				begin = time.Now()
				continue
			}
			if time.Since(begin) > c.holdOpen {
				c.setOpen(false)
				c.logger.Debug("door hold-open expired, closing", "component", constants.ComponentDoor)
				select {
				case c.closedCh <- struct{}{}:
				case <-ctx.Done():
				}
				return
			}
		}
	}
}
