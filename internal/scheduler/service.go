// Package scheduler implements the current-service scheduler (spec §3,
// §4.4): the hard core that decides which request the cabin is actively
// serving, which additional requests can be picked up along the way
// without reversing direction, and when a floor warrants a stop. Grounded
// directly on
// original_source/src/single_elevator_controller/elevator_state.rs — the
// CurrentService admission predicate (is_serviceable), the piggyback set
// (serviceable_request), and the door/queue orchestration in
// handle_floor_sensor/update_elevator are carried over unchanged in
// meaning; cabin.State replaces the original's inline State field and
// queue.Queue replaces its linked-list Queue.
package scheduler

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/harmelin-systems/elevator-core/internal/cabin"
	"github.com/harmelin-systems/elevator-core/internal/constants"
	"github.com/harmelin-systems/elevator-core/internal/domain"
	"github.com/harmelin-systems/elevator-core/internal/door"
	"github.com/harmelin-systems/elevator-core/internal/queue"
)

// ProtocolViolation is the panic value raised when an event arrives in a
// state the event controller's own wiring should make impossible (spec
// §7: "Protocol violation"). It is never returned as an ordinary error —
// a violated invariant must fail loudly rather than be silently
// repaired, so callers always encounter it via recover.
type ProtocolViolation struct {
	Event  string
	Detail string
}

func (p *ProtocolViolation) Error() string {
	return fmt.Sprintf("protocol violation: %s: %s", p.Event, p.Detail)
}

// CabinDriver is the hardware-facing boundary the scheduler drives: motor
// direction and the two kinds of panel lights. Implemented by
// internal/driverio.Client.
type CabinDriver interface {
	SetMotorDirection(domain.Direction)
	SetCallButtonLight(floor domain.Floor, light domain.LightID, on bool)
	SetDoorLight(on bool)
}

// Recorder receives scheduling signal for observability (spec §4.9, C10).
// Implemented by internal/infra/metrics.Collectors; a Scheduler with no
// Recorder configured simply skips these calls.
type Recorder interface {
	DoorCycleCompleted()
	StopMade()
	PiggybackAdmitted()
	SetQueueDepth(n int)
	SetCurrentFloor(f int)
}

type noopRecorder struct{}

func (noopRecorder) DoorCycleCompleted() {}
func (noopRecorder) StopMade()           {}
func (noopRecorder) PiggybackAdmitted()  {}
func (noopRecorder) SetQueueDepth(int)   {}
func (noopRecorder) SetCurrentFloor(int) {}

// currentService mirrors the original's CurrentService: a primary request
// actively being serviced, the cabin's motion state, and the piggyback set
// of requests admitted along the way to primary without reversing
// direction.
type currentService struct {
	primary   *domain.Request
	state     cabin.State
	piggyback []domain.Request
}

func newCurrentService(state cabin.State) currentService {
	return currentService{state: state}
}

func (s *currentService) isInit() bool { return s.primary != nil }

func (s *currentService) reset() { s.primary = nil }

func (s *currentService) setPrimary(r domain.Request) {
	req := r
	s.primary = &req
}

func (s *currentService) isCurrentRequest(r domain.Request) bool {
	return s.primary != nil && s.primary.Equal(r)
}

func (s *currentService) alreadyServiceable(r domain.Request) bool {
	for _, existing := range s.piggyback {
		if existing.Equal(r) {
			return true
		}
	}
	return false
}

func (s *currentService) isFinalFloor(floor domain.Floor) bool {
	return s.primary != nil && s.primary.Target().IsEqual(floor)
}

// isServiceable reports whether newRequest can be picked up without
// reversing the cabin's travel towards the primary request: it must lie
// strictly between the cabin's current floor and the primary's target, in
// the direction of travel, and (for hall requests) request that same
// direction.
func (s *currentService) isServiceable(newRequest domain.Request) bool {
	current := *s.primary

	if s.isFinalFloor(newRequest.Target()) {
		return false
	}

	currentDirection := s.state.DirectionTo(current.Target())
	currentFloor := s.state.CurrentFloor()

	if dir, isHall := newRequest.HallDirection(); isHall && dir != currentDirection {
		return false
	}

	switch currentDirection {
	case domain.DirectionUp:
		return currentFloor.IsBelow(newRequest.Target()) && newRequest.Target().IsBelow(current.Target())
	case domain.DirectionDown:
		return currentFloor.IsAbove(newRequest.Target()) && newRequest.Target().IsAbove(current.Target())
	default:
		return false
	}
}

func (s *currentService) addToServiceable(r domain.Request) {
	s.piggyback = append(s.piggyback, r)
}

// updateServiceable re-derives the piggyback set after a new primary
// request is chosen: every queued request that is now admissible is
// pulled out of q and added to the piggyback set.
func (s *currentService) updateServiceable(q *queue.Queue) {
	s.piggyback = s.piggyback[:0]

	newlyServiceable := q.Retain(func(r domain.Request) bool {
		return !s.isCurrentRequest(r) && !s.alreadyServiceable(r) && !s.isServiceable(r)
	})

	for _, r := range newlyServiceable {
		if !s.alreadyServiceable(r) && !s.isCurrentRequest(r) {
			s.addToServiceable(r)
		}
	}
}

// doesStop reports whether the cabin should stop at floor: either floor is
// the primary's target, or some piggyback request is satisfied there.
func (s *currentService) doesStop(floor domain.Floor) bool {
	if s.isFinalFloor(floor) {
		return true
	}

	hallReq := domain.NewHallRequest(floor, domain.Towards(floor, s.primary.Target()))
	cabReq := domain.NewCabRequest(floor)

	for _, other := range s.piggyback {
		if other.Equal(cabReq) || other.Equal(hallReq) {
			return true
		}
	}
	return false
}

// removeServiced extracts and returns every piggyback request satisfied by
// stopping at floor.
func (s *currentService) removeServiced(floor domain.Floor) []domain.Request {
	hallReq := domain.NewHallRequest(floor, domain.Towards(floor, s.primary.Target()))
	cabReq := domain.NewCabRequest(floor)

	var serviced []domain.Request
	remaining := s.piggyback[:0]
	for _, other := range s.piggyback {
		if other.Equal(cabReq) || other.Equal(hallReq) {
			serviced = append(serviced, other)
		} else {
			remaining = append(remaining, other)
		}
	}
	s.piggyback = remaining
	return serviced
}

// Scheduler is the control-core: it owns the request queue, the current
// service, and the door controller, and drives the cabin driver in
// response to the five event sources the event controller delivers
// (spec §4.5).
type Scheduler struct {
	mu sync.Mutex

	numFloors int
	queue     *queue.Queue
	door      *door.Controller
	driver    CabinDriver
	service   currentService
	logger    *slog.Logger
	recorder  Recorder
}

// Option configures a Scheduler at construction time.
type Option func(*Scheduler)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// WithQueueCapacity overrides the default queue capacity.
func WithQueueCapacity(n int) Option {
	return func(s *Scheduler) { s.queue = queue.New(n) }
}

// WithRecorder attaches a metrics/tracing recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Scheduler) { s.recorder = r }
}

// New constructs a calibrated Scheduler: the cabin is known to be at
// currentFloor with its door closed, and a cab request for that floor is
// booked immediately — the event loop's first update will open the door
// there and clear it.
func New(currentFloor domain.Floor, numFloors int, d *door.Controller, driver CabinDriver, opts ...Option) *Scheduler {
	s := &Scheduler{
		numFloors: numFloors,
		queue:     queue.New(constants.DefaultQueueCapacity),
		door:      d,
		driver:    driver,
		service:   newCurrentService(cabin.DoorClosed(currentFloor)),
		logger:    slog.Default(),
		recorder:  noopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.addCall(domain.NewCabRequest(currentFloor))

	return s
}

// NewUncalibrated constructs a Scheduler for a cabin whose position is
// unknown at startup: its state is Between(sentinel, 0) so the first
// floor-sensor reading is always accepted as the cabin's true position.
func NewUncalibrated(numFloors int, d *door.Controller, driver CabinDriver, opts ...Option) *Scheduler {
	s := New(0, numFloors, d, driver, opts...)
	s.service.state = cabin.Between(domain.UncalibratedSentinel, 0)
	return s
}

// Snapshot returns the cabin's current status for reporting (spec C9).
func (s *Scheduler) Snapshot() domain.CabinStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	doorOpen := s.service.state.Phase == cabin.PhaseDoorOpen
	var primary *domain.Request
	if s.service.primary != nil {
		req := *s.service.primary
		primary = &req
	}

	return domain.NewCabinStatus(
		s.service.state.CurrentFloor(),
		s.service.state.Direction(),
		doorOpen,
		s.queue.Size(),
		primary,
		len(s.service.piggyback),
	)
}

// HandleObstruction forwards an obstruction sensor reading to the door
// controller.
func (s *Scheduler) HandleObstruction(isObstructed bool) {
	s.door.Obstruction(isObstructed)
}

// HandleStopButton clears every call-button light on every floor when the
// stop button is pressed (spec §4.4).
func (s *Scheduler) HandleStopButton(isPressed bool) {
	if !isPressed {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, light := range []domain.LightID{domain.LightCab, domain.LightHallUp, domain.LightHallDown} {
		for floor := 0; floor < s.numFloors; floor++ {
			s.driver.SetCallButtonLight(domain.Floor(floor), light, false)
		}
	}
}

// HandleCloseDoor transitions the cabin from DoorOpen to DoorClosed and
// resumes scheduling. It is only valid while the cabin's state is
// DoorOpen — the event loop only delivers this event after the door
// controller's hold-open timer expires, which only happens while open.
// Receiving it in any other phase is a protocol violation (spec §7): it
// panics rather than silently absorbing an impossible state.
func (s *Scheduler) HandleCloseDoor() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.service.state.Phase != cabin.PhaseDoorOpen {
		panic(&ProtocolViolation{
			Event:  "door_closed",
			Detail: fmt.Sprintf("received while door phase was %s", s.service.state.Phase),
		})
	}

	floor := s.service.state.Floor
	s.driver.SetDoorLight(false)
	s.service.state = cabin.DoorClosed(floor)
	s.recorder.DoorCycleCompleted()
	s.updateElevator()
}

// HandleCallButton books req and, if it becomes schedulable immediately,
// lights its button and re-evaluates the elevator's next move.
func (s *Scheduler) HandleCallButton(req domain.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.addCall(req) {
		s.driver.SetCallButtonLight(req.Target(), req.LightID(), true)
		s.updateElevator()
	}
}

// HandleFloorSensor processes a floor-sensor reading: it stops the cabin
// and opens the door if the current service calls for a stop here,
// otherwise it just records the cabin's position as still in motion
// towards the primary request's target.
func (s *Scheduler) HandleFloorSensor(currentFloor domain.Floor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recorder.SetCurrentFloor(currentFloor.Value())

	if !s.service.doesStop(currentFloor) {
		s.service.state = cabin.Between(currentFloor, s.service.primary.Target())
		return
	}

	s.recorder.StopMade()
	s.driver.SetMotorDirection(domain.DirectionStop)
	s.openDoor(currentFloor)

	if s.service.isFinalFloor(currentFloor) {
		cleared := s.service.primary.LightID()
		s.service.reset()
		s.driver.SetCallButtonLight(currentFloor, cleared, false)

		if next, ok := s.queue.Peek(); ok {
			s.driver.SetCallButtonLight(currentFloor, next.LightID(), false)
		}
		return
	}

	for _, serviced := range s.service.removeServiced(currentFloor) {
		s.driver.SetCallButtonLight(currentFloor, serviced.LightID(), false)
	}
}

func (s *Scheduler) openDoor(currentFloor domain.Floor) {
	s.service.state = cabin.DoorOpen(currentFloor)
	s.door.Open()
	s.driver.SetDoorLight(true)
}

// addCall admits request into scheduling: it becomes the primary if none
// is active and the queue is empty, joins the piggyback set if the current
// primary can absorb it along the way, or else is pushed onto the queue.
// It returns whether request resulted in a new button light to set.
func (s *Scheduler) addCall(request domain.Request) bool {
	if !s.service.isInit() {
		if s.queue.IsEmpty() {
			s.service.setPrimary(request)
			return true
		}
	} else {
		if s.service.alreadyServiceable(request) || s.service.isCurrentRequest(request) {
			return false
		}
		if s.service.isServiceable(request) {
			s.service.addToServiceable(request)
			s.recorder.PiggybackAdmitted()
			return true
		}
	}
	admitted := s.queue.PushUnique(request)
	s.recorder.SetQueueDepth(s.queue.Size())
	return admitted
}

// updateElevator resumes scheduling once the cabin is stopped with its
// door closed: if a primary request is active it either opens the door
// (already at its target) or starts the cabin moving towards it;
// otherwise it pulls the next request off the queue and recurses.
func (s *Scheduler) updateElevator() {
	if s.service.state.Phase != cabin.PhaseDoorClosed {
		return
	}
	currentFloor := s.service.state.Floor

	if s.service.isInit() {
		target := s.service.primary.Target()
		if target.IsEqual(currentFloor) {
			cleared := s.service.primary.LightID()
			s.service.reset()
			s.openDoor(currentFloor)
			s.driver.SetCallButtonLight(currentFloor, cleared, false)
			return
		}

		s.logger.Debug("departing towards target",
			"component", constants.ComponentScheduler,
			"from", currentFloor.Value(),
			"to", target.Value(),
			"floors", currentFloor.Distance(target))
		s.service.state = cabin.Between(currentFloor, target)
		s.driver.SetMotorDirection(s.service.state.Direction())
		return
	}

	if !s.queue.IsEmpty() {
		next, _ := s.queue.Pop()
		s.service.setPrimary(next)
		s.service.updateServiceable(s.queue)
		for range s.service.piggyback {
			s.recorder.PiggybackAdmitted()
		}
		s.recorder.SetQueueDepth(s.queue.Size())
		s.updateElevator()
	}
}
