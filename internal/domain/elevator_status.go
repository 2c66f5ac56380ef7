package domain

// CabinStatus is a read-only snapshot of the cabin's current state, copied
// out by Scheduler.Snapshot on each call for observers (the status
// side-car) that must never touch the live scheduler/queue/cabin state
// directly (spec §5).
type CabinStatus struct {
	CurrentFloor Floor     `json:"current_floor"`
	Direction    Direction `json:"direction"`
	DoorOpen     bool      `json:"door_open"`
	QueueDepth   int       `json:"queue_depth"`
	Primary      *Request  `json:"primary,omitempty"`
	Piggyback    int       `json:"piggyback_count"`
}

// NewCabinStatus constructs a status snapshot.
func NewCabinStatus(floor Floor, direction Direction, doorOpen bool, queueDepth int, primary *Request, piggyback int) CabinStatus {
	return CabinStatus{
		CurrentFloor: floor,
		Direction:    direction,
		DoorOpen:     doorOpen,
		QueueDepth:   queueDepth,
		Primary:      primary,
		Piggyback:    piggyback,
	}
}

// IsIdle reports whether the cabin has no primary request in flight.
func (s CabinStatus) IsIdle() bool {
	return s.Primary == nil
}
