package constants

import "time"

// Application constants centralized in one location to improve type safety
// and eliminate magic strings throughout the codebase.

// Default configuration values (spec §6: reference configuration).
const (
	DefaultDriverAddress = "localhost:15657"
	DefaultLogLevel      = "INFO"
	DefaultNumFloors     = 4
	DefaultQueueCapacity = 8

	DefaultDoorHoldOpen = 3 * time.Second
	DefaultPollPeriod   = 25 * time.Millisecond

	DefaultStatusPort = 6660
)

// Component names used as structured-log fields.
const (
	ComponentDriver    = "driverio"
	ComponentDoor      = "door"
	ComponentScheduler = "scheduler"
	ComponentEventLoop = "eventloop"
	ComponentStatusAPI = "statusapi"
)

// Floor validation limits. MaxAllowedFloor also backs domain.UncalibratedSentinel,
// the "last floor seen" value for a cabin that starts between floors.
const (
	MinAllowedFloor = -20
	MaxAllowedFloor = 200
)

// Metrics namespace and label names.
const (
	MetricsNamespace = "elevator"
)
