package domain

import (
	"fmt"

	"github.com/harmelin-systems/elevator-core/internal/constants"
)

// Floor represents a floor number in the building the cabin serves.
// The uncalibrated startup state (spec §4.5) relies on Floor supporting a
// sentinel value above any real floor, so Floor stays a plain int rather
// than a range-clamped type.
type Floor int

// NewFloor constructs a Floor without range validation — used internally
// where the value is already known to be in range (sensor readings, probe
// requests derived from a known floor).
func NewFloor(value int) Floor {
	return Floor(value)
}

// NewFloorWithValidation constructs a Floor from untrusted input (a call
// button event), rejecting values outside the configured building range.
func NewFloorWithValidation(value, minFloor, maxFloor int) (Floor, error) {
	if !Floor(value).IsValid(Floor(minFloor), Floor(maxFloor)) {
		return Floor(0), NewValidationError(
			fmt.Sprintf("floor value %d is outside building range [%d, %d]", value, minFloor, maxFloor), nil).
			WithContext("floor", value).
			WithContext("min_floor", minFloor).
			WithContext("max_floor", maxFloor)
	}
	return Floor(value), nil
}

// Value returns the integer value of the floor.
func (f Floor) Value() int {
	return int(f)
}

// IsValid reports whether f lies within [minFloor, maxFloor].
func (f Floor) IsValid(minFloor, maxFloor Floor) bool {
	return f >= minFloor && f <= maxFloor
}

// Distance returns the number of floors between f and other.
func (f Floor) Distance(other Floor) int {
	diff := int(f) - int(other)
	if diff < 0 {
		return -diff
	}
	return diff
}

// String returns the decimal string representation of the floor.
func (f Floor) String() string {
	return fmt.Sprintf("%d", int(f))
}

// IsAbove reports whether f is above other.
func (f Floor) IsAbove(other Floor) bool {
	return f > other
}

// IsBelow reports whether f is below other.
func (f Floor) IsBelow(other Floor) bool {
	return f < other
}

// IsEqual reports whether f and other are the same floor.
func (f Floor) IsEqual(other Floor) bool {
	return f == other
}

// UncalibratedSentinel is the "last floor seen" value used to describe a
// cabin that started between floors: Between(UncalibratedSentinel, 0) yields
// direction Down until the first floor-sensor event arrives (spec §4.5).
const UncalibratedSentinel Floor = Floor(constants.MaxAllowedFloor)
