// Package bunk computes how many sessions a student may skip, or must attend, to keep
// their attendance at a threshold percentage.
package bunk

import (
	"errors"
	"fmt"
	"math"
)

const DefaultThreshold = 75.0

var ErrInvalidThreshold = errors.New("threshold must be within (0, 100)")

type Action int

const (
	ATTEND Action = iota
	CAN_BUNK
)

func (a Action) String() string {
	switch a {
	case ATTEND:
		return "attend"
	case CAN_BUNK:
		return "can_bunk"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Action) UnmarshalText(text []byte) error {
	switch string(text) {
	case "attend":
		*a = ATTEND
	case "can_bunk":
		*a = CAN_BUNK
	default:
		return fmt.Errorf("unknown action %q", text)
	}
	return nil
}

// Advice is what a student should do next for one subject.
type Advice struct {
	Action Action `json:"action"`
	Count  int    `json:"count"`
}

func (a Advice) String() string {
	if a.Action == ATTEND {
		return fmt.Sprintf("attend %d", a.Count)
	}
	return fmt.Sprintf("can bunk %d", a.Count)
}

// values within this distance of an integer are treated as that integer, so float error
// in t*total does not turn an exact 8 into ceil(8.0000000001) = 9.
const epsilon = 1e-9

func snap(x float64) float64 {
	r := math.Round(x)
	if math.Abs(x-r) < epsilon {
		return r
	}
	return x
}

// Compute returns the advice for a subject given the portal's percentage, the total
// hours held and the hours attended.
//
// At or below the threshold the count is the number of consecutive sessions that must be
// attended to bring the percentage back up to the threshold. Above it, the count is the
// number of sessions that can be missed before dropping to the threshold. The count never
// goes below 0, even when the percentage disagrees with attended/total.
//
// threshold must be within (0, 100), use ComputeChecked for untrusted input.
func Compute(percentage float64, totalHours, attendedHours int, threshold float64) Advice {
	t := threshold / 100
	total := float64(totalHours)
	attended := float64(attendedHours)

	if percentage <= threshold {
		count := math.Ceil(snap((t*total - attended) / (1 - t)))
		return Advice{Action: ATTEND, Count: clamp(count)}
	}
	count := math.Floor(snap((attended - t*total) / t))
	return Advice{Action: CAN_BUNK, Count: clamp(count)}
}

// ComputeChecked is Compute with the threshold validated first.
func ComputeChecked(percentage float64, totalHours, attendedHours int, threshold float64) (Advice, error) {
	if math.IsNaN(threshold) || threshold <= 0 || threshold >= 100 {
		return Advice{}, fmt.Errorf("%w: got %v", ErrInvalidThreshold, threshold)
	}
	if totalHours < 0 || attendedHours < 0 {
		return Advice{}, fmt.Errorf("hours must be non-negative: total=%d attended=%d", totalHours, attendedHours)
	}
	return Compute(percentage, totalHours, attendedHours, threshold), nil
}

func clamp(count float64) int {
	if count < 0 || math.IsNaN(count) {
		return 0
	}
	return int(count)
}
