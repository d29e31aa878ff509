package model

import "time"

// BreakoutKind tells which stored extremum the current price crossed.
type BreakoutKind string

const (
	BreakoutHigh BreakoutKind = "HIGH"
	BreakoutLow  BreakoutKind = "LOW"
)

// Windows are the trailing day spans used for extrema aggregation.
var Windows = []int{5, 20, 60, 120}

// BreakoutEvent is produced by the monitor and consumed once by the alert
// composer. It is never persisted.
type BreakoutEvent struct {
	Symbol        string
	Kind          BreakoutKind
	Price         float64 // the trade price that triggered the event
	PriorExtremum float64 // today's stored high/low before the write
	At            time.Time
}
