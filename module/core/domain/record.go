package domain

import (
	"time"

	"github.com/paulmach/orb"
)

// Record is one position report from a device. Records are never updated
// after they are stored.
type Record struct {
	ID         string
	DeviceID   string
	Location   orb.Point
	Time       time.Time
	Angle      float64
	Speed      float64
	Altitude   float64
	Satellites int
}

type SortOrder int

const (
	SortAscending SortOrder = iota
	SortDescending
)

// TimeWindow is the half-open interval [Start, End).
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// DayWindow returns the window starting exactly at ref and ending at the same
// wall-clock time on the following calendar day.
func DayWindow(ref time.Time) TimeWindow {
	return TimeWindow{Start: ref, End: ref.AddDate(0, 0, 1)}
}
