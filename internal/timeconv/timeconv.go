package timeconv

import "time"

// Unit declares the epoch precision a provider reports timestamps in.
// The unit is fixed per provider and never guessed from the magnitude of
// the value: the JCDecaux feed reports milliseconds, OpenWeather seconds.
type Unit int

const (
	UnitSeconds Unit = iota
	UnitMillis
)

// FromEpoch converts a raw epoch value of the given unit to a UTC instant
// truncated to whole seconds, the precision everything is stored at.
func FromEpoch(v int64, unit Unit) time.Time {
	switch unit {
	case UnitMillis:
		return time.Unix(v/1000, 0).UTC()
	default:
		return time.Unix(v, 0).UTC()
	}
}

// DateOf truncates an instant to its UTC calendar day, used as the natural
// key component for forecast rows.
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
