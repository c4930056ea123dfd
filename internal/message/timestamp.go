package message

import "time"

// Timestamp is a microsecond-resolution instant, treated as an opaque
// ordering key and, when fed to numerical equations, as a real-valued
// "seconds since epoch".
type Timestamp int64

// Now returns the current time as a Timestamp.
func Now() Timestamp {
	return FromTime(time.Now())
}

// FromTime converts a time.Time to a Timestamp.
func FromTime(t time.Time) Timestamp {
	return Timestamp(t.UnixMicro())
}

// FromSeconds builds a Timestamp from a real-valued seconds-since-epoch.
func FromSeconds(s float64) Timestamp {
	return Timestamp(int64(s * 1e6))
}

// Seconds returns the timestamp as real-valued seconds since epoch, the
// representation the model equations operate on.
func (t Timestamp) Seconds() float64 {
	return float64(t) / 1e6
}

// Time converts back to a time.Time.
func (t Timestamp) Time() time.Time {
	return time.UnixMicro(int64(t))
}

// Add returns t advanced by d.
func (t Timestamp) Add(d time.Duration) Timestamp {
	return t + Timestamp(d.Microseconds())
}
