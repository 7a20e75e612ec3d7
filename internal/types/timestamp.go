package types

import "time"

// macEpochUnix is 1904-01-01T00:00:00Z expressed in Unix seconds.
const macEpochUnix int64 = -2082844800

// MacTime is a Macintosh timestamp: an unsigned count of seconds since
// midnight, January 1, 1904 UTC. The raw value is kept through parsing;
// calendar conversion happens only when Time is called, so bulk
// directory enumeration never pays for it.
type MacTime uint32

// MacEpoch returns the zero point of the Macintosh clock.
func MacEpoch() time.Time {
	return time.Unix(macEpochUnix, 0).UTC()
}

// NewMacTime converts a calendar time to a Mac timestamp, flooring to
// whole seconds. Times before 1904 are unsupported.
func NewMacTime(t time.Time) MacTime {
	return MacTime(t.Unix() - macEpochUnix)
}

// Time converts the timestamp to a calendar time in UTC.
func (t MacTime) Time() time.Time {
	return time.Unix(macEpochUnix+int64(t), 0).UTC()
}
