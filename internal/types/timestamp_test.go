package types

import (
	"testing"
	"time"
)

func TestMacTimeZeroIsEpoch(t *testing.T) {
	want := time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := MacTime(0).Time(); !got.Equal(want) {
		t.Errorf("MacTime(0).Time() = %v, want %v", got, want)
	}
	if got := MacEpoch(); !got.Equal(want) {
		t.Errorf("MacEpoch() = %v, want %v", got, want)
	}
}

func TestMacTimeRoundTrip(t *testing.T) {
	testCases := []uint32{0, 1, 86400, 2082844800, 0xFFFFFFFF}

	for _, tc := range testCases {
		ts := MacTime(tc)
		if got := NewMacTime(ts.Time()); got != ts {
			t.Errorf("round trip of %d = %d", tc, got)
		}
	}
}

func TestNewMacTimeFloorsSeconds(t *testing.T) {
	base := time.Date(1984, 1, 24, 12, 0, 0, 0, time.UTC)
	withNanos := base.Add(999 * time.Millisecond)
	if NewMacTime(base) != NewMacTime(withNanos) {
		t.Error("sub-second precision should be floored away")
	}
}
