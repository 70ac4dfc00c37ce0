package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// Counts converts a duration into ticks of a counter clocked at hz,
// truncating. hz==0 yields 0.
func Counts(d time.Duration, hz uint32) uint32 {
	if hz == 0 || d <= 0 {
		return 0
	}
	return uint32(uint64(d) * uint64(hz) / uint64(time.Second))
}

// FromCounts is the inverse of Counts.
func FromCounts(n, hz uint32) time.Duration {
	if hz == 0 {
		return 0
	}
	return time.Duration(uint64(n) * uint64(time.Second) / uint64(hz))
}
