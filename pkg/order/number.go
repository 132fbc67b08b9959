package order

import (
	"fmt"
	"time"
)

const numberModulus = 1_000_000

// FormatNumber renders ORD- followed by the last six digits of the Unix millisecond clock.
func FormatNumber(t time.Time) string {
	return formatSuffix(t.UnixMilli() % numberModulus)
}

// nextNumber regenerates a number after a collision on prev. The result always differs from prev,
// even when the clock has not advanced.
func nextNumber(prev string, now time.Time) string {
	suffix := now.UnixMilli() % numberModulus
	if formatSuffix(suffix) == prev {
		suffix = (suffix + 1) % numberModulus
	}
	return formatSuffix(suffix)
}

func formatSuffix(suffix int64) string {
	return fmt.Sprintf("ORD-%06d", suffix)
}
