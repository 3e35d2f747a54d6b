package collector

import (
	"fmt"
	"strconv"
)

const (
	bytesPerGB     = 1 << 30
	bitsPerMegabit = 1e6
)

func gb(bytes uint64) string {
	return fmt.Sprintf("%.2f GB", float64(bytes)/bytesPerGB)
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f %%", v)
}

func mhz(v float64) string {
	return fmt.Sprintf("%.2f Mhz", v)
}

func mbps(bytes uint64, seconds float64) string {
	if seconds <= 0 {
		seconds = 1
	}
	return fmt.Sprintf("%.2f Mbps", float64(bytes)*8/bitsPerMegabit/seconds)
}

func count[T ~int | ~int32 | ~uint64](v T) string {
	return strconv.FormatUint(uint64(v), 10)
}

// delta returns after-before, or zero when a counter wrapped or reset.
func delta(before, after uint64) uint64 {
	if after < before {
		return 0
	}
	return after - before
}
