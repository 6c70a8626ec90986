package domain

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatBytes renders a byte count in binary units ("1.5 MiB").
func FormatBytes(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}

// FormatRate renders a bytes-per-second transfer rate.
func FormatRate(bytesPerSec int64) string {
	return FormatBytes(bytesPerSec) + "/s"
}

// FormatSats renders a satoshi amount with thousands separators. Amounts
// beyond the signed 64-bit range fall back to plain digits.
func FormatSats(sats uint64) string {
	if sats > math.MaxInt64 {
		return strconv.FormatUint(sats, 10) + " sats"
	}
	return humanize.Comma(int64(sats)) + " sats"
}

// FormatETA renders a remaining-time estimate.
func FormatETA(d time.Duration) string {
	if d <= 0 {
		return ETAUnknown
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}
