package slack

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseTS converts a Slack message timestamp ("1700000000.000100") to a
// UTC time. The fractional part is microseconds.
func ParseTS(ts string) (time.Time, error) {
	seconds, fraction, _ := strings.Cut(ts, ".")

	sec, err := strconv.ParseInt(seconds, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", ts, err)
	}

	var micros int64
	if fraction != "" {
		// Pad or trim the fraction to microsecond precision.
		if len(fraction) < 6 {
			fraction += strings.Repeat("0", 6-len(fraction))
		}
		micros, err = strconv.ParseInt(fraction[:6], 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", ts, err)
		}
	}

	return time.Unix(sec, micros*int64(time.Microsecond)).UTC(), nil
}

// FormatTS converts a time to the Slack timestamp form accepted by the
// history API's oldest and latest parameters.
func FormatTS(t time.Time) string {
	return fmt.Sprintf("%d.%06d", t.Unix(), t.UnixMicro()%1_000_000)
}
