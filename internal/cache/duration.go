package cache

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"
)

// ErrInvalidDuration is returned for cache durations not of the form "<n>d" or "<n>h".
var ErrInvalidDuration = errors.New("invalid cache duration")

var durationPattern = regexp.MustCompile(`^(\d+)([dh])$`)

// ParseDuration converts "3d" or "12h" to a duration.
// Values too large for time.Duration are rejected.
func ParseDuration(s string) (time.Duration, error) {
	m := durationPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	unit := time.Hour
	if m[2] == "d" {
		unit = 24 * time.Hour
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || n > math.MaxInt64/int64(unit) {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidDuration, s)
	}
	return time.Duration(n) * unit, nil
}
