package scoring

import (
	"strconv"
	"strings"
	"time"
)

// parseBoostingDuration parses a freshness function's boosting duration:
// either a standard ISO-8601 duration ("P30D", "PT6H", "P1Y2M3D") or the
// informal bare-number-of-days form ("365D", "30d").
func parseBoostingDuration(s string) (time.Duration, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	if d, ok := parseInformalDays(s); ok {
		return d, true
	}
	if strings.HasPrefix(s, "P") || strings.HasPrefix(s, "p") {
		return parseISO8601Duration(s)
	}
	return 0, false
}

// parseInformalDays parses "365D" / "30d": a bare integer followed by a
// single "D" suffix, with no leading "P".
func parseInformalDays(s string) (time.Duration, bool) {
	if len(s) < 2 {
		return 0, false
	}
	last := s[len(s)-1]
	if last != 'D' && last != 'd' {
		return 0, false
	}
	numeric := s[:len(s)-1]
	if strings.ContainsAny(numeric, "PTpt") {
		return 0, false
	}
	days, err := strconv.ParseFloat(numeric, 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(days * 24 * float64(time.Hour)), true
}

// parseISO8601Duration parses the subset of ISO-8601 durations relevant
// to freshness boosting: PnYnMnD and the time portion PTnHnMnS, with
// fractional components allowed on the smallest present unit.
func parseISO8601Duration(s string) (time.Duration, bool) {
	s = strings.ToUpper(s)
	if !strings.HasPrefix(s, "P") {
		return 0, false
	}
	s = s[1:]

	datePart, timePart, hasTime := strings.Cut(s, "T")
	if !hasTime {
		datePart = s
		timePart = ""
	}

	var total time.Duration
	var ok bool

	total, ok = accumulateUnits(datePart, map[byte]time.Duration{
		'Y': 365 * 24 * time.Hour,
		'M': 30 * 24 * time.Hour,
		'D': 24 * time.Hour,
		'W': 7 * 24 * time.Hour,
	}, total)
	if !ok {
		return 0, false
	}

	if timePart != "" {
		total, ok = accumulateUnits(timePart, map[byte]time.Duration{
			'H': time.Hour,
			'M': time.Minute,
			'S': time.Second,
		}, total)
		if !ok {
			return 0, false
		}
	}

	if total == 0 {
		return 0, false
	}
	return total, true
}

func accumulateUnits(part string, units map[byte]time.Duration, total time.Duration) (time.Duration, bool) {
	if part == "" {
		return total, true
	}
	num := strings.Builder{}
	for i := 0; i < len(part); i++ {
		c := part[i]
		if (c >= '0' && c <= '9') || c == '.' {
			num.WriteByte(c)
			continue
		}
		unit, ok := units[c]
		if !ok {
			return total, false
		}
		value, err := strconv.ParseFloat(num.String(), 64)
		if err != nil {
			return total, false
		}
		total += time.Duration(value * float64(unit))
		num.Reset()
	}
	if num.Len() > 0 {
		return total, false // trailing digits with no unit suffix
	}
	return total, true
}
