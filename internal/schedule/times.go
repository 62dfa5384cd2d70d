// Package schedule manages agent day plans: preset plans loaded from a JSON
// document (with hot reload), LLM-generated plans rolled from hourly duration
// lists, and the simulated-clock helpers the engine ticks with.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SimTimeLayout is the wire format of simulated timestamps.
const SimTimeLayout = "2006-01-02-15-04"

// HMLayout is the wire format of schedule start times.
const HMLayout = "15-04"

var weekdayLabels = [7]string{"星期天", "星期一", "星期二", "星期三", "星期四", "星期五", "星期六"}

// ParseSim parses a simulated timestamp.
func ParseSim(s string) (time.Time, error) {
	t, err := time.Parse(SimTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse sim time %q: %w", s, err)
	}
	return t, nil
}

// WeekdayLabel returns the Chinese weekday of a simulated instant.
func WeekdayLabel(t time.Time) string {
	return weekdayLabels[int(t.Weekday())]
}

// FormatChinese renders a simulated instant for prompts and logs.
func FormatChinese(t time.Time) string {
	return t.Format("2006年01月02日15点04分")
}

// HM renders the HH-MM portion of a simulated instant.
func HM(t time.Time) string {
	return t.Format(HMLayout)
}

// NormalizeHM canonicalizes schedule times to zero-padded "HH-MM": "6:5"
// becomes "06-05", and "06:30" or "6-30" become "06-30".
func NormalizeHM(raw string) (string, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ":", "-")
	parts := strings.Split(s, "-")
	if len(parts) < 2 {
		return "", fmt.Errorf("malformed time %q", raw)
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return "", fmt.Errorf("malformed time %q: %w", raw, err)
	}
	m, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return "", fmt.Errorf("malformed time %q: %w", raw, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return "", fmt.Errorf("time %q out of range", raw)
	}
	return fmt.Sprintf("%02d-%02d", h, m), nil
}

// HMBefore reports whether a sorts strictly before b. Both must already be in
// HH-MM form.
func HMBefore(a, b string) bool {
	return a < b
}

// AddHM advances an HH-MM time by the given minutes, wrapping past midnight.
func AddHM(hm string, minutes int) (string, error) {
	norm, err := NormalizeHM(hm)
	if err != nil {
		return "", err
	}
	h, _ := strconv.Atoi(norm[:2])
	m, _ := strconv.Atoi(norm[3:])
	total := (h*60 + m + minutes) % (24 * 60)
	if total < 0 {
		total += 24 * 60
	}
	return fmt.Sprintf("%02d-%02d", total/60, total%60), nil
}
