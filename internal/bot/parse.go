package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"streaker/internal/streak"
)

// ParseIDArg extracts a numeric user ID from a command argument string.
func ParseIDArg(args string) (int64, error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return 0, fmt.Errorf("user ID is required")
	}
	id, err := strconv.ParseInt(strings.Fields(s)[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user ID %q", s)
	}
	return id, nil
}

// ParseDayArg parses a date argument relative to today. Accepted forms are
// empty (today), "today", "yesterday", "tomorrow" and YYYY-MM-DD.
func ParseDayArg(args string, today streak.Day) (streak.Day, error) {
	s := strings.ToLower(strings.TrimSpace(args))
	switch s {
	case "", "today":
		return today, nil
	case "yesterday":
		return today.AddDays(-1), nil
	case "tomorrow":
		return today.AddDays(1), nil
	}
	d, err := streak.ParseDay(s)
	if err != nil {
		return streak.Day{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD", args)
	}
	return d, nil
}

// ParseMonthArg parses an optional YYYY-MM argument, defaulting to the month
// containing today.
func ParseMonthArg(args string, today streak.Day) (int, time.Month, error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return today.Year, today.Month, nil
	}
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q, use YYYY-MM", s)
	}
	return t.Year(), t.Month(), nil
}
