package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the calendar
// service.
type Config struct {
	HTTPPort       int
	SQLiteDSN      string
	Timezone       *time.Location
	HourHeight     float64
	MinEventHeight float64
	SnapMinutes    int
	PreviewLimit   int
}

// Load parses configuration values from the current process environment.
//
// Every value has a sensible default; values that are present but cannot be
// parsed are reported together instead of being silently ignored.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:       8080,
		SQLiteDSN:      "file:calendar.db",
		Timezone:       time.UTC,
		HourHeight:     60,
		MinEventHeight: 15,
		SnapMinutes:    15,
		PreviewLimit:   100,
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("CALENDAR_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "CALENDAR_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("CALENDAR_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if tzValue := strings.TrimSpace(os.Getenv("CALENDAR_TIMEZONE")); tzValue != "" {
		loc, err := time.LoadLocation(tzValue)
		if err != nil {
			invalid = append(invalid, "CALENDAR_TIMEZONE")
		} else {
			cfg.Timezone = loc
		}
	}

	if heightValue := strings.TrimSpace(os.Getenv("CALENDAR_HOUR_HEIGHT")); heightValue != "" {
		height, err := strconv.ParseFloat(heightValue, 64)
		if err != nil || height <= 0 {
			invalid = append(invalid, "CALENDAR_HOUR_HEIGHT")
		} else {
			cfg.HourHeight = height
			cfg.MinEventHeight = height / 4
		}
	}

	if heightValue := strings.TrimSpace(os.Getenv("CALENDAR_MIN_EVENT_HEIGHT")); heightValue != "" {
		height, err := strconv.ParseFloat(heightValue, 64)
		if err != nil || height <= 0 {
			invalid = append(invalid, "CALENDAR_MIN_EVENT_HEIGHT")
		} else {
			cfg.MinEventHeight = height
		}
	}

	if snapValue := strings.TrimSpace(os.Getenv("CALENDAR_SNAP_MINUTES")); snapValue != "" {
		snap, err := strconv.Atoi(snapValue)
		if err != nil || snap <= 0 || snap > 60 {
			invalid = append(invalid, "CALENDAR_SNAP_MINUTES")
		} else {
			cfg.SnapMinutes = snap
		}
	}

	if limitValue := strings.TrimSpace(os.Getenv("CALENDAR_PREVIEW_LIMIT")); limitValue != "" {
		limit, err := strconv.Atoi(limitValue)
		if err != nil || limit <= 0 {
			invalid = append(invalid, "CALENDAR_PREVIEW_LIMIT")
		} else {
			cfg.PreviewLimit = limit
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
