package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DateLayout is the calendar date format used for refresh checkpoints.
const DateLayout = "2006-01-02"

// ScheduleFile is the on-disk shape of a refresh checkpoint schedule.
//
//	checkpoints:
//	  - 2026-09-01
//	  - 2027-01-15
type ScheduleFile struct {
	Checkpoints []string `yaml:"checkpoints"`
}

// LoadSchedule reads a YAML schedule file and returns its checkpoint dates
// in file order.
func LoadSchedule(path string) ([]time.Time, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schedule: %w", err)
	}
	return ParseSchedule(raw)
}

// ParseSchedule decodes a YAML schedule document.
func ParseSchedule(raw []byte) ([]time.Time, error) {
	var f ScheduleFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to decode schedule: %w", err)
	}

	dates := make([]time.Time, 0, len(f.Checkpoints))
	for _, s := range f.Checkpoints {
		d, err := ParseDate(s)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, nil
}

// ParseDate parses a YYYY-MM-DD string into a UTC midnight timestamp.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid checkpoint date %q: %w", s, err)
	}
	return d, nil
}
