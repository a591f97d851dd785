// Package slots generates the daily slot grid: every bookable start-time
// label for the operating window, minus the blocked class hours. It is
// pure and deterministic so callers can rebuild the grid at will instead
// of persisting it.
package slots

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var ErrInvalidConfig = errors.New("invalid slot configuration")

// Interval is a half-open blocked window [Start, End) in HH:MM labels.
type Interval struct {
	Start string `yaml:"start" json:"start"`
	End   string `yaml:"end" json:"end"`
}

type Config struct {
	StartHour   float64    `yaml:"start_hour"`
	EndHour     float64    `yaml:"end_hour"`
	StepMinutes int        `yaml:"step_minutes"`
	Blocked     []Interval `yaml:"blocked"`
}

// Validate checks the grid parameters. A config that fails here is a
// startup error, not a per-request one.
func (c Config) Validate() error {
	if c.StepMinutes <= 0 {
		return fmt.Errorf("%w: step_minutes must be positive, got %d", ErrInvalidConfig, c.StepMinutes)
	}
	if c.StartHour > c.EndHour {
		return fmt.Errorf("%w: start_hour %.2f after end_hour %.2f", ErrInvalidConfig, c.StartHour, c.EndHour)
	}
	if c.StartHour < 0 || c.EndHour > 24 {
		return fmt.Errorf("%w: operating window must fit in a day", ErrInvalidConfig)
	}
	for _, b := range c.Blocked {
		start, err := ParseLabel(b.Start)
		if err != nil {
			return fmt.Errorf("%w: blocked start %q: %v", ErrInvalidConfig, b.Start, err)
		}
		end, err := ParseLabel(b.End)
		if err != nil {
			return fmt.Errorf("%w: blocked end %q: %v", ErrInvalidConfig, b.End, err)
		}
		if start >= end {
			return fmt.Errorf("%w: blocked interval %s-%s is empty", ErrInvalidConfig, b.Start, b.End)
		}
	}
	return nil
}

// Generate returns every slot label from StartHour to EndHour inclusive at
// StepMinutes granularity, skipping labels inside blocked intervals.
// Calling it twice with the same config yields an identical sequence.
func Generate(cfg Config) ([]string, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	start := int(cfg.StartHour * 60)
	end := int(cfg.EndHour * 60)

	var labels []string
	for t := start; t <= end; t += cfg.StepMinutes {
		label := FormatLabel(t)
		if IsBlocked(label, cfg.Blocked) {
			continue
		}
		labels = append(labels, label)
	}
	return labels, nil
}

// IsBlocked reports whether the slot label falls inside any blocked
// interval. Intervals are half-open: a slot starting exactly at End is
// allowed. Malformed labels or intervals never match; Validate catches
// them up front.
func IsBlocked(label string, blocked []Interval) bool {
	t, err := ParseLabel(label)
	if err != nil {
		return false
	}
	for _, b := range blocked {
		start, err1 := ParseLabel(b.Start)
		end, err2 := ParseLabel(b.End)
		if err1 != nil || err2 != nil {
			continue
		}
		if t >= start && t < end {
			return true
		}
	}
	return false
}

// OnGrid reports whether the label is one of the labels Generate would
// produce for this config: inside the window, step-aligned, not blocked.
func OnGrid(cfg Config, label string) bool {
	t, err := ParseLabel(label)
	if err != nil {
		return false
	}
	start := int(cfg.StartHour * 60)
	end := int(cfg.EndHour * 60)
	if t < start || t > end {
		return false
	}
	if cfg.StepMinutes <= 0 || (t-start)%cfg.StepMinutes != 0 {
		return false
	}
	return !IsBlocked(label, cfg.Blocked)
}

// LongestRun returns the length of the longest run of mutually contiguous
// labels: each exactly step minutes after the previous. Input order does
// not matter; duplicates count once.
func LongestRun(labels []string, step int) int {
	if len(labels) == 0 || step <= 0 {
		return 0
	}

	minutes := make([]int, 0, len(labels))
	seen := make(map[int]struct{}, len(labels))
	for _, label := range labels {
		t, err := ParseLabel(label)
		if err != nil {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		minutes = append(minutes, t)
	}
	if len(minutes) == 0 {
		return 0
	}
	sort.Ints(minutes)

	longest, run := 1, 1
	for i := 1; i < len(minutes); i++ {
		if minutes[i]-minutes[i-1] == step {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// ParseLabel converts an HH:MM label to minutes since midnight.
func ParseLabel(label string) (int, error) {
	parts := strings.SplitN(label, ":", 2)
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("malformed slot label %q", label)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("malformed slot label %q", label)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("malformed slot label %q", label)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("slot label %q out of range", label)
	}
	return h*60 + m, nil
}

// FormatLabel converts minutes since midnight to an HH:MM label.
func FormatLabel(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
