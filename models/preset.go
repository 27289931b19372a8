package models

import (
	"strconv"
	"strings"
	"time"
)

// Preset is a named timer duration offered in the dropdown
type Preset struct {
	Label   string
	Seconds int
}

// Presets lists the built-in durations in display order
var Presets = []Preset{
	{Label: "5 sec", Seconds: 5},
	{Label: "1 min", Seconds: 60},
	{Label: "5 min", Seconds: 300},
	{Label: "30 min", Seconds: 1800},
	{Label: "1 hour", Seconds: 3600},
	{Label: "12 hour", Seconds: 43200},
}

// DefaultPreset returns the preset selected when nothing else is known
func DefaultPreset() Preset {
	return Presets[0]
}

// PresetLabels returns the preset labels in display order
func PresetLabels() []string {
	labels := make([]string, 0, len(Presets))
	for _, preset := range Presets {
		labels = append(labels, preset.Label)
	}
	return labels
}

// PresetSeconds maps a preset label to its duration in seconds
func PresetSeconds(label string) (int, bool) {
	for _, preset := range Presets {
		if preset.Label == label {
			return preset.Seconds, true
		}
	}
	return 0, false
}

// ParseTimerSeconds parses a manually entered timer value.
// Anything that is not an integer is rejected; the range is not checked.
func ParseTimerSeconds(text string) (int, error) {
	seconds, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, &ValidationError{Field: "timer_seconds", Value: text, Err: ErrInvalidDuration}
	}
	return seconds, nil
}

// Interval converts a number of seconds to a duration
func Interval(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
