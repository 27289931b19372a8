package models

import "strings"

// Settings represents the persisted application settings
type Settings struct {
	TimerSeconds       int      // delay between mirror cycles, in seconds
	SelectedTime       string   // label of the preset last picked in the dropdown
	DestinationFolder  string
	ShowSuccessMessage bool
	AutoStart          bool
	SourceFolders      []string // display order, duplicates allowed
}

// DefaultSettings returns default application settings
func DefaultSettings() *Settings {
	return &Settings{
		TimerSeconds:       300, // 5 minutes
		SelectedTime:       DefaultPreset().Label,
		DestinationFolder:  "",
		ShowSuccessMessage: true,
		AutoStart:          false,
		SourceFolders:      []string{},
	}
}

// Validate normalizes a freshly loaded record so the rest of the
// application can trust its fields.
func (s *Settings) Validate() {
	if _, ok := PresetSeconds(s.SelectedTime); !ok {
		s.SelectedTime = DefaultPreset().Label
	}
	if s.SourceFolders == nil {
		s.SourceFolders = []string{}
	}
}

// Clone returns a deep copy of the settings
func (s *Settings) Clone() *Settings {
	clone := *s
	clone.SourceFolders = append([]string{}, s.SourceFolders...)
	return &clone
}

// AddSource appends a source folder to the list
func (s *Settings) AddSource(path string) bool {
	path = strings.TrimSpace(path)
	if path == "" {
		return false
	}
	s.SourceFolders = append(s.SourceFolders, path)
	return true
}

// RemoveSources deletes the source folders at the given indices.
// Duplicates and out-of-range indices are ignored. It returns the number of
// folders removed.
func (s *Settings) RemoveSources(indices []int) int {
	seen := make(map[int]bool, len(indices))
	for _, index := range indices {
		if index >= 0 && index < len(s.SourceFolders) {
			seen[index] = true
		}
	}

	removed := 0
	for index := len(s.SourceFolders) - 1; index >= 0; index-- {
		if !seen[index] {
			continue
		}
		s.SourceFolders = append(s.SourceFolders[:index], s.SourceFolders[index+1:]...)
		removed++
	}
	return removed
}

// JoinSourceFolders flattens a source list into its persisted form.
// Paths containing commas are not escaped.
func JoinSourceFolders(folders []string) string {
	return strings.Join(folders, ",")
}

// SplitSourceFolders parses the persisted form of a source list
func SplitSourceFolders(value string) []string {
	if value == "" {
		return []string{}
	}
	return strings.Split(value, ",")
}
