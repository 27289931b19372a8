package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresetSeconds(t *testing.T) {
	tests := []struct {
		label string
		exp   int
	}{
		{"5 sec", 5},
		{"1 min", 60},
		{"5 min", 300},
		{"30 min", 1800},
		{"1 hour", 3600},
		{"12 hour", 43200},
	}

	for _, test := range tests {
		test := test
		t.Run(test.label, func(t *testing.T) {
			seconds, ok := PresetSeconds(test.label)
			assert.True(t, ok)
			assert.Equal(t, test.exp, seconds)
		})
	}

	_, ok := PresetSeconds("2 days")
	assert.False(t, ok)
	assert.Equal(t, "5 sec", DefaultPreset().Label)
	assert.Len(t, PresetLabels(), len(Presets))
}

func TestParseTimerSeconds(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		exp    int
		expErr bool
	}{
		{name: "Plain", text: "300", exp: 300},
		{name: "Whitespace", text: " 60\n", exp: 60},
		{name: "Zero", text: "0", exp: 0},
		{name: "Negative", text: "-5", exp: -5},
		{name: "Letters", text: "abc", expErr: true},
		{name: "Empty", text: "", expErr: true},
		{name: "Float", text: "1.5", expErr: true},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			seconds, err := ParseTimerSeconds(test.text)
			if test.expErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidDuration))

				var validationErr *ValidationError
				require.True(t, errors.As(err, &validationErr))
				assert.Equal(t, test.text, validationErr.Value)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.exp, seconds)
		})
	}
}

func TestRemoveSources(t *testing.T) {
	tests := []struct {
		name       string
		indices    []int
		exp        []string
		expRemoved int
	}{
		{name: "None", indices: nil, exp: []string{"a", "b", "c", "d"}},
		{name: "Single", indices: []int{1}, exp: []string{"a", "c", "d"}, expRemoved: 1},
		{name: "AscendingOrder", indices: []int{0, 2}, exp: []string{"b", "d"}, expRemoved: 2},
		{name: "DescendingOrder", indices: []int{3, 1}, exp: []string{"a", "c"}, expRemoved: 2},
		{name: "Duplicates", indices: []int{2, 2}, exp: []string{"a", "b", "d"}, expRemoved: 1},
		{name: "OutOfRange", indices: []int{-1, 4, 10}, exp: []string{"a", "b", "c", "d"}},
		{name: "All", indices: []int{0, 1, 2, 3}, exp: []string{}, expRemoved: 4},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			settings := DefaultSettings()
			settings.SourceFolders = []string{"a", "b", "c", "d"}
			removed := settings.RemoveSources(test.indices)
			assert.Equal(t, test.expRemoved, removed)
			assert.Equal(t, test.exp, settings.SourceFolders)
		})
	}
}

func TestAddSourceAllowsDuplicates(t *testing.T) {
	settings := DefaultSettings()
	assert.True(t, settings.AddSource("/a"))
	assert.True(t, settings.AddSource("/a"))
	assert.False(t, settings.AddSource("  "))
	assert.Equal(t, []string{"/a", "/a"}, settings.SourceFolders)
}

func TestSourceFolderEncoding(t *testing.T) {
	assert.Equal(t, []string{}, SplitSourceFolders(""))
	assert.Equal(t, "/a,/b", JoinSourceFolders([]string{"/a", "/b"}))
	assert.Equal(t, []string{"/a", "/b"}, SplitSourceFolders("/a,/b"))

	// Commas inside a path are not escaped, so the path splits in two.
	assert.Equal(t, []string{"/photos", " 2024"},
		SplitSourceFolders(JoinSourceFolders([]string{"/photos, 2024"})))
}

func TestValidate(t *testing.T) {
	settings := &Settings{SelectedTime: "forever"}
	settings.Validate()
	assert.Equal(t, DefaultPreset().Label, settings.SelectedTime)
	assert.Equal(t, []string{}, settings.SourceFolders)
}

func TestCloneIsDeep(t *testing.T) {
	settings := DefaultSettings()
	settings.SourceFolders = []string{"/a"}
	clone := settings.Clone()
	clone.SourceFolders[0] = "/b"
	assert.Equal(t, "/a", settings.SourceFolders[0])
}

func TestCopyResult(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	result := NewCopyResult(start)
	assert.NotEmpty(t, result.ID)
	assert.Zero(t, result.Elapsed())

	result.AddCopied(10)
	result.AddCopied(5)
	result.FinishedAt = start.Add(2 * time.Second)
	assert.False(t, result.Failed())
	assert.Equal(t, "Copied 2 files (15 bytes).", result.Summary())
	assert.Equal(t, 2*time.Second, result.Elapsed())

	result.AddFailure("/a/x", errors.New("permission denied"))
	assert.True(t, result.Failed())
	assert.Contains(t, result.Summary(), "1 failed")
	assert.Contains(t, result.Summary(), "/a/x: permission denied")
}
