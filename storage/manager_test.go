package storage

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autocopy/models"
)

const settingsPath = "/home/user/.autocopy/settings.ini"

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	manager := NewManagerAt(afero.NewMemMapFs(), settingsPath)

	settings, err := manager.LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), settings)
}

func TestSettingsRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		settings *models.Settings
	}{
		{
			name:     "Defaults",
			settings: models.DefaultSettings(),
		},
		{
			name: "Populated",
			settings: &models.Settings{
				TimerSeconds:       3600,
				SelectedTime:       "1 hour",
				DestinationFolder:  "/mnt/backup",
				ShowSuccessMessage: false,
				AutoStart:          true,
				SourceFolders:      []string{"/home/user/docs", "/home/user/photos", "/home/user/docs"},
			},
		},
		{
			name: "EmptySourceList",
			settings: &models.Settings{
				TimerSeconds:       5,
				SelectedTime:       "5 sec",
				DestinationFolder:  "/out",
				ShowSuccessMessage: true,
				SourceFolders:      []string{},
			},
		},
		{
			name: "SpecialCharacters",
			settings: &models.Settings{
				TimerSeconds:      42,
				SelectedTime:      "12 hour",
				DestinationFolder: "/data/#archive; old",
				SourceFolders:     []string{"/src/a b", "/src/c#d"},
			},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			manager := NewManagerAt(afero.NewMemMapFs(), settingsPath)
			require.NoError(t, manager.SaveSettings(test.settings))

			loaded, err := manager.LoadSettings()
			require.NoError(t, err)
			assert.Equal(t, test.settings, loaded)
		})
	}
}

func TestLoadExistingFileFormat(t *testing.T) {
	fs := afero.NewMemMapFs()
	contents := `[Settings]
timer_seconds = 60
selected_time = 1 min
destination_folder = /out
show_success_message = False
auto_start = True
source_folders = /a,/b
`
	require.NoError(t, afero.WriteFile(fs, settingsPath, []byte(contents), 0644))

	settings, err := NewManagerAt(fs, settingsPath).LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, &models.Settings{
		TimerSeconds:       60,
		SelectedTime:       "1 min",
		DestinationFolder:  "/out",
		ShowSuccessMessage: false,
		AutoStart:          true,
		SourceFolders:      []string{"/a", "/b"},
	}, settings)
}

func TestLoadFallsBackPerKey(t *testing.T) {
	fs := afero.NewMemMapFs()
	contents := `[Settings]
timer_seconds = abc
selected_time = 3 weeks
destination_folder = /out
show_success_message = maybe
auto_start = yes
`
	require.NoError(t, afero.WriteFile(fs, settingsPath, []byte(contents), 0644))

	settings, err := NewManagerAt(fs, settingsPath).LoadSettings()
	require.NoError(t, err)

	defaults := models.DefaultSettings()
	assert.Equal(t, defaults.TimerSeconds, settings.TimerSeconds)
	assert.Equal(t, defaults.SelectedTime, settings.SelectedTime)
	assert.Equal(t, defaults.ShowSuccessMessage, settings.ShowSuccessMessage)
	assert.Equal(t, "/out", settings.DestinationFolder)
	assert.True(t, settings.AutoStart)
	assert.Equal(t, []string{}, settings.SourceFolders)
}

func TestLoadWithoutSettingsSection(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, settingsPath, []byte("[Other]\nkey = value\n"), 0644))

	settings, err := NewManagerAt(fs, settingsPath).LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), settings)
}

func TestSaveWritesBooleansCapitalized(t *testing.T) {
	fs := afero.NewMemMapFs()
	settings := models.DefaultSettings()
	require.NoError(t, NewManagerAt(fs, settingsPath).SaveSettings(settings))

	data, err := afero.ReadFile(fs, settingsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[Settings]")
	assert.Regexp(t, `show_success_message\s*=\s*True`, string(data))
	assert.Regexp(t, `auto_start\s*=\s*False`, string(data))
	assert.Regexp(t, `timer_seconds\s*=\s*300`, string(data))
}

func TestSaveFailsOnReadOnlyFs(t *testing.T) {
	manager := NewManagerAt(afero.NewReadOnlyFs(afero.NewMemMapFs()), settingsPath)
	assert.Error(t, manager.SaveSettings(models.DefaultSettings()))
}
