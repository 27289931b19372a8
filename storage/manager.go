package storage

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"autocopy/models"

	"github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"gopkg.in/ini.v1"
)

const (
	// DataDirName is the per-user directory holding the settings file.
	DataDirName = ".autocopy"

	// SettingsFileName is the name of the settings file inside DataDirName.
	SettingsFileName = "settings.ini"

	sectionName = "Settings"
)

// Settings file keys.
const (
	keyTimerSeconds       = "timer_seconds"
	keySelectedTime       = "selected_time"
	keyDestinationFolder  = "destination_folder"
	keyShowSuccessMessage = "show_success_message"
	keyAutoStart          = "auto_start"
	keySourceFolders      = "source_folders"
)

// Manager handles settings persistence
type Manager struct {
	fs   afero.Fs
	path string
}

// DefaultPath returns the settings file location in the user's home directory
func DefaultPath() string {
	homeDir, err := homedir.Dir()
	if err != nil {
		// Fallback to current directory
		homeDir = "."
	}
	return filepath.Join(homeDir, DataDirName, SettingsFileName)
}

// NewManager creates a storage manager for the default settings file
func NewManager() *Manager {
	return NewManagerAt(afero.NewOsFs(), DefaultPath())
}

// NewManagerAt creates a storage manager for the settings file at path on fs
func NewManagerAt(fs afero.Fs, path string) *Manager {
	return &Manager{
		fs:   fs,
		path: path,
	}
}

// Path returns the location of the settings file
func (m *Manager) Path() string {
	return m.path
}

// SaveSettings writes the settings to disk in a single write
func (m *Manager) SaveSettings(settings *models.Settings) error {
	file := ini.Empty()
	section, err := file.NewSection(sectionName)
	if err != nil {
		return fmt.Errorf("create settings section: %w", err)
	}

	values := []struct {
		key, value string
	}{
		{keyTimerSeconds, strconv.Itoa(settings.TimerSeconds)},
		{keySelectedTime, settings.SelectedTime},
		{keyDestinationFolder, settings.DestinationFolder},
		{keyShowSuccessMessage, formatBool(settings.ShowSuccessMessage)},
		{keyAutoStart, formatBool(settings.AutoStart)},
		{keySourceFolders, models.JoinSourceFolders(settings.SourceFolders)},
	}
	for _, kv := range values {
		if _, err := section.NewKey(kv.key, kv.value); err != nil {
			return fmt.Errorf("set %s: %w", kv.key, err)
		}
	}

	var buf bytes.Buffer
	if _, err := file.WriteTo(&buf); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if err := m.fs.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	if err := afero.WriteFile(m.fs, m.path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	log.WithField("path", m.path).Debug("Saved settings")
	return nil
}

// LoadSettings loads the settings from disk.
// A missing file yields the defaults. Keys that are missing or fail to
// parse fall back to their defaults one by one.
func (m *Manager) LoadSettings() (*models.Settings, error) {
	data, err := afero.ReadFile(m.fs, m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.DefaultSettings(), nil
		}
		return nil, fmt.Errorf("read settings: %w", err)
	}

	file, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:     true,
		SkipUnrecognizableLines: true,
	}, data)
	if err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}

	section := file.Section(sectionName)
	settings := models.DefaultSettings()

	if value := section.Key(keyTimerSeconds).String(); value != "" {
		if seconds, err := models.ParseTimerSeconds(value); err == nil {
			settings.TimerSeconds = seconds
		} else {
			m.fallback(keyTimerSeconds, value)
		}
	}
	if value := section.Key(keySelectedTime).String(); value != "" {
		settings.SelectedTime = value
	}
	settings.DestinationFolder = section.Key(keyDestinationFolder).String()
	settings.ShowSuccessMessage = m.loadBool(section, keyShowSuccessMessage, settings.ShowSuccessMessage)
	settings.AutoStart = m.loadBool(section, keyAutoStart, settings.AutoStart)
	settings.SourceFolders = models.SplitSourceFolders(section.Key(keySourceFolders).String())

	settings.Validate()
	return settings, nil
}

func (m *Manager) loadBool(section *ini.Section, name string, fallback bool) bool {
	key := section.Key(name)
	if key.String() == "" {
		return fallback
	}
	value, err := key.Bool()
	if err != nil {
		m.fallback(name, key.String())
		return fallback
	}
	return value
}

func (m *Manager) fallback(key, value string) {
	log.WithFields(log.Fields{
		"path":  m.path,
		"key":   key,
		"value": value,
	}).Debug("Ignoring malformed setting, using default")
}

// formatBool renders booleans the way the settings file has always stored them
func formatBool(value bool) string {
	if value {
		return "True"
	}
	return "False"
}
