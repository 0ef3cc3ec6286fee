// Package config loads and persists the receiver's JSON settings file.
package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Settings is the on-disk configuration for the HLS video session subsystem.
type Settings struct {
	Server  ServerSettings  `json:"server"`
	Session SessionSettings `json:"session"`
	Resume  ResumeSettings  `json:"resume"`
	Log     LogSettings     `json:"log"`
}

// ServerSettings controls the forward-channel HTTP listener.
type ServerSettings struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// SessionSettings controls registry capacity and language defaults.
type SessionSettings struct {
	// RegistryCapacity is the fixed number of session slots (spec: 10).
	RegistryCapacity int `json:"registryCapacity"`
	// Lang is the operator's colon-separated preferred-language list, e.g. "en:fr:de".
	Lang string `json:"lang"`
	// AdvertisementMaxDurationSeconds below this a session's media is treated as an ad.
	AdvertisementMaxDurationSeconds float64 `json:"advertisementMaxDurationSeconds"`
	// LocalPortRangeStart is the first port handed out to the local HLS listener per session.
	LocalPortRangeStart int `json:"localPortRangeStart"`
}

// ResumeSettings controls the durable resume-position store.
type ResumeSettings struct {
	Enabled bool   `json:"enabled"`
	DBPath  string `json:"dbPath"`
}

// LogSettings controls the injected logger's rotation sink.
type LogSettings struct {
	File       string `json:"file"`
	Level      string `json:"level"`
	MaxSize    int    `json:"maxSize"`
	MaxBackups int    `json:"maxBackups"`
	MaxAge     int    `json:"maxAge"`
	Compress   bool   `json:"compress"`
}

// DefaultSettings returns the settings used when no config file exists yet.
func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{Host: "0.0.0.0", Port: 7000},
		Session: SessionSettings{
			RegistryCapacity:                10,
			Lang:                            "en",
			AdvertisementMaxDurationSeconds: 90,
			LocalPortRangeStart:             7100,
		},
		Resume: ResumeSettings{
			Enabled: true,
			DBPath:  "cache/resume.db",
		},
		Log: LogSettings{
			File:       "cache/logs/hls-video.log",
			Level:      "info",
			MaxSize:    50,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   true,
		},
	}
}

// Manager loads and persists settings to a JSON file.
type Manager struct {
	path string
}

// NewManager returns a Manager rooted at configPath.
func NewManager(configPath string) *Manager {
	return &Manager{path: configPath}
}

// EnsureDir ensures the config file's parent directory exists.
func (m *Manager) EnsureDir() error {
	dir := filepath.Dir(m.path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Load reads settings from disk, creating the file with defaults if missing.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}
	if _, err := os.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		defaults := DefaultSettings()
		if err := m.Save(defaults); err != nil {
			return Settings{}, err
		}
		return defaults, nil
	}
	f, err := os.Open(m.path)
	if err != nil {
		return Settings{}, err
	}
	defer f.Close()

	var s Settings
	dec := json.NewDecoder(f)
	if err := dec.Decode(&s); err != nil {
		return Settings{}, err
	}
	if s.Session.RegistryCapacity <= 0 {
		s.Session.RegistryCapacity = DefaultSettings().Session.RegistryCapacity
	}
	return s, nil
}

// Save writes the provided settings to disk atomically.
func (m *Manager) Save(s Settings) error {
	if m.path == "" {
		return errors.New("config path not set")
	}
	if err := m.EnsureDir(); err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, m.path)
}
