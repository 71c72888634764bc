package commands

import (
	"os"
	"path/filepath"
	"time"

	"github.com/nateberkopec/jobalert/internal/config"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string

	// BaseURL, Session and Interval override the config file when set.
	BaseURL  string
	Session  string
	Interval time.Duration

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "jobalert", "config.yaml")
}

// DefaultDataDir returns the default data directory using XDG_DATA_HOME.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "jobalert")
}

// ApplyOverrides copies flag and environment values onto the loaded config.
func (f *Flags) ApplyOverrides() {
	if f.Config == nil {
		return
	}
	if f.BaseURL != "" {
		f.Config.Server.BaseURL = f.BaseURL
	}
	if f.Session != "" {
		f.Config.Server.SessionCookie = f.Session
	}
	if f.Interval > 0 {
		f.Config.Polling.Interval = f.Interval
	}
}
