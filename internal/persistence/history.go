package persistence

import (
	"fmt"
	"time"
)

type historyData struct {
	Version  int       `json:"version"`
	Commands []string  `json:"commands"`
	SavedAt  time.Time `json:"saved_at"`
}

const (
	historyFile    = "history.json"
	historyVersion = 1
	maxHistorySize = 1000
)

// SaveHistory stores the compose history, keeping the newest entries.
func (s *Store) SaveHistory(commands []string) error {
	// Limit history size
	if len(commands) > maxHistorySize {
		commands = commands[len(commands)-maxHistorySize:]
	}

	return s.writeJSON(historyFile, historyData{
		Version:  historyVersion,
		Commands: commands,
		SavedAt:  time.Now(),
	})
}

func (s *Store) LoadHistory() ([]string, error) {
	var history historyData
	ok, err := s.readJSON(historyFile, &history)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []string{}, nil
	}

	if history.Version != historyVersion {
		return nil, fmt.Errorf("unsupported history version: %d", history.Version)
	}

	return history.Commands, nil
}
