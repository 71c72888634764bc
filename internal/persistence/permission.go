package persistence

import (
	"fmt"
	"time"

	"github.com/nateberkopec/jobalert/internal/notifier"
)

const (
	permissionFile    = "permission.json"
	permissionVersion = 1
)

type permissionData struct {
	Version   int       `json:"version"`
	Decision  string    `json:"decision"`
	DecidedAt time.Time `json:"decided_at"`
}

// PermissionRecord is the remembered answer to the alert prompt.
type PermissionRecord struct {
	Permission notifier.Permission
	DecidedAt  time.Time
}

// SavePermission remembers the user's decision. Saving PermissionUnknown
// forgets it.
func (s *Store) SavePermission(p notifier.Permission) error {
	if p == notifier.PermissionUnknown {
		return s.ResetPermission()
	}
	return s.writeJSON(permissionFile, permissionData{
		Version:   permissionVersion,
		Decision:  p.String(),
		DecidedAt: time.Now(),
	})
}

// LoadPermission returns the remembered decision, or PermissionUnknown when
// none was recorded.
func (s *Store) LoadPermission() (PermissionRecord, error) {
	var data permissionData
	ok, err := s.readJSON(permissionFile, &data)
	if err != nil || !ok {
		return PermissionRecord{}, err
	}

	if data.Version != permissionVersion {
		return PermissionRecord{}, fmt.Errorf("unsupported permission version: %d", data.Version)
	}

	return PermissionRecord{
		Permission: notifier.ParsePermission(data.Decision),
		DecidedAt:  data.DecidedAt,
	}, nil
}

// ResetPermission forgets the decision so the next start prompts again.
func (s *Store) ResetPermission() error {
	return s.remove(permissionFile)
}
