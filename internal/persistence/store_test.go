package persistence

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/nateberkopec/jobalert/internal/notifier"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "jobalert"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return store
}

func TestOpenCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "jobalert")
	store, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if info, err := os.Stat(store.Dir()); err != nil || !info.IsDir() {
		t.Fatalf("expected data directory at %s", dir)
	}

	if _, err := Open(""); err == nil {
		t.Fatal("expected error for empty directory")
	}
}

func TestPermissionRoundTrip(t *testing.T) {
	store := openTestStore(t)

	record, err := store.LoadPermission()
	if err != nil {
		t.Fatalf("LoadPermission failed on missing file: %v", err)
	}
	if record.Permission != notifier.PermissionUnknown {
		t.Fatalf("expected unknown permission, got %s", record.Permission)
	}

	if err := store.SavePermission(notifier.PermissionDenied); err != nil {
		t.Fatalf("SavePermission failed: %v", err)
	}

	record, err = store.LoadPermission()
	if err != nil {
		t.Fatalf("LoadPermission failed: %v", err)
	}
	if record.Permission != notifier.PermissionDenied {
		t.Errorf("expected denied, got %s", record.Permission)
	}
	if record.DecidedAt.IsZero() {
		t.Error("expected decision timestamp")
	}

	if _, err := os.Stat(store.Path(permissionFile) + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}

func TestPermissionReset(t *testing.T) {
	store := openTestStore(t)

	if err := store.SavePermission(notifier.PermissionGranted); err != nil {
		t.Fatalf("SavePermission failed: %v", err)
	}
	if err := store.ResetPermission(); err != nil {
		t.Fatalf("ResetPermission failed: %v", err)
	}
	if err := store.ResetPermission(); err != nil {
		t.Fatalf("second ResetPermission should be a no-op: %v", err)
	}

	record, err := store.LoadPermission()
	if err != nil {
		t.Fatalf("LoadPermission failed: %v", err)
	}
	if record.Permission != notifier.PermissionUnknown {
		t.Errorf("expected unknown after reset, got %s", record.Permission)
	}
}

func TestPermissionVersionMismatch(t *testing.T) {
	store := openTestStore(t)

	data := []byte(`{"version": 99, "decision": "granted"}`)
	if err := os.WriteFile(store.Path(permissionFile), data, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := store.LoadPermission(); err == nil {
		t.Fatal("expected version error")
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	store := openTestStore(t)

	history, err := store.LoadHistory()
	if err != nil {
		t.Fatalf("LoadHistory failed on missing file: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expected empty history, got %v", history)
	}

	commands := []string{"Deadline | Acme closes Friday", "Interview at 3pm"}
	if err := store.SaveHistory(commands); err != nil {
		t.Fatalf("SaveHistory failed: %v", err)
	}

	loaded, err := store.LoadHistory()
	if err != nil {
		t.Fatalf("LoadHistory failed: %v", err)
	}
	if len(loaded) != 2 || loaded[0] != commands[0] || loaded[1] != commands[1] {
		t.Errorf("unexpected history: %v", loaded)
	}
}

func TestHistoryTrimmed(t *testing.T) {
	store := openTestStore(t)

	commands := make([]string, maxHistorySize+5)
	for i := range commands {
		commands[i] = fmt.Sprintf("alert %d", i)
	}
	if err := store.SaveHistory(commands); err != nil {
		t.Fatalf("SaveHistory failed: %v", err)
	}

	loaded, err := store.LoadHistory()
	if err != nil {
		t.Fatalf("LoadHistory failed: %v", err)
	}
	if len(loaded) != maxHistorySize {
		t.Fatalf("expected %d entries, got %d", maxHistorySize, len(loaded))
	}
	if loaded[0] != "alert 5" {
		t.Errorf("expected oldest entries dropped, first is %q", loaded[0])
	}
}
