package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vkmindia80/critpath/internal/config"
	"github.com/vkmindia80/critpath/internal/engine"
	"github.com/vkmindia80/critpath/internal/store"
)

const critpathDirName = ".critpath"

// critpathPath returns the path to a file inside .critpath/.
func critpathPath(parts ...string) string {
	elems := append([]string{critpathDirName}, parts...)
	return filepath.Join(elems...)
}

// mustStore opens the store, returning an error if critpath is not initialized.
func mustStore() (*store.Store, error) {
	dbPath := critpathPath("critpath.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("critpath not initialized. Run: critpath init")
	}
	return openStore(dbPath)
}

// openStore opens or creates the SQLite store at the given path.
func openStore(dbPath string) (*store.Store, error) {
	return store.New(dbPath)
}

// loadConfig reads .critpath/config.yaml, falling back to defaults when
// the file is missing.
func loadConfig() *config.Config {
	cfg, err := config.Load(critpathPath("config.yaml"))
	if err != nil {
		return config.DefaultConfig()
	}
	return cfg
}

// logEvent appends a commit event to the project's event log. Event
// writes never fail the command that triggered them.
func logEvent(s *store.Store, ev engine.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	s.AddEvent(ev.ProjectID, string(ev.Type), string(payload))
}

// parseDate accepts a plain date or a full RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD or RFC 3339)", s)
}

// formatDate renders an instant for display, blank for the zero time.
func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04")
}
