// Package settings holds the runtime-mutable gateway configuration. Unlike
// the process environment in internal/config, these values can be changed
// through the API while the gateway is running and are persisted to disk so
// they survive restarts.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"utec-gateway/internal/common/errors"
	"utec-gateway/internal/common/logging"
)

const (
	DefaultAPIBaseURL   = "https://api.u-tec.com"
	DefaultOAuthBaseURL = "https://oauth.u-tec.com"
	DefaultActionPath   = "/action"
	DefaultScope        = "openapi"

	DefaultPollInterval  = 60 * time.Second
	MinPollInterval      = 5 * time.Second
	DefaultRefreshBuffer = 5 * time.Minute
)

// Settings is the mutable configuration snapshot. Values returned from the
// manager are copies; mutating them has no effect until passed back through
// Update.
type Settings struct {
	APIBaseURL    string        `json:"api_base_url"`
	OAuthBaseURL  string        `json:"oauth_base_url"`
	ActionPath    string        `json:"action_path"`
	Scope         string        `json:"scope"`
	RedirectURI   string        `json:"redirect_uri"`
	PollInterval  time.Duration `json:"poll_interval"`
	AutoRefresh   bool          `json:"auto_refresh"`
	RefreshBuffer time.Duration `json:"refresh_buffer"`
}

// Defaults returns the settings used before any operator customization.
func Defaults() Settings {
	return Settings{
		APIBaseURL:    DefaultAPIBaseURL,
		OAuthBaseURL:  DefaultOAuthBaseURL,
		ActionPath:    DefaultActionPath,
		Scope:         DefaultScope,
		PollInterval:  DefaultPollInterval,
		AutoRefresh:   true,
		RefreshBuffer: DefaultRefreshBuffer,
	}
}

// Validate checks that the settings are usable.
func (s Settings) Validate() error {
	if s.APIBaseURL == "" {
		return errors.ValidationError("api_base_url must not be empty")
	}
	if s.OAuthBaseURL == "" {
		return errors.ValidationError("oauth_base_url must not be empty")
	}
	if s.PollInterval < MinPollInterval {
		return errors.ValidationError(fmt.Sprintf("poll_interval must be at least %s", MinPollInterval))
	}
	if s.RefreshBuffer < 0 {
		return errors.ValidationError("refresh_buffer must not be negative")
	}
	return nil
}

// ChangeHook is invoked after a successful Update with the old and new
// settings. Hooks run on the updating goroutine while no lock is held.
type ChangeHook func(old, updated Settings)

// Manager guards a Settings value, persists changes to a JSON file and
// notifies registered hooks when values change.
type Manager struct {
	path   string
	logger logging.Logger

	mu      sync.RWMutex
	current Settings
	hooks   []ChangeHook
}

// NewManager loads settings from path, falling back to defaults when the
// file does not exist yet.
func NewManager(path string, logger logging.Logger) (*Manager, error) {
	m := &Manager{
		path:    path,
		logger:  logger,
		current: Defaults(),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, errors.ConfigError(fmt.Sprintf("read settings file: %v", err))
	}

	loaded := Defaults()
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("parse settings file %s: %v", path, err))
	}
	if err := loaded.Validate(); err != nil {
		return nil, err
	}
	m.current = loaded
	return m, nil
}

// Get returns a copy of the current settings.
func (m *Manager) Get() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// OnChange registers a hook that fires after every successful update.
func (m *Manager) OnChange(hook ChangeHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, hook)
}

// Update applies fn to a copy of the current settings, validates and
// persists the result, then fires the change hooks. The stored settings are
// untouched when validation or persistence fails.
func (m *Manager) Update(fn func(*Settings)) (Settings, error) {
	m.mu.Lock()

	old := m.current
	updated := m.current
	fn(&updated)

	if err := updated.Validate(); err != nil {
		m.mu.Unlock()
		return old, err
	}
	if err := m.persist(updated); err != nil {
		m.mu.Unlock()
		return old, err
	}

	m.current = updated
	hooks := make([]ChangeHook, len(m.hooks))
	copy(hooks, m.hooks)
	m.mu.Unlock()

	for _, hook := range hooks {
		hook(old, updated)
	}

	if m.logger != nil {
		m.logger.Info("settings updated",
			logging.String("poll_interval", updated.PollInterval.String()),
			logging.Bool("auto_refresh", updated.AutoRefresh),
		)
	}
	return updated, nil
}

// persist writes the settings atomically. Callers hold the write lock.
func (m *Manager) persist(s Settings) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o700); err != nil {
		return errors.ConfigError(fmt.Sprintf("create settings dir: %v", err))
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.InternalError("encode settings", err)
	}

	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.ConfigError(fmt.Sprintf("write settings file: %v", err))
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return errors.ConfigError(fmt.Sprintf("replace settings file: %v", err))
	}
	return nil
}
