package config

import (
	"strings"
	"sync"
)

// Config holds the coordinates and credentials of the backing GitHub repo.
// It is replaced wholesale on save and cleared wholesale on disconnect,
// never partially mutated.
type Config struct {
	Owner  string `json:"owner"`
	Repo   string `json:"repo"`
	Branch string `json:"branch"`
	Token  string `json:"token"`
}

// New builds a Config from raw user input: all fields are trimmed and an
// empty branch defaults to "main".
func New(owner, repo, branch, token string) Config {
	branch = strings.TrimSpace(branch)
	if branch == "" {
		branch = "main"
	}
	return Config{
		Owner:  strings.TrimSpace(owner),
		Repo:   strings.TrimSpace(repo),
		Branch: branch,
		Token:  strings.TrimSpace(token),
	}
}

// Connected reports whether the config is usable: owner, repo and token all
// non-empty.
func (c Config) Connected() bool {
	return c.Owner != "" && c.Repo != "" && c.Token != ""
}

// Store persists a single config entry. Implemented by *FileStore; inject a
// fake in tests.
type Store interface {
	Save(Config) error
	Load() (Config, bool, error)
	Clear() error
}

// Manager owns the current connection config and keeps it in sync with a
// Store. Saves are last-write-wins; there is no merging.
type Manager struct {
	mu    sync.Mutex
	cur   Config
	has   bool
	store Store
}

func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Save normalizes the input, replaces the current config and persists it.
func (m *Manager) Save(owner, repo, branch, token string) error {
	cfg := New(owner, repo, branch, token)
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Save(cfg); err != nil {
		return err
	}
	m.cur = cfg
	m.has = true
	return nil
}

// Load restores the config from the store and reports whether one now
// exists. Absent or malformed stored data is treated as "no config"; Load
// never fails because of it.
func (m *Manager) Load() bool {
	cfg, ok, err := m.store.Load()
	if err != nil || !ok {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cur = cfg
	m.has = true
	return true
}

// Clear drops the current config and removes the stored entry.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cur = Config{}
	m.has = false
	return m.store.Clear()
}

// Current returns the active config and whether one is set.
func (m *Manager) Current() (Config, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cur, m.has
}

// Connected reports whether a usable config is active.
func (m *Manager) Connected() bool {
	cfg, ok := m.Current()
	return ok && cfg.Connected()
}
