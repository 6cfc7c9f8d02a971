package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/wricardo/mcp-training/boxpusher/game/engine"
	"github.com/wricardo/mcp-training/boxpusher/game/service"
)

var (
	ErrConfigNotFound = errors.New("configuration not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// levelExtensions are tried in order when a level is looked up by id
var levelExtensions = []string{".json", ".yaml", ".yml"}

// DefaultDebounce is how long Watch waits for a burst of writes to settle
const DefaultDebounce = 100 * time.Millisecond

// Manager handles level file loading and caching
type Manager struct {
	configDir     string
	defaultConfig *engine.LevelConfig
	configs       map[string]*engine.LevelConfig
	debounce      time.Duration
	mu            sync.RWMutex
}

// NewManager creates a new configuration manager
func NewManager(configDir string) (*Manager, error) {
	// Ensure config directory exists
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		configs:   make(map[string]*engine.LevelConfig),
		debounce:  DefaultDebounce,
	}

	// Load default config
	if err := m.loadDefaultConfig(); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	return m, nil
}

// Dir returns the watched directory
func (m *Manager) Dir() string {
	return m.configDir
}

// configID strips a level extension from a file or config name
func configID(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range levelExtensions {
		if ext == e {
			return strings.TrimSuffix(name, filepath.Ext(name))
		}
	}
	return name
}

func isLevelFile(name string) bool {
	return configID(name) != name
}

// resolve finds the file backing a config name
func (m *Manager) resolve(name string) (string, error) {
	if isLevelFile(name) {
		path := filepath.Join(m.configDir, name)
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%w: %s", ErrConfigNotFound, name)
		}
		return path, nil
	}
	for _, ext := range levelExtensions {
		path := filepath.Join(m.configDir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrConfigNotFound, name)
}

// LoadConfig loads a level by id ("classic") or file name ("classic.yaml")
func (m *Manager) LoadConfig(name string) (*engine.LevelConfig, error) {
	id := configID(name)

	m.mu.RLock()
	// Check cache first
	if config, exists := m.configs[id]; exists {
		m.mu.RUnlock()
		return config, nil
	}
	m.mu.RUnlock()

	// Load from file
	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if config, exists := m.configs[id]; exists {
		return config, nil
	}

	path, err := m.resolve(name)
	if err != nil {
		return nil, err
	}

	config, err := engine.LoadLevelConfig(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, name)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	m.configs[id] = config
	return config, nil
}

// ListConfigs returns information about all valid level files. When a level
// exists in several formats the first file in directory order wins.
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var configs []*service.ConfigInfo
	seen := make(map[string]bool)

	for _, entry := range entries {
		if entry.IsDir() || !isLevelFile(entry.Name()) {
			continue
		}
		id := configID(entry.Name())
		if seen[id] {
			continue
		}

		config, err := m.LoadConfig(entry.Name())
		if err != nil {
			// Skip invalid configs
			continue
		}
		level, err := engine.BuildLevel(config)
		if err != nil {
			continue
		}
		seen[id] = true

		features := level.Map.Count(engine.Spring) + level.Map.Count(engine.Treadmill) + level.Map.Count(engine.Oily)
		configs = append(configs, &service.ConfigInfo{
			Filename:    entry.Name(),
			ConfigID:    id, // This is the identifier to use for session creation
			Name:        config.Name,
			Description: config.Description,
			Width:       level.Map.Width(),
			Height:      level.Map.Height(),
			Boxes:       len(level.Start.Boxes),
			HasFeatures: features > 0,
		})
	}

	sort.Slice(configs, func(i, j int) bool { return configs[i].ConfigID < configs[j].ConfigID })
	return configs, nil
}

// GetDefault returns the default configuration
func (m *Manager) GetDefault() *engine.LevelConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// SetDefault sets the default configuration by name
func (m *Manager) SetDefault(name string) error {
	config, err := m.LoadConfig(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultConfig = config
	return nil
}

// RefreshCache drops every cached level and reloads the default one
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.configs = make(map[string]*engine.LevelConfig)
	m.mu.Unlock()

	return m.loadDefaultConfig()
}

// Invalidate drops one level from the cache. The default level is reloaded
// when it was the one that changed.
func (m *Manager) Invalidate(name string) {
	id := configID(name)

	m.mu.Lock()
	cached, ok := m.configs[id]
	delete(m.configs, id)
	wasDefault := ok && cached == m.defaultConfig
	m.mu.Unlock()

	if wasDefault {
		if err := m.loadDefaultConfig(); err != nil {
			log.Printf("Failed to reload default level: %v", err)
		}
	}
}

// loadDefaultConfig loads the default configuration
func (m *Manager) loadDefaultConfig() error {
	// Try to load classic as default
	config, err := m.LoadConfig("classic")
	if err != nil {
		// Try to load the first available config
		configs, listErr := m.ListConfigs()
		if listErr != nil || len(configs) == 0 {
			config = engine.DefaultLevelConfig()
		} else if config, err = m.LoadConfig(configs[0].Filename); err != nil {
			config = engine.DefaultLevelConfig()
		}
	}

	m.mu.Lock()
	m.defaultConfig = config
	m.mu.Unlock()
	return nil
}

// SaveConfig validates and writes a level. A name ending in .yaml or .yml
// is written as YAML, anything else as JSON.
func (m *Manager) SaveConfig(name string, config *engine.LevelConfig) error {
	// Validate config before saving
	if err := engine.ValidateLevelConfig(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	filename := name
	if !isLevelFile(filename) {
		filename = name + ".json"
	}
	if strings.ContainsAny(filename, `/\`) || strings.HasPrefix(filename, ".") {
		return fmt.Errorf("%w: config name %q must be a plain file name", ErrInvalidConfig, name)
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(config)
	default:
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	configPath := filepath.Join(m.configDir, filename)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	// Update cache
	m.mu.Lock()
	m.configs[configID(filename)] = config
	m.mu.Unlock()

	return nil
}

// Watch follows the config directory until ctx is done. Every level file
// that is written, created, removed or renamed is dropped from the cache and
// reported to onChange by its config id, once per burst of events.
func (m *Manager) Watch(ctx context.Context, onChange func(configID string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(m.configDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", m.configDir, err)
	}

	pending := make(map[string]bool)
	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(event.Name)
			if !isLevelFile(name) || strings.HasPrefix(name, ".") {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			pending[configID(name)] = true
			if timer == nil {
				timer = time.NewTimer(m.debounce)
			} else {
				timer.Reset(m.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			for id := range pending {
				m.Invalidate(id)
				log.Printf("Level %s changed on disk, cache dropped", id)
				if onChange != nil {
					onChange(id)
				}
			}
			pending = make(map[string]bool)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("Config watcher error: %v", err)
		}
	}
}
