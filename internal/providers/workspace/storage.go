package workspace

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mcbarin/personal-ai-assistant/pkg/log"
)

// FileStorage persists the server set as a JSON file and polls it for
// edits so servers can be added without restarting the assistant.
type FileStorage struct {
	path string
	mu   sync.RWMutex
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{
		path: path,
	}
}

// Load reads the config. If the file is missing, it creates a default one.
func (c *FileStorage) Load(ctx context.Context) (*Config, error) {
	c.mu.RLock()
	data, err := os.ReadFile(c.path)
	c.mu.RUnlock()

	if err != nil {
		if os.IsNotExist(err) {
			dir := filepath.Dir(c.path)
			if _, statErr := os.Stat(dir); os.IsNotExist(statErr) {
				return nil, fmt.Errorf("config directory does not exist: %w", err)
			}

			log.FromCtx(ctx).Info().Str("path", c.path).Msg("workspace config not found, creating default")

			config := &Config{
				MCPServers: make(map[string]ServerConfig),
			}

			if err = c.Save(ctx, config); err != nil {
				return nil, fmt.Errorf("failed to create default config: %w", err)
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read workspace config: %w", err)
	}

	config := &Config{
		MCPServers: make(map[string]ServerConfig),
	}
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse workspace config: %w", err)
	}

	if config.MCPServers == nil {
		config.MCPServers = make(map[string]ServerConfig)
	}

	return config, nil
}

func (c *FileStorage) Save(ctx context.Context, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Watch emits a Config every time the file's modification timestamp moves
// forward and the contents parse. Unparseable edits are logged and skipped.
func (c *FileStorage) Watch(ctx context.Context) (<-chan Config, error) {
	updates := make(chan Config)

	info, err := os.Stat(c.path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	lastMod := info.ModTime()

	go func() {
		defer close(updates)

		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.mu.RLock()
				data, err := os.ReadFile(c.path)
				c.mu.RUnlock()

				if err != nil {
					lastMod = time.Time{}
					continue
				}

				info, err = os.Stat(c.path)
				if err != nil {
					lastMod = time.Time{}
					continue
				}

				if !info.ModTime().After(lastMod) {
					continue
				}

				var config Config
				if err := json.Unmarshal(data, &config); err != nil {
					log.FromCtx(ctx).Error().Err(err).Msg("failed to parse workspace config")
					continue
				}

				if config.MCPServers == nil {
					config.MCPServers = make(map[string]ServerConfig)
				}

				lastMod = info.ModTime()

				select {
				case updates <- config:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return updates, nil
}
