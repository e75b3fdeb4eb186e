package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/ziadkadry99/tinytune/internal/media"
)

// EnvPrefix marks environment overrides. A double underscore separates
// nested keys: TINYTUNE_TILES__MEDIUM__WIDTH -> tiles.medium.width.
const EnvPrefix = "TINYTUNE_"

// defaultsProvider feeds DefaultConfig into koanf so that partial files
// and env vars merge key by key with the defaults.
type defaultsProvider struct{}

func (defaultsProvider) ReadBytes() ([]byte, error) {
	return yamlv3.Marshal(DefaultConfig())
}

func (defaultsProvider) Read() (map[string]interface{}, error) {
	return nil, fmt.Errorf("defaults provider does not support Read")
}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (TINYTUNE_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	if err := k.Load(defaultsProvider{}, yaml.Parser()); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: TINYTUNE_PORT -> port, etc.
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.MediaDir == "" {
		return fmt.Errorf("media_dir is required")
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", c.Port)
	}

	if c.PreviewSuffix == "" {
		return fmt.Errorf("preview_suffix is required")
	}

	if _, ok := media.LookupSort(c.DefaultSort); !ok {
		return fmt.Errorf("invalid default_sort %q: must be one of %s",
			c.DefaultSort, strings.Join(media.SortNames(), ", "))
	}

	if _, err := c.Debounce(); err != nil {
		return err
	}

	if _, err := c.MaxFileSizeBytes(); err != nil {
		return err
	}

	if _, err := c.PreviewTimeoutDuration(); err != nil {
		return err
	}

	if err := c.Tiles.Table().Validate(); err != nil {
		return fmt.Errorf("invalid tiles: %w", err)
	}

	return nil
}

// Debounce returns the quiet period the watcher waits before a rescan.
func (c *Config) Debounce() (time.Duration, error) {
	if c.WatchDebounce == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.WatchDebounce)
	if err != nil {
		return 0, fmt.Errorf("invalid watch_debounce %q: %w", c.WatchDebounce, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("watch_debounce must be non-negative")
	}
	return d, nil
}

// PreviewTimeoutDuration bounds each ffmpeg or ffprobe run. Empty means no limit.
func (c *Config) PreviewTimeoutDuration() (time.Duration, error) {
	if c.PreviewTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.PreviewTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid preview_timeout %q: %w", c.PreviewTimeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("preview_timeout must be non-negative")
	}
	return d, nil
}

// PreviewsPath returns the directory generated previews are written to.
func (c *Config) PreviewsPath() string {
	return filepath.Join(c.DataPath(), "previews")
}

// MaxFileSizeBytes parses max_file_size ("500MB", "2GiB"). Empty means no limit.
func (c *Config) MaxFileSizeBytes() (int64, error) {
	if c.MaxFileSize == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(c.MaxFileSize)
	if err != nil {
		return 0, fmt.Errorf("invalid max_file_size %q: %w", c.MaxFileSize, err)
	}
	return int64(n), nil
}

// DataPath returns the directory holding the database and lock file.
func (c *Config) DataPath() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	return filepath.Join(c.MediaDir, DefaultDataDirName)
}

// DatabasePath returns the SQLite file location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataPath(), "tinytune.db")
}

// ScanConfig builds the scanner settings for this configuration.
func (c *Config) ScanConfig() (media.ScanConfig, error) {
	maxSize, err := c.MaxFileSizeBytes()
	if err != nil {
		return media.ScanConfig{}, err
	}
	return media.ScanConfig{
		Root:          c.MediaDir,
		Include:       c.Include,
		Exclude:       c.Exclude,
		PreviewSuffix: c.PreviewSuffix,
		SkipDirs:      []string{c.DataPath()},
		MaxFileSize:   maxSize,
	}, nil
}
