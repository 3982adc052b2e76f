package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed config.toml.sample
var configTemplate string

// Stale response policies for superseded requests.
const (
	// StaleCancel cancels the superseded request's context and ignores any
	// response that still arrives.
	StaleCancel = "cancel"
	// StaleCompare lets superseded requests run to completion and drops their
	// responses by generation comparison only.
	StaleCompare = "compare"
)

// Credential sources.
const (
	AuthKeyring = "keyring"
	AuthFile    = "file"
	AuthEnv     = "env"
)

type Config struct {
	StorageDir string       `toml:"storage_dir"`
	API        APIConfig    `toml:"api"`
	Auth       AuthConfig   `toml:"auth"`
	Engine     EngineConfig `toml:"engine"`
	View       ViewConfig   `toml:"view"`
	Web        WebConfig    `toml:"web"`
}

type APIConfig struct {
	BaseURL           string   `toml:"base_url"`
	Timeout           Duration `toml:"timeout"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	Burst             int      `toml:"burst"`
}

type AuthConfig struct {
	// Source is one of "keyring", "file" or "env".
	Source string `toml:"source"`
	// File is the credential file used when Source is "file".
	File string `toml:"file,omitempty"`
}

type EngineConfig struct {
	PreviewDebounce    Duration `toml:"preview_debounce"`
	LowCreditThreshold int      `toml:"low_credit_threshold"`
	StalePolicy        string   `toml:"stale_policy"`
	PageSize           int      `toml:"page_size"`
}

type ViewConfig struct {
	Mode        string `toml:"mode"`
	CardHeight  int    `toml:"card_height"`
	RowHeight   int    `toml:"row_height"`
	CardColumns int    `toml:"card_columns"`
	Overscan    int    `toml:"overscan"`
}

type WebConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// GetDefaultConfig returns the configuration used when no file exists.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = "https://api.prospect.dev"
	}
	if c.API.Timeout.Duration == 0 {
		c.API.Timeout = Duration{30 * time.Second}
	}
	if c.API.RequestsPerSecond == 0 {
		c.API.RequestsPerSecond = 5
	}
	if c.API.Burst == 0 {
		c.API.Burst = 10
	}
	if c.Auth.Source == "" {
		c.Auth.Source = AuthKeyring
	}
	if c.Engine.PreviewDebounce.Duration == 0 {
		c.Engine.PreviewDebounce = Duration{500 * time.Millisecond}
	}
	if c.Engine.LowCreditThreshold == 0 {
		c.Engine.LowCreditThreshold = 10
	}
	if c.Engine.StalePolicy == "" {
		c.Engine.StalePolicy = StaleCancel
	}
	if c.Engine.PageSize == 0 {
		c.Engine.PageSize = 25
	}
	if c.View.Mode == "" {
		c.View.Mode = "cards"
	}
	if c.View.CardHeight == 0 {
		c.View.CardHeight = 6
	}
	if c.View.RowHeight == 0 {
		c.View.RowHeight = 1
	}
	if c.View.CardColumns == 0 {
		c.View.CardColumns = 2
	}
	if c.View.Overscan == 0 {
		c.View.Overscan = 2
	}
	if c.Web.Host == "" {
		c.Web.Host = "localhost"
	}
	if c.Web.Port == 0 {
		c.Web.Port = 8080
	}
}

// LoadConfig reads the TOML file at configPath. A missing file yields the
// default configuration; missing fields take their default values.
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		cfg := GetDefaultConfig()
		if cfg.StorageDir, err = GetDefaultStorageDir(); err != nil {
			return nil, fmt.Errorf("getting default storage directory: %w", err)
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if config.StorageDir == "" {
		storageDir, err := GetDefaultStorageDir()
		if err != nil {
			return nil, fmt.Errorf("getting default storage directory: %w", err)
		}
		config.StorageDir = storageDir
	}
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []string

	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		errs = append(errs, "api.base_url must be an http(s) URL")
	}
	if c.API.Timeout.Duration < 0 {
		errs = append(errs, "api.timeout must be >= 0")
	}
	if c.API.RequestsPerSecond < 0 {
		errs = append(errs, "api.requests_per_second must be >= 0")
	}
	switch c.Auth.Source {
	case AuthKeyring, AuthEnv:
	case AuthFile:
		if c.Auth.File == "" {
			errs = append(errs, "auth.file is required when auth.source is \"file\"")
		}
	default:
		errs = append(errs, fmt.Sprintf("auth.source %q must be keyring, file or env", c.Auth.Source))
	}
	if c.Engine.PreviewDebounce.Duration < 0 {
		errs = append(errs, "engine.preview_debounce must be >= 0")
	}
	if c.Engine.StalePolicy != StaleCancel && c.Engine.StalePolicy != StaleCompare {
		errs = append(errs, fmt.Sprintf("engine.stale_policy %q must be cancel or compare", c.Engine.StalePolicy))
	}
	if c.Engine.PageSize < 1 || c.Engine.PageSize > 500 {
		errs = append(errs, "engine.page_size must be 1..500")
	}
	if c.View.Mode != "cards" && c.View.Mode != "table" {
		errs = append(errs, fmt.Sprintf("view.mode %q must be cards or table", c.View.Mode))
	}
	if c.View.CardHeight < 1 || c.View.RowHeight < 1 {
		errs = append(errs, "view.card_height and view.row_height must be >= 1")
	}
	if c.View.CardColumns < 1 {
		errs = append(errs, "view.card_columns must be >= 1")
	}
	if c.View.Overscan < 0 {
		errs = append(errs, "view.overscan must be >= 0")
	}
	if c.Web.Port <= 0 || c.Web.Port > 65535 {
		errs = append(errs, "web.port must be 1..65535")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n- " + strings.Join(errs, "\n- "))
	}
	return nil
}

func (c *Config) SaveConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

// SaveTemplateConfig writes the commented sample configuration.
func (c *Config) SaveTemplateConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	storageDir := c.StorageDir
	if storageDir == "" {
		var err error
		storageDir, err = GetDefaultStorageDir()
		if err != nil {
			return fmt.Errorf("getting default storage directory: %w", err)
		}
	}

	template := strings.Replace(configTemplate, "/home/user/.local/share/prospect", storageDir, 1)
	return os.WriteFile(configPath, []byte(template), 0644)
}

// GetDefaultStorageDir returns the directory holding the history database.
func GetDefaultStorageDir() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	dir := filepath.Join(dataDir, "prospect")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating storage directory %s: %w", dir, err)
	}
	return dir, nil
}

// GetConfigDir returns the configuration directory for prospect.
func GetConfigDir() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	dir := filepath.Join(configDir, "prospect")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return dir, nil
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}
