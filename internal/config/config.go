// Package config provides configuration file support for sixtrace.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the sixtrace configuration file structure.
type Config struct {
	// Defaults are applied when flags are not specified
	Defaults Defaults `yaml:"defaults"`

	// MaxMind holds settings for offline ASN/GeoIP lookups.
	MaxMind MaxMindConfig `yaml:"maxmind,omitempty"`

	// Aliases for common targets
	Aliases map[string]string `yaml:"aliases,omitempty"`
}

// MaxMindConfig holds settings for the optional MaxMind GeoLite2 databases.
type MaxMindConfig struct {
	Enabled     bool   `yaml:"enabled"`
	LicenseKey  string `yaml:"license_key"`
	UpdateHours int    `yaml:"update_hours"`
}

// Defaults holds default values for trace parameters.
type Defaults struct {
	// Output mode
	TUI     bool `yaml:"tui"`
	Verbose bool `yaml:"verbose"`
	JSON    bool `yaml:"json"`
	CSV     bool `yaml:"csv"`
	NoColor bool `yaml:"no_color"`

	// Probe method: icmp, udp
	ProbeMethod string `yaml:"probe_method"`

	// Trace parameters
	MaxHops    int           `yaml:"max_hops"`
	Queries    int           `yaml:"queries"`
	Timeout    time.Duration `yaml:"timeout"`
	FirstHop   int           `yaml:"first_hop"`
	Sequential bool          `yaml:"sequential"`

	// Network
	Interface string `yaml:"interface"`
	Port      int    `yaml:"port"`

	// Enrichment
	Enrichment EnrichmentConfig `yaml:"enrichment"`
}

// EnrichmentConfig holds enrichment settings.
type EnrichmentConfig struct {
	Enabled bool `yaml:"enabled"`
	RDNS    bool `yaml:"rdns"`
	ASN     bool `yaml:"asn"`
	GeoIP   bool `yaml:"geoip"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Defaults: Defaults{
			TUI:         false,
			Verbose:     false,
			JSON:        false,
			CSV:         false,
			NoColor:     false,
			ProbeMethod: "icmp",
			MaxHops:     30,
			Queries:     3,
			Timeout:     3 * time.Second,
			FirstHop:    1,
			Sequential:  false,
			Port:        0, // 0 means use default for probe method
			Enrichment: EnrichmentConfig{
				Enabled: true,
				RDNS:    true,
				ASN:     true,
				GeoIP:   true,
			},
		},
		Aliases: make(map[string]string),
	}
}

// Load reads configuration from the default config file locations.
// It searches in order:
//  1. ./sixtrace.yaml (current directory)
//  2. ~/.config/sixtrace/config.yaml (Linux/macOS)
//  3. %APPDATA%\sixtrace\config.yaml (Windows)
//
// If no config file is found, returns default configuration.
func Load() (*Config, error) {
	paths := getConfigPaths()

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return LoadFrom(path)
		}
	}

	// No config file found, return defaults
	return DefaultConfig(), nil
}

// LoadFrom reads configuration from a specific file path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}

	return config, nil
}

// Save writes the configuration to the default user config path.
func (c *Config) Save() error {
	path := getUserConfigPath()

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// SaveTo writes the configuration to a specific file path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// getConfigPaths returns the list of config file paths to search.
func getConfigPaths() []string {
	paths := []string{
		"sixtrace.yaml",
		"sixtrace.yml",
		".sixtrace.yaml",
		".sixtrace.yml",
	}

	// Add user config path
	userPath := getUserConfigPath()
	if userPath != "" {
		paths = append(paths, userPath)
	}

	return paths
}

// getUserConfigPath returns the user-specific config file path.
func getUserConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "sixtrace", "config.yaml")
		}
	default: // Linux, macOS, etc.
		home, err := os.UserHomeDir()
		if err == nil {
			// Check XDG_CONFIG_HOME first
			xdgConfig := os.Getenv("XDG_CONFIG_HOME")
			if xdgConfig != "" {
				return filepath.Join(xdgConfig, "sixtrace", "config.yaml")
			}
			return filepath.Join(home, ".config", "sixtrace", "config.yaml")
		}
	}
	return ""
}

// GetConfigPath returns the path where user config would be saved.
func GetConfigPath() string {
	return getUserConfigPath()
}

// getDataDir returns the directory MaxMind databases are cached in,
// alongside the user config directory.
func getDataDir() string {
	configPath := getUserConfigPath()
	if configPath == "" {
		return ""
	}
	return filepath.Dir(configPath)
}

// GetASNDBPath returns the path the MaxMind ASN database is cached at.
func GetASNDBPath() string {
	dir := getDataDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "GeoLite2-ASN.mmdb")
}

// GetGeoDBPath returns the path the MaxMind City database is cached at.
func GetGeoDBPath() string {
	dir := getDataDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "GeoLite2-City.mmdb")
}

// GenerateExample generates an example configuration file content.
func GenerateExample() string {
	return `# sixtrace Configuration File
# Location: ~/.config/sixtrace/config.yaml (Linux/macOS)
#           %APPDATA%\sixtrace\config.yaml (Windows)
#           ./sixtrace.yaml (current directory)

defaults:
  # Output mode (only one should be true)
  tui: false              # Interactive TUI mode
  verbose: false          # Detailed table output
  json: false             # JSON output
  csv: false              # CSV output
  no_color: false         # Disable colors

  # Probe method: icmp, udp
  probe_method: icmp

  # Trace parameters
  max_hops: 30            # Maximum number of hops
  queries: 3              # Probes per hop
  timeout: 3s             # Probe timeout
  first_hop: 1            # Starting hop
  sequential: false       # Use sequential mode

  # Network settings
  interface: ""           # Network interface to send probes from
  port: 0                 # Destination port (0 = default)

  # Enrichment settings
  enrichment:
    enabled: true         # Master switch for all enrichment
    rdns: true            # Reverse DNS lookups
    asn: true             # ASN lookups
    geoip: true           # GeoIP lookups

# Optional offline MaxMind GeoLite2 databases (requires a free license key)
maxmind:
  enabled: false
  license_key: ""
  update_hours: 168       # Re-download if the cached database is older than this

# Target aliases (optional)
aliases:
  dns: 2001:4860:4860::8888
  cf: 2606:4700:4700::1111
  google: google.com
`
}
