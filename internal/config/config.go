package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so yaml values can use "5s" syntax.
// Bare numbers are read as seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return err
	}
	*d = Duration(time.Duration(n) * time.Second)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

type Config struct {
	Console ConsoleConfig `yaml:"console"`
	Daemon  DaemonConfig  `yaml:"daemon"`
}

type ConsoleConfig struct {
	BaseURL      string   `yaml:"base_url"`
	LogStreamURL string   `yaml:"log_stream_url"`
	PollInterval Duration `yaml:"poll_interval"`
	HTTPTimeout  Duration `yaml:"http_timeout"`
	ProfilePath  string   `yaml:"profile_path"`
}

type DaemonConfig struct {
	Host          string         `yaml:"host"`
	Port          int            `yaml:"port"`
	Profiles      []string       `yaml:"profiles"`
	LoginDuration Duration       `yaml:"login_duration"`
	LoginFailure  string         `yaml:"login_failure"` // non-empty: every login fails with this message
	Sites         []DaemonSite   `yaml:"sites"`
	IPRanges      DaemonIPRanges `yaml:"ip_ranges"`
}

type DaemonSite struct {
	ID       string          `yaml:"id"`
	Name     string          `yaml:"name"`
	Networks []DaemonNetwork `yaml:"networks"`
}

type DaemonNetwork struct {
	InterfaceName string `yaml:"interface_name"`
	Type          string `yaml:"type"`
	CIDR          string `yaml:"cidr"`
	Gateway       string `yaml:"gateway"`
	VLAN          *int   `yaml:"vlan"`
	DHCPType      string `yaml:"dhcp_type"`
	SubnetName    string `yaml:"subnet_name"`
}

type DaemonIPRanges struct {
	Default string `yaml:"default"`
	Dynamic string `yaml:"dynamic"`
	Static  string `yaml:"static"`
}

// Load reads the yaml config at path, applying defaults for anything
// not set. A missing file yields the pure defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Console: ConsoleConfig{
			BaseURL:      "http://127.0.0.1:5000",
			LogStreamURL: "ws://127.0.0.1:5000/ws/logs",
			PollInterval: Duration(5 * time.Second),
			HTTPTimeout:  Duration(10 * time.Second),
		},
		Daemon: DaemonConfig{
			Host:          "127.0.0.1",
			Port:          5000,
			Profiles:      []string{"prod-env", "stg-env", "dev-env"},
			LoginDuration: Duration(8 * time.Second),
			IPRanges: DaemonIPRanges{
				Default: "10.41.0.0/16",
				Dynamic: "10.41.128.0/17",
				Static:  "10.41.0.0/17",
			},
		},
	}
}
