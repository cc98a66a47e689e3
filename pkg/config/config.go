package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/abcdlsj/nss-docker/pkg/docker"
	"github.com/abcdlsj/nss-docker/pkg/resolver"
	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

// SystemConfigFile is the only file the NSS library reads
const SystemConfigFile = "/etc/nss-docker/config.yaml"

// Config represents the application configuration
type Config struct {
	SocketPath string        `mapstructure:"socket_path" yaml:"socket_path"`
	APIVersion string        `mapstructure:"api_version" yaml:"api_version"`
	Suffix     string        `mapstructure:"suffix" yaml:"suffix"`   // Domain suffix handled (e.g. .docker)
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"` // Per-lookup bound on the Docker request
	LogLevel   string        `mapstructure:"log_level" yaml:"log_level"`
	DNS        DNSConfig     `mapstructure:"dns" yaml:"dns,omitempty"`
	Metrics    MetricsConfig `mapstructure:"metrics" yaml:"metrics,omitempty"`

	File string `mapstructure:"-" yaml:"-"` // Config file used, empty for defaults
}

// DNSConfig represents the DNS front end configuration
type DNSConfig struct {
	Listen string `mapstructure:"listen" yaml:"listen,omitempty"` // UDP and TCP address (default: 127.0.0.1:5353)
	TTL    uint32 `mapstructure:"ttl" yaml:"ttl,omitempty"`       // TTL of A records in seconds
}

// MetricsConfig represents the Prometheus endpoint configuration
type MetricsConfig struct {
	Listen string `mapstructure:"listen" yaml:"listen,omitempty"` // Empty disables the endpoint
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("socket_path", docker.DefaultSocketPath)
	v.SetDefault("api_version", docker.DefaultAPIVersion)
	v.SetDefault("suffix", resolver.DefaultSuffix)
	v.SetDefault("timeout", docker.DefaultTimeout)
	v.SetDefault("log_level", "warn")
	v.SetDefault("dns:listen", "127.0.0.1:5353")
	v.SetDefault("dns:ttl", 0)
	v.SetDefault("metrics:listen", "")
}

// Default returns the built-in configuration
func Default() *Config {
	v := viper.NewWithOptions(viper.KeyDelimiter(":"))
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// defaults are static, this only fails on a programming error
		panic(fmt.Sprintf("invalid default configuration: %v", err))
	}
	return &cfg
}

// Load loads the configuration from cfgFile, or from the default locations
// when cfgFile is empty. A missing file in the default locations is not an
// error. Environment variables prefixed with NSS_DOCKER_ override the file.
func Load(cfgFile string) (*Config, error) {
	v := viper.NewWithOptions(viper.KeyDelimiter(":"))

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		// Default config locations
		v.AddConfigPath("/etc/nss-docker")
		v.AddConfigPath("$HOME/.nss-docker")
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	setDefaults(v)

	v.SetEnvPrefix("NSS_DOCKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(":", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Debug("No config file found, using defaults")
	}

	return unmarshal(v)
}

// LoadSystem loads SystemConfigFile if it exists. It ignores the
// environment and the working directory since it runs inside arbitrary
// processes.
func LoadSystem() (*Config, error) {
	if _, err := os.Stat(SystemConfigFile); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	v := viper.NewWithOptions(viper.KeyDelimiter(":"))
	v.SetConfigFile(SystemConfigFile)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.File = v.ConfigFileUsed()
	return &cfg, nil
}

// Validate checks the values the resolver cannot work without
func (c *Config) Validate() error {
	if c.SocketPath == "" {
		return errors.New("socket_path must not be empty")
	}
	if c.APIVersion == "" {
		return errors.New("api_version must not be empty")
	}
	if len(c.Suffix) < 2 || !strings.HasPrefix(c.Suffix, ".") {
		return fmt.Errorf("suffix %q must start with a dot followed by a label", c.Suffix)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return nil
}

// Level returns the configured log level
func (c *Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.WarnLevel
	}
	return level
}

// Docker returns the Docker client settings
func (c *Config) Docker() docker.Config {
	return docker.Config{
		SocketPath: c.SocketPath,
		APIVersion: c.APIVersion,
		Timeout:    c.Timeout,
	}
}

// NewResolver builds the resolver described by the configuration. The
// returned client must be closed once the resolver is no longer used.
func (c *Config) NewResolver(observers ...resolver.Observer) (*resolver.Resolver, *docker.Client, error) {
	client, err := docker.NewClient(c.Docker())
	if err != nil {
		return nil, nil, err
	}

	opts := []resolver.Option{resolver.WithSuffix(c.Suffix)}
	for _, o := range observers {
		opts = append(opts, resolver.WithObserver(o))
	}

	return resolver.New(client, opts...), client, nil
}
