package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/exteriorpros/paintstudio/internal/colorsrv/config"
)

// DefaultConfigFile is the default name of the config file
const DefaultConfigFile = "config.yaml"

const (
	configVersion  = "0.1.0"
	defaultTimeout = 10 * time.Second
)

// Config represents the configuration for the PaintStudio CLI
type Config struct {
	// Version of the configuration file format
	Version string `yaml:"version"`
	// Server is the URL and port of the colour server
	Server string `yaml:"server"`
	// RedisURL is the redis instance colour servers listen on for cache clears
	RedisURL string `yaml:"redis_url,omitempty"`
	// Channel is the invalidation channel, defaults to the server default
	Channel string `yaml:"channel,omitempty"`
	// Timeout bounds each request to the server, e.g. "5s"
	Timeout string `yaml:"timeout,omitempty"`
}

var cliConfig *Config

// GetDefaultConfigPath returns the default path for the config file
// It uses the OS-specific config directory (e.g., ~/.config/paintstudio on Linux)
func GetDefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "paintstudio", DefaultConfigFile), nil
}

// LoadConfig loads the configuration from the specified file
// If no file is specified, it uses the default config location
func LoadConfig(file string) error {
	if file == "" {
		var err error
		file, err = GetDefaultConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get default config path: %w", err)
		}
	}

	yamlStr, err := os.ReadFile(file)
	if err != nil {
		return err
	}

	var c Config
	if err = yaml.Unmarshal(yamlStr, &c); err != nil {
		return fmt.Errorf("unable to parse config file: %w", err)
	}
	c.Server = MorphServer(c.Server)
	if err := c.ValidateConfig(); err != nil {
		return err
	}

	cliConfig = &c
	return nil
}

// GetConfig returns the current configuration
func GetConfig() *Config {
	return cliConfig
}

// WriteConfig writes the configuration to the specified file
func (cfg *Config) WriteConfig(file string) error {
	if file == "" {
		return errors.New("file path cannot be empty")
	}

	err := os.MkdirAll(filepath.Dir(file), os.ModePerm)
	if err != nil {
		return fmt.Errorf("unable to create config directory: %w", err)
	}

	yamlStr, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("unable to generate configuration: %w", err)
	}

	err = os.WriteFile(file, yamlStr, os.FileMode(0644))
	if err != nil {
		return fmt.Errorf("unable to write config file: %w", err)
	}

	return nil
}

// ValidateConfig checks for required fields and proper formatting
func (cfg *Config) ValidateConfig() error {
	if cfg.Server == "" {
		return errors.New("server is required")
	}
	if !strings.HasPrefix(cfg.Server, "http://") && !strings.HasPrefix(cfg.Server, "https://") {
		return errors.New("server must start with http:// or https://")
	}
	if strings.Count(cfg.Server, ":") < 2 {
		return errors.New("server must include port number")
	}
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid timeout: %s", cfg.Timeout)
		}
	}
	if cfg.RedisURL != "" && !strings.HasPrefix(cfg.RedisURL, "redis://") && !strings.HasPrefix(cfg.RedisURL, "rediss://") {
		return errors.New("redis_url must start with redis:// or rediss://")
	}
	return nil
}

// GetTimeout returns the request timeout, defaulting to 10s.
func (cfg *Config) GetTimeout() time.Duration {
	if d, err := time.ParseDuration(cfg.Timeout); err == nil && d > 0 {
		return d
	}
	return defaultTimeout
}

// GetChannel returns the invalidation channel.
func (cfg *Config) GetChannel() string {
	if cfg.Channel == "" {
		return config.DefaultInvalidationChannel
	}
	return cfg.Channel
}

// Print prints the current configuration in a human-readable format
func (cfg *Config) Print() {
	fmt.Printf("Server: %s\n", cfg.Server)
	fmt.Printf("Timeout: %s\n", cfg.GetTimeout())
	if cfg.RedisURL != "" {
		fmt.Printf("Redis: %s\n", redactURL(cfg.RedisURL))
		fmt.Printf("Channel: %s\n", cfg.GetChannel())
	}
}

// MorphServer ensures the server URL is properly formatted
// Adds http:// prefix if missing and removes trailing slashes
func MorphServer(server string) string {
	if server == "" {
		return server
	}

	// Remove any trailing slashes
	server = strings.TrimRight(server, "/")

	// Add http:// if no protocol is specified
	if !strings.HasPrefix(server, "http://") && !strings.HasPrefix(server, "https://") {
		server = "http://" + server
	}

	return server
}

// GetServerURL returns the properly formatted server URL
func (cfg *Config) GetServerURL() string {
	return MorphServer(cfg.Server)
}

// redactURL hides the password of a redis url.
func redactURL(u string) string {
	at := strings.LastIndex(u, "@")
	scheme := strings.Index(u, "://")
	if at < 0 || scheme < 0 {
		return u
	}
	userinfo := u[scheme+3 : at]
	if i := strings.Index(userinfo, ":"); i >= 0 {
		userinfo = userinfo[:i] + ":***"
	}
	return u[:scheme+3] + userinfo + u[at:]
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or show the CLI configuration",
	}

	var c Config
	create := &cobra.Command{
		Use:   "create",
		Short: "Write a new configuration file",
		Long: `Write a new configuration file.

Examples:
  # Point the CLI at a local colour server
  paintstudio config create --server localhost:8194

  # Also allow cache clears through redis
  paintstudio config create --server colors.internal:8194 --redis-url redis://cache:6379/0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.Version = configVersion
			c.Server = MorphServer(c.Server)
			if err := c.ValidateConfig(); err != nil {
				return err
			}
			if err := c.WriteConfig(configFile); err != nil {
				return err
			}
			if jsonOutput {
				printResult(map[string]string{"file": configFile})
			} else {
				fmt.Printf("Configuration written to %s\n", configFile)
			}
			return nil
		},
	}
	create.Flags().StringVar(&c.Server, "server", "", "Colour server host:port")
	create.Flags().StringVar(&c.RedisURL, "redis-url", "", "Redis URL used to publish cache clears")
	create.Flags().StringVar(&c.Channel, "channel", "", "Invalidation channel")
	create.Flags().StringVar(&c.Timeout, "timeout", "", "Request timeout, e.g. 5s")
	create.MarkFlagRequired("server")

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := LoadConfig(configFile); err != nil {
				return err
			}
			if jsonOutput {
				shown := *GetConfig()
				shown.RedisURL = redactURL(shown.RedisURL)
				printResult(shown)
			} else {
				GetConfig().Print()
			}
			return nil
		},
	}

	cmd.AddCommand(create, show)
	return cmd
}
