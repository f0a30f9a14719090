package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"trader-gateway/src/helpers"
	"trader-gateway/src/models"
)

// EnvPrefix prefixes every environment override, e.g. GATEWAY_TRADER_PASSWORD.
const EnvPrefix = "GATEWAY"

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new Config from a YAML file, then applies environment overrides
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}

	// 3. Environment wins over the file (credentials live there)
	if err := config.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	// 4. Fill in protocol defaults
	config.ApplyDefaults()

	// 5. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, helpers.NewConfigurationError("config validation failed", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// ApplyEnv overrides fields from GATEWAY_* variables.
func (c *Config) ApplyEnv() error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	stringKeys := map[string]*string{
		"log_level":                    &c.LogLevel,
		"trader.host":                  &c.Trader.Host,
		"trader.username":              &c.Trader.Username,
		"trader.password":              &c.Trader.Password,
		"trader.account":               &c.Trader.Account,
		"storage.db_type":              &c.Storage.DBType,
		"storage.db_path":              &c.Storage.DBPath,
		"storage.db_connection_string": &c.Storage.DBConnectionString,
	}
	intKeys := map[string]*int{
		"port":                           &c.Port,
		"grpc_port":                      &c.GrpcPort,
		"trader.port":                    &c.Trader.Port,
		"trader.command_timeout_seconds": &c.Trader.CommandTimeoutSeconds,
	}

	for key, dst := range stringKeys {
		if err := v.BindEnv(key); err != nil {
			return err
		}
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	for key, dst := range intKeys {
		if err := v.BindEnv(key); err != nil {
			return err
		}
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}
	if err := v.BindEnv("debug"); err != nil {
		return err
	}
	if v.IsSet("debug") {
		c.Debug = v.GetBool("debug")
	}
	return nil
}

// -----------------------------------------------------------------------------

// ApplyDefaults fills zero values with the protocol defaults.
func (c *Config) ApplyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
	if c.Trader.CommandTimeoutSeconds <= 0 {
		c.Trader.CommandTimeoutSeconds = 1
	}
	if c.Trader.DialTimeoutSeconds <= 0 {
		c.Trader.DialTimeoutSeconds = 5
	}
	if c.Trader.ConnectRetries <= 0 {
		c.Trader.ConnectRetries = 3
	}
	if c.Trader.RetryDelayMs <= 0 {
		c.Trader.RetryDelayMs = 200
	}
	if c.Trader.IdleFlushMs <= 0 {
		c.Trader.IdleFlushMs = 250
	}
	if c.Storage.DBType == "" {
		c.Storage.DBType = "sqlite"
	}
	if c.Session.RefreshIntervalSeconds <= 0 {
		c.Session.RefreshIntervalSeconds = 60
	}
	if c.Events.HistorySize <= 0 {
		c.Events.HistorySize = 100
	}
}

// -----------------------------------------------------------------------------

// CommandTimeout is the wait window of a waited command.
func (c *Config) CommandTimeout() time.Duration {
	return time.Duration(c.Trader.CommandTimeoutSeconds) * time.Second
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Front-end server
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}
	if c.GrpcPort != 0 && (c.GrpcPort <= 1024 || c.GrpcPort > 65535) {
		return fmt.Errorf("invalid grpc port number: %d", c.GrpcPort)
	}

	// Trading server
	if c.Trader.Host == "" {
		return fmt.Errorf("trader host cannot be empty")
	}
	if c.Trader.Port <= 0 || c.Trader.Port > 65535 {
		return fmt.Errorf("invalid trader port number: %d", c.Trader.Port)
	}
	if c.Trader.CommandTimeoutSeconds <= 0 {
		return fmt.Errorf("command timeout must be greater than 0")
	}
	// Partial credentials are a mistake, none at all just disables the automatic login
	set := 0
	for _, s := range []string{c.Trader.Username, c.Trader.Password, c.Trader.Account} {
		if s != "" {
			set++
		}
	}
	if set != 0 && set != 3 {
		return fmt.Errorf("trader credentials need username, password and account")
	}

	// Storage
	switch c.Storage.DBType {
	case "sqlite":
		if c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	case "postgres":
		if c.Storage.DBConnectionString == "" {
			return fmt.Errorf("database connection string cannot be empty for postgres")
		}
	case "none":
	default:
		return fmt.Errorf("unknown database type '%s'", c.Storage.DBType)
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0600, the file may hold credentials)
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
