package models

// MConfig Structure
type MConfig struct {
	Name     string         `yaml:"name"`
	Host     string         `yaml:"host"`
	Port     int            `yaml:"port"`
	LogLevel string         `yaml:"log_level"`
	Debug    bool           `yaml:"debug"`
	GrpcHost string         `yaml:"grpc_host"`
	GrpcPort int            `yaml:"grpc_port"`
	Trader   MTraderConfig  `yaml:"trader"`
	Storage  MStorageConfig `yaml:"storage"`
	Session  MSessionConfig `yaml:"session"`
	Events   MEventsConfig  `yaml:"events"`
}

// MTraderConfig is the trading server endpoint and the account used for the automatic login.
type MTraderConfig struct {
	Host                  string `yaml:"host"`
	Port                  int    `yaml:"port"`
	Username              string `yaml:"username"`
	Password              string `yaml:"password"`
	Account               string `yaml:"account"`
	CommandTimeoutSeconds int    `yaml:"command_timeout_seconds"`
	DialTimeoutSeconds    int    `yaml:"dial_timeout_seconds"`
	ConnectRetries        int    `yaml:"connect_retries"`
	RetryDelayMs          int    `yaml:"retry_delay_ms"`
	IdleFlushMs           int    `yaml:"idle_flush_ms"`
}

// HasCredentials reports whether a login can be attempted automatically.
func (t MTraderConfig) HasCredentials() bool {
	return t.Username != "" && t.Password != "" && t.Account != ""
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
}

// MSessionConfig drives the periodic position / buying power refresh.
type MSessionConfig struct {
	Enabled                bool     `yaml:"enabled"`
	RefreshIntervalSeconds int      `yaml:"refresh_interval_seconds"`
	Symbols                []string `yaml:"symbols"` // used to pick the market calendars
}

type MEventsConfig struct {
	HistorySize int `yaml:"history_size"`
}
