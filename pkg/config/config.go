package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Listen       string `yaml:"listen"`
	DatabasePath string `yaml:"database_path"`
	TokenSalt    string `yaml:"token_salt"`
}

type LoggingConfig struct {
	Level         string `yaml:"level"`
	JSON          bool   `yaml:"json"`
	HumanReadable bool   `yaml:"human_readable"`
}

type TracingConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
	LogSpans    bool    `yaml:"log_spans"`
}

// VpnSuiteConfig describes the VPN security suite integration. Blocked is a
// license/administrative kill switch; the suite counts as available only
// when it is not blocked and an endpoint is configured.
type VpnSuiteConfig struct {
	Blocked  bool   `yaml:"blocked"`
	Endpoint string `yaml:"endpoint"`
}

type ScepConfig struct {
	Blocked  bool   `yaml:"blocked"`
	Endpoint string `yaml:"endpoint"`
}

type AuthConfig struct {
	TotpEnabled                bool `yaml:"totp_enabled"`
	FailedLoginAttemptsEnabled bool `yaml:"failed_login_attempts_enabled"`
	FailedLoginAttemptsLimit   int  `yaml:"failed_login_attempts_limit"`
}

type Config struct {
	Server          ServerConfig   `yaml:"server"`
	Logging         LoggingConfig  `yaml:"logging"`
	Tracing         TracingConfig  `yaml:"tracing"`
	MaintenanceMode bool           `yaml:"maintenance_mode"`
	VpnSuite        VpnSuiteConfig `yaml:"vpn_security_suite"`
	Scep            ScepConfig     `yaml:"scep"`
	Auth            AuthConfig     `yaml:"auth"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:       ":8080",
			DatabasePath: "ems.db",
		},
		Logging: LoggingConfig{
			Level:         "info",
			JSON:          false,
			HumanReadable: true,
		},
		Tracing: TracingConfig{
			SampleRatio: 1,
		},
		Auth: AuthConfig{
			TotpEnabled:                true,
			FailedLoginAttemptsEnabled: true,
			FailedLoginAttemptsLimit:   5,
		},
	}
}

// Load reads config from file with env var overrides
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		}
	}

	if listen := os.Getenv("EMS_LISTEN"); listen != "" {
		cfg.Server.Listen = listen
	}
	if db := os.Getenv("EMS_DB"); db != "" {
		cfg.Server.DatabasePath = db
	}
	if salt := os.Getenv("EMS_TOKEN_SALT"); salt != "" {
		cfg.Server.TokenSalt = salt
	}
	if level := os.Getenv("EMS_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if maintenance := os.Getenv("EMS_MAINTENANCE_MODE"); maintenance != "" {
		cfg.MaintenanceMode = strings.EqualFold(maintenance, "true") || maintenance == "1"
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Listen == "" {
		return ErrMissingListen
	}
	if c.Server.TokenSalt == "" {
		return ErrMissingTokenSalt
	}
	if c.Auth.FailedLoginAttemptsLimit <= 0 {
		c.Auth.FailedLoginAttemptsLimit = 5
	}
	if c.Tracing.SampleRatio <= 0 || c.Tracing.SampleRatio > 1 {
		c.Tracing.SampleRatio = 1
	}
	return nil
}

// Snapshot returns the global flags frozen for one request. Resolvers read
// the snapshot only, so a verdict stays a deterministic function of its
// arguments even if configuration is reloaded mid-flight.
func (c *Config) Snapshot() Snapshot {
	return Snapshot{
		MaintenanceMode:            c.MaintenanceMode,
		VpnSuiteBlocked:            c.VpnSuite.Blocked,
		VpnSuiteConfigured:         c.VpnSuite.Endpoint != "",
		ScepBlocked:                c.Scep.Blocked,
		ScepConfigured:             c.Scep.Endpoint != "",
		TotpEnabled:                c.Auth.TotpEnabled,
		FailedLoginAttemptsEnabled: c.Auth.FailedLoginAttemptsEnabled,
	}
}

// Snapshot is the immutable view of global configuration consulted by the
// role resolver and the deny resolvers.
type Snapshot struct {
	MaintenanceMode            bool
	VpnSuiteBlocked            bool
	VpnSuiteConfigured         bool
	ScepBlocked                bool
	ScepConfigured             bool
	TotpEnabled                bool
	FailedLoginAttemptsEnabled bool
}

// VpnSuiteAvailable reports whether the VPN security suite can actually be
// used: not blocked and configured.
func (s Snapshot) VpnSuiteAvailable() bool {
	return !s.VpnSuiteBlocked && s.VpnSuiteConfigured
}

// ScepAvailable reports whether SCEP-backed PKI operations can be performed.
func (s Snapshot) ScepAvailable() bool {
	return !s.ScepBlocked && s.ScepConfigured
}

var (
	ErrMissingListen    = &Error{"listen address is required"}
	ErrMissingTokenSalt = &Error{"token salt is required"}
)

type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}
