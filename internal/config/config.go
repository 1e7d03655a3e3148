// Package config loads the adapter's YAML configuration: the connection
// descriptor plus logging settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/johndauphine/sqlsrv-adapter/internal/driver"
	_ "github.com/johndauphine/sqlsrv-adapter/internal/driver/mssql"
	"github.com/johndauphine/sqlsrv-adapter/internal/logging"
)

// expandTilde expands ~ or ~/ at the start of a path to the user's home directory
func expandTilde(path string) string {
	if path == "" {
		return path
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// Config holds all configuration for the adapter CLI
type Config struct {
	Database driver.Descriptor `yaml:"database"`
	Schema   string            `yaml:"schema"`
	Logging  LoggingConfig     `yaml:"logging"`
}

// LoggingConfig holds log verbosity and output format
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

// LoadOptions controls configuration loading behavior.
type LoadOptions struct {
	SuppressWarnings bool

	// Override runs after parsing and before secret expansion, defaults and
	// validation. The CLI uses it to apply command-line flags.
	Override func(*Config) error

	// AllowMissing treats a nonexistent file as an empty document.
	AllowMissing bool
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	return LoadWithOptions(path, LoadOptions{})
}

// LoadWithOptions reads configuration from a YAML file with options.
func LoadWithOptions(path string, opts LoadOptions) (*Config, error) {
	path = expandTilde(path)
	data, err := os.ReadFile(path)
	var inspect func(*Config)
	switch {
	case err == nil:
		if !opts.SuppressWarnings {
			inspect = func(c *Config) {
				if warning := permissionWarning(path, c); warning != "" {
					logging.Warn("%s", warning)
				}
			}
		}
	case opts.AllowMissing && errors.Is(err, os.ErrNotExist):
		logging.Debug("Config file %s not found, using flags only", path)
		data = nil
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return loadBytes(data, inspect, opts.Override)
}

// LoadBytes reads configuration from YAML bytes.
func LoadBytes(data []byte) (*Config, error) {
	return loadBytes(data, nil, nil)
}

// loadBytes parses data. inspect sees the document as written, before
// overrides and secret expansion.
func loadBytes(data []byte, inspect func(*Config), override func(*Config) error) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing config: %w", driver.ErrConfiguration, err)
	}
	if inspect != nil {
		inspect(&cfg)
	}
	if override != nil {
		if err := override(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.expandSecrets(); err != nil {
		return nil, fmt.Errorf("%w: %w", driver.ErrConfiguration, err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

var (
	// ${file:/path} or ${env:NAME}
	prefixedTemplate = regexp.MustCompile(`^\$\{(file|env):(.+)\}$`)
	// ${NAME}
	legacyTemplate = regexp.MustCompile(`^\$\{([^}:]+)\}$`)
	envName        = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// expandTemplateValue resolves a whole-value secret template. Anything that
// is not a well-formed template is returned unchanged.
func expandTemplateValue(value string) (string, error) {
	if m := prefixedTemplate.FindStringSubmatch(value); m != nil {
		switch m[1] {
		case "file":
			path := expandTilde(m[2])
			data, err := os.ReadFile(path)
			if err != nil {
				return "", fmt.Errorf("reading secret file %s: %w", path, err)
			}
			return strings.TrimSpace(string(data)), nil
		case "env":
			if !envName.MatchString(m[2]) {
				return value, nil
			}
			return os.Getenv(m[2]), nil
		}
	}
	if m := legacyTemplate.FindStringSubmatch(value); m != nil {
		if !envName.MatchString(m[1]) {
			return value, nil
		}
		return os.Getenv(m[1]), nil
	}
	return value, nil
}

func isTemplate(value string) bool {
	return prefixedTemplate.MatchString(value) || legacyTemplate.MatchString(value)
}

// plaintextSecrets lists the descriptor credentials written literally rather
// than as ${env:...} or ${file:...} templates.
func (c *Config) plaintextSecrets() []string {
	var names []string
	if c.Database.Password != "" && !isTemplate(c.Database.Password) {
		names = append(names, "database.password")
	}
	for k, v := range c.Database.Options {
		s, ok := v.(string)
		if ok && s != "" && driver.IsSecretOption(k) && !isTemplate(s) {
			names = append(names, "database.options."+k)
		}
	}
	sort.Strings(names)
	return names
}

// permissionWarning is empty unless the file at path is readable by other
// accounts and c holds a credential in plain text.
func permissionWarning(path string, c *Config) string {
	secrets := c.plaintextSecrets()
	if len(secrets) == 0 {
		return ""
	}
	who, fix := fileAudience(path)
	if who == "" {
		return ""
	}
	return fmt.Sprintf("config file %s is readable by %s and holds %s in plain text; run %s or use ${env:NAME} / ${file:path} templates",
		path, who, strings.Join(secrets, ", "), fix)
}

func (c *Config) expandSecrets() error {
	fields := []*string{
		&c.Database.Host,
		&c.Database.Database,
		&c.Database.Username,
		&c.Database.Password,
	}
	for _, f := range fields {
		v, err := expandTemplateValue(*f)
		if err != nil {
			return err
		}
		*f = v
	}
	for k, v := range c.Database.Options {
		s, ok := v.(string)
		if !ok {
			continue
		}
		expanded, err := expandTemplateValue(s)
		if err != nil {
			return fmt.Errorf("option %s: %w", k, err)
		}
		c.Database.Options[k] = expanded
	}
	return nil
}

func (c *Config) applyDefaults() {
	drv, err := driver.Get(c.driverName())
	if err == nil {
		defaults := drv.Defaults()
		if c.Database.Port == 0 {
			c.Database.Port = defaults.Port
		}
		if c.Schema == "" {
			c.Schema = defaults.Schema
		}
		if c.Database.LoginTimeout == 0 {
			c.Database.LoginTimeout = defaults.LoginTimeout
		}
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// driverName returns the configured dialect, defaulting to SQL Server.
func (c *Config) driverName() string {
	if name := c.Database.DialectName(); name != "" {
		return name
	}
	return "sqlsrv"
}

var validate = validator.New()

func (c *Config) validate() error {
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if c.Database.DialectName() != "" && !driver.IsRegistered(c.Database.DialectName()) {
		return fmt.Errorf("%w: database.dialectClass %q is not registered (available: %v)",
			driver.ErrConfiguration, c.Database.DialectName(), driver.Available())
	}
	if err := validate.Struct(c.Logging); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: logging.%s must be one of [%s], got %q",
				driver.ErrConfiguration, strings.ToLower(verrs[0].Field()), verrs[0].Param(), verrs[0].Value())
		}
		return fmt.Errorf("%w: %v", driver.ErrConfiguration, err)
	}
	return nil
}

// ApplyLogging configures the global logger from the logging section.
func (c *Config) ApplyLogging() error {
	level, err := logging.ParseLevel(c.Logging.Level)
	if err != nil {
		return fmt.Errorf("%w: %w", driver.ErrConfiguration, err)
	}
	logging.SetLevel(level)
	logging.SetFormat(c.Logging.Format)
	return nil
}

// Sanitized returns a copy of the config with sensitive fields redacted
func (c *Config) Sanitized() *Config {
	sanitized := *c // shallow copy
	sanitized.Database = c.Database.Sanitized()
	return &sanitized
}
