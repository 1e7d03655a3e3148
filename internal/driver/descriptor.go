package driver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Descriptor holds the settings needed to reach one database.
// It is read at connect time and never modified by the adapter.
type Descriptor struct {
	Host     string `yaml:"host" validate:"required"`
	Port     int    `yaml:"port" validate:"gte=0,lte=65535"`
	Database string `yaml:"dbname" validate:"required"`
	Username string `yaml:"username" validate:"required"`
	Password string `yaml:"password" validate:"required"`

	// DialectClass names a registered dialect. Only string values are
	// honored; anything else is ignored.
	DialectClass any `yaml:"dialectClass,omitempty"`

	// Options are extra driver parameters appended to the connection
	// string. They never appear in the public DSN.
	Options map[string]any `yaml:"options,omitempty"`

	// LoginTimeout is the dial timeout in seconds. Zero uses the driver default.
	LoginTimeout int `yaml:"login_timeout" validate:"gte=0"`
}

var validate = validator.New()

// Validate checks the required fields. Failures wrap ErrConfiguration.
func (d *Descriptor) Validate() error {
	if d == nil {
		return fmt.Errorf("%w: no connection descriptor", ErrConfiguration)
	}
	err := validate.Struct(d)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", ErrConfiguration, strings.Join(msgs, "; "))
	}
	return fmt.Errorf("%w: %v", ErrConfiguration, err)
}

// DialectName returns the string form of DialectClass, or "" when it is
// unset or not a string.
func (d *Descriptor) DialectName() string {
	if s, ok := d.DialectClass.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// Sanitized returns a copy safe for logging, with the password masked.
func (d Descriptor) Sanitized() Descriptor {
	if d.Password != "" {
		d.Password = "[REDACTED]"
	}
	if len(d.Options) > 0 {
		opts := make(map[string]any, len(d.Options))
		for k, v := range d.Options {
			if IsSecretOption(k) {
				v = "[REDACTED]"
			}
			opts[k] = v
		}
		d.Options = opts
	}
	return d
}

// IsSecretOption reports whether a driver option key names a credential.
func IsSecretOption(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "password") || strings.Contains(k, "secret") || strings.Contains(k, "token")
}
