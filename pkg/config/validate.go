package config

import (
	"fmt"
	"net"

	"github.com/go-playground/validator/v10"
)

// Validate checks the configuration for errors using the struct validation
// tags, plus the handful of checks tags cannot express.
//
// Validate expects defaults to have been applied already; it reports
// missing required values rather than filling them in.
func Validate(cfg *Config) error {
	validate := validator.New()

	if err := validate.Struct(cfg); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			// Report the first violation with its field path so the user
			// can find the offending key in the YAML.
			e := errs[0]
			return fmt.Errorf("invalid value for %s: failed %q validation", e.Namespace(), e.Tag())
		}
		return fmt.Errorf("validation error: %w", err)
	}

	if net.ParseIP(cfg.Server.Address) == nil {
		return fmt.Errorf("invalid value for Config.Server.Address: %q is not an IP address", cfg.Server.Address)
	}

	if cfg.Server.TickInterval <= 0 {
		return fmt.Errorf("invalid value for Config.Server.TickInterval: must be positive, got %s", cfg.Server.TickInterval)
	}

	return nil
}
