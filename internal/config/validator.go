// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `loader.go` calls `validateStruct` immediately after it unmarshals the
// merged Koanf tree and applies defaults.  Any violation aborts startup.
// Tag rules cover single fields; cross-section rules (audit needs a DSN)
// live in `crossCheck`.

package config

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

//
// validator instance (package-level singleton)
//

var v = validator.New()

// ErrAuditWithoutDSN is returned when auditing is enabled but no database
// is configured.
var ErrAuditWithoutDSN = errors.New("config: audit.enabled requires database.dsn")

//
// public API
//

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	if err := v.Struct(c); err != nil {
		return err
	}
	return crossCheck(c)
}

func crossCheck(c *Config) error {
	if c.Audit.Enabled && c.Database.DSN == "" {
		return ErrAuditWithoutDSN
	}
	return nil
}
