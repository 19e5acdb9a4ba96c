package metascan

import (
	"errors"
	"fmt"

	"github.com/jward/metascan/internal/scanner"
)

// ErrConfiguration reports an invalid engine, scanner or filter setup. It is
// only returned before scanning begins.
var ErrConfiguration = scanner.ErrConfiguration

// ErrUnitRead reports that a unit's metadata could not be read or failed
// validation.
var ErrUnitRead = errors.New("unit read failed")

// ConfigError describes one invalid setting.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("metascan: invalid %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }

// UnitError is a per-unit scan failure. The unit contributes no facts; the
// scan continues with the remaining units.
type UnitError struct {
	Ref   string
	Index int // position of Ref in the scan input
	Err   error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("metascan: unit %s: %v", e.Ref, e.Err)
}

func (e *UnitError) Unwrap() error { return e.Err }
