package observability

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Field aliases zap.Field so callers outside this package do not import zap directly.
type Field = zap.Field

// String constructs a string field.
func String(key, value string) Field { return zap.String(key, value) }

// Int constructs an int field.
func Int(key string, value int) Field { return zap.Int(key, value) }

// Int64 constructs an int64 field.
func Int64(key string, value int64) Field { return zap.Int64(key, value) }

// Bool constructs a bool field.
func Bool(key string, value bool) Field { return zap.Bool(key, value) }

// Duration constructs a duration field.
func Duration(key string, value time.Duration) Field { return zap.Duration(key, value) }

// Stringer constructs a field from a fmt.Stringer, used for fixed-point amounts.
func Stringer(key string, value fmt.Stringer) Field { return zap.Stringer(key, value) }

// Error constructs an error field.
func Error(err error) Field { return zap.Error(err) }
