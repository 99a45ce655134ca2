package postal

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnavailable is returned when the package was built without the
	// native backend.
	ErrUnavailable = errors.New("postal: libpostal backend not available in this build")
	// ErrClosed is returned by methods of a handle after Close.
	ErrClosed = errors.New("postal: handle is closed")
	// ErrInvalidString matches every *InvalidStringError.
	ErrInvalidString = errors.New("postal: string contains NUL byte")
	// ErrUnknownComponent is returned when parsing an unknown address
	// component name.
	ErrUnknownComponent = errors.New("postal: unknown address component")
)

// SetupError reports that a native setup call returned false.
type SetupError struct {
	Subsystem Subsystem
	DataDir   string
}

func (e *SetupError) Error() string {
	if e.DataDir == "" {
		return fmt.Sprintf("postal: %s setup failed", e.Subsystem)
	}
	return fmt.Sprintf("postal: %s setup failed (datadir %q)", e.Subsystem, e.DataDir)
}

// InvalidStringError reports a string that cannot cross the C boundary
// because it contains a NUL byte.
type InvalidStringError struct {
	Field  string
	Offset int
}

func (e *InvalidStringError) Error() string {
	return fmt.Sprintf("postal: %s contains NUL byte at offset %d", e.Field, e.Offset)
}

func (e *InvalidStringError) Is(target error) bool { return target == ErrInvalidString }

func checkString(field, s string) error {
	if i := strings.IndexByte(s, 0); i >= 0 {
		return &InvalidStringError{Field: field, Offset: i}
	}
	return nil
}

func checkStrings(field string, values []string) error {
	for i, s := range values {
		if err := checkString(fmt.Sprintf("%s[%d]", field, i), s); err != nil {
			return err
		}
	}
	return nil
}

func checkAddresses(field string, addrs []Address) error {
	for i, a := range addrs {
		if err := checkString(fmt.Sprintf("%s[%d].label", field, i), a.Label); err != nil {
			return err
		}
		if err := checkString(fmt.Sprintf("%s[%d].value", field, i), a.Value); err != nil {
			return err
		}
	}
	return nil
}

func checkTokens(field string, tokens []TokenScore) error {
	for i, t := range tokens {
		if err := checkString(fmt.Sprintf("%s[%d]", field, i), t.Token); err != nil {
			return err
		}
	}
	return nil
}

// UnsupportedFieldError is returned for a duplicate comparison on a field
// libpostal has no comparison for. Fuzzy is set when only the fuzzy
// variant is missing.
type UnsupportedFieldError struct {
	Field Field
	Fuzzy bool
}

func (e *UnsupportedFieldError) Error() string {
	if e.Fuzzy {
		return fmt.Sprintf("postal: no fuzzy duplicate comparison for field %s", e.Field)
	}
	return fmt.Sprintf("postal: no duplicate comparison for field %s", e.Field)
}
