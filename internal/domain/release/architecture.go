package release

import (
	"fmt"
	"strings"
)

// Architecture is an Android ABI identifier.
type Architecture string

// ABIs the native build targets.
const (
	ArmeabiV7a Architecture = "armeabi-v7a"
	Arm64V8a   Architecture = "arm64-v8a"
	X86_64     Architecture = "x86_64"
	X86        Architecture = "x86"
)

// Supported returns the architecture allow-list in build order.
func Supported() []Architecture {
	return []Architecture{
		ArmeabiV7a,
		Arm64V8a,
		X86_64,
		X86,
	}
}

// IsSupported reports whether a belongs to the allow-list.
func (a Architecture) IsSupported() bool {
	switch a {
	case ArmeabiV7a, Arm64V8a, X86_64, X86:
		return true
	default:
		return false
	}
}

// String returns the architecture as string.
func (a Architecture) String() string {
	return string(a)
}

// Parse returns the Architecture for value or an error wrapping ErrUnsupportedArchitecture.
func Parse(value string) (Architecture, error) {
	a := Architecture(strings.TrimSpace(value))
	if a.IsSupported() {
		return a, nil
	}

	return "", fmt.Errorf("%q (supported: %s): %w", value, strings.Join(supportedStrings(), ", "), ErrUnsupportedArchitecture)
}

// ParseList parses every value, failing on the first unsupported one.
func ParseList(values []string) ([]Architecture, error) {
	result := make([]Architecture, 0, len(values))

	for _, value := range values {
		a, err := Parse(value)
		if err != nil {
			return nil, err
		}

		result = append(result, a)
	}

	return result, nil
}

func supportedStrings() []string {
	archs := Supported()
	values := make([]string, len(archs))

	for i, a := range archs {
		values[i] = a.String()
	}

	return values
}
