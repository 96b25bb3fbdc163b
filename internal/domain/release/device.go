package release

import "strings"

// Device properties queried during discovery.
const (
	PropertyPrimaryABI = "ro.product.cpu.abi"
	PropertyABIList    = "ro.product.cpu.abilist"
)

// DeviceProfile describes the ABIs reported by a connected device.
// It is recomputed on every deployment and never persisted.
type DeviceProfile struct {
	// PrimaryABI is the ABI the device runs unqualified binaries with.
	PrimaryABI Architecture `yaml:"primary_abi"`
	// SupportedABIs is the device ABI list in reported order; entries may be outside the allow-list.
	SupportedABIs []string `yaml:"supported_abis"`
}

// NewDeviceProfile builds a profile from raw property values.
func NewDeviceProfile(primary, abiList string) DeviceProfile {
	return DeviceProfile{
		PrimaryABI:    Architecture(strings.TrimSpace(primary)),
		SupportedABIs: ParseABIList(abiList),
	}
}

// ParseABIList splits a comma-delimited ABI list, trimming blanks and dropping empty entries.
func ParseABIList(raw string) []string {
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		result = append(result, part)
	}

	return result
}

// Unsupported returns the entries of the ABI list outside the allow-list.
func (p DeviceProfile) Unsupported() []string {
	var result []string

	for _, entry := range p.SupportedABIs {
		if !Architecture(entry).IsSupported() {
			result = append(result, entry)
		}
	}

	return result
}
