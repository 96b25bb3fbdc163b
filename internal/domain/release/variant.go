package release

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// BuildVariant identifies a build profile such as "debug" or "release".
type BuildVariant struct {
	// Name is the variant name as declared in configuration.
	Name string `yaml:"name"`
	// IsDebug reports whether the variant is built with debug semantics.
	IsDebug bool `yaml:"debug"`
	// BuildType names the symbols sub-directory; Name is used when empty.
	BuildType string `yaml:"build_type,omitempty"`
}

// Lower returns the lowercased variant name used in paths and archive names.
func (v BuildVariant) Lower() string {
	return strings.ToLower(v.Name)
}

// Capitalized returns the variant name with its first rune upper-cased ("release" -> "Release").
func (v BuildVariant) Capitalized() string {
	r, size := utf8.DecodeRuneInString(v.Name)
	if r == utf8.RuneError {
		return v.Name
	}

	return string(unicode.ToUpper(r)) + v.Name[size:]
}

// SymbolsType returns the build type that selects the symbols directory.
func (v BuildVariant) SymbolsType() string {
	if v.BuildType != "" {
		return v.BuildType
	}

	return v.Name
}

// FindVariant looks a variant up by case-insensitive name.
func FindVariant(variants []BuildVariant, name string) (BuildVariant, bool) {
	for _, v := range variants {
		if strings.EqualFold(v.Name, name) {
			return v, true
		}
	}

	return BuildVariant{}, false
}
