package cda

// Space is the top-level container of content.
type Space struct {
	identity Identity

	SysInfo Sys      `json:"sys"     yaml:"sys"`
	Name    string   `json:"name"    yaml:"name"`
	Locales []Locale `json:"locales" yaml:"locales"`
}

// Locale is a locale configured for a space.
type Locale struct {
	Code         string `json:"code"                   yaml:"code"`
	Name         string `json:"name"                   yaml:"name"`
	Default      bool   `json:"default"                yaml:"default"`
	FallbackCode string `json:"fallbackCode,omitempty" yaml:"fallbackCode,omitempty"`
}

// BindIdentity attaches the session identity to a decoded space.
func (s *Space) BindIdentity(identity Identity) {
	s.identity = identity
}

// Identity implements Resource.
func (s *Space) Identity() Identity {
	return s.identity
}

// Sys implements Resource.
func (s *Space) Sys() Sys {
	return s.SysInfo
}

// DefaultLocale returns the code of the space's default locale, or "".
func (s *Space) DefaultLocale() string {
	for _, locale := range s.Locales {
		if locale.Default {
			return locale.Code
		}
	}

	return ""
}
