package types

// PersonalityStyle shapes the tone of composed insights and chat responses.
type PersonalityStyle string

const (
	StyleBalanced    PersonalityStyle = "balanced"
	StyleSupportive  PersonalityStyle = "supportive"
	StyleChallenging PersonalityStyle = "challenging"
)

// CompanionSettings are per-user preferences that the composer receives as an
// explicit parameter on every call. They are never read from global state so
// that composition stays deterministic under test.
type CompanionSettings struct {
	PersonalityStyle  PersonalityStyle `json:"personality_style"`
	PreferredLanguage string           `json:"preferred_language"`
	ProactiveEnabled  bool             `json:"proactive_enabled"`
}

// DefaultCompanionSettings returns the settings applied when a user has not
// customized anything.
func DefaultCompanionSettings() CompanionSettings {
	return CompanionSettings{
		PersonalityStyle:  StyleBalanced,
		PreferredLanguage: "en",
		ProactiveEnabled:  true,
	}
}

// Normalize fills zero values with defaults and coerces unrecognized
// personality styles to balanced.
func (s *CompanionSettings) Normalize() {
	switch s.PersonalityStyle {
	case StyleBalanced, StyleSupportive, StyleChallenging:
	default:
		s.PersonalityStyle = StyleBalanced
	}
	if s.PreferredLanguage == "" {
		s.PreferredLanguage = "en"
	}
}
