package config

// Secret wraps a sensitive string so it cannot leak through logging or
// accidental formatting. The raw value is only reachable via Value().
type Secret struct {
	value string
}

// NewSecret wraps a raw value.
func NewSecret(v string) Secret {
	return Secret{value: v}
}

// Value returns the raw secret.
func (s Secret) Value() string {
	return s.value
}

// IsSet reports whether the secret holds a non-empty value.
func (s Secret) IsSet() bool {
	return s.value != ""
}

// String implements fmt.Stringer and always redacts.
func (s Secret) String() string {
	if s.value == "" {
		return ""
	}
	return "[REDACTED]"
}

// MarshalText redacts the secret in any text serialization.
func (s Secret) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts the raw value from config sources.
func (s *Secret) UnmarshalText(text []byte) error {
	s.value = string(text)
	return nil
}
