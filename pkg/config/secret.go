package config

import "bytes"

// Secret owns a copy of key material. The zero value is an empty secret.
type Secret struct {
	b []byte
}

// NewSecret copies key into a new Secret.
func NewSecret(key []byte) *Secret {
	return &Secret{b: bytes.Clone(key)}
}

// Bytes returns a copy of the secret.
func (s *Secret) Bytes() []byte {
	if s == nil {
		return nil
	}
	return bytes.Clone(s.b)
}

// Len returns the length of the secret in bytes.
func (s *Secret) Len() int {
	if s == nil {
		return 0
	}
	return len(s.b)
}

// IsEmpty reports whether the secret holds no bytes.
func (s *Secret) IsEmpty() bool {
	return s.Len() == 0
}

// Clone returns an independent copy.
func (s *Secret) Clone() *Secret {
	if s == nil {
		return nil
	}
	return NewSecret(s.b)
}

// Destroy overwrites the secret with zeros and empties it.
func (s *Secret) Destroy() {
	if s == nil {
		return
	}
	clear(s.b)
	s.b = nil
}
