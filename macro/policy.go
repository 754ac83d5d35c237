package macro

import (
	"errors"
	"fmt"
)

// ErrUntrusted is returned when a unit is rejected by a Policy.
var ErrUntrusted = errors.New("macro: unit not trusted")

// Policy decides which units may be loaded. Units are matched by kind and by
// the hex SHA-256 digest of their code. A nil allow list means "allow all".
type Policy struct {
	AllowedKinds   map[Kind]bool // nil = allow all
	AllowedDigests map[string]bool
	DeniedDigests  map[string]bool
}

// NewPermissivePolicy creates a policy that accepts every unit.
func NewPermissivePolicy() *Policy {
	return &Policy{}
}

// NewRestrictedPolicy creates a policy that only accepts units of the given
// kinds.
func NewRestrictedPolicy(kinds ...Kind) *Policy {
	m := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		m[k] = true
	}
	return &Policy{AllowedKinds: m}
}

// Check returns an error wrapping ErrUntrusted if u may not be loaded.
func (p *Policy) Check(u Unit) error {
	if p == nil {
		return nil
	}
	if p.DeniedDigests[u.Digest] {
		return fmt.Errorf("%w: digest %s is explicitly denied", ErrUntrusted, u.Digest)
	}
	if p.AllowedKinds != nil && !p.AllowedKinds[u.Kind] {
		return fmt.Errorf("%w: %s units are not allowed", ErrUntrusted, u.Kind)
	}
	if p.AllowedDigests != nil && !p.AllowedDigests[u.Digest] {
		return fmt.Errorf("%w: digest %s is not allowed", ErrUntrusted, u.Digest)
	}
	return nil
}

// Deny adds a digest to the deny list.
func (p *Policy) Deny(digest string) {
	if p.DeniedDigests == nil {
		p.DeniedDigests = make(map[string]bool)
	}
	p.DeniedDigests[digest] = true
}

// Allow adds a digest to the allow list. Once any digest is allowed, only
// allowed digests pass.
func (p *Policy) Allow(digest string) {
	if p.AllowedDigests == nil {
		p.AllowedDigests = make(map[string]bool)
	}
	p.AllowedDigests[digest] = true
}

// AllowKind adds a kind to the allowed kinds.
func (p *Policy) AllowKind(k Kind) {
	if p.AllowedKinds == nil {
		p.AllowedKinds = make(map[Kind]bool)
	}
	p.AllowedKinds[k] = true
}
