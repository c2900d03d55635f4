// Package karma integrates the Lendsqr Adjutor Karma blacklist consulted at
// account-creation time.
package karma

import "context"

// Checker reports whether an identity (email, phone, BVN) appears on the
// Karma blacklist.
type Checker interface {
	IsBlacklisted(ctx context.Context, identity string) (bool, error)
}

// Static is a fixed-answer checker for tests and development mode.
type Static struct {
	Blacklisted map[string]bool
}

// AllowAll returns a checker that never blacklists anyone.
func AllowAll() *Static {
	return &Static{}
}

// IsBlacklisted answers from the configured set.
func (s *Static) IsBlacklisted(_ context.Context, identity string) (bool, error) {
	return s.Blacklisted[identity], nil
}
