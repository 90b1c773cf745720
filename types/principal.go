package types

import "strings"

// Principal is an externally verifiable identity: an account address, a user
// id, or any other subject the configured authorizer can prove control of.
type Principal string

// NoPrincipal is the zero Principal.
const NoPrincipal Principal = ""

// String implements fmt.Stringer.
func (p Principal) String() string { return string(p) }

// IsZero reports whether p is empty once surrounding whitespace is removed.
func (p Principal) IsZero() bool { return strings.TrimSpace(string(p)) == "" }

// Equal compares principals exactly. Addresses are case-sensitive.
func (p Principal) Equal(other Principal) bool { return p == other }
