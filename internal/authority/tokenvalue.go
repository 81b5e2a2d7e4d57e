package authority

import "regexp"

// TokenState is the closed set of states a token-to-identity mapping can be
// in. Kickout and replace overwrite the mapping value with a sentinel instead
// of deleting it, so later lookups can still report why access is denied.
type TokenState int

const (
	// StateActive means the mapping value is a real login id.
	StateActive TokenState = iota
	// StateTimeout marks a mapping deliberately expired by an administrative action.
	StateTimeout
	// StateReplaced marks a token pushed out by a newer login on its device slot.
	StateReplaced
	// StateKicked marks a token forced out by a kickout.
	StateKicked
)

// Sentinel values stored in place of a login id. They share the numeric codes
// of the matching not-logged-in reasons.
const (
	sentinelTimeout  = "-3"
	sentinelReplaced = "-4"
	sentinelKicked   = "-5"
)

// parseTokenValue classifies a raw mapping value. The login id result is only
// meaningful for StateActive.
func parseTokenValue(raw string) (TokenState, string) {
	switch raw {
	case sentinelTimeout:
		return StateTimeout, ""
	case sentinelReplaced:
		return StateReplaced, ""
	case sentinelKicked:
		return StateKicked, ""
	default:
		return StateActive, raw
	}
}

// reservedLoginID matches the sentinel space. Values in it can never be
// legitimate login ids, otherwise a mapping lookup could not tell an account
// from a termination marker.
var reservedLoginID = regexp.MustCompile(`^-[1-9]$`)

func isValidLoginID(loginID string) bool {
	return loginID != "" && !reservedLoginID.MatchString(loginID)
}
