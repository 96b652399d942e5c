package domain

import "crypto/subtle"

// TokensEqual compares a stored capability token with a presented one in
// constant time. An empty token never matches.
func TokensEqual(expected, given string) bool {
	if expected == "" || given == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(given)) == 1
}
