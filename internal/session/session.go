// Package session generates and validates the opaque session tokens that
// identify anonymous diners. Nothing else in the system inspects them.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
)

var sessionIDPattern = regexp.MustCompile(`^sess_[a-f0-9]{32}$`)

// NewID returns a session token in the form sess_<32 hex chars>.
func NewID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("session: crypto/rand unavailable: " + err.Error())
	}
	return "sess_" + hex.EncodeToString(b)
}

func IsValidID(id string) bool {
	return sessionIDPattern.MatchString(id)
}
