package util

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns a short random hex identifier. It is used for request
// correlation ids and anywhere a collision-unlikely opaque token will do;
// durable records carry UUIDs instead.
func NewID() string {
	buf := make([]byte, 12)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
