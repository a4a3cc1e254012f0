// Package id provides unique identifier generation utilities.
package id

import (
	"crypto/rand"
	"encoding/hex"
)

// Short generates a short random hex ID (16 characters).
// Used for contract IDs when the contract file does not specify one.
func Short() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// Contract generates a prefixed contract ID (ctr_ + 16 hex chars).
func Contract() string {
	return "ctr_" + Short()
}
