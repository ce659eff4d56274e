package report

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash domains. The version suffix allows the encoding to change without
// old and new hashes ever comparing equal.
const (
	DomainReport    = "geocheck/report/v1"
	DomainAdjacency = "geocheck/adjacency/v1"
	DomainProximity = "geocheck/proximity/v1"
)

// Hash returns the hex SHA-256 of domain, a zero byte, and data.
// The separator keeps distinct (domain, data) pairs from colliding.
func Hash(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
