package econ

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefixes for checksums. The version suffix enables future
// algorithm migration without ambiguity against old rows.
const (
	DomainSnapshot = "cs2econ/snapshot/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SnapshotChecksum computes the lineage checksum for a team snapshot:
// a domain-separated SHA-256 over the sorted input event IDs concatenated
// with the rules version. Bit-stable across repeated runs on identical
// input; this is the determinism contract every verify run depends on.
//
// sortedIDs must already be in ascending order; the reducer sorts lineage
// before emitting and this function does not re-sort.
func SnapshotChecksum(sortedIDs []string, rulesVersion string) string {
	size := len(rulesVersion)
	for _, id := range sortedIDs {
		size += len(id)
	}
	data := make([]byte, 0, size)
	for _, id := range sortedIDs {
		data = append(data, id...)
	}
	data = append(data, rulesVersion...)
	return hashWithDomain(DomainSnapshot, data)
}
