// Package evidence seals signature-time facts into a tamper-evident fingerprint.
//
// The fingerprint is the lowercase hex SHA-256 of a canonical JSON document
// whose keys always appear in the same order. Timestamps are rendered in UTC
// with RFC 3339 nanosecond precision, so identical facts produce identical
// bytes and therefore identical hashes.
package evidence

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Facts are the signature-time inputs covered by the hash.
type Facts struct {
	PatientID   string
	TemplateID  string
	FormVersion string
	SignedAt    time.Time
	IP          string
	UserAgent   string
}

// document fixes the serialization order. Do not reorder fields: stored
// hashes depend on it.
type document struct {
	PatientID   string `json:"patientId"`
	TemplateID  string `json:"templateId"`
	FormVersion string `json:"formVersion"`
	SignedAt    string `json:"signedAt"`
	IP          string `json:"ip"`
	UserAgent   string `json:"userAgent"`
}

// Canonical returns the byte serialization that Hash digests.
func Canonical(f Facts) ([]byte, error) {
	doc := document{
		PatientID:   f.PatientID,
		TemplateID:  f.TemplateID,
		FormVersion: f.FormVersion,
		SignedAt:    f.SignedAt.UTC().Format(time.RFC3339Nano),
		IP:          f.IP,
		UserAgent:   f.UserAgent,
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal evidence: %w", err)
	}
	return b, nil
}

// Hash returns the hex-encoded SHA-256 fingerprint of f.
func Hash(f Facts) (string, error) {
	b, err := Canonical(f)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// Verify recomputes the fingerprint of f and compares it with expected in
// constant time.
func Verify(f Facts, expected string) (bool, error) {
	got, err := Hash(f)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(expected)) == 1, nil
}
