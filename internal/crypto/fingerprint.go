package crypto

import "crypto/sha256"

// Fingerprint returns the canonical fingerprint of exported key material:
// the SHA-256 digest of the bytes, base64url-encoded. Equal inputs always
// yield equal fingerprints, so the value serves both as an identity token
// (match a share to its recipient) and as an integrity check (detect a
// tampered vault key after unwrap). Fingerprints are never secrets.
func Fingerprint(keyMaterial []byte) string {
	sum := sha256.Sum256(keyMaterial)
	return ToBase64URL(sum[:])
}

// VerifyKeyFingerprint reports whether key material matches an expected
// fingerprint. Fingerprints are public values; the comparison does not need
// to be constant-time.
func VerifyKeyFingerprint(keyMaterial []byte, expected string) bool {
	return Fingerprint(keyMaterial) == expected
}
