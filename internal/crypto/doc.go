// Package crypto implements the vault engine's cryptographic primitives:
// password-based key derivation, authenticated encryption envelopes, key
// wrapping, fingerprinting, and the two key-exchange suites used for
// sharing.
//
// # Algorithm Suite
//
// The package uses the following cryptographic algorithms:
//
//   - AES-256-GCM: Authenticated encryption with associated data (AEAD)
//     for all vault payloads and wrapped keys. Provides confidentiality
//     and integrity in one pass.
//
//   - PBKDF2-HMAC-SHA-256 (100,000 iterations): Master-key derivation from
//     a user password and a 32-byte salt. The iteration count and salt
//     length are interop-pinned; every implementation must match them.
//
//   - P-256 ECDH + HKDF-SHA-256: Pairwise share-key derivation between two
//     long-term keypairs. Both parties derive byte-identical keys without
//     transmitting private material.
//
//   - ML-KEM-768 (NIST FIPS 203) + ML-DSA-65 (NIST FIPS 204) +
//     HKDF-SHA-512: The post-quantum sharing suite. Encapsulation
//     establishes the share key; signatures authenticate the sender.
//
//   - Argon2id + XChaCha20-Poly1305: Passphrase sealing for local keystore
//     files. Local-only format, not part of the interop contract.
//
// # Security Model
//
// The envelope scheme provides:
//
//   - Confidentiality: Only a holder of the symmetric key can read a
//     payload; only a holder of the master key can unwrap a vault key.
//   - Integrity: Tampering with ciphertext, IV, or tag causes decryption
//     to fail. Failures are reported through the single
//     ErrDecryptionFailed sentinel so callers cannot build a
//     wrong-key-versus-corruption oracle.
//   - Authenticity (sharing): ECDH shares bind sender and recipient
//     fingerprints; post-quantum shares additionally carry an ML-DSA-65
//     signature over the transcript, which MUST be verified before
//     decryption.
//
// AES-GCM IVs MUST be unique for each encryption with the same key. Nonce
// reuse completely breaks the security of AES-GCM, so envelopes are only
// ever created through [Seal], which draws a fresh IV per call.
//
// # Key Management
//
// Master keys exist only in memory for the duration of an unlock session.
// Vault keys persist solely in wrapped form ([WrapKey]); the unwrapped
// bytes are a transient borrow for one operation and should be cleared
// with [Zero] afterwards. Keys are never logged and never serialized raw.
package crypto
