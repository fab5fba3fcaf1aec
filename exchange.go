package strongbox

import (
	"bytes"
	"crypto/ecdh"
	"fmt"

	"github.com/strongboxhq/strongbox-go/internal/crypto"
)

// PublicKey is a P-256 public key serving as a sharing identity. Its
// exported form is the 65-byte uncompressed point; its fingerprint
// addresses share payloads.
type PublicKey struct {
	key         *ecdh.PublicKey
	fingerprint string
}

func newPublicKey(key *ecdh.PublicKey) *PublicKey {
	return &PublicKey{
		key:         key,
		fingerprint: crypto.Fingerprint(key.Bytes()),
	}
}

// ParsePublicKey parses the 65-byte uncompressed point form. Points not on
// the curve are rejected with ErrInvalidPublicKey.
func ParsePublicKey(raw []byte) (*PublicKey, error) {
	key, err := crypto.ParseECDHPublicKey(raw)
	if err != nil {
		return nil, wrapError(err)
	}
	return newPublicKey(key), nil
}

// Bytes returns the 65-byte uncompressed point.
func (pk *PublicKey) Bytes() []byte {
	return pk.key.Bytes()
}

// Fingerprint returns the key's fingerprint: base64url SHA-256 of the
// exported point. Fingerprints are stable identity tokens, not secrets.
func (pk *PublicKey) Fingerprint() string {
	return pk.fingerprint
}

// KeyPair is a P-256 keypair used for sharing. The private half never
// leaves the process unencrypted; ExportKeyPair wraps it under a master key
// for storage.
type KeyPair struct {
	private *ecdh.PrivateKey
	public  *PublicKey
}

// GenerateKeyPair creates a fresh P-256 sharing keypair.
func GenerateKeyPair() (*KeyPair, error) {
	priv, err := crypto.GenerateECDHKey()
	if err != nil {
		return nil, err
	}
	return &KeyPair{
		private: priv,
		public:  newPublicKey(priv.PublicKey()),
	}, nil
}

// PublicKey returns the public half.
func (kp *KeyPair) PublicKey() *PublicKey {
	return kp.public
}

// Fingerprint returns the public half's fingerprint.
func (kp *KeyPair) Fingerprint() string {
	return kp.public.fingerprint
}

// ExportedKeyPair is the storable form of a keypair: public half in the
// clear, private half wrapped under the master key. Safe to persist
// anywhere the vault records live.
type ExportedKeyPair struct {
	// PublicKey is the 65-byte uncompressed point, base64.
	PublicKey string `json:"publicKey"`
	// PrivateKey is the private scalar, encrypted under the master key.
	PrivateKey *Envelope `json:"privateKey"`
}

// ExportKeyPair prepares a keypair for storage. The private scalar is
// encrypted under the master key and appears only inside the envelope.
func ExportKeyPair(kp *KeyPair, master *MasterKey) (*ExportedKeyPair, error) {
	if err := master.check(); err != nil {
		return nil, err
	}

	raw := kp.private.Bytes()
	defer crypto.Zero(raw)

	env, err := crypto.Seal(master.bytes(), raw)
	if err != nil {
		return nil, err
	}

	return &ExportedKeyPair{
		PublicKey:  crypto.ToBase64(kp.public.Bytes()),
		PrivateKey: newEnvelope(env),
	}, nil
}

// ImportKeyPair reverses ExportKeyPair. A wrong master key fails with
// ErrDecryptionFailed. The stored public half, when present, is checked
// against the one derived from the private scalar.
func ImportKeyPair(exported *ExportedKeyPair, master *MasterKey) (*KeyPair, error) {
	if err := master.check(); err != nil {
		return nil, err
	}
	if exported == nil || exported.PrivateKey == nil {
		return nil, fmt.Errorf("%w: missing private key envelope", ErrInvalidEnvelope)
	}

	raw, err := crypto.Open(exported.PrivateKey.internal(), master.bytes())
	if err != nil {
		return nil, &DecryptionError{Op: "unwrap private key"}
	}
	defer crypto.Zero(raw)

	priv, err := crypto.ParseECDHPrivateKey(raw)
	if err != nil {
		return nil, wrapError(err)
	}

	if exported.PublicKey != "" {
		pubRaw, err := crypto.FromBase64(exported.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("%w: undecodable public key", ErrInvalidPublicKey)
		}
		if !bytes.Equal(pubRaw, priv.PublicKey().Bytes()) {
			return nil, fmt.Errorf("%w: public key does not match private key", ErrInvalidPublicKey)
		}
	}

	return &KeyPair{
		private: priv,
		public:  newPublicKey(priv.PublicKey()),
	}, nil
}

// SharedSecret is one recipient's share payload: data encrypted under the
// pairwise key between sender and recipient, tagged with both parties'
// fingerprints. Exactly one keypair in the world can open it.
type SharedSecret struct {
	// EncryptedData is the shared payload, encrypted under the pairwise key.
	EncryptedData *Envelope `json:"encryptedData"`
	// SenderKeyID is the fingerprint of the sender's public key.
	SenderKeyID string `json:"senderKeyId"`
	// RecipientKeyID is the fingerprint of the recipient's public key.
	RecipientKeyID string `json:"recipientKeyId"`
}

// ShareWith encrypts data for one recipient. The encryption key is derived
// from the sender's private key and the recipient's public key; the
// recipient derives the identical key from the reverse pairing. No key
// material travels with the share.
func ShareWith(data []byte, sender *KeyPair, recipient *PublicKey) (*SharedSecret, error) {
	key, err := crypto.ECDHSharedKey(sender.private, recipient.key)
	if err != nil {
		return nil, wrapError(err)
	}
	defer crypto.Zero(key)

	env, err := crypto.Seal(key, data)
	if err != nil {
		return nil, err
	}

	return &SharedSecret{
		EncryptedData:  newEnvelope(env),
		SenderKeyID:    sender.Fingerprint(),
		RecipientKeyID: recipient.Fingerprint(),
	}, nil
}

// ReceiveFrom opens a share addressed to the recipient. The share's
// declared sender must match the expected sender's key; a mismatch is
// refused with ErrSenderMismatch before any decryption is attempted, so a
// substituted envelope never reaches the cipher.
func ReceiveFrom(share *SharedSecret, recipient *KeyPair, expectedSender *PublicKey) ([]byte, error) {
	if share == nil || share.EncryptedData == nil {
		return nil, fmt.Errorf("%w: missing encrypted data", ErrInvalidEnvelope)
	}

	if share.SenderKeyID != expectedSender.Fingerprint() {
		return nil, &SenderMismatchError{
			Expected: expectedSender.Fingerprint(),
			Declared: share.SenderKeyID,
		}
	}

	key, err := crypto.ECDHSharedKey(recipient.private, expectedSender.key)
	if err != nil {
		return nil, wrapError(err)
	}
	defer crypto.Zero(key)

	data, err := crypto.Open(share.EncryptedData.internal(), key)
	if err != nil {
		return nil, &DecryptionError{Op: "open share"}
	}

	return data, nil
}

// ShareWithMany encrypts data independently for each recipient. Every share
// is a complete payload under its own pairwise key; there is no
// multi-recipient ciphertext, and removing one share revokes exactly one
// recipient.
func ShareWithMany(data []byte, sender *KeyPair, recipients []*PublicKey) ([]*SharedSecret, error) {
	shares := make([]*SharedSecret, 0, len(recipients))
	for _, recipient := range recipients {
		share, err := ShareWith(data, sender, recipient)
		if err != nil {
			return nil, err
		}
		shares = append(shares, share)
	}
	return shares, nil
}

// FindForRecipient scans shares for the one addressed to the recipient's
// fingerprint. ErrNoMatchingShare is not an integrity failure; the set
// simply holds nothing for this key.
func FindForRecipient(shares []*SharedSecret, recipient *KeyPair) (*SharedSecret, error) {
	fp := recipient.Fingerprint()
	for _, share := range shares {
		if share != nil && share.RecipientKeyID == fp {
			return share, nil
		}
	}
	return nil, ErrNoMatchingShare
}
