package strongbox

import (
	"bytes"
	"fmt"

	"github.com/strongboxhq/strongbox-go/internal/crypto"
)

// pqShareVersion is the current post-quantum share format version.
const pqShareVersion = 1

// PQPublicKey is the public half of a post-quantum sharing identity: an
// ML-KEM-768 encapsulation key for receiving and an ML-DSA-65 verification
// key for authenticating what the holder sends.
type PQPublicKey struct {
	kemKey         []byte
	sigKey         []byte
	kemFingerprint string
	sigFingerprint string
}

func newPQPublicKey(kemKey, sigKey []byte) *PQPublicKey {
	return &PQPublicKey{
		kemKey:         kemKey,
		sigKey:         sigKey,
		kemFingerprint: crypto.Fingerprint(kemKey),
		sigFingerprint: crypto.Fingerprint(sigKey),
	}
}

// ParsePQPublicKey builds a PQPublicKey from raw key bytes.
func ParsePQPublicKey(kemKey, sigKey []byte) (*PQPublicKey, error) {
	if len(kemKey) != crypto.MLKEMPublicKeySize {
		return nil, fmt.Errorf("%w: encapsulation key size %d, expected %d", ErrInvalidPublicKey, len(kemKey), crypto.MLKEMPublicKeySize)
	}
	if len(sigKey) != crypto.MLDSAPublicKeySize {
		return nil, fmt.Errorf("%w: verification key size %d, expected %d", ErrInvalidPublicKey, len(sigKey), crypto.MLDSAPublicKeySize)
	}
	return newPQPublicKey(bytes.Clone(kemKey), bytes.Clone(sigKey)), nil
}

// KEMKey returns the raw ML-KEM-768 public key.
func (pk *PQPublicKey) KEMKey() []byte {
	return bytes.Clone(pk.kemKey)
}

// SigningKey returns the raw ML-DSA-65 public key.
func (pk *PQPublicKey) SigningKey() []byte {
	return bytes.Clone(pk.sigKey)
}

// Fingerprint returns the encapsulation key's fingerprint. Shares addressed
// to this identity carry it as recipientKeyId.
func (pk *PQPublicKey) Fingerprint() string {
	return pk.kemFingerprint
}

// SigningFingerprint returns the verification key's fingerprint. Shares
// sent by this identity carry it as senderKeyId.
func (pk *PQPublicKey) SigningFingerprint() string {
	return pk.sigFingerprint
}

// PQKeyPair is a post-quantum sharing identity: an ML-KEM-768 keypair for
// receiving shares and an ML-DSA-65 keypair for signing sent ones.
type PQKeyPair struct {
	kem    *crypto.KEMKeypair
	sig    *crypto.SigKeypair
	public *PQPublicKey
}

// GeneratePQKeyPair creates a fresh post-quantum sharing identity.
func GeneratePQKeyPair() (*PQKeyPair, error) {
	kem, err := crypto.GenerateKEMKeypair()
	if err != nil {
		return nil, err
	}
	sig, err := crypto.GenerateSigKeypair()
	if err != nil {
		return nil, err
	}
	return &PQKeyPair{
		kem:    kem,
		sig:    sig,
		public: newPQPublicKey(kem.PublicKey, sig.PublicKey),
	}, nil
}

// PublicKey returns the public half.
func (kp *PQKeyPair) PublicKey() *PQPublicKey {
	return kp.public
}

// Fingerprint returns the encapsulation key's fingerprint, the identity
// shares are addressed to.
func (kp *PQKeyPair) Fingerprint() string {
	return kp.public.kemFingerprint
}

// ExportedPQKeyPair is the storable form of a PQKeyPair. Both secret keys
// are wrapped under the master key. The encapsulation public key is not
// stored: it is embedded in the secret key and recovered on import.
type ExportedPQKeyPair struct {
	// SigPublicKey is the raw ML-DSA-65 public key, base64url.
	SigPublicKey string `json:"sigPublicKey"`
	// KEMPrivateKey is the ML-KEM-768 secret key, encrypted under the master key.
	KEMPrivateKey *Envelope `json:"kemPrivateKey"`
	// SigPrivateKey is the ML-DSA-65 secret key, encrypted under the master key.
	SigPrivateKey *Envelope `json:"sigPrivateKey"`
}

// ExportPQKeyPair prepares a post-quantum identity for storage.
func ExportPQKeyPair(kp *PQKeyPair, master *MasterKey) (*ExportedPQKeyPair, error) {
	if err := master.check(); err != nil {
		return nil, err
	}

	kemEnv, err := crypto.Seal(master.bytes(), kp.kem.SecretKey)
	if err != nil {
		return nil, err
	}
	sigEnv, err := crypto.Seal(master.bytes(), kp.sig.SecretKey)
	if err != nil {
		return nil, err
	}

	return &ExportedPQKeyPair{
		SigPublicKey:  crypto.ToBase64URL(kp.sig.PublicKey),
		KEMPrivateKey: newEnvelope(kemEnv),
		SigPrivateKey: newEnvelope(sigEnv),
	}, nil
}

// ImportPQKeyPair reverses ExportPQKeyPair. A wrong master key fails with
// ErrDecryptionFailed.
func ImportPQKeyPair(exported *ExportedPQKeyPair, master *MasterKey) (*PQKeyPair, error) {
	if err := master.check(); err != nil {
		return nil, err
	}
	if exported == nil || exported.KEMPrivateKey == nil || exported.SigPrivateKey == nil {
		return nil, fmt.Errorf("%w: missing private key envelope", ErrInvalidEnvelope)
	}

	kemSecret, err := crypto.Open(exported.KEMPrivateKey.internal(), master.bytes())
	if err != nil {
		return nil, &DecryptionError{Op: "unwrap encapsulation key"}
	}
	kem, err := crypto.KEMKeypairFromSecretKey(kemSecret)
	if err != nil {
		crypto.Zero(kemSecret)
		return nil, fmt.Errorf("%w: reconstruct encapsulation keypair: %v", ErrInvalidKeystore, err)
	}

	sigSecret, err := crypto.Open(exported.SigPrivateKey.internal(), master.bytes())
	if err != nil {
		crypto.Zero(kemSecret)
		return nil, &DecryptionError{Op: "unwrap signing key"}
	}

	sigPublic, err := crypto.FromBase64URL(exported.SigPublicKey)
	if err != nil || len(sigPublic) != crypto.MLDSAPublicKeySize {
		crypto.Zero(kemSecret)
		crypto.Zero(sigSecret)
		return nil, fmt.Errorf("%w: invalid signing public key", ErrInvalidKeystore)
	}

	sig := &crypto.SigKeypair{
		PublicKey: sigPublic,
		SecretKey: sigSecret,
	}

	return &PQKeyPair{
		kem:    kem,
		sig:    sig,
		public: newPQPublicKey(kem.PublicKey, sig.PublicKey),
	}, nil
}

// PQShare is a post-quantum share payload. The data is encrypted under a
// key encapsulated to the recipient, and the whole transcript is signed by
// the sender, so the recipient authenticates origin before decrypting.
//
// All binary fields are base64url.
type PQShare struct {
	// Version is the share format version. MUST be 1.
	Version int `json:"v"`
	// Suite identifies the algorithm suite.
	Suite string `json:"algs"`
	// CtKem is the ML-KEM-768 ciphertext.
	CtKem string `json:"ctKem"`
	// IV is the 12-byte AES-GCM nonce.
	IV string `json:"iv"`
	// Ciphertext is the encrypted payload with appended GCM tag.
	Ciphertext string `json:"ciphertext"`
	// Sig is the sender's ML-DSA-65 signature over the transcript.
	Sig string `json:"sig"`
	// SenderSigKey is the sender's ML-DSA-65 public key.
	SenderSigKey string `json:"senderSigKey"`
	// SenderKeyID is the fingerprint of the sender's verification key.
	SenderKeyID string `json:"senderKeyId"`
	// RecipientKeyID is the fingerprint of the recipient's encapsulation key.
	RecipientKeyID string `json:"recipientKeyId"`
}

// pqShareAAD binds both identities into the AEAD and the key derivation.
func pqShareAAD(senderKeyID, recipientKeyID string) []byte {
	return []byte(senderKeyID + ":" + recipientKeyID)
}

// SharePQWith encrypts data for one recipient under the post-quantum suite.
// A fresh key is encapsulated to the recipient's ML-KEM key, the payload is
// encrypted under it, and the sender signs the complete transcript.
func SharePQWith(data []byte, sender *PQKeyPair, recipient *PQPublicKey) (*PQShare, error) {
	senderKeyID := sender.public.sigFingerprint
	recipientKeyID := recipient.kemFingerprint
	aad := pqShareAAD(senderKeyID, recipientKeyID)

	ctKem, sharedSecret, err := crypto.Encapsulate(recipient.kemKey)
	if err != nil {
		return nil, wrapError(err)
	}
	defer crypto.Zero(sharedSecret)

	key, err := crypto.DerivePQShareKey(sharedSecret, aad, ctKem)
	if err != nil {
		return nil, err
	}
	defer crypto.Zero(key)

	iv, err := crypto.RandomBytes(crypto.AESNonceSize)
	if err != nil {
		return nil, err
	}

	ciphertext, err := crypto.EncryptAESGCM(key, iv, aad, data)
	if err != nil {
		return nil, err
	}

	transcript := crypto.BuildPQTranscript(pqShareVersion, crypto.PQSuite, ctKem, iv, aad, ciphertext, sender.sig.PublicKey)
	sig, err := crypto.Sign(sender.sig.SecretKey, transcript)
	if err != nil {
		return nil, err
	}

	return &PQShare{
		Version:        pqShareVersion,
		Suite:          crypto.PQSuite,
		CtKem:          crypto.ToBase64URL(ctKem),
		IV:             crypto.ToBase64URL(iv),
		Ciphertext:     crypto.ToBase64URL(ciphertext),
		Sig:            crypto.ToBase64URL(sig),
		SenderSigKey:   crypto.ToBase64URL(sender.sig.PublicKey),
		SenderKeyID:    senderKeyID,
		RecipientKeyID: recipientKeyID,
	}, nil
}

// ReceivePQShare verifies and opens a post-quantum share. Checks run in
// order: the declared sender must be the expected one, the embedded signing
// key must match the expected sender's key, and the signature must verify
// over the full transcript. Only then is the payload decrypted, so nothing
// unauthenticated ever reaches the cipher.
func ReceivePQShare(share *PQShare, recipient *PQKeyPair, expectedSender *PQPublicKey) ([]byte, error) {
	if share == nil {
		return nil, fmt.Errorf("%w: missing share", ErrInvalidEnvelope)
	}
	if share.Version != pqShareVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidEnvelope, share.Version)
	}
	if share.Suite != crypto.PQSuite {
		return nil, fmt.Errorf("%w: unsupported suite %q", ErrInvalidEnvelope, share.Suite)
	}

	if share.SenderKeyID != expectedSender.sigFingerprint {
		return nil, &SenderMismatchError{
			Expected: expectedSender.sigFingerprint,
			Declared: share.SenderKeyID,
		}
	}

	senderSigKey, err := crypto.FromBase64URL(share.SenderSigKey)
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable sender signing key", ErrInvalidEnvelope)
	}
	if !bytes.Equal(senderSigKey, expectedSender.sigKey) {
		return nil, &SenderMismatchError{
			Expected: expectedSender.sigFingerprint,
			Declared: crypto.Fingerprint(senderSigKey),
		}
	}

	ctKem, err := crypto.FromBase64URL(share.CtKem)
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable ctKem", ErrInvalidEnvelope)
	}
	iv, err := crypto.FromBase64URL(share.IV)
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable iv", ErrInvalidEnvelope)
	}
	ciphertext, err := crypto.FromBase64URL(share.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable ciphertext", ErrInvalidEnvelope)
	}
	sig, err := crypto.FromBase64URL(share.Sig)
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable signature", ErrInvalidEnvelope)
	}

	aad := pqShareAAD(share.SenderKeyID, share.RecipientKeyID)

	// Verify before any decryption.
	transcript := crypto.BuildPQTranscript(share.Version, share.Suite, ctKem, iv, aad, ciphertext, senderSigKey)
	if err := crypto.Verify(senderSigKey, transcript, sig); err != nil {
		return nil, &SignatureVerificationError{Message: "share transcript"}
	}

	sharedSecret, err := recipient.kem.Decapsulate(ctKem)
	if err != nil {
		return nil, &DecryptionError{Op: "open share"}
	}
	defer crypto.Zero(sharedSecret)

	key, err := crypto.DerivePQShareKey(sharedSecret, aad, ctKem)
	if err != nil {
		return nil, &DecryptionError{Op: "open share"}
	}
	defer crypto.Zero(key)

	data, err := crypto.DecryptAESGCM(key, iv, aad, ciphertext)
	if err != nil {
		return nil, &DecryptionError{Op: "open share"}
	}

	return data, nil
}

// SharePQWithMany encrypts data independently for each recipient, one
// complete share per recipient.
func SharePQWithMany(data []byte, sender *PQKeyPair, recipients []*PQPublicKey) ([]*PQShare, error) {
	shares := make([]*PQShare, 0, len(recipients))
	for _, recipient := range recipients {
		share, err := SharePQWith(data, sender, recipient)
		if err != nil {
			return nil, err
		}
		shares = append(shares, share)
	}
	return shares, nil
}

// FindPQShareForRecipient scans shares for the one addressed to the
// recipient's encapsulation-key fingerprint.
func FindPQShareForRecipient(shares []*PQShare, recipient *PQKeyPair) (*PQShare, error) {
	fp := recipient.Fingerprint()
	for _, share := range shares {
		if share != nil && share.RecipientKeyID == fp {
			return share, nil
		}
	}
	return nil, ErrNoMatchingShare
}
