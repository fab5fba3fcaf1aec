package strongbox

import (
	"github.com/strongboxhq/strongbox-go/internal/crypto"
)

// vaultConfig holds configuration for vault creation.
type vaultConfig struct {
	id             string
	organizationID string
}

// sealConfig holds configuration for keystore sealing.
type sealConfig struct {
	params crypto.Argon2Params
}

// VaultOption configures vault creation.
type VaultOption func(*vaultConfig)

// SealOption configures keystore sealing.
type SealOption func(*sealConfig)

// WithVaultID sets an explicit vault ID instead of a generated one. Storage
// backends that assign their own identifiers use this on round trips.
func WithVaultID(id string) VaultOption {
	return func(c *vaultConfig) {
		c.id = id
	}
}

// WithOrganization marks the vault as belonging to an organization.
func WithOrganization(organizationID string) VaultOption {
	return func(c *vaultConfig) {
		c.organizationID = organizationID
	}
}

// WithArgon2Params overrides the Argon2id cost parameters used to seal a
// keystore. The parameters are recorded in the sealed file, so opening does
// not need them. Lower costs are useful in tests; production keystores
// should keep the defaults.
func WithArgon2Params(time, memoryKB uint32, threads uint8) SealOption {
	return func(c *sealConfig) {
		c.params = crypto.Argon2Params{
			Time:     time,
			MemoryKB: memoryKB,
			Threads:  threads,
		}
	}
}
