package business

import (
	"github.com/gagliardetto/solana-go"

	solanapkg "lpcontrol/pkg/solana"
)

// KeystoreSource loads signer keys from the encrypted keystore.
type KeystoreSource struct {
	km       *solanapkg.KeyManager
	password string
}

func NewKeystoreSource(km *solanapkg.KeyManager, password string) *KeystoreSource {
	return &KeystoreSource{km: km, password: password}
}

func (k *KeystoreSource) Keyring(signers ...solana.PublicKey) (solanapkg.Keyring, error) {
	addresses := make([]string, len(signers))
	for i, s := range signers {
		addresses[i] = s.String()
	}
	return k.km.Keyring(k.password, addresses...)
}
