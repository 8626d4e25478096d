package solana

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyManager(t *testing.T) {
	km := NewKeyManager(t.TempDir())

	// Test key pair generation
	t.Run("Generate Key Pair", func(t *testing.T) {
		account, err := km.GenerateKeyPair()
		require.NoError(t, err)
		assert.NotEmpty(t, account.PublicKey.ToBase58())
		assert.Equal(t, 64, len(account.PrivateKey), "Private key should be 64 bytes")
	})

	t.Run("Encrypt and Decrypt Private Key", func(t *testing.T) {
		account, err := km.GenerateKeyPair()
		require.NoError(t, err)

		encrypted, err := km.EncryptPrivateKey(account.PrivateKey, "test-password")
		require.NoError(t, err)
		assert.NotEmpty(t, encrypted)

		decrypted, err := km.DecryptPrivateKey(encrypted, "test-password")
		require.NoError(t, err)
		assert.True(t, bytes.Equal(account.PrivateKey, decrypted), "Decrypted private key should match original")
	})

	t.Run("Save and Load", func(t *testing.T) {
		account, err := km.GenerateKeyPair()
		require.NoError(t, err)

		address, err := km.Save(account, "test-password", "creator")
		require.NoError(t, err)
		assert.Equal(t, account.PublicKey.ToBase58(), address)

		info, err := os.Stat(filepath.Join(km.Dir(), address+".json"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

		key, err := km.Load(address, "test-password")
		require.NoError(t, err)
		assert.Equal(t, address, key.PublicKey().String())
	})

	t.Run("Import and Export Base58", func(t *testing.T) {
		account, err := km.GenerateKeyPair()
		require.NoError(t, err)
		secret := base58.Encode(account.PrivateKey)

		address, err := km.ImportBase58(secret+"\n", "pw", "")
		require.NoError(t, err)

		exported, err := km.ExportBase58(address, "pw")
		require.NoError(t, err)
		assert.Equal(t, secret, exported)
	})

	t.Run("Keyring", func(t *testing.T) {
		a, err := km.GenerateKeyPair()
		require.NoError(t, err)
		b, err := km.GenerateKeyPair()
		require.NoError(t, err)
		addrA, err := km.Save(a, "pw", "")
		require.NoError(t, err)
		addrB, err := km.Save(b, "pw", "")
		require.NoError(t, err)

		ring, err := km.Keyring("pw", addrA, addrB)
		require.NoError(t, err)
		assert.Len(t, ring, 2)
		for key, priv := range ring {
			assert.Equal(t, key, priv.PublicKey())
		}
	})

	t.Run("List", func(t *testing.T) {
		fresh := NewKeyManager(t.TempDir())
		for i := 0; i < 3; i++ {
			account, err := fresh.GenerateKeyPair()
			require.NoError(t, err)
			_, err = fresh.Save(account, "pw", "")
			require.NoError(t, err)
		}
		entries, err := fresh.List()
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Less(t, entries[0].Address, entries[1].Address)
		assert.Equal(t, 1, entries[2].Version)
	})

	t.Run("Error Cases", func(t *testing.T) {
		account, err := km.GenerateKeyPair()
		require.NoError(t, err)

		encrypted, err := km.EncryptPrivateKey(account.PrivateKey, "password1")
		require.NoError(t, err)
		_, err = km.DecryptPrivateKey(encrypted, "password2")
		assert.Error(t, err)

		address, err := km.Save(account, "password1", "")
		require.NoError(t, err)
		_, err = km.Load(address, "password2")
		assert.Error(t, err)

		_, err = km.Load("nonexistent", "password1")
		assert.Error(t, err)

		_, err = km.ImportBase58("0OIl", "pw", "")
		assert.Error(t, err)

		_, err = km.Keyring("password1", address, "nonexistent")
		assert.Error(t, err)
	})

	t.Run("Multiple Key Generation", func(t *testing.T) {
		keys := make(map[string]bool)
		for i := 0; i < 10; i++ {
			account, err := km.GenerateKeyPair()
			require.NoError(t, err)

			address := account.PublicKey.ToBase58()
			assert.False(t, keys[address], "Generated duplicate address")
			keys[address] = true
		}
	})
}
