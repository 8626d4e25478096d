package solana

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// DefaultKeystoreDir is used when no keystore directory is configured.
const DefaultKeystoreDir = "configs/keystore"

// KeyStoreEntry is one encrypted signer on disk, stored as <address>.json.
type KeyStoreEntry struct {
	Address      string `json:"address"`
	EncryptedKey string `json:"encrypted_key"`
	Label        string `json:"label,omitempty"`
	Version      int    `json:"version"`
}

// KeyManager keeps the signer keys of pool creators and position owners encrypted
// with AES-256-GCM under a password.
type KeyManager struct {
	dir string
}

func NewKeyManager(dir string) *KeyManager {
	if dir == "" {
		dir = DefaultKeystoreDir
	}
	return &KeyManager{dir: dir}
}

func (km *KeyManager) Dir() string { return km.dir }

// GenerateKeyPair generates a new Solana key pair
func (km *KeyManager) GenerateKeyPair() (*types.Account, error) {
	account := types.NewAccount()
	return &account, nil
}

// EncryptPrivateKey encrypts a private key using AES-256-GCM
func (km *KeyManager) EncryptPrivateKey(privateKey []byte, password string) (string, error) {
	gcm, err := newGCM(password)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	// nonce || ciphertext
	return base64.StdEncoding.EncodeToString(gcm.Seal(nonce, nonce, privateKey, nil)), nil
}

// DecryptPrivateKey decrypts a private key using AES-256-GCM
func (km *KeyManager) DecryptPrivateKey(encryptedKey string, password string) ([]byte, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encryptedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}
	gcm, err := newGCM(password)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, sealed := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}

// Save encrypts account into the keystore and returns its address.
func (km *KeyManager) Save(account *types.Account, password, label string) (string, error) {
	encrypted, err := km.EncryptPrivateKey(account.PrivateKey, password)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt private key: %w", err)
	}
	address := account.PublicKey.ToBase58()
	entry := KeyStoreEntry{
		Address:      address,
		EncryptedKey: encrypted,
		Label:        label,
		Version:      1,
	}
	jsonData, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal keystore entry: %w", err)
	}
	if err := os.MkdirAll(km.dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create keystore directory: %w", err)
	}
	if err := os.WriteFile(km.path(address), jsonData, 0600); err != nil {
		return "", fmt.Errorf("failed to write keystore entry to file: %w", err)
	}
	return address, nil
}

// ImportBase58 stores a base58 secret key as exported by the Solana CLI wallets.
func (km *KeyManager) ImportBase58(secret, password, label string) (string, error) {
	raw, err := base58.Decode(strings.TrimSpace(secret))
	if err != nil {
		return "", fmt.Errorf("invalid base58 secret: %w", err)
	}
	account, err := types.AccountFromBytes(raw)
	if err != nil {
		return "", fmt.Errorf("failed to create account from private key: %w", err)
	}
	return km.Save(&account, password, label)
}

// ExportBase58 returns the decrypted secret key of address in base58.
func (km *KeyManager) ExportBase58(address, password string) (string, error) {
	key, err := km.Load(address, password)
	if err != nil {
		return "", err
	}
	return base58.Encode(key), nil
}

// Load decrypts the signer stored for address.
func (km *KeyManager) Load(address, password string) (solana.PrivateKey, error) {
	data, err := os.ReadFile(km.path(address))
	if err != nil {
		return nil, fmt.Errorf("failed to read keystore entry: %w", err)
	}
	var entry KeyStoreEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal keystore entry: %w", err)
	}
	if entry.Address != address {
		return nil, fmt.Errorf("address mismatch: expected %s, got %s", address, entry.Address)
	}

	privateKey, err := km.DecryptPrivateKey(entry.EncryptedKey, password)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt private key: %w", err)
	}
	account, err := types.AccountFromBytes(privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create account from private key: %w", err)
	}
	if account.PublicKey.ToBase58() != address {
		return nil, fmt.Errorf("keystore entry %s holds key for %s", address, account.PublicKey.ToBase58())
	}
	return solana.PrivateKey(account.PrivateKey), nil
}

// List returns the stored entries sorted by address, without decrypting them.
func (km *KeyManager) List() ([]KeyStoreEntry, error) {
	files, err := filepath.Glob(filepath.Join(km.dir, "*.json"))
	if err != nil {
		return nil, err
	}
	var entries []KeyStoreEntry
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read keystore entry %s: %w", f, err)
		}
		var entry KeyStoreEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal keystore entry %s: %w", f, err)
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Address < entries[j].Address })
	return entries, nil
}

// Keyring decrypts the given addresses into a keyring for signing bundles.
func (km *KeyManager) Keyring(password string, addresses ...string) (Keyring, error) {
	ring := make(Keyring, len(addresses))
	for _, addr := range addresses {
		key, err := km.Load(addr, password)
		if err != nil {
			return nil, err
		}
		ring.Add(key)
	}
	return ring, nil
}

func (km *KeyManager) path(address string) string {
	return filepath.Join(km.dir, address+".json")
}

func newGCM(password string) (cipher.AEAD, error) {
	block, err := aes.NewCipher(deriveKey(password))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// deriveKey creates a 32-byte key from a password using SHA-256
func deriveKey(password string) []byte {
	hash := sha256.Sum256([]byte(password))
	return hash[:]
}
