package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"

	"golang.org/x/crypto/argon2"

	"github.com/core-coin/custos/internal/models"
	"github.com/core-coin/custos/pkg/validation"
)

const (
	// KeyLength is the length of a wallet key handed to the user.
	KeyLength = 32
	// SaltLength is the length of the verification salt.
	SaltLength = 64

	kdfSaltLength = 16

	alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// KeyMaterial is the result of a key rotation. Key goes to the user, the rest to the wallet row.
type KeyMaterial struct {
	Key           string
	HashedKey     string
	Salt          string
	EncryptedSeed string
}

// Vault issues wallet keys and encrypts seeds under them.
type Vault struct {
	rand io.Reader
}

func NewVault() *Vault {
	return &Vault{rand: rand.Reader}
}

// NewSeed draws a fresh 81 tryte seed.
func (v *Vault) NewSeed() (string, error) {
	return v.randomString(validation.TryteAlphabet, validation.AddressLength)
}

// IssueNewKey generates a key, its verification hash and salt, and the seed
// encrypted under the new key.
func (v *Vault) IssueNewKey(seed string) (*KeyMaterial, error) {
	if !validation.IsSeed(seed) {
		return nil, models.ErrInvalidSeed
	}
	key, err := v.randomString(alphanumeric, KeyLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	salt, err := v.randomString(alphanumeric, SaltLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	encrypted, err := v.encrypt(seed, key)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt seed: %w", err)
	}
	return &KeyMaterial{
		Key:           key,
		HashedKey:     HashKey(key, salt),
		Salt:          salt,
		EncryptedSeed: encrypted,
	}, nil
}

// Verify checks key against the stored hash and salt.
func (v *Vault) Verify(key, hash, salt string) error {
	expected := HashKey(key, salt)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(hash)) != 1 {
		return models.ErrInvalidKey
	}
	return nil
}

// Decrypt opens encSeed with key. Every failure, including a plaintext that
// is not a valid seed, is reported as ErrInvalidSeed.
func (v *Vault) Decrypt(encSeed, key string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encSeed)
	if err != nil || len(raw) < kdfSaltLength {
		return "", models.ErrInvalidSeed
	}
	kdfSalt, rest := raw[:kdfSaltLength], raw[kdfSaltLength:]

	aesgcm, err := newGCM(deriveKey(key, kdfSalt))
	if err != nil {
		return "", models.ErrInvalidSeed
	}
	if len(rest) < aesgcm.NonceSize() {
		return "", models.ErrInvalidSeed
	}
	nonce, ciphertext := rest[:aesgcm.NonceSize()], rest[aesgcm.NonceSize():]

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", models.ErrInvalidSeed
	}
	seed := string(plaintext)
	if !validation.IsSeed(seed) {
		return "", models.ErrInvalidSeed
	}
	return seed, nil
}

// HashKey returns the lowercase hex sha256 of key+salt.
func HashKey(key, salt string) string {
	sum := sha256.Sum256([]byte(key + salt))
	return hex.EncodeToString(sum[:])
}

func (v *Vault) encrypt(seed, key string) (string, error) {
	kdfSalt := make([]byte, kdfSaltLength)
	if _, err := io.ReadFull(v.rand, kdfSalt); err != nil {
		return "", err
	}

	aesgcm, err := newGCM(deriveKey(key, kdfSalt))
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aesgcm.NonceSize())
	if _, err := io.ReadFull(v.rand, nonce); err != nil {
		return "", err
	}

	out := make([]byte, 0, kdfSaltLength+len(nonce)+len(seed)+aesgcm.Overhead())
	out = append(out, kdfSalt...)
	out = append(out, nonce...)
	out = aesgcm.Seal(out, nonce, []byte(seed), nil)
	return base64.StdEncoding.EncodeToString(out), nil
}

func deriveKey(key string, salt []byte) []byte {
	return argon2.IDKey([]byte(key), salt, 1, 64*1024, 4, 32)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (v *Vault) randomString(alphabet string, n int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(v.rand, max)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}
