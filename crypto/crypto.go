package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize   = 32
	keySize    = 32
	iterations = 100_000
)

var ErrEmptyPassphrase = errors.New("passphrase is empty")

// Sealed is the on-disk form of an encrypted draft vault.
type Sealed struct {
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

func deriveKey(pass string, salt []byte) []byte {
	return pbkdf2.Key([]byte(pass), salt, iterations, keySize, sha256.New)
}

func newGCM(pass string, salt []byte) (cipher.AEAD, error) {
	key := deriveKey(pass, salt)
	defer clearBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Seal encrypts plaintext with a key derived from pass and a fresh salt.
func Seal(plaintext []byte, pass string) (*Sealed, error) {
	if pass == "" {
		return nil, ErrEmptyPassphrase
	}
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}

	gcm, err := newGCM(pass, salt)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return &Sealed{
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: gcm.Seal(nil, nonce, plaintext, nil),
	}, nil
}

// Open reverses Seal. A wrong passphrase fails authentication.
func Open(s Sealed, pass string) ([]byte, error) {
	if pass == "" {
		return nil, ErrEmptyPassphrase
	}
	gcm, err := newGCM(pass, s.Salt)
	if err != nil {
		return nil, err
	}
	return gcm.Open(nil, s.Nonce, s.Ciphertext, nil)
}

func clearBytes(data []byte) {
	for i := range data {
		data[i] = 0
	}
}
