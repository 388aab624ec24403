// Package vault stores the session token pair encrypted at rest. It stands
// in for the platform keychain: a single small file holding both tokens,
// sealed with AES-256-GCM under a key derived from a device secret.
//
// Writes are atomic (temp file + rename), so a reader never observes a pair
// with only one of its fields updated.
package vault

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/argon2"

	"github.com/stillwaterhq/stillwater/internal/session/domain"
)

const (
	saltSize = 16
	keySize  = 32

	// argon2id parameters; writes are rare so the cost is irrelevant.
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

var magic = []byte("SWV1")

// ErrCorrupt reports that the vault file exists but cannot be decrypted,
// usually a wrong device secret or a truncated write from another process.
var ErrCorrupt = errors.New("vault: corrupt or undecryptable")

type Vault struct {
	mu     sync.Mutex
	path   string
	secret []byte
}

// Open returns a vault backed by the file at path. The file is created on
// the first SetPair; a missing file reads as the zero pair.
func Open(path string, secret []byte) (*Vault, error) {
	if path == "" {
		return nil, fmt.Errorf("vault: path is required")
	}
	if len(secret) == 0 {
		return nil, fmt.Errorf("vault: device secret is required")
	}
	return &Vault{path: path, secret: secret}, nil
}

// Pair returns the stored pair, or the zero pair when nothing is stored.
func (v *Vault) Pair(ctx context.Context) (domain.TokenPair, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	data, err := os.ReadFile(v.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.TokenPair{}, nil
		}
		return domain.TokenPair{}, fmt.Errorf("vault: read: %w", err)
	}

	plaintext, err := v.unseal(data)
	if err != nil {
		return domain.TokenPair{}, err
	}

	var pair domain.TokenPair
	if err := json.Unmarshal(plaintext, &pair); err != nil {
		return domain.TokenPair{}, ErrCorrupt
	}
	return pair, nil
}

// SetPair persists both tokens in one atomic file replace.
func (v *Vault) SetPair(ctx context.Context, pair domain.TokenPair) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	plaintext, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("vault: marshal: %w", err)
	}

	sealed, err := v.seal(plaintext)
	if err != nil {
		return err
	}

	dir := filepath.Dir(v.path)
	tmp, err := os.CreateTemp(dir, ".vault-*")
	if err != nil {
		return fmt.Errorf("vault: temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("vault: chmod: %w", err)
	}
	if _, err := tmp.Write(sealed); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("vault: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("vault: close: %w", err)
	}

	if err := os.Rename(tmpName, v.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("vault: rename: %w", err)
	}
	return nil
}

// Clear deletes the stored pair. Clearing an empty vault is a no-op.
func (v *Vault) Clear(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := os.Remove(v.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("vault: clear: %w", err)
	}
	return nil
}

// seal produces: magic || salt || nonce || ciphertext. A fresh salt and
// nonce are generated per write.
func (v *Vault) seal(plaintext []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("vault: salt: %w", err)
	}

	gcm, err := v.aead(salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("vault: nonce: %w", err)
	}

	out := make([]byte, 0, len(magic)+saltSize+len(nonce)+len(plaintext)+gcm.Overhead())
	out = append(out, magic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, plaintext, nil), nil
}

func (v *Vault) unseal(data []byte) ([]byte, error) {
	header := len(magic) + saltSize
	if len(data) < header || string(data[:len(magic)]) != string(magic) {
		return nil, ErrCorrupt
	}
	salt := data[len(magic):header]

	gcm, err := v.aead(salt)
	if err != nil {
		return nil, err
	}

	rest := data[header:]
	if len(rest) < gcm.NonceSize() {
		return nil, ErrCorrupt
	}
	nonce, ciphertext := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrCorrupt
	}
	return plaintext, nil
}

func (v *Vault) aead(salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey(v.secret, salt, argonTime, argonMemory, argonThreads, keySize)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("vault: cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("vault: gcm: %w", err)
	}
	return gcm, nil
}
