package auth

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/restflow/restflow/internal/storage/bytestore"
)

// ErrSecretNotFound indicates neither the encrypted store nor the
// environment has a value for the requested secret name.
var ErrSecretNotFound = errors.New("secret not found")

// SecretResolver resolves a logical secret name (e.g. "openai_api_key") to
// its value, trying an encrypted store before falling back to the
// environment so operators can run entirely off env vars in development and
// switch to the encrypted store in production without code changes.
type SecretResolver struct {
	store    bytestore.Store
	ns       string
	gcm      cipher.AEAD
	envPrefix string
}

// NewSecretResolver builds a resolver backed by store for a given
// namespace (bucket) and AEAD key. key must be 16, 24, or 32 bytes (AES-128/
// 192/256). envPrefix is prepended (upper-cased, with "_" separators) to a
// secret's name to form the environment variable checked on a store miss,
// e.g. envPrefix "RESTFLOW" and name "openai_api_key" checks
// RESTFLOW_OPENAI_API_KEY.
func NewSecretResolver(store bytestore.Store, ns string, key []byte, envPrefix string) (*SecretResolver, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("secret resolver: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("secret resolver: %w", err)
	}
	return &SecretResolver{store: store, ns: ns, gcm: gcm, envPrefix: envPrefix}, nil
}

// DeriveKey turns an arbitrary passphrase into a 32-byte AES-256 key. Use
// this when the operator supplies a human-chosen master passphrase rather
// than a raw key.
func DeriveKey(passphrase string) []byte {
	sum := sha256.Sum256([]byte(passphrase))
	return sum[:]
}

// Resolve returns the secret named name, checking the encrypted store
// first and the environment second.
func (r *SecretResolver) Resolve(ctx context.Context, name string) (string, error) {
	if ciphertext, err := r.store.Get(ctx, r.ns, name); err == nil {
		plain, err := r.decrypt(ciphertext)
		if err != nil {
			return "", fmt.Errorf("secret resolver: decrypt %q: %w", name, err)
		}
		return string(plain), nil
	} else if !errors.Is(err, bytestore.ErrNotFound) {
		return "", fmt.Errorf("secret resolver: store lookup %q: %w", name, err)
	}

	if value, ok := os.LookupEnv(r.envVar(name)); ok {
		return value, nil
	}

	return "", fmt.Errorf("%w: %s", ErrSecretNotFound, name)
}

// Put encrypts value and writes it to the store under name, overwriting any
// existing entry.
func (r *SecretResolver) Put(ctx context.Context, name, value string) error {
	ciphertext, err := r.encrypt([]byte(value))
	if err != nil {
		return fmt.Errorf("secret resolver: encrypt %q: %w", name, err)
	}
	return r.store.Put(ctx, r.ns, name, ciphertext)
}

// Delete removes name from the encrypted store. It does not affect any
// same-named environment variable.
func (r *SecretResolver) Delete(ctx context.Context, name string) error {
	return r.store.Delete(ctx, r.ns, name)
}

func (r *SecretResolver) envVar(name string) string {
	upper := strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	if r.envPrefix == "" {
		return upper
	}
	return strings.ToUpper(r.envPrefix) + "_" + upper
}

func (r *SecretResolver) encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, r.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return r.gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func (r *SecretResolver) decrypt(ciphertext []byte) ([]byte, error) {
	nonceSize := r.gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.New("ciphertext too short")
	}
	nonce, sealed := ciphertext[:nonceSize], ciphertext[nonceSize:]
	return r.gcm.Open(nil, nonce, sealed, nil)
}
