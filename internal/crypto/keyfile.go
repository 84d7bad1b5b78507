package crypto

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// EnvKeyFile names the environment variable that overrides key file resolution.
const EnvKeyFile = "PUSHGATE_KEY_FILE"

// Key file search order after the environment override: local dev default,
// then the container secret mount.
var defaultKeyPaths = []string{
	"secrets/encryption_key",
	"/run/secrets/pushgate_key",
}

// ErrNoKey indicates that no non-empty key file was found in any searched
// location. Components that never touch ciphertext can run without a key;
// anything else must treat this as a fatal configuration error.
var ErrNoKey = errors.New("secret key not found or empty (checked $" + EnvKeyFile + ", secrets/encryption_key, /run/secrets/pushgate_key)")

// FindKeyFile resolves the key file path: explicit path argument, then
// $PUSHGATE_KEY_FILE, then the conventional locations. The first existing,
// non-empty file wins.
func FindKeyFile(explicit string) (string, error) {
	candidates := make([]string, 0, len(defaultKeyPaths)+2)
	if explicit != "" {
		candidates = append(candidates, explicit)
	}
	if env := os.Getenv(EnvKeyFile); env != "" {
		candidates = append(candidates, env)
	}
	candidates = append(candidates, defaultKeyPaths...)

	for _, p := range candidates {
		info, err := os.Stat(p)
		if err != nil || info.IsDir() || info.Size() == 0 {
			continue
		}
		return p, nil
	}
	return "", ErrNoKey
}

// LoadCipher resolves the key file and builds a Cipher from it.
// explicit may be empty to use the standard search order.
func LoadCipher(explicit string) (*Cipher, error) {
	path, err := FindKeyFile(explicit)
	if err != nil {
		return nil, err
	}
	return LoadCipherFile(path)
}

// LoadCipherFile builds a Cipher from a specific key file.
func LoadCipherFile(path string) (*Cipher, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file %s: %w", path, err)
	}
	encoded := strings.TrimSpace(string(raw))
	if encoded == "" {
		return nil, ErrNoKey
	}
	key, err := ParseKey(encoded)
	if err != nil {
		return nil, fmt.Errorf("key file %s: %w", path, err)
	}
	return NewCipher(key)
}
