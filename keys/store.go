package keys

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cloudflare/circl/sign/ed25519"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
)

const keySuffix = ".key"

// KeyStore keeps license signing seeds as hex files, one per key name.
//
// Features:
// - Supports Ed25519 keys only
// - Private seed files are created 0600 and never overwritten unless asked
// - Names are restricted to [A-Za-z0-9_-]
type KeyStore struct {
	Directory string
	fs        afero.Fs
}

// KeyEntry describes a stored key without exposing the seed.
type KeyEntry struct {
	Name        string
	PublicKey   string
	Fingerprint string
}

// DefaultDirectory is ~/.phoenix/keys.
func DefaultDirectory() (string, error) {
	return homedir.Expand(filepath.Join("~", ".phoenix", "keys"))
}

// CreateKeyStore opens the store at directory, or DefaultDirectory when
// empty. A nil fs selects the OS filesystem.
func CreateKeyStore(directory string, fs afero.Fs) (*KeyStore, error) {
	if directory == "" {
		var err error
		directory, err = DefaultDirectory()
		if err != nil {
			return nil, err
		}
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &KeyStore{Directory: directory, fs: fs}, nil
}

func (ks *KeyStore) keyFilePath(name string) string {
	return filepath.Join(ks.Directory, name+keySuffix)
}

func CheckKeyName(name string) error {
	if name == "" {
		return errors.New("key name cannot be empty")
	}
	for _, char := range name {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '-' || char == '_' {
			continue
		}
		return fmt.Errorf("invalid character %q in key name", char)
	}
	return nil
}

func ParseSeedHex(seedHex string) ([]byte, error) {
	seedHex = strings.TrimSpace(seedHex)
	seedHex = strings.TrimPrefix(seedHex, "0x")
	data, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, err
	}
	if len(data) != ed25519.SeedSize {
		return nil, fmt.Errorf("expected seed length of %d bytes, got %d", ed25519.SeedSize, len(data))
	}
	return data, nil
}

func (ks *KeyStore) saveSeedToFile(filePath string, seed []byte, overwrite bool) error {
	if len(seed) != ed25519.SeedSize {
		return fmt.Errorf("expected seed length of %d bytes", ed25519.SeedSize)
	}
	if err := ks.fs.MkdirAll(filepath.Dir(filePath), 0o700); err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	file, err := ks.fs.OpenFile(filePath, flags, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()
	if _, err := file.WriteString(hex.EncodeToString(seed) + "\n"); err != nil {
		return err
	}
	return file.Close()
}

func (ks *KeyStore) loadSeedFromFile(filePath string) ([]byte, error) {
	data, err := afero.ReadFile(ks.fs, filePath)
	if err != nil {
		return nil, err
	}
	return ParseSeedHex(string(data))
}

// Initialize stores seed under name and returns the base64 public key.
func (ks *KeyStore) Initialize(name string, seed []byte, overwrite bool) (publicKey string, filePath string, err error) {
	if err := CheckKeyName(name); err != nil {
		return "", "", err
	}
	pub, err := PublicKeyFromSeed(seed)
	if err != nil {
		return "", "", err
	}
	filePath = ks.keyFilePath(name)
	if err := ks.saveSeedToFile(filePath, seed, overwrite); err != nil {
		return "", "", err
	}
	publicKey, err = PublicKeyBase64(pub)
	if err != nil {
		return "", "", err
	}
	return publicKey, filePath, nil
}

// Export returns the base64 public key of a stored key.
func (ks *KeyStore) Export(name string) (string, error) {
	if err := CheckKeyName(name); err != nil {
		return "", err
	}
	seed, err := ks.loadSeedFromFile(ks.keyFilePath(name))
	if err != nil {
		return "", err
	}
	pub, err := PublicKeyFromSeed(seed)
	if err != nil {
		return "", err
	}
	return PublicKeyBase64(pub)
}

// LoadSeed resolves a signing seed from, in order, an explicit hex seed, a
// key file path, or a stored key name.
func (ks *KeyStore) LoadSeed(seedHex, name, keyFile string) ([]byte, error) {
	if seedHex != "" {
		return ParseSeedHex(seedHex)
	}
	if keyFile != "" {
		return ks.loadSeedFromFile(keyFile)
	}
	if name != "" {
		if err := CheckKeyName(name); err != nil {
			return nil, err
		}
		return ks.loadSeedFromFile(ks.keyFilePath(name))
	}
	return nil, errors.New("no signing key provided")
}

// List returns the stored keys sorted by name. A missing directory is an
// empty store.
func (ks *KeyStore) List() ([]KeyEntry, error) {
	entries, err := afero.ReadDir(ks.fs, ks.Directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), keySuffix) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), keySuffix))
	}
	sort.Strings(names)

	var result []KeyEntry
	for _, name := range names {
		seed, err := ks.loadSeedFromFile(ks.keyFilePath(name))
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", name, err)
		}
		pub, err := PublicKeyFromSeed(seed)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", name, err)
		}
		b64, err := PublicKeyBase64(pub)
		if err != nil {
			return nil, err
		}
		result = append(result, KeyEntry{Name: name, PublicKey: b64, Fingerprint: Fingerprint(pub)})
	}
	return result, nil
}
