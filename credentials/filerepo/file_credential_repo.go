// Package filerepo persists credentials as encrypted files in a local data
// folder. The mobile build of Bandemoon kept these entries in the device
// key-value store; a desktop client has no keychain to lean on, so entries
// are sealed with a key derived from a machine-local secret file instead.
package filerepo

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bandemoon/bandemoon-go/apimodel"
	"github.com/bandemoon/bandemoon-go/credentials"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

const (
	keyFileName      = "credentials.key"
	accessTokenFile  = "access_token"
	refreshTokenFile = "refresh_token"
	userInfoFile     = "user_info"

	saltLength  = 16
	passLength  = 32
	nonceLength = 24
)

var _ credentials.Repo = (*FileRepo)(nil)

// FileRepo stores each credential entry as its own sealed file, mirroring
// the three independent keys of the original key-value layout.
type FileRepo struct {
	dir string
	key [32]byte
}

// New opens (or initialises) the repo in the given directory. The first
// call creates the directory and a random secret file from which the
// sealing key is derived.
func New(dir string) (*FileRepo, error) {
	if dir == "" {
		return nil, errors.New("[filerepo.New] data directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("[filerepo.New] failed to create data directory: %w", err)
	}

	r := &FileRepo{dir: dir}
	if err := r.loadOrCreateKey(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *FileRepo) loadOrCreateKey() error {
	path := filepath.Join(r.dir, keyFileName)

	material, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		material = make([]byte, saltLength+passLength)
		if _, err := rand.Read(material); err != nil {
			return fmt.Errorf("[filerepo.loadOrCreateKey] failed to generate key material: %w", err)
		}
		if err := writeFileAtomic(path, material); err != nil {
			return fmt.Errorf("[filerepo.loadOrCreateKey] failed to write key file: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("[filerepo.loadOrCreateKey] failed to read key file: %w", err)
	}
	if len(material) != saltLength+passLength {
		return fmt.Errorf("[filerepo.loadOrCreateKey] key file %q has unexpected length %d", path, len(material))
	}

	derived, err := scrypt.Key(material[saltLength:], material[:saltLength], 1<<15, 8, 1, 32)
	if err != nil {
		return fmt.Errorf("[filerepo.loadOrCreateKey] key derivation failed: %w", err)
	}
	copy(r.key[:], derived)
	return nil
}

func (r *FileRepo) PutAccessToken(token string) error {
	return r.putEntry(accessTokenFile, []byte(token))
}

func (r *FileRepo) GetAccessToken() (string, error) {
	data, err := r.getEntry(accessTokenFile)
	return string(data), err
}

func (r *FileRepo) PutRefreshToken(token string) error {
	return r.putEntry(refreshTokenFile, []byte(token))
}

func (r *FileRepo) GetRefreshToken() (string, error) {
	data, err := r.getEntry(refreshTokenFile)
	return string(data), err
}

func (r *FileRepo) PutUser(user *apimodel.UserInfo) error {
	if user == nil {
		return r.putEntry(userInfoFile, nil)
	}
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("[FileRepo.PutUser] failed to encode user info: %w", err)
	}
	return r.putEntry(userInfoFile, data)
}

func (r *FileRepo) GetUser() (*apimodel.UserInfo, error) {
	data, err := r.getEntry(userInfoFile)
	if err != nil || len(data) == 0 {
		return nil, err
	}
	var user apimodel.UserInfo
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("[FileRepo.GetUser] failed to decode user info: %w", err)
	}
	return &user, nil
}

// Clear removes all credential entries. The key file is kept so entries
// written after a re-login remain readable.
func (r *FileRepo) Clear() error {
	for _, name := range []string{accessTokenFile, refreshTokenFile, userInfoFile} {
		if err := os.Remove(filepath.Join(r.dir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("[FileRepo.Clear] failed to remove %s: %w", name, err)
		}
	}
	return nil
}

// putEntry seals plaintext under a fresh nonce and writes it atomically.
// An empty plaintext removes the entry.
func (r *FileRepo) putEntry(name string, plaintext []byte) error {
	path := filepath.Join(r.dir, name)
	if len(plaintext) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("[FileRepo.putEntry] failed to remove %s: %w", name, err)
		}
		return nil
	}

	var nonce [nonceLength]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return fmt.Errorf("[FileRepo.putEntry] failed to generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], plaintext, &nonce, &r.key)
	if err := writeFileAtomic(path, sealed); err != nil {
		return fmt.Errorf("[FileRepo.putEntry] failed to write %s: %w", name, err)
	}
	return nil
}

// getEntry reads and opens a sealed entry. A missing entry is absent, not
// an error; a short or tampered file is an error.
func (r *FileRepo) getEntry(name string) ([]byte, error) {
	path := filepath.Join(r.dir, name)
	sealed, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[FileRepo.getEntry] failed to read %s: %w", name, err)
	}
	if len(sealed) < nonceLength {
		return nil, fmt.Errorf("[FileRepo.getEntry] entry %s is truncated", name)
	}

	var nonce [nonceLength]byte
	copy(nonce[:], sealed[:nonceLength])
	plaintext, ok := secretbox.Open(nil, sealed[nonceLength:], &nonce, &r.key)
	if !ok {
		return nil, fmt.Errorf("[FileRepo.getEntry] entry %s failed authentication", name)
	}
	return plaintext, nil
}

// writeFileAtomic writes via a temp file and rename so a crashed write
// never leaves a half-written entry behind.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
