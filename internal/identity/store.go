package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

var (
	ErrNotFound  = errors.New("identity not found")
	ErrDuplicate = errors.New("identity already exists")
	ErrDecrypt   = errors.New("failed to decrypt identity store (wrong password?)")
)

const storeFormat = 1

// envelope is the on-disk layout of the store.
type envelope struct {
	Format int    `json:"format"`
	Salt   []byte `json:"salt"`
	Data   []byte `json:"data"`
}

// associatedData binds the ciphertext to the store format and salt, so a
// sealed payload cannot be replayed under a different header.
func associatedData(format int, salt []byte) []byte {
	return append([]byte(fmt.Sprintf("routerdash-identities/%d/", format)), salt...)
}

// FileStore implements Provider with an encrypted JSON file.
type FileStore struct {
	mu         sync.RWMutex
	path       string
	key        []byte
	salt       []byte
	identities map[string]Identity
}

// NewFileStore opens the encrypted identity store at path, creating an empty
// one with a fresh salt if the file does not exist.
func NewFileStore(path string, password []byte) (*FileStore, error) {
	s := &FileStore{
		path:       path,
		identities: make(map[string]Identity),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if s.salt, err = GenerateSalt(); err != nil {
			return nil, err
		}
		s.key = DeriveKey(password, s.salt)
		return s, s.save()
	}
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("corrupt identity store: %w", err)
	}
	if env.Format != storeFormat {
		return nil, fmt.Errorf("identity store format %d not supported", env.Format)
	}

	s.salt = env.Salt
	s.key = DeriveKey(password, env.Salt)
	plaintext, err := Open(s.key, env.Data, associatedData(env.Format, env.Salt))
	if err != nil {
		return nil, ErrDecrypt
	}
	if err := json.Unmarshal(plaintext, &s.identities); err != nil {
		return nil, fmt.Errorf("corrupt identity data: %w", err)
	}
	return s, nil
}

// save seals the identity map and atomically replaces the store file.
func (s *FileStore) save() error {
	plaintext, err := json.Marshal(s.identities)
	if err != nil {
		return err
	}
	sealed, err := Seal(s.key, plaintext, associatedData(storeFormat, s.salt))
	if err != nil {
		return err
	}
	data, err := json.Marshal(envelope{Format: storeFormat, Salt: s.salt, Data: sealed})
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".identities-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// List returns summaries of all stored identities, sorted by name.
func (s *FileStore) List() ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summaries := make([]Summary, 0, len(s.identities))
	for _, id := range s.identities {
		summaries = append(summaries, id.Summarize())
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Name < summaries[j].Name
	})
	return summaries, nil
}

// Get returns the identity with the given name, or ErrNotFound.
func (s *FileStore) Get(name string) (*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.identities[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return &id, nil
}

// Add validates and stores a new identity.
func (s *FileStore) Add(id Identity) error {
	if id.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalid)
	}
	if err := id.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.identities[id.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicate, id.Name)
	}
	s.identities[id.Name] = id
	return s.save()
}

// Remove deletes an identity by name.
func (s *FileStore) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.identities[name]; !exists {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	delete(s.identities, name)
	return s.save()
}
