// Package store persists the two application documents as flat JSON
// files: users.json (username -> account record) and history.json
// (ordered classification log). Every mutation rewrites the whole file;
// a per-store mutex serializes access so concurrent handlers cannot
// interleave read-modify-write cycles. Writes are not atomic; a crash
// mid-write can truncate the file.
package store

import (
	"encoding/json"
	"errors"
	"os"
	"sync"

	"reqclassify/models"
)

var (
	ErrExists          = errors.New("record already exists")
	ErrIndexOutOfRange = errors.New("index out of range")
)

// UserStore holds the user directory document.
type UserStore struct {
	path string
	mu   sync.Mutex
}

func NewUserStore(path string) *UserStore {
	return &UserStore{path: path}
}

// Load reads the full user directory. A missing file yields an empty
// directory; malformed content propagates the decode error.
func (s *UserStore) Load() (map[string]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Save rewrites users.json with the given directory.
func (s *UserStore) Save(users map[string]models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(users)
}

// Get looks up a single user by username.
func (s *UserStore) Get(username string) (models.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.load()
	if err != nil {
		return models.User{}, false, err
	}
	user, ok := users[username]
	return user, ok, nil
}

// Create adds a new user under the store lock so two signups cannot
// race the same username. Returns ErrExists if the name is taken.
func (s *UserStore) Create(user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := users[user.Username]; ok {
		return ErrExists
	}
	users[user.Username] = user
	return s.save(users)
}

func (s *UserStore) load() (map[string]models.User, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]models.User{}, nil
	}
	if err != nil {
		return nil, err
	}
	users := map[string]models.User{}
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, err
	}
	for name, user := range users {
		user.Username = name
		users[name] = user
	}
	return users, nil
}

func (s *UserStore) save(users map[string]models.User) error {
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}

// HistoryStore holds the ordered classification log document.
type HistoryStore struct {
	path string
	mu   sync.Mutex
}

func NewHistoryStore(path string) *HistoryStore {
	return &HistoryStore{path: path}
}

// Load reads the full history log. A missing file yields an empty log;
// malformed content propagates the decode error.
func (s *HistoryStore) Load() ([]models.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Save rewrites history.json with the given log.
func (s *HistoryStore) Save(entries []models.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(entries)
}

// Append adds entries to the end of the log and persists it.
func (s *HistoryStore) Append(entries ...models.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, err := s.load()
	if err != nil {
		return err
	}
	return s.save(append(existing, entries...))
}

// Delete removes the entry at the given position and persists the log.
// Returns ErrIndexOutOfRange without touching the file when the index
// falls outside the current log.
func (s *HistoryStore) Delete(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.load()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(entries) {
		return ErrIndexOutOfRange
	}
	entries = append(entries[:index], entries[index+1:]...)
	return s.save(entries)
}

func (s *HistoryStore) load() ([]models.HistoryEntry, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return []models.HistoryEntry{}, nil
	}
	if err != nil {
		return nil, err
	}
	entries := []models.HistoryEntry{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *HistoryStore) save(entries []models.HistoryEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}
