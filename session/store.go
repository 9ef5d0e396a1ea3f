package session

import (
	"encoding/json"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

// HistoryEntry The last view and slice used on one source image.
// LastVisited is kept as the serialized timestamp so a stored envelope round-trips unchanged.
type HistoryEntry struct {
	URL         string `json:"url"`
	View        string `json:"view"`
	Slice       *int   `json:"slice"`
	LastVisited string `json:"lastVisited"`
}

// Envelope The versioned wrapper around persisted session history
type Envelope struct {
	Version int            `json:"version"`
	History []HistoryEntry `json:"history"`
}

func NewEnvelope(version int) *Envelope {
	return &Envelope{Version: version, History: []HistoryEntry{}}
}

// Lookup Find the entry recorded for url
func (e *Envelope) Lookup(url string) (HistoryEntry, bool) {
	if e == nil {
		return HistoryEntry{}, false
	}
	for _, entry := range e.History {
		if entry.URL == url {
			return entry, true
		}
	}
	return HistoryEntry{}, false
}

// Upsert Drop any entry for entry.URL and append entry, so the most recent write is last
func (e *Envelope) Upsert(entry HistoryEntry) {
	history := e.History[:0]
	for _, stored := range e.History {
		if stored.URL != entry.URL {
			history = append(history, stored)
		}
	}
	e.History = append(history, entry)
}

// Storage A synchronous key/value store, such as a browser's local storage
type Storage interface {
	GetItem(key string) (string, bool, error)
	SetItem(key string, value string) error
}

// Store Session history persisted in one storage slot
type Store struct {
	mu      sync.Mutex
	storage Storage
	slot    string
	version int
}

func NewStore(storage Storage, slot string, version int) *Store {
	return &Store{storage: storage, slot: slot, version: version}
}

// Version The schema version envelopes are written with
func (s *Store) Version() int {
	return s.version
}

// Load Read the stored envelope. Missing, unparsable and other-version envelopes are all absent.
func (s *Store) Load() (*Envelope, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() (*Envelope, bool) {
	raw, ok, err := s.storage.GetItem(s.slot)
	if err != nil {
		log.Warn(fmt.Sprintf("Cannot read session history from slot %s: %s", s.slot, err.Error()))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var envelope Envelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		log.Warn(fmt.Sprintf("Discarding unparsable session history in slot %s: %s", s.slot, err.Error()))
		return nil, false
	}
	if envelope.Version != s.version {
		log.Debug(fmt.Sprintf("Discarding session history version %d in slot %s, running version %d", envelope.Version, s.slot, s.version))
		return nil, false
	}
	if envelope.History == nil {
		envelope.History = []HistoryEntry{}
	}
	return &envelope, true
}

// Persist Write the whole envelope back
func (s *Store) Persist(envelope *Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist(envelope)
}

func (s *Store) persist(envelope *Envelope) error {
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("serialize session history: %w", err)
	}
	if err := s.storage.SetItem(s.slot, string(data)); err != nil {
		return fmt.Errorf("write session history to slot %s: %w", s.slot, err)
	}
	return nil
}

// Remember Load, upsert entry and persist as one uninterrupted sequence
func (s *Store) Remember(entry HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	envelope, ok := s.load()
	if !ok {
		envelope = NewEnvelope(s.version)
	}
	envelope.Upsert(entry)
	return s.persist(envelope)
}

// MemoryStorage A Storage kept in process memory
type MemoryStorage struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: make(map[string]string)}
}

func (m *MemoryStorage) GetItem(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.items[key]
	return value, ok, nil
}

func (m *MemoryStorage) SetItem(key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

// Stores One Store per user, all sharing a storage backend
type Stores struct {
	mu      sync.Mutex
	storage Storage
	slot    string
	version int
	stores  map[string]*Store
}

func NewStores(storage Storage, slot string, version int) *Stores {
	return &Stores{storage: storage, slot: slot, version: version, stores: make(map[string]*Store)}
}

// For The Store holding the history of user
func (s *Stores) For(user string) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	store, ok := s.stores[user]
	if !ok {
		store = NewStore(s.storage, s.slot+":"+user, s.version)
		s.stores[user] = store
	}
	return store
}
