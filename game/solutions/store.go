package solutions

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/boxpusher/game/solver"
)

// ErrSolutionNotFound is returned when no record exists for a key
var ErrSolutionNotFound = errors.New("solution not found")

// Record is one cached solver result
type Record struct {
	ConfigName string          `json:"config_name"`
	Hash       string          `json:"hash"`
	RunID      string          `json:"run_id"`
	Solution   solver.Solution `json:"solution"`
	Difficulty *float64        `json:"difficulty,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Store persists solver results
type Store interface {
	// Get returns the record for a level state or ErrSolutionNotFound
	Get(ctx context.Context, configName, hash string) (*Record, error)
	// Put stores or replaces a record
	Put(ctx context.Context, record *Record) error
	// DeleteConfig drops every record of a level, e.g. after its layout changed
	DeleteConfig(ctx context.Context, configName string) error
	Close() error
}

const keyPrefix = "solution/"

func configPrefix(configName string) string {
	return keyPrefix + configName + "/"
}

func recordKey(configName, hash string) string {
	return configPrefix(configName) + hash
}

// MemoryStore keeps records in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Get(ctx context.Context, configName, hash string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[recordKey(configName, hash)]
	if !ok {
		return nil, ErrSolutionNotFound
	}
	return &record, nil
}

func (s *MemoryStore) Put(ctx context.Context, record *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateRecord(record); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[recordKey(record.ConfigName, record.Hash)] = *record
	return nil
}

func (s *MemoryStore) DeleteConfig(ctx context.Context, configName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := configPrefix(configName)
	for key := range s.records {
		if strings.HasPrefix(key, prefix) {
			delete(s.records, key)
		}
	}
	return nil
}

// Len returns the number of stored records
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *MemoryStore) Close() error {
	return nil
}

func validateRecord(record *Record) error {
	if record == nil {
		return errors.New("record cannot be nil")
	}
	if record.ConfigName == "" || record.Hash == "" {
		return errors.New("record needs a config name and a hash")
	}
	return nil
}
