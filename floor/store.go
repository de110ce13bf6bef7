// Package floor keeps the lowest known listing price of every collection.
package floor

import (
	"github.com/shopspring/decimal"
	"sync"
	"time"
)

// Record is the current floor of one collection.
type Record struct {
	Price     decimal.Decimal `json:"price"`
	UsdPrice  decimal.Decimal `json:"usdPrice"`
	Timestamp time.Time       `json:"timestamp"`
	Symbol    string          `json:"symbol"`
}

// Store is the in-memory floor table.
// Only the Tracker writes to it; readers may run on other goroutines.
type Store struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewStore() *Store {
	return &Store{records: make(map[string]Record)}
}

func (s *Store) Get(collection string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[collection]
	return r, ok
}

func (s *Store) Set(collection string, r Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[collection] = r
}

func (s *Store) Delete(collection string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, collection)
}

// Snapshot copies the table. Record holds only values, so the copy shares nothing.
func (s *Store) Snapshot() map[string]Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := make(map[string]Record, len(s.records))
	for k, v := range s.records {
		m[k] = v
	}
	return m
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
