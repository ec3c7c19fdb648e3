// Package store holds the customer store implementations. Account state lives
// in the ledger store; this package only owns identity records.
package store

import (
	"context"
	"sort"
	"sync"

	"bankledger/internal/directory/models"
	"bankledger/pkg/platform/sentinel"
)

// InMemory keeps customers in a map. Identification-number uniqueness is
// checked and the insert applied under one lock, mirroring the database
// unique constraint.
type InMemory struct {
	mu        sync.RWMutex
	customers map[int64]*models.Customer
	byIdent   map[string]int64
	nextID    int64
}

// NewInMemory creates an empty in-memory customer store.
func NewInMemory() *InMemory {
	return &InMemory{
		customers: make(map[int64]*models.Customer),
		byIdent:   make(map[string]int64),
	}
}

// CreateIfIdentificationAvailable inserts the customer and assigns its id,
// or returns sentinel.ErrConflict when the identification number is taken.
func (s *InMemory) CreateIfIdentificationAvailable(_ context.Context, customer *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byIdent[customer.IdentificationNumber]; taken {
		return sentinel.ErrConflict
	}
	s.nextID++
	customer.ID = s.nextID
	cp := *customer
	s.customers[customer.ID] = &cp
	s.byIdent[customer.IdentificationNumber] = customer.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id int64) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if customer, ok := s.customers[id]; ok {
		cp := *customer
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) List(_ context.Context) ([]*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Customer, 0, len(s.customers))
	for _, customer := range s.customers {
		cp := *customer
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
