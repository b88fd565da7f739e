// Package memory holds upstream data in process, for tests and local demos.
package memory

import (
	"context"
	"sync"

	billingcycledomain "github.com/railzwaylabs/seatbill/internal/billingcycle/domain"
	pricingdomain "github.com/railzwaylabs/seatbill/internal/pricing/domain"
	recondomain "github.com/railzwaylabs/seatbill/internal/reconciliation/domain"
	"github.com/railzwaylabs/seatbill/internal/source/domain"
)

type customerData struct {
	lifecycle      []recondomain.LifecycleUser
	roster         []recondomain.RosterUser
	testIdentities []string
	usage          map[string][]pricingdomain.SegmentUsage
}

type Store struct {
	mu        sync.RWMutex
	customers map[string]*customerData
	// Err, when set, is returned by every fetch.
	Err error
}

func NewStore() *Store {
	return &Store{customers: make(map[string]*customerData)}
}

func (s *Store) Sources() domain.Sources {
	return domain.Sources{
		Lifecycle:      s,
		Roster:         s,
		Usage:          s,
		TestIdentities: s,
	}
}

func (s *Store) entry(customerID string) *customerData {
	d, ok := s.customers[customerID]
	if !ok {
		d = &customerData{usage: make(map[string][]pricingdomain.SegmentUsage)}
		s.customers[customerID] = d
	}
	return d
}

func (s *Store) SetLifecycle(customerID string, users ...recondomain.LifecycleUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry(customerID).lifecycle = append([]recondomain.LifecycleUser(nil), users...)
}

func (s *Store) SetRoster(customerID string, users ...recondomain.RosterUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry(customerID).roster = append([]recondomain.RosterUser(nil), users...)
}

func (s *Store) SetTestIdentities(customerID string, ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry(customerID).testIdentities = append([]string(nil), ids...)
}

func (s *Store) SetUsage(customerID, period string, usage ...pricingdomain.SegmentUsage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry(customerID).usage[period] = append([]pricingdomain.SegmentUsage(nil), usage...)
}

func (s *Store) FetchLifecycle(ctx context.Context, customerID string, _ billingcycledomain.Period) ([]recondomain.LifecycleUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	if d, ok := s.customers[customerID]; ok {
		return append([]recondomain.LifecycleUser(nil), d.lifecycle...), nil
	}
	return nil, nil
}

func (s *Store) FetchRoster(ctx context.Context, customerID string) ([]recondomain.RosterUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	if d, ok := s.customers[customerID]; ok {
		return append([]recondomain.RosterUser(nil), d.roster...), nil
	}
	return nil, nil
}

func (s *Store) FetchUsage(ctx context.Context, customerID string, period billingcycledomain.Period) ([]pricingdomain.SegmentUsage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	if d, ok := s.customers[customerID]; ok {
		return append([]pricingdomain.SegmentUsage(nil), d.usage[period.Token]...), nil
	}
	return nil, nil
}

func (s *Store) FetchTestIdentities(ctx context.Context, customerID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	if d, ok := s.customers[customerID]; ok {
		return append([]string(nil), d.testIdentities...), nil
	}
	return nil, nil
}

func (s *Store) check(ctx context.Context) error {
	if s.Err != nil {
		return s.Err
	}
	return ctx.Err()
}
