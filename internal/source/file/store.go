// Package file reads upstream exports laid out as JSON files, one directory per customer.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	billingcycledomain "github.com/railzwaylabs/seatbill/internal/billingcycle/domain"
	pricingdomain "github.com/railzwaylabs/seatbill/internal/pricing/domain"
	recondomain "github.com/railzwaylabs/seatbill/internal/reconciliation/domain"
	"github.com/railzwaylabs/seatbill/internal/source/domain"
	"go.uber.org/zap"
)

const (
	lifecycleFile      = "lifecycle.json"
	rosterFile         = "roster.json"
	testIdentitiesFile = "test_identities.json"
	usageDir           = "usage"
)

type Store struct {
	dir string
	log *zap.Logger
}

func NewStore(dir string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{dir: dir, log: log.Named("source.file")}
}

// Sources exposes the store through every source interface.
func (s *Store) Sources() domain.Sources {
	return domain.Sources{
		Lifecycle:      s,
		Roster:         s,
		Usage:          s,
		TestIdentities: s,
	}
}

func (s *Store) FetchLifecycle(ctx context.Context, customerID string, _ billingcycledomain.Period) ([]recondomain.LifecycleUser, error) {
	var users []recondomain.LifecycleUser
	if err := s.read(ctx, customerID, lifecycleFile, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) FetchRoster(ctx context.Context, customerID string) ([]recondomain.RosterUser, error) {
	var users []recondomain.RosterUser
	if err := s.read(ctx, customerID, rosterFile, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) FetchUsage(ctx context.Context, customerID string, period billingcycledomain.Period) ([]pricingdomain.SegmentUsage, error) {
	var usage []pricingdomain.SegmentUsage
	name := filepath.Join(usageDir, period.Token+".json")
	if err := s.read(ctx, customerID, name, &usage); err != nil {
		return nil, err
	}
	return usage, nil
}

func (s *Store) FetchTestIdentities(ctx context.Context, customerID string) ([]string, error) {
	var ids []string
	if err := s.read(ctx, customerID, testIdentitiesFile, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// read decodes a customer file into out. A missing file leaves out untouched.
func (s *Store) read(ctx context.Context, customerID, name string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir, err := s.customerDir(customerID)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, name)
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Debug("source file absent", zap.String("path", path))
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrMalformedSource, path, err)
	}
	return nil
}

func (s *Store) customerDir(customerID string) (string, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" || customerID == "." || customerID == ".." || strings.ContainsAny(customerID, `/\`) {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidCustomer, customerID)
	}
	return filepath.Join(s.dir, customerID), nil
}
