package chain

import (
	"context"
	"errors"
	"fmt"

	filestore "github.com/bnema/atlas-crm-cli/internal/adapters/storage/file"
	passstore "github.com/bnema/atlas-crm-cli/internal/adapters/storage/pass"
	"github.com/bnema/atlas-crm-cli/internal/domain"
	"github.com/bnema/atlas-crm-cli/internal/ports"
)

// Store reads and writes through primary, falling back to fallback when the
// primary backend fails. Deletes go to both so a value written to the
// fallback cannot outlive a logout.
type Store struct {
	primary  ports.Storage
	fallback ports.Storage
}

var _ ports.Storage = (*Store)(nil)

var (
	errNilPrimaryStore  = errors.New("primary storage is nil")
	errNilFallbackStore = errors.New("fallback storage is nil")
)

func NewStore(primary ports.Storage, fallback ports.Storage) *Store {
	store, err := NewStoreChecked(primary, fallback)
	if err != nil {
		panic(err)
	}

	return store
}

func NewStoreChecked(primary ports.Storage, fallback ports.Storage) (*Store, error) {
	if primary == nil {
		return nil, errNilPrimaryStore
	}
	if fallback == nil {
		return nil, errNilFallbackStore
	}

	return &Store{primary: primary, fallback: fallback}, nil
}

func NewPassFirstWithFileFallback(passPrefix string, fileRoot string) (*Store, error) {
	return NewStoreChecked(passstore.NewStore(passPrefix), filestore.NewStore(fileRoot))
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	err := s.primary.Put(ctx, key, value)
	if err == nil {
		return nil
	}
	if shouldSkipFallback(err) {
		return err
	}

	fallbackErr := s.fallback.Put(ctx, key, value)
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("primary backend put failed: %w; fallback backend put failed: %w", err, fallbackErr)
}

// Get returns domain.ErrStorageKeyNotFound only when neither backend has the key.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	value, err := s.primary.Get(ctx, key)
	if err == nil {
		return value, nil
	}
	if shouldSkipFallback(err) {
		return "", err
	}

	fallbackValue, fallbackErr := s.fallback.Get(ctx, key)
	if fallbackErr == nil {
		return fallbackValue, nil
	}
	if errors.Is(fallbackErr, domain.ErrStorageKeyNotFound) && (errors.Is(err, domain.ErrStorageKeyNotFound) || errors.Is(err, passstore.ErrUnavailable)) {
		return "", fmt.Errorf("key %q: %w", key, domain.ErrStorageKeyNotFound)
	}

	return "", fmt.Errorf("primary backend get failed: %w; fallback backend get failed: %w", err, fallbackErr)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.primary.Delete(ctx, key)
	if err != nil && shouldSkipFallback(err) {
		return err
	}

	fallbackErr := s.fallback.Delete(ctx, key)
	switch {
	case fallbackErr == nil:
		return nil
	case err == nil:
		return fmt.Errorf("fallback backend delete failed: %w", fallbackErr)
	default:
		return fmt.Errorf("primary backend delete failed: %w; fallback backend delete failed: %w", err, fallbackErr)
	}
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
