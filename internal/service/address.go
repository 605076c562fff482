package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"address-rest-api/internal/cache"
	"address-rest-api/internal/model"
	"address-rest-api/internal/repository"
)

// ErrNotFound is returned when no address exists for the requested id.
var ErrNotFound = errors.New("address not found")

// DefaultCacheTTL applies when no TTL is configured.
const DefaultCacheTTL = 10 * time.Minute

// AddressService wraps address CRUD with read-through caching.
//
// Three cache namespaces are kept consistent with the store:
// single addresses (address::<id>), the full list (addresses), and
// per-user lists (userAddresses::<userId>). Mutations write the
// single-entity entry through and invalidate both list namespaces
// wholesale; recomputing the lists in place is more error-prone than a
// fresh load on the next read. Cache failures never fail a request -
// the operation degrades to store-only and the failure is logged.
type AddressService struct {
	repo  repository.AddressRepository
	cache cache.Cache
	ttl   time.Duration
}

// NewAddressService creates a new address service.
// Returns nil if repo is nil (required dependency).
func NewAddressService(repo repository.AddressRepository, c cache.Cache, ttl time.Duration) *AddressService {
	if repo == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &AddressService{
		repo:  repo,
		cache: c,
		ttl:   ttl,
	}
}

// Create persists a new address. The store assigns the id. The new
// record is written through to the single-entity cache and both list
// namespaces are invalidated.
func (s *AddressService) Create(ctx context.Context, addr model.Address) (*model.Address, error) {
	saved, err := s.repo.Save(ctx, &addr)
	if err != nil {
		return nil, err
	}

	s.cacheAddress(ctx, saved)
	s.invalidateListCaches(ctx)
	return saved, nil
}

// Update merges all mutable fields into the existing record and
// persists it. The id is never overwritten. Returns ErrNotFound when
// no record exists for the id. Both list namespaces are invalidated
// wholesale: the user may have changed, so per-user eviction by old or
// new owner alone would be insufficient.
func (s *AddressService) Update(ctx context.Context, id string, in model.Address) (*model.Address, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrNotFound
	}

	existing.UserID = in.UserID
	existing.Type = in.Type
	existing.Line1 = in.Line1
	existing.Line2 = in.Line2
	existing.City = in.City
	existing.State = in.State
	existing.Country = in.Country
	existing.PostalCode = in.PostalCode

	saved, err := s.repo.Save(ctx, existing)
	if err != nil {
		return nil, err
	}

	s.cacheAddress(ctx, saved)
	s.invalidateListCaches(ctx)
	return saved, nil
}

// Delete removes an address. Returns ErrNotFound when no record exists
// for the id. Evicts the single-entity entry and invalidates both list
// namespaces.
func (s *AddressService) Delete(ctx context.Context, id string) error {
	exists, err := s.repo.ExistsByID(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return err
	}

	if err := s.cache.Delete(ctx, cache.AddressKey(id)); err != nil {
		log.Printf("[AddressService] Failed to evict address %s from cache: %v", id, err)
	}
	s.invalidateListCaches(ctx)
	return nil
}

// GetAll returns every address, served from the all-addresses cache
// entry when present.
func (s *AddressService) GetAll(ctx context.Context) ([]model.Address, error) {
	key := cache.AllAddressesKey()
	if addresses, ok := s.cachedList(ctx, key); ok {
		return addresses, nil
	}

	addresses, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	s.cacheList(ctx, key, addresses)
	return addresses, nil
}

// GetByID returns a single address, served from cache when present.
// Returns ErrNotFound when no record exists for the id; absent records
// are never cached.
func (s *AddressService) GetByID(ctx context.Context, id string) (*model.Address, error) {
	key := cache.AddressKey(id)
	if data, err := s.cache.Get(ctx, key); err == nil {
		var addr model.Address
		if err := json.Unmarshal(data, &addr); err == nil {
			return &addr, nil
		}
		// Corrupt entry, drop it and fall through to the store
		_ = s.cache.Delete(ctx, key)
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		log.Printf("[AddressService] Cache read failed for %s, falling back to store: %v", key, err)
	}

	addr, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if addr == nil {
		return nil, ErrNotFound
	}

	s.cacheAddress(ctx, addr)
	return addr, nil
}

// GetByUserID returns all addresses for a user, served from the
// per-user cache entry when present. An empty list is a valid,
// cacheable result.
func (s *AddressService) GetByUserID(ctx context.Context, userID string) ([]model.Address, error) {
	key := cache.UserAddressesKey(userID)
	if addresses, ok := s.cachedList(ctx, key); ok {
		return addresses, nil
	}

	addresses, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.cacheList(ctx, key, addresses)
	return addresses, nil
}

// cacheAddress writes a single address through to the cache.
func (s *AddressService) cacheAddress(ctx context.Context, addr *model.Address) {
	data, err := json.Marshal(addr)
	if err != nil {
		log.Printf("[AddressService] Failed to marshal address %s for cache: %v", addr.ID, err)
		return
	}
	if err := s.cache.Set(ctx, cache.AddressKey(addr.ID), data, s.ttl); err != nil {
		log.Printf("[AddressService] Failed to cache address %s: %v", addr.ID, err)
	}
}

// cachedList reads a list-shaped cache entry. The second return value
// reports whether the entry was usable.
func (s *AddressService) cachedList(ctx context.Context, key string) ([]model.Address, bool) {
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("[AddressService] Cache read failed for %s, falling back to store: %v", key, err)
		}
		return nil, false
	}

	var addresses []model.Address
	if err := json.Unmarshal(data, &addresses); err != nil {
		_ = s.cache.Delete(ctx, key)
		return nil, false
	}
	return addresses, true
}

// cacheList stores a list-shaped cache entry.
func (s *AddressService) cacheList(ctx context.Context, key string, addresses []model.Address) {
	data, err := json.Marshal(addresses)
	if err != nil {
		log.Printf("[AddressService] Failed to marshal list for cache key %s: %v", key, err)
		return
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		log.Printf("[AddressService] Failed to cache list %s: %v", key, err)
	}
}

// invalidateListCaches wipes the all-addresses and per-user namespaces.
// Both invalidations are attempted even if one fails.
func (s *AddressService) invalidateListCaches(ctx context.Context) {
	for _, ns := range []string{cache.NamespaceAddresses, cache.NamespaceUserAddresses} {
		if err := cache.ClearNamespace(ctx, s.cache, ns); err != nil {
			log.Printf("[AddressService] Failed to invalidate %s cache: %v", ns, err)
		}
	}
}
