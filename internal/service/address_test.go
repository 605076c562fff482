package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"address-rest-api/internal/cache"
	"address-rest-api/internal/model"
	"address-rest-api/pkg/uid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAddressRepo is an in-memory AddressRepository that counts store
// reads so tests can assert cache hits.
type fakeAddressRepo struct {
	mu        sync.Mutex
	addresses map[string]model.Address

	findByIDCalls   int
	findAllCalls    int
	findByUserCalls int
}

func newFakeAddressRepo() *fakeAddressRepo {
	return &fakeAddressRepo{addresses: make(map[string]model.Address)}
}

func (r *fakeAddressRepo) Save(ctx context.Context, addr *model.Address) (*model.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	saved := *addr
	if saved.ID == "" {
		saved.ID = uid.New()
	}
	r.addresses[saved.ID] = saved
	return &saved, nil
}

func (r *fakeAddressRepo) FindByID(ctx context.Context, id string) (*model.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findByIDCalls++
	addr, ok := r.addresses[id]
	if !ok {
		return nil, nil
	}
	return &addr, nil
}

func (r *fakeAddressRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.addresses[id]
	return ok, nil
}

func (r *fakeAddressRepo) DeleteByID(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.addresses, id)
	return nil
}

func (r *fakeAddressRepo) FindAll(ctx context.Context) ([]model.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findAllCalls++
	out := []model.Address{}
	for _, addr := range r.addresses {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeAddressRepo) FindByUserID(ctx context.Context, userID string) ([]model.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findByUserCalls++
	out := []model.Address{}
	for _, addr := range r.addresses {
		if addr.UserID == userID {
			out = append(out, addr)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeAddressRepo) Stats(ctx context.Context) (map[string]interface{}, error) {
	return map[string]interface{}{"status": "connected"}, nil
}

func (r *fakeAddressRepo) Close() error { return nil }

func testAddress(userID string) model.Address {
	return model.Address{
		UserID:     userID,
		Type:       model.AddressTypeBilling,
		Line1:      "123 Main St",
		City:       "Austin",
		State:      "TX",
		Country:    "US",
		PostalCode: "73301",
	}
}

func newTestService(t *testing.T) (*AddressService, *fakeAddressRepo, *cache.MemoryCache) {
	t.Helper()
	repo := newFakeAddressRepo()
	c := cache.NewMemoryCache()
	t.Cleanup(func() { c.Close() })
	svc := NewAddressService(repo, c, time.Minute)
	require.NotNil(t, svc)
	return svc, repo, c
}

func TestCreateAssignsIDAndCachesEntity(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, testAddress("u1"))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	// Immediately readable without a store read (cache hit)
	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
	assert.Equal(t, 0, repo.findByIDCalls)
}

func TestGetByIDMissReadsThroughAndPopulates(t *testing.T) {
	svc, repo, c := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, testAddress("u1"))
	require.NoError(t, err)

	// Evict so the next read must hit the store
	require.NoError(t, c.Delete(ctx, cache.AddressKey(created.ID)))

	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, 1, repo.findByIDCalls)

	// Populated on miss: second read is a cache hit
	_, err = svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.findByIDCalls)
}

func TestGetByIDMissingReturnsNotFound(t *testing.T) {
	svc, _, c := newTestService(t)
	ctx := context.Background()

	_, err := svc.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	// No negative caching
	_, err = c.Get(ctx, cache.AddressKey("missing"))
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestUpdateRefreshesEntityAndInvalidatesLists(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, testAddress("u1"))
	require.NoError(t, err)

	// Prime both list caches
	_, err = svc.GetAll(ctx)
	require.NoError(t, err)
	_, err = svc.GetByUserID(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 1, repo.findAllCalls)
	require.Equal(t, 1, repo.findByUserCalls)

	in := testAddress("u2")
	in.Line1 = "456 Oak Ave"
	updated, err := svc.Update(ctx, created.ID, in)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "u2", updated.UserID)
	assert.Equal(t, "456 Oak Ave", updated.Line1)

	// Single-entity entry was written through
	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "456 Oak Ave", got.Line1)
	assert.Equal(t, 1, repo.findByIDCalls) // only the Update pre-read

	// Both list caches were invalidated and repopulate from the store
	all, err := svc.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, 2, repo.findAllCalls)

	byUser, err := svc.GetByUserID(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, byUser, 1)
	assert.Equal(t, 2, repo.findByUserCalls)
}

func TestUpdateMissingReturnsNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Update(context.Background(), "missing", testAddress("u1"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteEvictsAndInvalidatesLists(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, testAddress("u1"))
	require.NoError(t, err)
	second, err := svc.Create(ctx, testAddress("u2"))
	require.NoError(t, err)

	// Prime the all-addresses cache
	all, err := svc.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, 1, repo.findAllCalls)

	require.NoError(t, svc.Delete(ctx, first.ID))

	_, err = svc.GetByID(ctx, first.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// A fresh list read must re-query the store and exclude the deleted id
	all, err = svc.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.findAllCalls)
	require.Len(t, all, 1)
	assert.Equal(t, second.ID, all[0].ID)
}

func TestDeleteMissingReturnsNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetByUserServedFromCacheOnSecondCall(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, testAddress("u1"))
	require.NoError(t, err)

	byUser, err := svc.GetByUserID(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, byUser, 1)
	assert.Equal(t, created.ID, byUser[0].ID)
	assert.Equal(t, 1, repo.findByUserCalls)

	byUser, err = svc.GetByUserID(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, byUser, 1)
	assert.Equal(t, 1, repo.findByUserCalls) // served from cache
}

func TestGetByUserCachesEmptyList(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	byUser, err := svc.GetByUserID(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, byUser)
	assert.Equal(t, 1, repo.findByUserCalls)

	// An empty list is a valid, cacheable result
	byUser, err = svc.GetByUserID(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, byUser)
	assert.Equal(t, 1, repo.findByUserCalls)
}

func TestGetAllServedFromCacheOnSecondCall(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, testAddress("u1"))
	require.NoError(t, err)

	all, err := svc.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 1, repo.findAllCalls)

	all, err = svc.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 1, repo.findAllCalls)
}

func TestCacheFailureDegradesToStoreOnly(t *testing.T) {
	repo := newFakeAddressRepo()
	c := cache.NewMemoryCache()
	require.NoError(t, c.Close()) // every cache call now fails
	svc := NewAddressService(repo, c, time.Minute)

	ctx := context.Background()
	created, err := svc.Create(ctx, testAddress("u1"))
	require.NoError(t, err)

	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	all, err := svc.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	byUser, err := svc.GetByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, byUser, 1)

	require.NoError(t, svc.Delete(ctx, created.ID))
}
