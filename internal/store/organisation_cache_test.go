package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ledenhub/ledenhub/internal/models"
	"github.com/ledenhub/ledenhub/internal/store"
	"github.com/ledenhub/ledenhub/internal/store/memory"
	"github.com/stretchr/testify/require"
)

// countingStore counts slug lookups that reach the backing store.
type countingStore struct {
	store.OrganisationStore
	slugLookups int
}

func (c *countingStore) GetBySlug(ctx context.Context, slug string) (*models.Organisation, error) {
	c.slugLookups++
	return c.OrganisationStore.GetBySlug(ctx, slug)
}

func seed(t *testing.T, st store.OrganisationStore) *models.Organisation {
	t.Helper()
	org := &models.Organisation{
		ID:            uuid.Must(uuid.NewV7()),
		Slug:          "acme",
		Name:          "Acme",
		Status:        models.LifecycleActive,
		BillingStatus: models.BillingOK,
	}
	require.NoError(t, st.Create(context.Background(), org))
	return org
}

func TestNewOrganisationCache_disabled(t *testing.T) {
	backing := memory.NewOrganisationStore()
	require.Same(t, backing, store.NewOrganisationCache(backing, 0))
}

func TestOrganisationCache_readThrough(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{OrganisationStore: memory.NewOrganisationStore()}
	seed(t, backing)

	cache := store.NewOrganisationCache(backing, time.Minute)

	for range 3 {
		org, err := cache.GetBySlug(ctx, "acme")
		require.NoError(t, err)
		require.Equal(t, "Acme", org.Name)
	}
	require.Equal(t, 1, backing.slugLookups)

	_, err := cache.GetBySlug(ctx, "missing")
	require.ErrorIs(t, err, store.ErrOrganisationNotFound)
}

func TestOrganisationCache_writesEvict(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{OrganisationStore: memory.NewOrganisationStore()}
	org := seed(t, backing)

	cache := store.NewOrganisationCache(backing, time.Hour)

	_, err := cache.GetBySlug(ctx, "acme")
	require.NoError(t, err)

	_, err = cache.SetStatus(ctx, org.ID, models.LifecycleBlocked)
	require.NoError(t, err)

	got, err := cache.GetBySlug(ctx, "acme")
	require.NoError(t, err)
	require.True(t, got.IsBlocked())
	require.Equal(t, 2, backing.slugLookups)

	_, err = cache.SetBilling(ctx, org.ID, models.BillingRestricted, nil)
	require.NoError(t, err)

	got, err = cache.Get(ctx, org.ID)
	require.NoError(t, err)
	require.Equal(t, models.BillingRestricted, got.BillingStatus)
}

func TestOrganisationCache_expiry(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{OrganisationStore: memory.NewOrganisationStore()}
	org := seed(t, backing)

	cache := store.NewOrganisationCache(backing, 20*time.Millisecond)

	_, err := cache.GetBySlug(ctx, "acme")
	require.NoError(t, err)

	// change behind the cache's back, as another process would
	_, err = backing.SetStatus(ctx, org.ID, models.LifecycleBlocked)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		got, err := cache.GetBySlug(ctx, "acme")
		return err == nil && got.IsBlocked()
	}, time.Second, 10*time.Millisecond)
}
