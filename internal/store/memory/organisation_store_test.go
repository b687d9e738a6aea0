package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/ledenhub/ledenhub/internal/models"
	"github.com/ledenhub/ledenhub/internal/store"
	"github.com/stretchr/testify/require"
)

func newOrganisation(slug string) *models.Organisation {
	return &models.Organisation{
		ID:            uuid.Must(uuid.NewV7()),
		Slug:          slug,
		Name:          "Vereniging " + slug,
		Status:        models.LifecycleActive,
		BillingStatus: models.BillingOK,
	}
}

func TestMemoryOrganisationStore_Create(t *testing.T) {
	t.Run("create new organisation", func(t *testing.T) {
		st := NewOrganisationStore()
		ctx := context.Background()

		org := newOrganisation("acme")
		require.NoError(t, st.Create(ctx, org))
		require.False(t, org.CreatedAt.IsZero())
	})

	t.Run("duplicate id returns error", func(t *testing.T) {
		st := NewOrganisationStore()
		ctx := context.Background()

		org := newOrganisation("acme")
		require.NoError(t, st.Create(ctx, org))

		err := st.Create(ctx, org)
		require.ErrorIs(t, err, store.ErrOrganisationAlreadyExists)
	})

	t.Run("duplicate slug returns error", func(t *testing.T) {
		st := NewOrganisationStore()
		ctx := context.Background()

		require.NoError(t, st.Create(ctx, newOrganisation("acme")))

		err := st.Create(ctx, newOrganisation("acme"))
		require.ErrorIs(t, err, store.ErrOrganisationAlreadyExists)
	})
}

func TestMemoryOrganisationStore_Get(t *testing.T) {
	st := NewOrganisationStore()
	ctx := context.Background()

	org := newOrganisation("acme")
	require.NoError(t, st.Create(ctx, org))

	t.Run("by id", func(t *testing.T) {
		got, err := st.Get(ctx, org.ID)
		require.NoError(t, err)
		require.Equal(t, "acme", got.Slug)
	})

	t.Run("by slug", func(t *testing.T) {
		got, err := st.GetBySlug(ctx, "acme")
		require.NoError(t, err)
		require.Equal(t, org.ID, got.ID)
	})

	t.Run("unknown slug", func(t *testing.T) {
		_, err := st.GetBySlug(ctx, "nope")
		require.ErrorIs(t, err, store.ErrOrganisationNotFound)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := st.Get(ctx, uuid.Must(uuid.NewV7()))
		require.ErrorIs(t, err, store.ErrOrganisationNotFound)
	})

	t.Run("returns copy", func(t *testing.T) {
		got, err := st.Get(ctx, org.ID)
		require.NoError(t, err)
		got.Name = "changed"

		again, err := st.Get(ctx, org.ID)
		require.NoError(t, err)
		require.Equal(t, "Vereniging acme", again.Name)
	})
}

func TestMemoryOrganisationStore_Update(t *testing.T) {
	st := NewOrganisationStore()
	ctx := context.Background()

	acme := newOrganisation("acme")
	require.NoError(t, st.Create(ctx, acme))
	require.NoError(t, st.Create(ctx, newOrganisation("globex")))

	t.Run("rename slug", func(t *testing.T) {
		acme.Slug = "acme-nl"
		require.NoError(t, st.Update(ctx, acme))

		_, err := st.GetBySlug(ctx, "acme")
		require.ErrorIs(t, err, store.ErrOrganisationNotFound)

		got, err := st.GetBySlug(ctx, "acme-nl")
		require.NoError(t, err)
		require.Equal(t, acme.ID, got.ID)
	})

	t.Run("slug taken", func(t *testing.T) {
		acme.Slug = "globex"
		require.ErrorIs(t, st.Update(ctx, acme), store.ErrOrganisationAlreadyExists)
	})

	t.Run("missing", func(t *testing.T) {
		require.ErrorIs(t, st.Update(ctx, newOrganisation("ghost")), store.ErrOrganisationNotFound)
	})
}

func TestMemoryOrganisationStore_StatusAndBilling(t *testing.T) {
	st := NewOrganisationStore()
	ctx := context.Background()

	org := newOrganisation("acme")
	require.NoError(t, st.Create(ctx, org))

	blocked, err := st.SetStatus(ctx, org.ID, models.LifecycleBlocked)
	require.NoError(t, err)
	require.True(t, blocked.IsBlocked())

	note := "Incasso mislukt"
	restricted, err := st.SetBilling(ctx, org.ID, models.BillingRestricted, &note)
	require.NoError(t, err)
	require.Equal(t, models.BillingRestricted, restricted.BillingStatus)
	require.Equal(t, "Incasso mislukt", *restricted.BillingNote)

	note = "mutated"
	got, err := st.Get(ctx, org.ID)
	require.NoError(t, err)
	require.Equal(t, "Incasso mislukt", *got.BillingNote)

	_, err = st.SetStatus(ctx, uuid.Must(uuid.NewV7()), models.LifecycleBlocked)
	require.ErrorIs(t, err, store.ErrOrganisationNotFound)
}

func TestMemoryOrganisationStore_List(t *testing.T) {
	st := NewOrganisationStore()
	ctx := context.Background()

	for _, slug := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, st.Create(ctx, newOrganisation(slug)))
	}

	orgs, err := st.List(ctx)
	require.NoError(t, err)
	require.Len(t, orgs, 3)
	require.Equal(t, "alpha", orgs[0].Slug)
	require.Equal(t, "zeta", orgs[2].Slug)
}
