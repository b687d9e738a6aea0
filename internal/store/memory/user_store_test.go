package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/ledenhub/ledenhub/internal/models"
	"github.com/ledenhub/ledenhub/internal/store"
	"github.com/stretchr/testify/require"
)

func TestMemoryUserStore_Create(t *testing.T) {
	t.Run("create and get", func(t *testing.T) {
		st := NewUserStore()
		ctx := context.Background()

		orgID := uuid.Must(uuid.NewV7())
		user := &models.User{
			ID:             uuid.Must(uuid.NewV7()),
			Email:          "jan@example.test",
			OrganisationID: &orgID,
			Roles:          models.Roles{models.RoleOrgAdmin},
		}
		require.NoError(t, st.Create(ctx, user))

		got, err := st.Get(ctx, user.ID)
		require.NoError(t, err)
		require.Equal(t, user.Email, got.Email)
		require.Nil(t, got.Member)

		effective, ok := got.EffectiveOrganisationID()
		require.True(t, ok)
		require.Equal(t, orgID, effective)
	})

	t.Run("duplicate", func(t *testing.T) {
		st := NewUserStore()
		ctx := context.Background()

		user := &models.User{ID: uuid.Must(uuid.NewV7())}
		require.NoError(t, st.Create(ctx, user))
		require.ErrorIs(t, st.Create(ctx, user), store.ErrUserAlreadyExists)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := NewUserStore().Get(context.Background(), uuid.Must(uuid.NewV7()))
		require.ErrorIs(t, err, store.ErrUserNotFound)
	})
}

func TestMemoryUserStore_MemberInvariant(t *testing.T) {
	ctx := context.Background()
	orgA := uuid.Must(uuid.NewV7())
	orgB := uuid.Must(uuid.NewV7())

	t.Run("member organisation becomes effective", func(t *testing.T) {
		users := NewUserStore()
		members := users.Members()

		user := &models.User{ID: uuid.Must(uuid.NewV7())}
		require.NoError(t, users.Create(ctx, user))

		member := &models.Member{ID: uuid.Must(uuid.NewV7()), OrganisationID: orgA, UserID: &user.ID}
		require.NoError(t, members.Create(ctx, member))

		got, err := users.Get(ctx, user.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Member)

		effective, ok := got.EffectiveOrganisationID()
		require.True(t, ok)
		require.Equal(t, orgA, effective)

		linked, err := members.GetByUser(ctx, user.ID)
		require.NoError(t, err)
		require.Equal(t, member.ID, linked.ID)
	})

	t.Run("member in other organisation is rejected", func(t *testing.T) {
		users := NewUserStore()
		members := users.Members()

		user := &models.User{ID: uuid.Must(uuid.NewV7()), OrganisationID: &orgA}
		require.NoError(t, users.Create(ctx, user))

		member := &models.Member{ID: uuid.Must(uuid.NewV7()), OrganisationID: orgB, UserID: &user.ID}
		require.ErrorIs(t, members.Create(ctx, member), models.ErrOrganisationMismatch)
	})

	t.Run("moving a linked user to another organisation is rejected", func(t *testing.T) {
		users := NewUserStore()
		members := users.Members()

		user := &models.User{ID: uuid.Must(uuid.NewV7()), OrganisationID: &orgA}
		require.NoError(t, users.Create(ctx, user))
		require.NoError(t, members.Create(ctx, &models.Member{ID: uuid.Must(uuid.NewV7()), OrganisationID: orgA, UserID: &user.ID}))

		user.OrganisationID = &orgB
		require.ErrorIs(t, users.Update(ctx, user), models.ErrOrganisationMismatch)

		got, err := users.Get(ctx, user.ID)
		require.NoError(t, err)
		require.Equal(t, orgA, *got.OrganisationID)
	})

	t.Run("second member for the same user is rejected", func(t *testing.T) {
		users := NewUserStore()
		members := users.Members()

		user := &models.User{ID: uuid.Must(uuid.NewV7())}
		require.NoError(t, users.Create(ctx, user))
		require.NoError(t, members.Create(ctx, &models.Member{ID: uuid.Must(uuid.NewV7()), OrganisationID: orgA, UserID: &user.ID}))

		err := members.Create(ctx, &models.Member{ID: uuid.Must(uuid.NewV7()), OrganisationID: orgA, UserID: &user.ID})
		require.ErrorIs(t, err, store.ErrMemberAlreadyExists)
	})
}

func TestMemoryUserStore_AssignRole(t *testing.T) {
	st := NewUserStore()
	ctx := context.Background()

	user := &models.User{ID: uuid.Must(uuid.NewV7()), Roles: models.Roles{models.RoleMember}}
	require.NoError(t, st.Create(ctx, user))

	require.NoError(t, st.AssignRole(ctx, user.ID, models.RoleOrgAdmin))
	require.NoError(t, st.AssignRole(ctx, user.ID, models.RoleOrgAdmin))

	got, err := st.Get(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, models.Roles{models.RoleMember, models.RoleOrgAdmin}, got.Roles)

	require.ErrorIs(t, st.AssignRole(ctx, uuid.Must(uuid.NewV7()), models.RoleMember), store.ErrUserNotFound)
}
