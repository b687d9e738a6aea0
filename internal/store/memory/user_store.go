package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ledenhub/ledenhub/internal/models"
	"github.com/ledenhub/ledenhub/internal/store"
)

// directory holds users and members together so the organisation invariant can be
// checked across both under one lock.
type directory struct {
	mu sync.RWMutex

	users   map[uuid.UUID]*models.User   // user_id -> User (Member always nil)
	members map[uuid.UUID]*models.Member // member_id -> Member
}

// UserStore implements store.UserStore in memory.
type UserStore struct {
	dir *directory
}

// MemberStore implements store.MemberStore in memory, sharing data with a UserStore.
type MemberStore struct {
	dir *directory
}

// NewUserStore creates a new in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{dir: &directory{
		users:   make(map[uuid.UUID]*models.User),
		members: make(map[uuid.UUID]*models.Member),
	}}
}

// Members returns the member store backed by the same data.
func (s *UserStore) Members() *MemberStore {
	return &MemberStore{dir: s.dir}
}

// Create creates a new user.
func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	s.dir.mu.Lock()
	defer s.dir.mu.Unlock()

	if _, exists := s.dir.users[user.ID]; exists {
		return store.ErrUserAlreadyExists
	}

	candidate := cloneUser(user)
	candidate.Member = s.dir.memberForUser(user.ID)
	if err := candidate.Validate(); err != nil {
		return err
	}

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	stored := cloneUser(user)
	stored.Member = nil
	s.dir.users[user.ID] = stored

	return nil
}

// Get retrieves a user with its linked member.
func (s *UserStore) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.dir.mu.RLock()
	defer s.dir.mu.RUnlock()

	user, exists := s.dir.users[id]
	if !exists {
		return nil, store.ErrUserNotFound
	}

	clone := cloneUser(user)
	clone.Member = s.dir.memberForUser(id)
	return clone, nil
}

// Update updates email, name and organisation reference.
func (s *UserStore) Update(ctx context.Context, user *models.User) error {
	s.dir.mu.Lock()
	defer s.dir.mu.Unlock()

	existing, exists := s.dir.users[user.ID]
	if !exists {
		return store.ErrUserNotFound
	}

	candidate := cloneUser(existing)
	candidate.Email = user.Email
	candidate.Name = user.Name
	candidate.OrganisationID = cloneUUID(user.OrganisationID)
	candidate.Member = s.dir.memberForUser(user.ID)
	if err := candidate.Validate(); err != nil {
		return err
	}

	candidate.UpdatedAt = time.Now()
	*user = *cloneUser(candidate)
	candidate.Member = nil
	s.dir.users[user.ID] = candidate

	return nil
}

// AssignRole adds a role to the user.
func (s *UserStore) AssignRole(ctx context.Context, id uuid.UUID, role models.Role) error {
	s.dir.mu.Lock()
	defer s.dir.mu.Unlock()

	user, exists := s.dir.users[id]
	if !exists {
		return store.ErrUserNotFound
	}
	user.Roles = user.Roles.Add(role)
	user.UpdatedAt = time.Now()

	return nil
}

// Create creates a member.
func (s *MemberStore) Create(ctx context.Context, member *models.Member) error {
	s.dir.mu.Lock()
	defer s.dir.mu.Unlock()

	if _, exists := s.dir.members[member.ID]; exists {
		return store.ErrMemberAlreadyExists
	}

	if member.UserID != nil {
		user, exists := s.dir.users[*member.UserID]
		if !exists {
			return store.ErrUserNotFound
		}
		if s.dir.memberForUser(user.ID) != nil {
			return store.ErrMemberAlreadyExists
		}
		if user.OrganisationID != nil && *user.OrganisationID != member.OrganisationID {
			return models.ErrOrganisationMismatch
		}
	}

	if member.CreatedAt.IsZero() {
		member.CreatedAt = time.Now()
	}
	s.dir.members[member.ID] = cloneMember(member)

	return nil
}

// Get retrieves a member by ID.
func (s *MemberStore) Get(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	s.dir.mu.RLock()
	defer s.dir.mu.RUnlock()

	member, exists := s.dir.members[id]
	if !exists {
		return nil, store.ErrMemberNotFound
	}
	return cloneMember(member), nil
}

// GetByUser returns the member linked to a user.
func (s *MemberStore) GetByUser(ctx context.Context, userID uuid.UUID) (*models.Member, error) {
	s.dir.mu.RLock()
	defer s.dir.mu.RUnlock()

	member := s.dir.memberForUser(userID)
	if member == nil {
		return nil, store.ErrMemberNotFound
	}
	return member, nil
}

// memberForUser returns a clone of the member linked to userID. Callers hold the lock.
func (d *directory) memberForUser(userID uuid.UUID) *models.Member {
	for _, m := range d.members {
		if m.UserID != nil && *m.UserID == userID {
			return cloneMember(m)
		}
	}
	return nil
}

func cloneUser(u *models.User) *models.User {
	clone := *u
	clone.OrganisationID = cloneUUID(u.OrganisationID)
	clone.Roles = slices.Clone(u.Roles)
	if u.Member != nil {
		clone.Member = cloneMember(u.Member)
	}
	return &clone
}

func cloneMember(m *models.Member) *models.Member {
	clone := *m
	clone.UserID = cloneUUID(m.UserID)
	return &clone
}

func cloneUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
