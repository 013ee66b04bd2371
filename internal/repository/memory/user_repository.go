package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/examenv-backend/internal/model"
	"github.com/stemsi/examenv-backend/internal/repository"
)

// UserRepository stores users and the challenges they completed.
type UserRepository struct {
	mu        sync.RWMutex
	users     map[uuid.UUID]model.User
	completed map[uuid.UUID][]string
}

// NewUserRepository creates an empty UserRepository.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:     make(map[uuid.UUID]model.User),
		completed: make(map[uuid.UUID][]string),
	}
}

// Put stores u, assigning an id when it has none.
func (r *UserRepository) Put(u *model.User) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = *u
}

// CompleteChallenge records that userID completed challengeID.
func (r *UserRepository) CompleteChallenge(userID uuid.UUID, challengeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !slices.Contains(r.completed[userID], challengeID) {
		r.completed[userID] = append(r.completed[userID], challengeID)
	}
}

func (r *UserRepository) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepository) CompletedChallengeIDs(_ context.Context, userID uuid.UUID) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.completed[userID]), nil
}

// AuthorizationTokenRepository stores one exam environment token per user.
type AuthorizationTokenRepository struct {
	mu     sync.RWMutex
	tokens map[uuid.UUID]model.AuthorizationToken
}

// NewAuthorizationTokenRepository creates an empty AuthorizationTokenRepository.
func NewAuthorizationTokenRepository() *AuthorizationTokenRepository {
	return &AuthorizationTokenRepository{tokens: make(map[uuid.UUID]model.AuthorizationToken)}
}

func (r *AuthorizationTokenRepository) Replace(_ context.Context, userID uuid.UUID, expireAt time.Time) (*model.AuthorizationToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, id)
		}
	}
	t := model.AuthorizationToken{
		ID:        uuid.New(),
		UserID:    userID,
		ExpireAt:  expireAt,
		CreatedAt: time.Now(),
	}
	r.tokens[t.ID] = t
	return &t, nil
}

func (r *AuthorizationTokenRepository) GetByID(_ context.Context, id uuid.UUID) (*model.AuthorizationToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tokens[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}
