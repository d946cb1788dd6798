package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/catalog-api/backend/internal/model"
)

type fakeUserStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*model.User
	err    error
}

func newFakeUserStore(users ...model.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[int64]*model.User)}
	for _, u := range users {
		u := u
		s.users[u.ID] = &u
		if u.ID > s.nextID {
			s.nextID = u.ID
		}
	}
	return s
}

func (s *fakeUserStore) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeUserStore) GetUserByAPIKeyDigest(_ context.Context, digest string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for _, u := range s.users {
		if u.APIKeyDigest != nil && *u.APIKeyDigest == digest {
			cp := *u
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (s *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (s *fakeUserStore) CreateUser(_ context.Context, user model.User) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for _, u := range s.users {
		if u.Email == user.Email {
			return nil, errors.New("duplicate email")
		}
	}
	s.nextID++
	user.ID = s.nextID
	s.users[user.ID] = &user
	cp := user
	return &cp, nil
}

func (s *fakeUserStore) UpdatePassword(_ context.Context, userID int64, passwordHash string, changedAt time.Time) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, model.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.PasswordChangedAt = &changedAt
	cp := *u
	return &cp, nil
}

func (s *fakeUserStore) SetAPIKey(_ context.Context, userID int64, digest string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok || !u.Active {
		return model.ErrNotFound
	}
	u.APIKeyDigest = &digest
	u.APIKeyExpiresAt = &expiresAt
	return nil
}

func (s *fakeUserStore) expireAPIKey(userID int64, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID].APIKeyExpiresAt = &at
}

type fakeObserver struct {
	mu    sync.Mutex
	calls []string
}

func (o *fakeObserver) ObserveAuthDecision(scheme, reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, scheme+"/"+reason)
}
