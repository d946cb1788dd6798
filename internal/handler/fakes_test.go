package handler

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/catalog-api/backend/internal/model"
)

type memoryUserStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*model.User
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{users: make(map[int64]*model.User)}
}

func (s *memoryUserStore) find(match func(*model.User) bool) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (s *memoryUserStore) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	return s.find(func(u *model.User) bool { return u.ID == id })
}

func (s *memoryUserStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	return s.find(func(u *model.User) bool { return u.Email == email })
}

func (s *memoryUserStore) GetUserByAPIKeyDigest(_ context.Context, digest string) (*model.User, error) {
	return s.find(func(u *model.User) bool { return u.APIKeyDigest != nil && *u.APIKeyDigest == digest })
}

func (s *memoryUserStore) CreateUser(_ context.Context, user model.User) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	user.ID = s.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = &user
	cp := user
	return &cp, nil
}

func (s *memoryUserStore) UpdatePassword(_ context.Context, userID int64, hash string, changedAt time.Time) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, model.ErrNotFound
	}
	u.PasswordHash = hash
	u.PasswordChangedAt = &changedAt
	cp := *u
	return &cp, nil
}

func (s *memoryUserStore) SetAPIKey(_ context.Context, userID int64, digest string, expiresAt time.Time) error {
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

func (s *memoryUserStore) setActive(userID int64, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID].Active = active
}

type memoryProductStore struct {
	mu       sync.Mutex
	nextID   int64
	products map[int64]*model.Product
}

func newMemoryProductStore() *memoryProductStore {
	return &memoryProductStore{products: make(map[int64]*model.Product)}
}

func (s *memoryProductStore) CreateProduct(_ context.Context, p model.Product) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p.ID = s.nextID
	s.products[p.ID] = &p
	cp := p
	return &cp, nil
}

func (s *memoryProductStore) ListProducts(_ context.Context, filter model.ProductFilter) ([]model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Product
	for _, p := range s.products {
		if filter.Category != nil && p.Category != *filter.Category {
			continue
		}
		if filter.InStock != nil && p.InStock != *filter.InStock {
			continue
		}
		if filter.MinPrice != nil && p.Price < *filter.MinPrice {
			continue
		}
		if filter.MaxPrice != nil && p.Price > *filter.MaxPrice {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memoryProductStore) GetProduct(_ context.Context, id int64) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memoryProductStore) UpdateProduct(_ context.Context, id int64, req model.UpdateProductRequest) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.InStock != nil {
		p.InStock = *req.InStock
	}
	cp := *p
	return &cp, nil
}

func (s *memoryProductStore) DeleteProduct(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return model.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(context.Context) error {
	return p.err
}

var errDatabaseDown = errors.New("database down")
