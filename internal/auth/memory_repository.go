package auth

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryRepository backs the memory store variant and tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]UserRecord
	byEmail map[string]uuid.UUID
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[uuid.UUID]UserRecord),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (r *MemoryRepository) CreateUser(ctx context.Context, rec *UserRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(rec.Email)
	if _, exists := r.byEmail[key]; exists {
		return ErrEmailTaken
	}

	r.byID[rec.ID] = *rec
	r.byEmail[key] = rec.ID
	return nil
}

func (r *MemoryRepository) GetUserByEmail(ctx context.Context, email string) (*UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	u := r.byID[id]
	return &u, nil
}

func (r *MemoryRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}
