package user

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid login or password")
	ErrEmailExists        = errors.New("email already exists")
	ErrUsernameExists     = errors.New("username already exists")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrInvalidRole        = errors.New("invalid role")
)

type Repository interface {
	List(ctx context.Context) ([]User, error)
	GetByID(ctx context.Context, id int) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	Create(ctx context.Context, user User) (User, error)
	Update(ctx context.Context, id int, user User) (User, error)
	UpdatePassword(ctx context.Context, id int, hash string) error
	UpdateRole(ctx context.Context, id int, role string) (User, error)
}

type InMemoryRepository struct {
	mu     sync.RWMutex
	users  []User
	nextID int
}

func NewInMemoryRepository(seed []User) *InMemoryRepository {
	repo := &InMemoryRepository{
		users:  make([]User, 0, len(seed)),
		nextID: 1,
	}

	maxID := 0
	for _, user := range seed {
		repo.users = append(repo.users, user)
		if user.ID > maxID {
			maxID = user.ID
		}
	}

	repo.nextID = maxID + 1
	return repo
}

func (r *InMemoryRepository) List(_ context.Context) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]User, len(r.users))
	copy(users, r.users)
	return users, nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id int) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.ID == id {
			return user, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *InMemoryRepository) GetByEmail(_ context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *InMemoryRepository) GetByUsername(_ context.Context, username string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *InMemoryRepository) Create(_ context.Context, user User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return User{}, ErrEmailExists
		}
		if existing.Username == user.Username {
			return User{}, ErrUsernameExists
		}
	}

	if user.ID == 0 {
		user.ID = r.nextID
		r.nextID++
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now

	r.users = append(r.users, user)
	return user, nil
}

func (r *InMemoryRepository) Update(_ context.Context, id int, update User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, user := range r.users {
		if user.ID != id {
			continue
		}
		for _, other := range r.users {
			if other.ID != id && strings.EqualFold(other.Email, update.Email) {
				return User{}, ErrEmailExists
			}
		}
		user.Email = update.Email
		user.FirstName = update.FirstName
		user.LastName = update.LastName
		user.Phone = update.Phone
		user.Address = update.Address
		user.City = update.City
		user.PostalCode = update.PostalCode
		user.Country = update.Country
		user.UpdatedAt = time.Now().UTC()
		r.users[i] = user
		return user, nil
	}
	return User{}, ErrNotFound
}

func (r *InMemoryRepository) UpdatePassword(_ context.Context, id int, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.users {
		if r.users[i].ID == id {
			r.users[i].Password = hash
			r.users[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return ErrNotFound
}

func (r *InMemoryRepository) UpdateRole(_ context.Context, id int, role string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.users {
		if r.users[i].ID == id {
			r.users[i].Role = role
			r.users[i].UpdatedAt = time.Now().UTC()
			return r.users[i], nil
		}
	}
	return User{}, ErrNotFound
}
