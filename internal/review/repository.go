package review

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	ErrNotFound        = errors.New("review not found")
	ErrAlreadyReviewed = errors.New("review already exists for this product")
)

type Repository interface {
	// ListApproved returns a page of approved reviews, newest first, and the
	// approved total.
	ListApproved(ctx context.Context, productID, limit, offset int) ([]Review, int, error)
	// RatingCounts counts approved reviews of a product per rating.
	RatingCounts(ctx context.Context, productID int) (map[int]int, error)
	ListPending(ctx context.Context) ([]Review, error)
	GetByID(ctx context.Context, id int) (Review, error)
	GetByUserAndProduct(ctx context.Context, userID, productID int) (Review, error)
	Create(ctx context.Context, r Review) (Review, error)
	Update(ctx context.Context, r Review) (Review, error)
	SetApproved(ctx context.Context, id int, approved bool) error
	Delete(ctx context.Context, id int) error
	// ToggleLike adds or removes the user's like and reports the new state.
	ToggleLike(ctx context.Context, reviewID, userID int) (liked bool, count int, err error)
}

type InMemoryRepository struct {
	mu      sync.RWMutex
	reviews map[int]Review
	likes   map[int]map[int]struct{}
	nextID  int
}

func NewInMemoryRepository(seed []Review) *InMemoryRepository {
	r := &InMemoryRepository{
		reviews: make(map[int]Review),
		likes:   make(map[int]map[int]struct{}),
		nextID:  1,
	}
	for _, rv := range seed {
		if rv.ID >= r.nextID {
			r.nextID = rv.ID + 1
		}
		r.reviews[rv.ID] = rv
	}
	return r
}

func (r *InMemoryRepository) withLikes(rv Review) Review {
	rv.LikesCount = len(r.likes[rv.ID])
	return rv
}

// newestFirst orders by creation time, then by id for equal timestamps.
func newestFirst(list []Review) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID > list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}

func (r *InMemoryRepository) ListApproved(_ context.Context, productID, limit, offset int) ([]Review, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]Review, 0)
	for _, rv := range r.reviews {
		if rv.ProductID == productID && rv.IsApproved {
			all = append(all, r.withLikes(rv))
		}
	}
	newestFirst(all)
	total := len(all)
	if offset >= total {
		return []Review{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r *InMemoryRepository) RatingCounts(_ context.Context, productID int) (map[int]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[int]int)
	for _, rv := range r.reviews {
		if rv.ProductID == productID && rv.IsApproved {
			counts[rv.Rating]++
		}
	}
	return counts, nil
}

func (r *InMemoryRepository) ListPending(_ context.Context) ([]Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Review, 0)
	for _, rv := range r.reviews {
		if !rv.IsApproved {
			out = append(out, r.withLikes(rv))
		}
	}
	newestFirst(out)
	return out, nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id int) (Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rv, ok := r.reviews[id]
	if !ok {
		return Review{}, ErrNotFound
	}
	return r.withLikes(rv), nil
}

func (r *InMemoryRepository) GetByUserAndProduct(_ context.Context, userID, productID int) (Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rv := range r.reviews {
		if rv.UserID == userID && rv.ProductID == productID {
			return r.withLikes(rv), nil
		}
	}
	return Review{}, ErrNotFound
}

func (r *InMemoryRepository) Create(_ context.Context, rv Review) (Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.reviews {
		if existing.UserID == rv.UserID && existing.ProductID == rv.ProductID {
			return Review{}, ErrAlreadyReviewed
		}
	}
	now := time.Now().UTC()
	rv.ID = r.nextID
	rv.CreatedAt = now
	rv.UpdatedAt = now
	rv.LikesCount = 0
	r.nextID++
	r.reviews[rv.ID] = rv
	return rv, nil
}

func (r *InMemoryRepository) Update(_ context.Context, rv Review) (Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.reviews[rv.ID]
	if !ok {
		return Review{}, ErrNotFound
	}
	existing.Rating = rv.Rating
	existing.Title = rv.Title
	existing.Comment = rv.Comment
	existing.UpdatedAt = time.Now().UTC()
	r.reviews[rv.ID] = existing
	return r.withLikes(existing), nil
}

func (r *InMemoryRepository) SetApproved(_ context.Context, id int, approved bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rv, ok := r.reviews[id]
	if !ok {
		return ErrNotFound
	}
	rv.IsApproved = approved
	rv.UpdatedAt = time.Now().UTC()
	r.reviews[id] = rv
	return nil
}

func (r *InMemoryRepository) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.reviews[id]; !ok {
		return ErrNotFound
	}
	delete(r.reviews, id)
	delete(r.likes, id)
	return nil
}

func (r *InMemoryRepository) ToggleLike(_ context.Context, reviewID, userID int) (bool, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.reviews[reviewID]; !ok {
		return false, 0, ErrNotFound
	}
	set, ok := r.likes[reviewID]
	if !ok {
		set = make(map[int]struct{})
		r.likes[reviewID] = set
	}
	if _, liked := set[userID]; liked {
		delete(set, userID)
		return false, len(set), nil
	}
	set[userID] = struct{}{}
	return true, len(set), nil
}
