package review

import (
	"math"
	"time"

	json "github.com/goccy/go-json"
)

const (
	MinRating = 1
	MaxRating = 5
)

var ratingLabels = map[int]string{
	1: "1 étoile - Très mauvais",
	2: "2 étoiles - Mauvais",
	3: "3 étoiles - Moyen",
	4: "4 étoiles - Bon",
	5: "5 étoiles - Excellent",
}

var ratingClasses = map[int]string{
	1: "text-danger",
	2: "text-warning",
	3: "text-info",
	4: "text-primary",
	5: "text-success",
}

// Review is a user's rating of a product. A user reviews a product at most once.
type Review struct {
	ID          int       `json:"reviewId"`
	ProductID   int       `json:"productId"`
	UserID      int       `json:"userId"`
	Username    string    `json:"username"`
	Rating      int       `json:"rating"`
	Title       string    `json:"title"`
	Comment     string    `json:"comment"`
	IsPurchased bool      `json:"isPurchased"`
	IsApproved  bool      `json:"isApproved"`
	LikesCount  int       `json:"likesCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func RatingLabel(rating int) string {
	return ratingLabels[rating]
}

// RatingClass is the CSS class the storefront uses to colour a rating.
func RatingClass(rating int) string {
	if c, ok := ratingClasses[rating]; ok {
		return c
	}
	return "text-muted"
}

func (r Review) MarshalJSON() ([]byte, error) {
	type plain Review
	return json.Marshal(struct {
		plain
		RatingLabel string `json:"ratingLabel"`
		RatingClass string `json:"ratingClass"`
	}{
		plain:       plain(r),
		RatingLabel: RatingLabel(r.Rating),
		RatingClass: RatingClass(r.Rating),
	})
}

// Bucket is one row of the rating distribution.
type Bucket struct {
	Rating     int     `json:"rating"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Stats summarises the approved reviews of a product.
type Stats struct {
	Average      float64  `json:"average"`
	Total        int      `json:"total"`
	Distribution []Bucket `json:"distribution"`
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// newStats builds stats from approved-review counts keyed by rating.
// The distribution always lists 5 down to 1.
func newStats(counts map[int]int) Stats {
	s := Stats{Distribution: make([]Bucket, 0, MaxRating)}
	sum := 0
	for rating := MinRating; rating <= MaxRating; rating++ {
		s.Total += counts[rating]
		sum += rating * counts[rating]
	}
	if s.Total > 0 {
		s.Average = round1(float64(sum) / float64(s.Total))
	}
	for rating := MaxRating; rating >= MinRating; rating-- {
		b := Bucket{Rating: rating, Count: counts[rating]}
		if s.Total > 0 {
			b.Percentage = round1(float64(b.Count) * 100 / float64(s.Total))
		}
		s.Distribution = append(s.Distribution, b)
	}
	return s
}
