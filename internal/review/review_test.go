package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewStats(t *testing.T) {
	s := newStats(map[int]int{5: 1, 4: 2})
	assert.Equal(t, 4.3, s.Average)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, []Bucket{
		{Rating: 5, Count: 1, Percentage: 33.3},
		{Rating: 4, Count: 2, Percentage: 66.7},
		{Rating: 3},
		{Rating: 2},
		{Rating: 1},
	}, s.Distribution)

	empty := newStats(nil)
	assert.Zero(t, empty.Average)
	assert.Len(t, empty.Distribution, 5)
}

func TestRatingLabelsAndClasses(t *testing.T) {
	assert.Equal(t, "1 étoile - Très mauvais", RatingLabel(1))
	assert.Equal(t, "3 étoiles - Moyen", RatingLabel(3))
	assert.Equal(t, "text-danger", RatingClass(1))
	assert.Equal(t, "text-success", RatingClass(5))
	assert.Equal(t, "text-muted", RatingClass(0))
}
