package ai

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/wichananm65/uniapp-ecommerce/internal/slug"
)

const (
	SentimentPositive = "positif"
	SentimentNegative = "négatif"
	SentimentNeutral  = "neutre"
)

// word lists are accent-folded to match slug.Fold output
var (
	positiveWords = map[string]bool{
		"bon": true, "bonne": true, "bien": true, "excellent": true, "excellente": true, "super": true,
		"genial": true, "parfait": true, "parfaite": true, "satisfait": true, "satisfaite": true,
		"rapide": true, "recommande": true, "top": true, "adore": true, "magnifique": true, "merci": true,
	}
	negativeWords = map[string]bool{
		"mauvais": true, "mauvaise": true, "nul": true, "nulle": true, "decu": true, "decue": true,
		"lent": true, "lente": true, "casse": true, "horrible": true, "probleme": true, "retard": true,
		"defectueux": true, "cher": true, "deteste": true, "arnaque": true,
	}
)

type Sentiment struct {
	Sentiment  string  `json:"sentiment"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// analyzeSentiment scores text by counting positive and negative words.
func analyzeSentiment(text string) Sentiment {
	words := strings.FieldsFunc(slug.Fold(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	pos, neg := 0, 0
	for _, w := range words {
		switch {
		case positiveWords[w]:
			pos++
		case negativeWords[w]:
			neg++
		}
	}
	hits := pos + neg
	if hits == 0 {
		return Sentiment{Sentiment: SentimentNeutral, Score: 0, Confidence: 0.5}
	}
	score := round2(float64(pos-neg) / float64(hits))
	out := Sentiment{Score: score, Confidence: round2(math.Min(0.95, 0.6+0.1*float64(hits)))}
	switch {
	case score > 0:
		out.Sentiment = SentimentPositive
	case score < 0:
		out.Sentiment = SentimentNegative
	default:
		out.Sentiment = SentimentNeutral
	}
	return out
}

func generateDescription(name string) string {
	if strings.TrimSpace(name) == "" {
		name = "Produit"
	}
	return fmt.Sprintf("Découvrez %s, un produit de qualité sélectionné avec soin pour répondre à vos besoins. "+
		"Alliant performance et design, %s saura vous accompagner au quotidien.", name, name)
}

func translate(text, target string) string {
	return fmt.Sprintf("[Traduction %s] %s", target, text)
}

// ProductRef is a product reference returned by the image search and filtering stubs.
type ProductRef struct {
	ID   int    `json:"id"`
	Name string `json:"nom"`
}

func searchByImage() []ProductRef {
	return []ProductRef{
		{ID: 101, Name: "Produit visuel 1"},
		{ID: 102, Name: "Produit visuel 2"},
	}
}

func filterProducts(products []ProductRef) []ProductRef {
	if len(products) > 2 {
		return products[:2]
	}
	return products
}

var filterCandidates = []ProductRef{
	{ID: 1, Name: "Produit X"},
	{ID: 2, Name: "Produit Y"},
	{ID: 3, Name: "Produit Z"},
}
