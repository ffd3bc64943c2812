package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func first(int) int { return 0 }

func TestAnswer(t *testing.T) {
	cases := []struct {
		question string
		want     string
	}{
		{"", notUnderstood},
		{"   ", notUnderstood},
		{"Bonjour !", intentResponses[intentGreeting][0]},
		{"Merci beaucoup", intentResponses[intentThanks][0]},
		{"Bon, au revoir", intentResponses[intentGoodbye][0]},
		{"J'ai besoin d'aide", intentResponses[intentHelp][0]},
		{"Je cherche un ORDINATEUR", productAnswers[0].answer},
		{"Un téléphone pas cher", productAnswers[1].answer},
		{"Où en est ma livraison", orderAnswer},
		{"Quels sont vos horaires ?", questionAnswers[0]},
		{"blabla", defaultAnswers[0]},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, answer(tc.question, first), "question %q", tc.question)
	}
}

func TestAnswer_UsesPicker(t *testing.T) {
	last := func(n int) int { return n - 1 }
	assert.Equal(t, intentResponses[intentGreeting][2], answer("salut", last))
	assert.Equal(t, defaultAnswers[2], answer("hmm", last))
}

func TestAnalyzeSentiment(t *testing.T) {
	s := analyzeSentiment("Produit excellent, livraison rapide !")
	assert.Equal(t, SentimentPositive, s.Sentiment)
	assert.Equal(t, 1.0, s.Score)
	assert.Equal(t, 0.8, s.Confidence)

	s = analyzeSentiment("Très déçu, arrivé cassé et en retard. Bon emballage.")
	assert.Equal(t, SentimentNegative, s.Sentiment)
	assert.Equal(t, -0.5, s.Score)

	s = analyzeSentiment("Le colis est arrivé mardi")
	assert.Equal(t, Sentiment{Sentiment: SentimentNeutral, Score: 0, Confidence: 0.5}, s)
}

func TestStubs(t *testing.T) {
	assert.Equal(t, "[Traduction es] Bonjour", translate("Bonjour", "es"))
	assert.Contains(t, generateDescription("Lampe LED"), "Découvrez Lampe LED")
	assert.Contains(t, generateDescription(""), "Découvrez Produit")
	assert.Len(t, searchByImage(), 2)
	assert.Equal(t, []ProductRef{{ID: 1, Name: "Produit X"}, {ID: 2, Name: "Produit Y"}}, filterProducts(filterCandidates))
}
