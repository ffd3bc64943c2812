package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	cases := map[string]string{
		"Électronique":              "electronique",
		"Livres & Papeterie":        "livres-papeterie",
		"  Téléphone  Portable--X ": "telephone-portable-x",
		"Ordinateur-REF001":         "ordinateur-ref001",
		"":                          "",
		"!!!":                       "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Make(in), "input %q", in)
	}
}

func TestFold(t *testing.T) {
	assert.Equal(t, "ecole ete", Fold("École Été"))
	assert.Equal(t, "noel", Fold("Noël"))
}
