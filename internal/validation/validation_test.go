package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signUp struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Confirm  string `json:"confirmPassword" validate:"eqfield=Password"`
	Rating   int    `json:"rating" validate:"gte=1,lte=5"`
	Role     string `json:"role" validate:"omitempty,oneof=client admin"`
}

func TestStruct_Valid(t *testing.T) {
	errs := Struct(signUp{Email: "a@b.fr", Password: "motdepasse", Confirm: "motdepasse", Rating: 3})
	assert.Nil(t, errs)
}

func TestStruct_MessagesKeyedByJSONName(t *testing.T) {
	errs := Struct(signUp{Email: "nope", Password: "court", Confirm: "autre", Rating: 9, Role: "root"})
	require.NotNil(t, errs)

	assert.Equal(t, "Saisissez une adresse e-mail valide.", errs["email"])
	assert.Equal(t, "Ce champ doit contenir au moins 8 caractères.", errs["password"])
	assert.Equal(t, "Les deux valeurs ne correspondent pas.", errs["confirmPassword"])
	assert.Equal(t, "Cette valeur doit être inférieure ou égale à 5.", errs["rating"])
	assert.Equal(t, "Valeur invalide, choix possibles : client, admin.", errs["role"])
}

func TestStruct_Required(t *testing.T) {
	errs := Struct(signUp{Rating: 1})
	require.NotNil(t, errs)
	assert.Equal(t, "Ce champ est obligatoire.", errs["email"])
	assert.Equal(t, "Ce champ est obligatoire.", errs["password"])
}

func TestVar(t *testing.T) {
	assert.NoError(t, Var("client@example.com", "email"))
	assert.Error(t, Var("", "required"))
}
