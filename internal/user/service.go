package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
}

type Service struct {
	repo  Repository
	token TokenConfig
}

func NewService(repo Repository, token TokenConfig) *Service {
	if token.TTL <= 0 {
		token.TTL = 72 * time.Hour
	}
	return &Service{repo: repo, token: token}
}

// ProfileUpdate carries the optional fields of a profile PATCH.
type ProfileUpdate struct {
	Email      *string
	FirstName  *string
	LastName   *string
	Phone      *string
	Address    *string
	City       *string
	PostalCode *string
	Country    *string
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

func (s *Service) GetByID(ctx context.Context, id int) (User, error) {
	return s.repo.GetByID(ctx, id)
}

// Register creates a client account. The role is always forced to client.
func (s *Service) Register(ctx context.Context, user User) (User, error) {
	if _, err := s.repo.GetByEmail(ctx, user.Email); err == nil {
		return User{}, ErrEmailExists
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}
	if _, err := s.repo.GetByUsername(ctx, user.Username); err == nil {
		return User{}, ErrUsernameExists
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	user.Password = string(hashed)
	user.Role = RoleClient
	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return User{}, err
	}
	log.Info().Int("user_id", created.ID).Str("username", created.Username).Msg("account registered")
	return created, nil
}

// Authenticate accepts either an email address or a username as login.
func (s *Service) Authenticate(ctx context.Context, login, password string) (User, error) {
	var (
		user User
		err  error
	)
	if strings.Contains(login, "@") {
		user, err = s.repo.GetByEmail(ctx, login)
	} else {
		user, err = s.repo.GetByUsername(ctx, login)
	}
	if err != nil {
		return User{}, ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *Service) IssueToken(user User) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"email":    user.Email,
		"username": user.Username,
		"role":     user.Role,
		"exp":      time.Now().Add(s.token.TTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.token.Secret)
}

func (s *Service) UpdateProfile(ctx context.Context, id int, update ProfileUpdate) (User, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	apply(&existing.Email, update.Email)
	apply(&existing.FirstName, update.FirstName)
	apply(&existing.LastName, update.LastName)
	apply(&existing.Phone, update.Phone)
	apply(&existing.Address, update.Address)
	apply(&existing.City, update.City)
	apply(&existing.PostalCode, update.PostalCode)
	apply(&existing.Country, update.Country)

	return s.repo.Update(ctx, id, existing)
}

func (s *Service) ChangePassword(ctx context.Context, id int, current, next string) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(existing.Password), []byte(current)) != nil {
		return ErrWrongPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, id, string(hashed))
}

func (s *Service) SetRole(ctx context.Context, id int, role string) (User, error) {
	if role != RoleClient && role != RoleAdmin {
		return User{}, ErrInvalidRole
	}
	updated, err := s.repo.UpdateRole(ctx, id, role)
	if err != nil {
		return User{}, err
	}
	log.Info().Int("user_id", id).Str("role", role).Msg("role changed")
	return updated, nil
}
