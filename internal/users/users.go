// Package users registers and looks up accounts.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/nhle/task-reminders/internal/model"
	"github.com/nhle/task-reminders/internal/store"
)

// ErrEmailTaken is returned by Register for an email already in use.
var ErrEmailTaken = fmt.Errorf("email already registered: %w", model.ErrConflict)

// Service manages user accounts.
type Service struct {
	store store.Store
	log   *slog.Logger
	cost  int
}

// NewService creates a user service. A zero bcrypt cost selects
// bcrypt.DefaultCost.
func NewService(st store.Store, log *slog.Logger, cost int) *Service {
	if log == nil {
		log = slog.Default()
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{store: st, log: log.With("component", "users"), cost: cost}
}

// Registration is the input to Register.
type Registration struct {
	Name     string
	Email    string
	Password string
	Role     model.Role
}

// Register validates the input, hashes the password, and stores the user.
// An empty role registers a MEMBER.
func (s *Service) Register(ctx context.Context, in Registration) (*model.User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	role := in.Role
	if role == "" {
		role = model.RoleMember
	}

	v := newValidator()
	v.check(name != "", "name", "must be provided")
	v.check(len(name) <= 255, "name", "must be at most 255 characters")
	v.checkEmail(email)
	v.checkPassword(in.Password)
	v.check(role.Valid(), "role", "must be ADMIN or MEMBER")
	if err := v.err(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u := model.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.log.Info("user registered", "user", u.ID, "role", u.Role)
	return &u, nil
}

// CheckPassword reports whether password matches the user's stored hash.
func CheckPassword(u model.User, password string) bool {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) == nil
}

// GetUser returns the user with the given ID.
func (s *Service) GetUser(ctx context.Context, id string) (*model.User, error) {
	u, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, model.NotFound("user", id)
		}
		return nil, err
	}
	return u, nil
}

// ListUsers returns every user ordered by name.
func (s *Service) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.store.GetUsers(ctx)
}
