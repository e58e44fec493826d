package services

import (
	"context"
	"errors"
	"strings"

	"bookstore/models"
	"bookstore/store"
	"bookstore/utils"
)

type UserRepository interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

type AuthService struct {
	repo   UserRepository
	tokens *TokenMaker
}

func NewAuthService(repo UserRepository, tokens *TokenMaker) *AuthService {
	return &AuthService{repo: repo, tokens: tokens}
}

// Register creates an account. An empty role means a regular user.
func (s *AuthService) Register(ctx context.Context, username, password, role string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, newError(InvalidInput, "username and password are required", nil)
	}
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, newError(InvalidInput, "role must be user or admin", nil)
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, newError(StoreFailure, "could not register user", err)
	}

	user := &models.User{Username: username, Password: hashed, Role: role}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, newError(Conflict, "username already taken", err)
		}
		return nil, newError(StoreFailure, "could not register user", err)
	}
	return user, nil
}

// Login checks the credentials and returns a signed access token
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.repo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", newError(Unauthenticated, "invalid username or password", err)
		}
		return "", newError(StoreFailure, "could not log in", err)
	}
	if err := utils.CheckPassword(user.Password, password); err != nil {
		return "", newError(Unauthenticated, "invalid username or password", err)
	}

	token, err := s.tokens.Create(Identity{UserID: user.ID, Username: user.Username, Role: user.Role})
	if err != nil {
		return "", newError(StoreFailure, "could not issue token", err)
	}
	return token, nil
}

// Authenticate verifies a bearer token
func (s *AuthService) Authenticate(token string) (Identity, error) {
	id, err := s.tokens.Verify(token)
	if err != nil {
		return Identity{}, newError(Unauthenticated, "invalid or expired token", err)
	}
	return id, nil
}
