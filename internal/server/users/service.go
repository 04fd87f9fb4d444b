package users

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/medchat/internal/common"
)

// TokenIssuer signs access tokens for a username.
type TokenIssuer interface {
	Issue(username string) (string, error)
}

// Service implements the register and login flows.
type Service struct {
	store  *Store
	tokens TokenIssuer
}

func NewService(store *Store, tokens TokenIssuer) *Service {
	return &Service{store: store, tokens: tokens}
}

// Register creates the account and returns an access token for it.
func (s *Service) Register(ctx context.Context, username, password string) (string, error) {
	user, err := s.store.Create(ctx, username, password)
	if err != nil {
		if errors.Is(err, common.ErrorValidation) || errors.Is(err, common.ErrorAlreadyExists) {
			return "", err
		}
		return "", errors.Join(common.ErrorInternal, err)
	}

	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		return "", errors.Join(common.ErrorInternal, err)
	}
	return token, nil
}

// Login checks credentials and returns a fresh access token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	if !s.store.Verify(username, password) {
		return "", common.ErrorUnauthorized
	}

	token, err := s.tokens.Issue(NormalizeUsername(username))
	if err != nil {
		return "", errors.Join(common.ErrorInternal, err)
	}
	return token, nil
}

// Exists reports whether username still resolves to an account.
func (s *Service) Exists(username string) bool {
	_, err := s.store.Get(username)
	return err == nil
}

// Count returns the number of registered accounts.
func (s *Service) Count() int {
	return s.store.Count()
}
