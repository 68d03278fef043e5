package users

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/gethsun1/solmarket-backend/pkg/db/models"
	pkgerrors "github.com/gethsun1/solmarket-backend/pkg/errors"
	pkgsolana "github.com/gethsun1/solmarket-backend/pkg/solana"
)

// Service exposes account resolution for wallet identities.
type Service interface {
	// GetOrRegister returns the account for the wallet, creating it on first
	// sight. Registration is implicit; there is no signup flow.
	GetOrRegister(ctx context.Context, wallet string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type service struct {
	repo UserRepository
}

// NewService builds a user service backed by the provided repository.
func NewService(repo UserRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetOrRegister(ctx context.Context, wallet string) (*models.User, error) {
	if !pkgsolana.IsValidWallet(wallet) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet is not a valid Solana public key")
	}

	user, err := s.repo.FindByWallet(ctx, wallet)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	created, err := s.repo.Create(ctx, &models.User{WalletAddress: wallet})
	if err != nil {
		// Lost a race with a concurrent first-sight registration.
		if pkgerrors.IsUniqueViolation(err) {
			existing, findErr := s.repo.FindByWallet(ctx, wallet)
			if findErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load user after conflict")
			}
			return existing, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return created, nil
}

func (s *service) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}
