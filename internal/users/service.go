package users

import (
	"context"
	"fmt"

	"github.com/storebot/storefront-backend/pkg/db/models"
	pkgerrors "github.com/storebot/storefront-backend/pkg/errors"
	"github.com/storebot/storefront-backend/pkg/pagination"
)

type userRepository interface {
	FindByID(ctx context.Context, telegramID int64) (*models.User, error)
	Upsert(ctx context.Context, user *models.User) error
	SetBlocked(ctx context.Context, telegramID int64, blocked bool) (int64, error)
	List(ctx context.Context, params pagination.Params) (*pagination.Page[models.User], error)
}

// Service manages user records and the blocked flag the rest of the engine
// consults before accepting mutations.
type Service interface {
	GetOrCreate(ctx context.Context, telegramID int64, languageCode string) (*models.User, error)
	IsBlocked(ctx context.Context, telegramID int64) (bool, error)
	Block(ctx context.Context, telegramID int64) error
	Unblock(ctx context.Context, telegramID int64) error
	Get(ctx context.Context, telegramID int64) (*models.User, error)
	List(ctx context.Context, params pagination.Params) (*pagination.Page[models.User], error)
}

type service struct {
	repo userRepository
}

// NewService builds a user service over the provided repository.
func NewService(repo userRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetOrCreate(ctx context.Context, telegramID int64, languageCode string) (*models.User, error) {
	existing, err := s.repo.FindByID(ctx, telegramID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load user")
	}
	if existing != nil {
		return existing, nil
	}

	user := models.User{TelegramID: telegramID, LanguageCode: languageCode}
	if user.LanguageCode == "" {
		user.LanguageCode = "en"
	}
	if err := s.repo.Upsert(ctx, &user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "create user")
	}
	// re-read to win either side of a concurrent first contact
	created, err := s.repo.FindByID(ctx, telegramID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load user")
	}
	return created, nil
}

// IsBlocked treats unknown users as not blocked: a user's first contact may
// reach a mutation before GetOrCreate has run.
func (s *service) IsBlocked(ctx context.Context, telegramID int64) (bool, error) {
	user, err := s.repo.FindByID(ctx, telegramID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load user")
	}
	if user == nil {
		return false, nil
	}
	return user.IsBlocked, nil
}

func (s *service) Block(ctx context.Context, telegramID int64) error {
	return s.setBlocked(ctx, telegramID, true)
}

func (s *service) Unblock(ctx context.Context, telegramID int64) error {
	return s.setBlocked(ctx, telegramID, false)
}

// Get loads one user for the admin surface.
func (s *service) Get(ctx context.Context, telegramID int64) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, telegramID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load user")
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return user, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*pagination.Page[models.User], error) {
	page, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "list users")
	}
	return page, nil
}

func (s *service) setBlocked(ctx context.Context, telegramID int64, blocked bool) error {
	affected, err := s.repo.SetBlocked(ctx, telegramID, blocked)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "update blocked flag")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return nil
}
