package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/replate-app/replate-backend/internal/repo"
	"github.com/replate-app/replate-backend/pkg/db/models"
	"github.com/replate-app/replate-backend/pkg/enums"
	pkgerrors "github.com/replate-app/replate-backend/pkg/errors"
	"github.com/replate-app/replate-backend/pkg/logger"
)

// ModerateInput identifies the user an admin is acting on.
type ModerateInput struct {
	UserID    uuid.UUID
	ActorRole enums.UserRole
}

// Repository defines persistence operations for user accounts.
type Repository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	SetBanned(ctx context.Context, id uuid.UUID, banned bool) (int64, error)
}

type gormRepository struct {
	repo.Base
}

// NewRepository builds the users repository on the shared base.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(db)}
}

func (r *gormRepository) Create(ctx context.Context, user *models.User) error {
	return r.DB(ctx).Create(user).Error
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.DB(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("last_login_at", at).Error
}

// SetBanned flips the flag only when it actually changes, so repeated
// moderation calls surface as state conflicts.
func (r *gormRepository) SetBanned(ctx context.Context, id uuid.UUID, banned bool) (int64, error) {
	result := r.DB(ctx).Model(&models.User{}).
		Where("id = ? AND is_banned = ?", id, !banned).
		Update("is_banned", banned)
	return result.RowsAffected, result.Error
}

// Service exposes user lookup and admin moderation.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	Ban(ctx context.Context, input ModerateInput) (*models.User, error)
	Unban(ctx context.Context, input ModerateInput) (*models.User, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService wires the users service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load user")
	}
	return user, nil
}

func (s *service) Ban(ctx context.Context, input ModerateInput) (*models.User, error) {
	return s.moderate(ctx, input, true)
}

func (s *service) Unban(ctx context.Context, input ModerateInput) (*models.User, error) {
	return s.moderate(ctx, input, false)
}

func (s *service) moderate(ctx context.Context, input ModerateInput, banned bool) (*models.User, error) {
	if input.ActorRole != enums.RoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins can moderate users")
	}

	affected, err := s.repo.SetBanned(ctx, input.UserID, banned)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update ban flag")
	}
	if affected == 0 {
		if _, err := s.repo.FindByID(ctx, input.UserID); errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "user is already in the requested state")
	}

	user, err := s.repo.FindByID(ctx, input.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to reload user")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"user_id": user.ID, "banned": banned})
	s.logg.Info(ctx, "user moderation applied")
	return user, nil
}
