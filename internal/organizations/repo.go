package organizations

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/replate-app/replate-backend/internal/repo"
	"github.com/replate-app/replate-backend/pkg/db/models"
	"github.com/replate-app/replate-backend/pkg/enums"
)

// Repository defines persistence operations for organizations.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	FindByOwner(ctx context.Context, ownerUserID uuid.UUID) (*models.Organization, error)
	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, org *models.Organization) error
	UpdateStatusFrom(ctx context.Context, id uuid.UUID, from []enums.OrganizationStatus, updates map[string]interface{}) (int64, error)
	ListRanked(ctx context.Context, limit int) ([]models.Organization, error)
}

type gormRepository struct {
	repo.Base
}

// NewRepository builds the organizations repository on the shared base.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(db)}
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	var org models.Organization
	if err := r.DB(ctx).First(&org, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *gormRepository) FindByOwner(ctx context.Context, ownerUserID uuid.UUID) (*models.Organization, error) {
	var org models.Organization
	if err := r.DB(ctx).First(&org, "owner_user_id = ?", ownerUserID).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *gormRepository) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) Create(ctx context.Context, org *models.Organization) error {
	return r.DB(ctx).Create(org).Error
}

// UpdateStatusFrom applies updates only while the organization is still in one
// of the expected states, reporting how many rows matched.
func (r *gormRepository) UpdateStatusFrom(ctx context.Context, id uuid.UUID, from []enums.OrganizationStatus, updates map[string]interface{}) (int64, error) {
	result := r.DB(ctx).Model(&models.Organization{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *gormRepository) ListRanked(ctx context.Context, limit int) ([]models.Organization, error) {
	var rows []models.Organization
	err := r.DB(ctx).Model(&models.Organization{}).
		Where("ranking IS NOT NULL").
		Order("ranking ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
