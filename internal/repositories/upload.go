package repositories

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"igvalue/ig-value-estimator/internal/models"
	apperrors "igvalue/ig-value-estimator/pkg/errors"
)

type UploadRepository interface {
	Create(upload *models.Upload) error
	FindByID(id uuid.UUID) (*models.Upload, error)
	FindByIDs(ids []uuid.UUID) ([]models.Upload, error)
}

type uploadRepository struct {
	db *gorm.DB
}

func NewUploadRepository(db *gorm.DB) UploadRepository {
	return &uploadRepository{db: db}
}

// Create implements UploadRepository.
func (r *uploadRepository) Create(upload *models.Upload) error {
	if err := r.db.Create(upload).Error; err != nil {
		return fmt.Errorf("failed to create upload: %w", err)
	}

	return nil
}

// FindByID implements UploadRepository.
func (r *uploadRepository) FindByID(id uuid.UUID) (*models.Upload, error) {
	var upload models.Upload
	if err := r.db.Where("id = ?", id).First(&upload).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("upload", err)
		}

		return nil, fmt.Errorf("failed to find upload: %w", err)
	}

	return &upload, nil
}

// FindByIDs implements UploadRepository. The result follows the order of ids
// and silently omits unknown ones.
func (r *uploadRepository) FindByIDs(ids []uuid.UUID) ([]models.Upload, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var found []models.Upload
	if err := r.db.Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, fmt.Errorf("failed to find uploads: %w", err)
	}

	byID := make(map[uuid.UUID]models.Upload, len(found))
	for _, upload := range found {
		byID[upload.ID] = upload
	}

	uploads := make([]models.Upload, 0, len(found))
	for _, id := range ids {
		if upload, ok := byID[id]; ok {
			uploads = append(uploads, upload)
		}
	}

	return uploads, nil
}
