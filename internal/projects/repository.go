package projects

import (
	"context"

	"github.com/angelmondragon/folio-storefront/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists portfolio projects.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, project *models.Project) (*models.Project, error) {
	if err := r.db.WithContext(ctx).Create(project).Error; err != nil {
		return nil, err
	}
	return project, nil
}

func (r *Repository) Update(ctx context.Context, project *models.Project) (*models.Project, error) {
	if err := r.db.WithContext(ctx).Save(project).Error; err != nil {
		return nil, err
	}
	return project, nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.Project{}, "id = ?", id)
	return res.RowsAffected > 0, res.Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).First(&project, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// List returns projects featured first, then by sort order and recency.
// An empty tag matches everything.
func (r *Repository) List(ctx context.Context, tag string) ([]models.Project, error) {
	var rows []models.Project
	err := r.db.WithContext(ctx).
		Order("featured DESC").
		Order("sort_order ASC").
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil || tag == "" {
		return rows, err
	}
	filtered := rows[:0]
	for _, row := range rows {
		for _, t := range row.Tags {
			if t == tag {
				filtered = append(filtered, row)
				break
			}
		}
	}
	return filtered, nil
}
