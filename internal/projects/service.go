package projects

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/folio-storefront/api/validators"
	"github.com/angelmondragon/folio-storefront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/folio-storefront/pkg/errors"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type repository interface {
	Create(ctx context.Context, project *models.Project) (*models.Project, error)
	Update(ctx context.Context, project *models.Project) (*models.Project, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	List(ctx context.Context, tag string) ([]models.Project, error)
}

// Input is the admin payload for creating or replacing a project.
type Input struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Summary     string   `json:"summary" validate:"max=500"`
	Description string   `json:"description" validate:"max=20000"`
	Image       string   `json:"image" validate:"required"`
	Link        *string  `json:"link" validate:"omitempty,url"`
	Tags        []string `json:"tags" validate:"max=20,dive,max=50"`
	Featured    bool     `json:"featured"`
	SortOrder   int      `json:"sort_order"`
}

// Service serves the portfolio to visitors and CRUD to admins.
type Service interface {
	List(ctx context.Context, tag string) ([]models.Project, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Project, error)
	Create(ctx context.Context, input Input) (*models.Project, error)
	Update(ctx context.Context, id uuid.UUID, input Input) (*models.Project, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo repository
}

func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("project repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, tag string) ([]models.Project, error) {
	rows, err := s.repo.List(ctx, strings.ToLower(strings.TrimSpace(tag)))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list projects")
	}
	if rows == nil {
		rows = []models.Project{}
	}
	return rows, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	project, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "project not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load project")
	}
	return project, nil
}

func (s *service) Create(ctx context.Context, input Input) (*models.Project, error) {
	project := &models.Project{}
	if err := apply(project, input); err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, project)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create project")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input Input) (*models.Project, error) {
	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(project, input); err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, project)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update project")
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete project")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "project not found")
	}
	return nil
}

func apply(project *models.Project, input Input) error {
	title := validators.SanitizeString(input.Title, 200)
	if title == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	project.Title = title
	project.Summary = validators.SanitizeString(input.Summary, 500)
	project.Description = validators.SanitizeHTML(input.Description)
	project.Image = strings.TrimSpace(input.Image)
	project.Link = input.Link
	project.Featured = input.Featured
	project.SortOrder = input.SortOrder

	tags := make([]string, 0, len(input.Tags))
	seen := map[string]bool{}
	for _, tag := range input.Tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	project.Tags = pq.StringArray(tags)
	return nil
}
