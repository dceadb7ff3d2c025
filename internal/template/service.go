package template

import (
	"context"
	"log/slog"

	errors "github.com/frahmantamala/access-audit-reports/internal"
	templateDatamodel "github.com/frahmantamala/access-audit-reports/internal/core/datamodel/template"
)

type RepositoryAPI interface {
	ListByCategory(ctx context.Context, category string) ([]*templateDatamodel.ReportTemplate, error)
	GetByID(ctx context.Context, id string) (*templateDatamodel.ReportTemplate, error)
	GetByName(ctx context.Context, category, name string) (*templateDatamodel.ReportTemplate, error)
	Create(ctx context.Context, t *templateDatamodel.ReportTemplate) error
	Delete(ctx context.Context, id string) (bool, error)
}

// CategoryChecker reports whether a report category exists.
type CategoryChecker interface {
	HasCategory(id string) bool
}

type Service struct {
	repo       RepositoryAPI
	categories CategoryChecker
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, categories CategoryChecker, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		categories: categories,
		logger:     logger,
	}
}

// Save stores a new template and returns its id. Names are unique per category.
func (s *Service) Save(ctx context.Context, dto SaveTemplateDTO) (string, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return "", err
	}
	if s.categories != nil && !s.categories.HasCategory(dto.Category) {
		return "", errors.ErrUnknownCategory
	}

	existing, err := s.repo.GetByName(ctx, dto.Category, dto.Name)
	if err != nil {
		s.logger.Error("failed to look up template by name", "category", dto.Category, "name", dto.Name, "error", err)
		return "", errors.NewInternalError("Failed to save template", err)
	}
	if existing != nil {
		return "", errors.ErrTemplateExists
	}

	t := NewTemplate(dto.Name, dto.Category, dto.Selection, dto.AuxiliaryData)
	if err := s.repo.Create(ctx, ToDataModel(t)); err != nil {
		s.logger.Error("failed to create template", "category", dto.Category, "name", dto.Name, "error", err)
		return "", errors.NewInternalError("Failed to save template", err)
	}

	s.logger.Info("template saved", "template_id", t.ID, "category", t.Category, "filters", len(t.Selection))
	return t.ID, nil
}

// Load lists the templates of one category ordered by name.
func (s *Service) Load(ctx context.Context, category string) ([]*Template, error) {
	rows, err := s.repo.ListByCategory(ctx, category)
	if err != nil {
		s.logger.Error("failed to list templates", "category", category, "error", err)
		return nil, errors.NewInternalError("Failed to load templates", err)
	}

	out := make([]*Template, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Template, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get template", "template_id", id, "error", err)
		return nil, errors.NewInternalError("Failed to load template", err)
	}
	if row == nil {
		return nil, errors.ErrTemplateNotFound
	}
	return FromDataModel(row), nil
}

// Delete reports whether a template was removed.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.logger.Error("failed to delete template", "template_id", id, "error", err)
		return false, errors.NewInternalError("Failed to delete template", err)
	}
	if deleted {
		s.logger.Info("template deleted", "template_id", id)
	}
	return deleted, nil
}
