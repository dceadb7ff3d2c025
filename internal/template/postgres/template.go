package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	templateDatamodel "github.com/frahmantamala/access-audit-reports/internal/core/datamodel/template"
	"github.com/frahmantamala/access-audit-reports/internal/template"
)

type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) template.RepositoryAPI {
	return &TemplateRepository{db: db}
}

func (r *TemplateRepository) ListByCategory(ctx context.Context, category string) ([]*templateDatamodel.ReportTemplate, error) {
	var templates []*templateDatamodel.ReportTemplate
	err := r.db.WithContext(ctx).Where("category = ?", category).Order("name ASC").Find(&templates).Error
	return templates, err
}

func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*templateDatamodel.ReportTemplate, error) {
	var t templateDatamodel.ReportTemplate
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *TemplateRepository) GetByName(ctx context.Context, category, name string) (*templateDatamodel.ReportTemplate, error) {
	var t templateDatamodel.ReportTemplate
	err := r.db.WithContext(ctx).Where("category = ? AND name = ?", category, name).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *TemplateRepository) Create(ctx context.Context, t *templateDatamodel.ReportTemplate) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TemplateRepository) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&templateDatamodel.ReportTemplate{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
