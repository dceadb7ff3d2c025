package template

import (
	"time"

	"github.com/google/uuid"

	templateDatamodel "github.com/frahmantamala/access-audit-reports/internal/core/datamodel/template"
)

// Template is a named, saved filter selection scoped to one report category.
type Template struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Category      string            `json:"category"`
	Selection     []string          `json:"selection"`
	AuxiliaryData map[string]string `json:"auxiliary_data,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

func NewTemplate(name, category string, selection []string, aux map[string]string) *Template {
	now := time.Now()
	return &Template{
		ID:            uuid.New().String(),
		Name:          name,
		Category:      category,
		Selection:     append([]string(nil), selection...),
		AuxiliaryData: aux,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (t *Template) ToResponse() TemplateResponse {
	return TemplateResponse{
		ID:            t.ID,
		Name:          t.Name,
		Category:      t.Category,
		Selection:     t.Selection,
		AuxiliaryData: t.AuxiliaryData,
		CreatedAt:     t.CreatedAt,
	}
}

func ToDataModel(t *Template) *templateDatamodel.ReportTemplate {
	return &templateDatamodel.ReportTemplate{
		ID:            t.ID,
		Name:          t.Name,
		Category:      t.Category,
		Selection:     t.Selection,
		AuxiliaryData: t.AuxiliaryData,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func FromDataModel(t *templateDatamodel.ReportTemplate) *Template {
	return &Template{
		ID:            t.ID,
		Name:          t.Name,
		Category:      t.Category,
		Selection:     t.Selection,
		AuxiliaryData: t.AuxiliaryData,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}
