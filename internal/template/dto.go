package template

import (
	"strings"
	"time"

	errors "github.com/frahmantamala/access-audit-reports/internal"
	"github.com/frahmantamala/access-audit-reports/internal/core/common/validation"
)

type SaveTemplateDTO struct {
	Name          string            `json:"name"`
	Category      string            `json:"category"`
	Selection     []string          `json:"selection"`
	AuxiliaryData map[string]string `json:"auxiliary_data,omitempty"`
}

func (dto *SaveTemplateDTO) Normalize() {
	dto.Name = strings.TrimSpace(dto.Name)
	dto.Category = strings.TrimSpace(dto.Category)
}

func (dto SaveTemplateDTO) Validate() *errors.AppError {
	if err := validation.ValidateTemplateName(dto.Name); err != nil {
		return err
	}

	validator := validation.NewValidator()
	validator.Field("category", dto.Category).Required()
	validator.Field("selection", dto.Selection).Required()
	return validator.Validate()
}

type TemplateResponse struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Category      string            `json:"category"`
	Selection     []string          `json:"selection"`
	AuxiliaryData map[string]string `json:"auxiliary_data,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

type TemplatesResponse struct {
	Templates []TemplateResponse `json:"templates"`
}

type SaveTemplateResponse struct {
	ID string `json:"id"`
}

type DeleteTemplateResponse struct {
	Deleted bool `json:"deleted"`
}
