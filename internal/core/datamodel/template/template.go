package template

import "time"

type ReportTemplate struct {
	ID            string            `gorm:"column:id;primaryKey;type:uuid"`
	Name          string            `gorm:"column:name;not null;uniqueIndex:idx_report_templates_category_name"`
	Category      string            `gorm:"column:category;not null;uniqueIndex:idx_report_templates_category_name"`
	Selection     []string          `gorm:"column:selection;type:text;serializer:json;not null"`
	AuxiliaryData map[string]string `gorm:"column:auxiliary_data;type:text;serializer:json"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (ReportTemplate) TableName() string {
	return "report_templates"
}
