package console

import (
	"github.com/frahmantamala/access-audit-reports/internal/combiner"
)

type CreateSessionDTO struct {
	Category string `json:"category"`
}

type SwitchCategoryDTO struct {
	Category string `json:"category"`
}

type ToggleDTO struct {
	NodeID   string `json:"node_id"`
	ParentID string `json:"parent_id,omitempty"`
	Checked  bool   `json:"checked"`
}

type BulkExportDTO struct {
	IdentityFilterValues []string `json:"identity_filter_values,omitempty"`
}

type CompareDTO struct {
	Entities []combiner.Entity `json:"entities"`
}

type NotificationsResponse struct {
	Notifications []Notification `json:"notifications"`
}
