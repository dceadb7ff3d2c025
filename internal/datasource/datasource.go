package datasource

import (
	"context"

	"github.com/frahmantamala/access-audit-reports/internal/report"
)

// Paging asks the remote service for one page. The zero value requests the
// full result set.
type Paging struct {
	Page     int `json:"page,omitempty"`
	PageSize int `json:"page_size,omitempty"`
}

// Provider is the remote report service as seen by sessions and exports.
type Provider interface {
	FetchReport(ctx context.Context, category string, filters []string, paging Paging) (*report.RawPayload, error)
	FetchBulk(ctx context.Context, category string, filters []string, auxFilterValues []string) (*report.RawPayload, error)
}

// Invalidator is implemented by providers that keep fetched reports around.
// Sessions invalidate a category before every explicit run so that a run
// always reflects the remote data.
type Invalidator interface {
	Invalidate(ctx context.Context, category string) error
}

type reportRequest struct {
	Filters  []string `json:"filters"`
	Page     int      `json:"page,omitempty"`
	PageSize int      `json:"page_size,omitempty"`
}

type bulkRequest struct {
	Filters         []string `json:"filters"`
	AuxFilterValues []string `json:"aux_filter_values,omitempty"`
}
