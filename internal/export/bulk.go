package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/access-audit-reports/internal"
	"github.com/frahmantamala/access-audit-reports/internal/catalog"
	"github.com/frahmantamala/access-audit-reports/internal/combiner"
	"github.com/frahmantamala/access-audit-reports/internal/report"
)

const DefaultTimeout = 5 * time.Minute

// BulkProvider fetches the full, unpaginated result set for an export.
type BulkProvider interface {
	FetchBulk(ctx context.Context, category string, filters []string, auxFilterValues []string) (*report.RawPayload, error)
}

type BulkRequest struct {
	Category             string
	Filters              []string // remote filter values of the active selection
	IdentityFilterValues []string
	Labels               report.Labeler

	// Sources, when present, route a sectioned bulk payload through the
	// multi-source combiner, matching sections by title.
	Sources []catalog.Source
}

// Artifact is a finished export ready to be handed to a download sink.
type Artifact struct {
	Name    string
	Content []byte
	Rows    int
}

type Exporter struct {
	provider      BulkProvider
	normalizer    *report.Normalizer
	combiner      *combiner.Combiner
	canonicalizer *FieldCanonicalizer
	timeout       time.Duration
	logger        *slog.Logger
	now           func() time.Time
}

type Config struct {
	Timeout      time.Duration
	FieldAliases map[string]string
}

func NewExporter(provider BulkProvider, cfg Config, logger *slog.Logger) *Exporter {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Exporter{
		provider:      provider,
		normalizer:    report.NewNormalizer(logger),
		combiner:      combiner.NewCombiner(logger),
		canonicalizer: NewFieldCanonicalizer(cfg.FieldAliases),
		timeout:       timeout,
		logger:        logger,
		now:           time.Now,
	}
}

// CanonicalFilters exposes the canonicalization applied before every bulk call.
func (e *Exporter) CanonicalFilters(filters []string) []string {
	return e.canonicalizer.Apply(filters)
}

// Bulk runs a dedicated bulk fetch and renders it as CSV. The remote call is
// raced against the exporter's own timer; losing the race yields
// ErrExportTimeout regardless of what the remote call does afterwards.
func (e *Exporter) Bulk(ctx context.Context, req BulkRequest) (*Artifact, error) {
	if len(req.Filters) == 0 {
		return nil, internal.ErrSelectionInvalid
	}

	filters := e.canonicalizer.Apply(req.Filters)
	if len(filters) < len(req.Filters) {
		e.logger.Info("bulk export: collapsed duplicate field aliases",
			"category", req.Category,
			"requested", len(req.Filters),
			"canonical", len(filters))
	}

	start := e.now()
	payload, err := e.fetch(ctx, req.Category, filters, req.IdentityFilterValues)
	if err != nil {
		return nil, err
	}

	model := e.normalizer.Normalize(payload, req.Labels)
	if len(req.Sources) > 0 && model.Kind == report.KindSectioned {
		model = e.combine(model, req.Sources)
	}

	artifact := &Artifact{
		Name:    ArtifactName(req.Category, e.now()),
		Content: []byte(ToCSV(model)),
		Rows:    model.TotalRecords(),
	}

	e.logger.Info("bulk export completed",
		"category", req.Category,
		"rows", artifact.Rows,
		"bytes", len(artifact.Content),
		"duration_ms", e.now().Sub(start).Milliseconds())
	return artifact, nil
}

// BulkToSink runs Bulk and hands the artifact to sink. Nothing reaches the
// sink when the export fails.
func (e *Exporter) BulkToSink(ctx context.Context, req BulkRequest, sink Sink) (*Artifact, string, error) {
	artifact, err := e.Bulk(ctx, req)
	if err != nil {
		return nil, "", err
	}
	location, err := sink.Save(ctx, artifact.Name, artifact.Content)
	if err != nil {
		return nil, "", internal.NewInternalError("Failed to save export file", err)
	}
	return artifact, location, nil
}

type bulkResult struct {
	payload *report.RawPayload
	err     error
}

func (e *Exporter) fetch(ctx context.Context, category string, filters, aux []string) (*report.RawPayload, error) {
	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan bulkResult, 1)
	go func() {
		payload, err := e.provider.FetchBulk(callCtx, category, filters, aux)
		done <- bulkResult{payload: payload, err: err}
	}()

	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		if res.err != nil {
			e.logger.Error("bulk export fetch failed", "category", category, "error", res.err)
			return nil, asRemoteFailure(res.err)
		}
		return res.payload, nil
	case <-timer.C:
		e.logger.Warn("bulk export timed out", "category", category, "timeout", e.timeout)
		return nil, internal.ErrExportTimeout
	case <-ctx.Done():
		e.logger.Warn("bulk export cancelled", "category", category, "error", ctx.Err())
		return nil, internal.ErrRemoteFailure.WithCause(ctx.Err())
	}
}

func (e *Exporter) combine(model *report.Model, sources []catalog.Source) *report.Model {
	var inputs []combiner.Input
	for _, src := range sources {
		section, ok := model.Section(src.SectionTitle)
		if !ok {
			e.logger.Warn("bulk export: source section missing", "section", src.SectionTitle)
			continue
		}
		spec, ok := combiner.SourceFor(src.AssignmentType)
		if !ok {
			e.logger.Warn("bulk export: unknown assignment type", "assignment_type", src.AssignmentType)
			continue
		}
		inputs = append(inputs, combiner.Input{Model: section.AsTable(), Source: spec})
	}
	if len(inputs) == 0 {
		return model
	}
	return e.combiner.CombineSources(inputs...)
}

func asRemoteFailure(err error) error {
	var appErr *internal.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return internal.ErrRemoteFailure.WithCause(err)
}

// ArtifactName builds the download file name for a category export.
func ArtifactName(category string, at time.Time) string {
	return fmt.Sprintf("%s-%s.csv", category, at.UTC().Format("20060102-150405"))
}
