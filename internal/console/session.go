package console

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/frahmantamala/access-audit-reports/internal"
	"github.com/frahmantamala/access-audit-reports/internal/catalog"
	"github.com/frahmantamala/access-audit-reports/internal/combiner"
	"github.com/frahmantamala/access-audit-reports/internal/core/events"
	"github.com/frahmantamala/access-audit-reports/internal/datasource"
	"github.com/frahmantamala/access-audit-reports/internal/export"
	"github.com/frahmantamala/access-audit-reports/internal/pagination"
	"github.com/frahmantamala/access-audit-reports/internal/report"
	"github.com/frahmantamala/access-audit-reports/internal/selection"
	"github.com/frahmantamala/access-audit-reports/internal/template"
)

const DefaultCompareCategory = "permission_assignment"

// Deps are the collaborators shared by every session.
type Deps struct {
	Catalog  *catalog.Catalog
	Provider datasource.Provider
	Exporter *export.Exporter
	Sink     export.Sink
	Logger   *slog.Logger
	PageSize int

	// CompareCategory supplies the assignment sources used by the compare flow.
	CompareCategory string
}

// Session is one report view: a category, its selection, the last fetched
// report and the current page over it.
//
// Every run takes a ticket. A response is installed only if its ticket is
// still the newest one when it resolves; older responses are discarded.
type Session struct {
	ID string

	deps       Deps
	normalizer *report.Normalizer
	combiner   *combiner.Combiner
	notifier   Notifier
	logger     *slog.Logger
	now        func() time.Time

	mu         sync.Mutex
	category   *catalog.Category
	controller *selection.Controller
	paginator  *pagination.Paginator
	hasReport  bool
	lastError  string
	ticket     uint64

	notifications notificationLog
}

func newSession(id string, cat *catalog.Category, deps Deps, notifier Notifier) *Session {
	logger := deps.Logger.With("session_id", id)
	s := &Session{
		ID:         id,
		deps:       deps,
		normalizer: report.NewNormalizer(logger),
		combiner:   combiner.NewCombiner(logger),
		notifier:   notifier,
		logger:     logger,
		now:        time.Now,
		paginator:  pagination.New(nil, deps.PageSize),
	}
	s.setCategory(cat)
	return s
}

// State is the full observable state of a session.
type State struct {
	ID        string               `json:"id"`
	UI        selection.UIState    `json:"ui"`
	Error     string               `json:"error,omitempty"`
	HasReport bool                 `json:"has_report"`
	Page      *pagination.PageView `json:"page,omitempty"`
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		ID:        s.ID,
		UI:        s.render(),
		Error:     s.lastError,
		HasReport: s.hasReport,
	}
	if s.hasReport {
		view := s.paginator.View()
		st.Page = &view
	}
	return st
}

func (s *Session) Render() selection.UIState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.render()
}

func (s *Session) render() selection.UIState {
	return selection.Render(s.category, s.controller.Selection())
}

// SwitchCategory resets the selection and drops the current report. Runs
// still in flight for the previous category are discarded when they resolve.
func (s *Session) SwitchCategory(id string) (selection.UIState, error) {
	cat, ok := s.deps.Catalog.Category(id)
	if !ok {
		return selection.UIState{}, internal.ErrUnknownCategory
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.setCategory(cat)
	return s.render(), nil
}

func (s *Session) setCategory(cat *catalog.Category) {
	s.category = cat
	s.controller = selection.NewController(cat, cat)
	s.paginator.SetModel(nil)
	s.hasReport = false
	s.lastError = ""
	s.ticket++
}

func (s *Session) ToggleParent(nodeID string, checked bool) selection.UIState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controller.ToggleParent(nodeID, checked)
	return s.render()
}

func (s *Session) ToggleLeaf(leafID, parentID string, checked bool) selection.UIState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controller.ToggleLeaf(leafID, parentID, checked)
	return s.render()
}

// Toggle dispatches to ToggleParent or ToggleLeaf depending on the node.
func (s *Session) Toggle(nodeID, parentID string, checked bool) selection.UIState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.category.IsTopLevel(nodeID) {
		s.controller.ToggleParent(nodeID, checked)
	} else {
		s.controller.ToggleLeaf(nodeID, parentID, checked)
	}
	return s.render()
}

func (s *Session) Reset() selection.UIState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controller.Reset()
	s.ticket++
	return s.render()
}

// ApplyTemplate installs a saved selection, switching category when needed.
func (s *Session) ApplyTemplate(ctx context.Context, t *template.Template) (selection.UIState, error) {
	cat, ok := s.deps.Catalog.Category(t.Category)
	if !ok {
		return selection.UIState{}, internal.ErrUnknownCategory
	}

	s.mu.Lock()
	if s.category.ID != cat.ID {
		s.setCategory(cat)
	}
	s.controller.Replace(t.Selection)
	s.ticket++
	state := s.render()
	s.mu.Unlock()

	s.notify(ctx, "Template applied", t.Name, events.SeverityInfo)
	return state, nil
}

type sourceQuery struct {
	source  catalog.Source
	filters []string
}

// runPlan is what a run fetches: either one filter list or one query per
// selected assignment source.
type runPlan struct {
	category *catalog.Category
	filters  []string
	sources  []sourceQuery
	ticket   uint64
}

func (p runPlan) combined() bool {
	return len(p.sources) > 1
}

// plan snapshots the selection into a run plan. Callers hold s.mu.
func (s *Session) plan() runPlan {
	cat := s.category
	sel := s.controller.Selection()
	p := runPlan{category: cat, filters: cat.FilterValues(sel.IDs())}

	for _, src := range cat.Sources {
		if !sel.Has(src.NodeID) {
			continue
		}
		ids := []string{src.NodeID}
		for _, child := range cat.Children(src.NodeID) {
			if sel.Has(child) {
				ids = append(ids, child)
			}
		}
		p.sources = append(p.sources, sourceQuery{source: src, filters: cat.FilterValues(ids)})
	}
	return p
}

// Run fetches the report for the current selection and shows its first page.
// An empty selection is rejected before any remote call.
func (s *Session) Run(ctx context.Context) (pagination.PageView, error) {
	s.mu.Lock()
	if s.render().CompareActive {
		s.lastError = internal.ErrCompareEntities.Message
		s.mu.Unlock()
		return pagination.PageView{}, internal.ErrCompareEntities
	}
	p := s.plan()
	if len(p.filters) == 0 {
		s.lastError = internal.ErrSelectionInvalid.Message
		s.mu.Unlock()
		return pagination.PageView{}, internal.ErrSelectionInvalid
	}
	s.ticket++
	p.ticket = s.ticket
	s.lastError = ""
	s.mu.Unlock()

	s.invalidate(ctx, p.category.ID)

	start := s.now()
	model, err := s.fetch(ctx, p)
	s.logger.Info("report run finished",
		"category", p.category.ID,
		"filters", len(p.filters),
		"combined", p.combined(),
		"duration_ms", s.now().Sub(start).Milliseconds(),
		"error", err)

	return s.install(ctx, p.ticket, model, err)
}

// invalidate drops cached reports of category. Compare fetches after a run
// are still served from the entries that run stored.
func (s *Session) invalidate(ctx context.Context, category string) {
	inv, ok := s.deps.Provider.(datasource.Invalidator)
	if !ok {
		return
	}
	if err := inv.Invalidate(ctx, category); err != nil {
		s.logger.Warn("report cache invalidation failed", "category", category, "error", err)
	}
}

func (s *Session) fetch(ctx context.Context, p runPlan) (*report.Model, error) {
	labels := p.category.Labels()

	if !p.combined() {
		payload, err := s.deps.Provider.FetchReport(ctx, p.category.ID, p.filters, datasource.Paging{})
		if err != nil {
			return nil, err
		}
		return s.normalizer.Normalize(payload, labels), nil
	}

	queries := make([]datasource.SourceQuery, len(p.sources))
	for i, q := range p.sources {
		queries[i] = datasource.SourceQuery{Name: q.source.NodeID, Filters: q.filters}
	}
	payloads, err := datasource.FetchSources(ctx, s.deps.Provider, p.category.ID, queries)
	if err != nil {
		return nil, err
	}

	inputs := make([]combiner.Input, 0, len(payloads))
	for i, payload := range payloads {
		spec, ok := combiner.SourceFor(p.sources[i].source.AssignmentType)
		if !ok {
			s.logger.Warn("unknown assignment type", "assignment_type", p.sources[i].source.AssignmentType)
			continue
		}
		inputs = append(inputs, combiner.Input{Model: s.normalizer.Normalize(payload, labels), Source: spec})
	}
	return s.combiner.CombineSources(inputs...), nil
}

// install puts a fetched model in place if ticket is still current.
func (s *Session) install(ctx context.Context, ticket uint64, model *report.Model, err error) (pagination.PageView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ticket != s.ticket {
		s.logger.Info("discarding stale report response", "ticket", ticket, "current", s.ticket)
		return pagination.PageView{}, internal.ErrStaleResponse
	}

	if err != nil {
		appErr := remoteFailure(err)
		s.lastError = appErr.Message
		s.notify(ctx, "Report failed", appErr.Message, events.SeverityError)
		return pagination.PageView{}, appErr
	}

	s.paginator.SetModel(model)
	s.hasReport = true
	return s.paginator.View(), nil
}

// Page moves the page window. A size of zero keeps the current size.
func (s *Session) Page(page, pageSize int) (pagination.PageView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasReport {
		return pagination.PageView{}, internal.ErrNoReport
	}
	if pageSize > 0 {
		s.paginator.SetPageSize(pageSize)
	}
	if page > 0 {
		s.paginator.SetPage(page)
	}
	return s.paginator.View(), nil
}

// ExportCSV renders the full current report, never just the visible page.
func (s *Session) ExportCSV(ctx context.Context) (*export.Artifact, error) {
	s.mu.Lock()
	if !s.hasReport {
		s.mu.Unlock()
		return nil, internal.ErrNoReport
	}
	model := s.paginator.Model()
	category := s.category.ID
	s.mu.Unlock()

	artifact := &export.Artifact{
		Name:    export.ArtifactName(category, s.now()),
		Content: []byte(export.ToCSV(model)),
	}
	if !model.IsPlaceholder() {
		artifact.Rows = model.TotalRecords()
	}
	s.notify(ctx, "Export ready", artifact.Name, events.SeveritySuccess)
	return artifact, nil
}

// BulkExportResult describes a finished bulk export.
type BulkExportResult struct {
	FileName string `json:"file_name"`
	Location string `json:"location"`
	Rows     int    `json:"rows"`
}

// BulkExport runs a dedicated bulk fetch for the current selection and saves
// the CSV through the configured sink. Outcomes are reported as notifications.
func (s *Session) BulkExport(ctx context.Context, identityFilterValues []string) (*BulkExportResult, error) {
	if s.deps.Exporter == nil || s.deps.Sink == nil {
		return nil, internal.NewInternalError("Bulk export is not configured", nil)
	}

	s.mu.Lock()
	p := s.plan()
	s.mu.Unlock()

	sources := make([]catalog.Source, len(p.sources))
	for i, q := range p.sources {
		sources[i] = q.source
	}

	artifact, location, err := s.deps.Exporter.BulkToSink(ctx, export.BulkRequest{
		Category:             p.category.ID,
		Filters:              p.filters,
		IdentityFilterValues: identityFilterValues,
		Labels:               p.category.Labels(),
		Sources:              sources,
	}, s.deps.Sink)
	if err != nil {
		switch {
		case errors.Is(err, internal.ErrExportTimeout):
			s.notify(ctx, "Export timed out", internal.ErrExportTimeout.Message, events.SeverityWarning)
		case errors.Is(err, internal.ErrSelectionInvalid):
		default:
			s.notify(ctx, "Export failed", remoteFailure(err).Message, events.SeverityError)
		}
		return nil, err
	}

	s.notify(ctx, "Export ready", artifact.Name, events.SeveritySuccess)
	return &BulkExportResult{FileName: artifact.Name, Location: location, Rows: artifact.Rows}, nil
}

// Compare builds the assignment matrix of the given identities. It requires
// the compare pseudo filter to be selected.
func (s *Session) Compare(ctx context.Context, entities []combiner.Entity) (pagination.PageView, error) {
	if len(entities) == 0 {
		return pagination.PageView{}, internal.ErrCompareEntities
	}
	compareID := s.deps.CompareCategory
	if compareID == "" {
		compareID = DefaultCompareCategory
	}
	cmpCat, ok := s.deps.Catalog.Category(compareID)
	if !ok {
		return pagination.PageView{}, internal.ErrUnknownCategory
	}

	s.mu.Lock()
	if !s.render().CompareActive {
		s.mu.Unlock()
		return pagination.PageView{}, internal.NewValidationError("Select the compare filter before comparing users", internal.ErrCodeSelectionInvalid)
	}
	s.ticket++
	ticket := s.ticket
	s.lastError = ""
	s.mu.Unlock()

	p := runPlan{category: cmpCat}
	for _, src := range cmpCat.Sources {
		ids := append([]string{src.NodeID}, cmpCat.Children(src.NodeID)...)
		p.sources = append(p.sources, sourceQuery{source: src, filters: cmpCat.FilterValues(ids)})
	}

	model, err := s.fetchCompare(ctx, p, entities)
	return s.install(ctx, ticket, model, err)
}

func (s *Session) fetchCompare(ctx context.Context, p runPlan, entities []combiner.Entity) (*report.Model, error) {
	queries := make([]datasource.SourceQuery, len(p.sources))
	for i, q := range p.sources {
		queries[i] = datasource.SourceQuery{Name: q.source.NodeID, Filters: q.filters}
	}
	payloads, err := datasource.FetchSources(ctx, s.deps.Provider, p.category.ID, queries)
	if err != nil {
		return nil, err
	}

	labels := p.category.Labels()
	var rows []combiner.CombinedRow
	for i, payload := range payloads {
		spec, ok := combiner.SourceFor(p.sources[i].source.AssignmentType)
		if !ok {
			continue
		}
		rows = append(rows, s.combiner.Extract(s.normalizer.Normalize(payload, labels), spec)...)
	}
	return combiner.Compare(rows, entities), nil
}

func (s *Session) Notifications() []Notification {
	return s.notifications.list()
}

func (s *Session) notify(ctx context.Context, title, message string, severity events.Severity) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, title, message, severity)
}

func remoteFailure(err error) *internal.AppError {
	if appErr, ok := internal.IsAppError(err); ok {
		return appErr
	}
	return internal.ErrRemoteFailure.WithCause(err)
}
