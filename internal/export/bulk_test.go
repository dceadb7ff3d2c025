package export_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/frahmantamala/access-audit-reports/internal"
	"github.com/frahmantamala/access-audit-reports/internal/catalog"
	"github.com/frahmantamala/access-audit-reports/internal/combiner"
	"github.com/frahmantamala/access-audit-reports/internal/export"
	"github.com/frahmantamala/access-audit-reports/internal/report"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type mockBulkProvider struct {
	mu       sync.Mutex
	payload  *report.RawPayload
	err      error
	delay    time.Duration
	calls    int
	category string
	filters  []string
	aux      []string
}

func (m *mockBulkProvider) FetchBulk(ctx context.Context, category string, filters, aux []string) (*report.RawPayload, error) {
	m.mu.Lock()
	m.calls++
	m.category = category
	m.filters = filters
	m.aux = aux
	m.mu.Unlock()

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.payload, m.err
}

type recordingSink struct {
	saved map[string][]byte
}

func (s *recordingSink) Save(_ context.Context, name string, content []byte) (string, error) {
	if s.saved == nil {
		s.saved = make(map[string][]byte)
	}
	s.saved[name] = content
	return "/downloads/" + name, nil
}

var _ = Describe("Exporter", func() {
	var (
		provider *mockBulkProvider
		exporter *export.Exporter
		logger   *slog.Logger
	)

	BeforeEach(func() {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		provider = &mockBulkProvider{
			payload: &report.RawPayload{
				Headers: []string{"Name", "Email"},
				Rows: []report.RawRow{
					report.NewRawRow("Ann", "ann@example.com"),
					report.NewRawRow("Bob", "bob@example.com"),
				},
			},
		}
		exporter = export.NewExporter(provider, export.Config{Timeout: time.Second}, logger)
	})

	It("exports the full bulk result as CSV", func() {
		artifact, err := exporter.Bulk(context.Background(), export.BulkRequest{
			Category: "user_data",
			Filters:  []string{"Name", "Email"},
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(artifact.Rows).To(Equal(2))
		Expect(artifact.Name).To(HavePrefix("user_data-"))
		Expect(artifact.Name).To(HaveSuffix(".csv"))
		Expect(string(artifact.Content)).To(Equal(strings.Join([]string{
			`"Name","Email"`,
			`"Ann","ann@example.com"`,
			`"Bob","bob@example.com"`,
		}, "\n")))
	})

	It("canonicalizes filters before the remote call", func() {
		_, err := exporter.Bulk(context.Background(), export.BulkRequest{
			Category:             "permission_assignment",
			Filters:              []string{"Assignee.Id", "AssigneeId", "User ID", "Assignee.Name"},
			IdentityFilterValues: []string{"005A"},
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(provider.category).To(Equal("permission_assignment"))
		Expect(provider.filters).To(Equal([]string{"AssigneeId", "Assignee.Name"}))
		Expect(provider.aux).To(Equal([]string{"005A"}))
	})

	It("rejects an empty selection without calling the provider", func() {
		_, err := exporter.Bulk(context.Background(), export.BulkRequest{Category: "user_data"})

		Expect(errors.Is(err, internal.ErrSelectionInvalid)).To(BeTrue())
		Expect(provider.calls).To(Equal(0))
	})

	It("fails with ExportTimeout when the provider is slower than the timer", func() {
		provider.delay = time.Second
		exporter = export.NewExporter(provider, export.Config{Timeout: 20 * time.Millisecond}, logger)
		sink := &recordingSink{}

		artifact, location, err := exporter.BulkToSink(context.Background(), export.BulkRequest{
			Category: "user_data",
			Filters:  []string{"Name"},
		}, sink)

		Expect(errors.Is(err, internal.ErrExportTimeout)).To(BeTrue())
		Expect(artifact).To(BeNil())
		Expect(location).To(BeEmpty())
		Expect(sink.saved).To(BeEmpty())
	})

	It("wraps provider errors as RemoteFailure", func() {
		provider.err = errors.New("connection reset")

		_, err := exporter.Bulk(context.Background(), export.BulkRequest{Category: "user_data", Filters: []string{"Name"}})

		Expect(errors.Is(err, internal.ErrRemoteFailure)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("connection reset"))
	})

	It("passes application errors through unchanged", func() {
		provider.err = internal.ErrUnknownCategory

		_, err := exporter.Bulk(context.Background(), export.BulkRequest{Category: "nope", Filters: []string{"Name"}})

		Expect(errors.Is(err, internal.ErrUnknownCategory)).To(BeTrue())
	})

	It("combines sectioned assignment payloads into one table", func() {
		provider.payload = &report.RawPayload{
			Sections: []report.RawSection{
				{
					Title:   "Permission Set Assignments",
					Headers: []string{"Assignee.Name", "Assignee.Email", "AssigneeId", "PermissionSet.Name"},
					Rows:    []report.RawRow{report.NewRawRow("Ann", "ann@x.io", "005A", "Admin")},
				},
				{
					Title:   "Permission Set Group Assignments",
					Headers: []string{"Assignee.Name", "Assignee.Email", "AssigneeId", "PermissionSetGroup.DeveloperName"},
					Rows:    []report.RawRow{report.NewRawRow("Bob", "bob@x.io", "005B", "Ops_Team")},
				},
			},
		}
		sources := []catalog.Source{
			{NodeID: "permission_set_assignments", AssignmentType: combiner.AssignmentPermissionSet, SectionTitle: "Permission Set Assignments"},
			{NodeID: "permission_set_group_assignments", AssignmentType: combiner.AssignmentPermissionSetGroup, SectionTitle: "Permission Set Group Assignments"},
		}

		artifact, err := exporter.Bulk(context.Background(), export.BulkRequest{
			Category: "permission_assignment",
			Filters:  []string{"Assignee.Name"},
			Sources:  sources,
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(artifact.Rows).To(Equal(2))
		records := parse(string(artifact.Content))
		Expect(records[0]).To(Equal([]string{"User Name", "Email", "User ID", "Assigned Permission", "Assignment Type", "Profile", "Active"}))
		Expect(records[1]).To(Equal([]string{"Ann", "ann@x.io", "005A", "Admin", "Permission Set", "", ""}))
		Expect(records[2]).To(Equal([]string{"Bob", "bob@x.io", "005B", "Ops_Team", "Permission Set Group", "", ""}))
	})

	It("saves successful exports to the sink", func() {
		dir, err := os.MkdirTemp("", "bulk-export")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, dir)

		artifact, location, err := exporter.BulkToSink(context.Background(), export.BulkRequest{
			Category: "user_data",
			Filters:  []string{"Name"},
		}, export.NewFileSink(dir))

		Expect(err).NotTo(HaveOccurred())
		Expect(location).To(Equal(filepath.Join(dir, artifact.Name)))
		content, err := os.ReadFile(location)
		Expect(err).NotTo(HaveOccurred())
		Expect(content).To(Equal(artifact.Content))
	})

	It("names artifacts by category and UTC timestamp", func() {
		at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
		Expect(export.ArtifactName("user_data", at)).To(Equal("user_data-20260304-050607.csv"))
	})
})
