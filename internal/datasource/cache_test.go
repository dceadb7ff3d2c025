package datasource_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/frahmantamala/access-audit-reports/internal"
	"github.com/frahmantamala/access-audit-reports/internal/datasource"
	"github.com/frahmantamala/access-audit-reports/internal/report"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type mockProvider struct {
	mu          sync.Mutex
	reportCalls int
	bulkCalls   int
	payloads    map[string]*report.RawPayload
	err         error
}

func (m *mockProvider) FetchReport(_ context.Context, category string, filters []string, _ datasource.Paging) (*report.RawPayload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reportCalls++
	if m.err != nil {
		return nil, m.err
	}
	if p, ok := m.payloads[filters[0]]; ok {
		return p, nil
	}
	return &report.RawPayload{Headers: []string{"Name"}, Rows: []report.RawRow{report.NewRawRow(category)}}, nil
}

func (m *mockProvider) FetchBulk(context.Context, string, []string, []string) (*report.RawPayload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bulkCalls++
	return &report.RawPayload{Headers: []string{"Name"}}, nil
}

var _ = Describe("CachedProvider", func() {
	var (
		mr       *miniredis.Miniredis
		rdb      *redis.Client
		next     *mockProvider
		provider *datasource.CachedProvider
	)

	BeforeEach(func() {
		var err error
		mr, err = miniredis.Run()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(mr.Close)

		rdb = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		DeferCleanup(rdb.Close)

		next = &mockProvider{}
		provider = datasource.NewCachedProvider(next, rdb, time.Minute, testLogger())
	})

	It("serves repeated fetches from the cache", func() {
		first, err := provider.FetchReport(context.Background(), "user_data", []string{"Name"}, datasource.Paging{})
		Expect(err).NotTo(HaveOccurred())
		second, err := provider.FetchReport(context.Background(), "user_data", []string{"Name"}, datasource.Paging{})
		Expect(err).NotTo(HaveOccurred())

		Expect(next.reportCalls).To(Equal(1))
		Expect(second).To(Equal(first))
		Expect(mr.TTL(datasource.CacheKey("user_data", []string{"Name"}, datasource.Paging{}))).To(Equal(time.Minute))
	})

	It("keeps empty but present payload shapes on a cache hit", func() {
		next.payloads = map[string]*report.RawPayload{
			"empty_table":    {Headers: []string{}, Rows: []report.RawRow{}},
			"empty_sections": {Sections: []report.RawSection{}},
		}
		normalizer := report.NewNormalizer(testLogger())

		for _, filter := range []string{"empty_table", "empty_sections"} {
			miss, err := provider.FetchReport(context.Background(), "user_data", []string{filter}, datasource.Paging{})
			Expect(err).NotTo(HaveOccurred())
			hit, err := provider.FetchReport(context.Background(), "user_data", []string{filter}, datasource.Paging{})
			Expect(err).NotTo(HaveOccurred())

			Expect(hit.Shape()).To(Equal(miss.Shape()), filter)
			Expect(normalizer.Normalize(hit, nil).Status).To(Equal(report.StatusEmpty), filter)
		}
		Expect(next.reportCalls).To(Equal(2))
	})

	It("keys the cache by filters", func() {
		_, _ = provider.FetchReport(context.Background(), "user_data", []string{"Name"}, datasource.Paging{})
		_, _ = provider.FetchReport(context.Background(), "user_data", []string{"Email"}, datasource.Paging{})

		Expect(next.reportCalls).To(Equal(2))
	})

	It("expires entries after the ttl", func() {
		_, _ = provider.FetchReport(context.Background(), "user_data", []string{"Name"}, datasource.Paging{})
		mr.FastForward(2 * time.Minute)
		_, _ = provider.FetchReport(context.Background(), "user_data", []string{"Name"}, datasource.Paging{})

		Expect(next.reportCalls).To(Equal(2))
	})

	It("does not cache failures", func() {
		next.err = internal.ErrRemoteFailure
		_, err := provider.FetchReport(context.Background(), "user_data", []string{"Name"}, datasource.Paging{})
		Expect(errors.Is(err, internal.ErrRemoteFailure)).To(BeTrue())

		next.err = nil
		_, err = provider.FetchReport(context.Background(), "user_data", []string{"Name"}, datasource.Paging{})
		Expect(err).NotTo(HaveOccurred())
		Expect(next.reportCalls).To(Equal(2))
	})

	It("falls through to the provider when redis is down", func() {
		mr.Close()

		payload, err := provider.FetchReport(context.Background(), "user_data", []string{"Name"}, datasource.Paging{})

		Expect(err).NotTo(HaveOccurred())
		Expect(payload.Rows).To(HaveLen(1))
	})

	It("never caches bulk fetches", func() {
		_, _ = provider.FetchBulk(context.Background(), "user_data", []string{"Name"}, nil)
		_, _ = provider.FetchBulk(context.Background(), "user_data", []string{"Name"}, nil)

		Expect(next.bulkCalls).To(Equal(2))
	})

	It("invalidates every entry of a category", func() {
		_, _ = provider.FetchReport(context.Background(), "user_data", []string{"Name"}, datasource.Paging{})
		_, _ = provider.FetchReport(context.Background(), "object_access", []string{"Name"}, datasource.Paging{})

		Expect(provider.Invalidate(context.Background(), "user_data")).To(Succeed())
		_, _ = provider.FetchReport(context.Background(), "user_data", []string{"Name"}, datasource.Paging{})
		_, _ = provider.FetchReport(context.Background(), "object_access", []string{"Name"}, datasource.Paging{})

		Expect(next.reportCalls).To(Equal(3))
	})
})

var _ = Describe("NewRedisClient", func() {
	It("starts an embedded server in memory mode", func() {
		client, closeFn, err := datasource.NewRedisClient(internal.CacheConfig{Mode: "memory"})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(closeFn)

		Expect(client.Ping(context.Background()).Err()).To(Succeed())
	})
})

var _ = Describe("FetchSources", func() {
	It("returns results in query order", func() {
		next := &mockProvider{payloads: map[string]*report.RawPayload{
			"direct": {Headers: []string{"PermissionSet.Name"}, Rows: []report.RawRow{report.NewRawRow("Admin")}},
			"group":  {Headers: []string{"PermissionSetGroup.DeveloperName"}, Rows: []report.RawRow{report.NewRawRow("Ops")}},
		}}

		results, err := datasource.FetchSources(context.Background(), next, "permission_assignment", []datasource.SourceQuery{
			{Name: "direct", Filters: []string{"direct"}},
			{Name: "group", Filters: []string{"group"}},
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(2))
		Expect(results[0].Headers).To(Equal([]string{"PermissionSet.Name"}))
		Expect(results[1].Headers).To(Equal([]string{"PermissionSetGroup.DeveloperName"}))
	})

	It("fails when any source fails", func() {
		next := &mockProvider{err: internal.ErrRemoteFailure}

		_, err := datasource.FetchSources(context.Background(), next, "permission_assignment", []datasource.SourceQuery{
			{Name: "direct", Filters: []string{"a"}},
			{Name: "group", Filters: []string{"b"}},
		})

		Expect(errors.Is(err, internal.ErrRemoteFailure)).To(BeTrue())
	})
})
