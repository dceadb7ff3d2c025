package export_test

import (
	"context"
	"os"
	"path/filepath"

	"github.com/frahmantamala/access-audit-reports/internal/export"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("FileSink", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "export-sink")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, dir)
	})

	It("writes the artifact under its base name", func() {
		sink := export.NewFileSink(filepath.Join(dir, "nested"))

		path, err := sink.Save(context.Background(), "../user_data-20260101-000000.csv", []byte(`"A"`))
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(filepath.Join(dir, "nested", "user_data-20260101-000000.csv")))

		content, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(content)).To(Equal(`"A"`))
	})

	It("leaves no temp files behind", func() {
		sink := export.NewFileSink(dir)
		_, err := sink.Save(context.Background(), "a.csv", []byte("x"))
		Expect(err).NotTo(HaveOccurred())

		entries, err := os.ReadDir(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].Name()).To(Equal("a.csv"))
	})

	It("refuses to write for a cancelled context", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := export.NewFileSink(dir).Save(ctx, "a.csv", []byte("x"))
		Expect(err).To(MatchError(context.Canceled))
	})
})
