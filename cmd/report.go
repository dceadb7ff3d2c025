package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/frahmantamala/access-audit-reports/internal"
	"github.com/frahmantamala/access-audit-reports/internal/catalog"
	"github.com/frahmantamala/access-audit-reports/internal/console"
	"github.com/frahmantamala/access-audit-reports/internal/core/common/validation"
	"github.com/frahmantamala/access-audit-reports/internal/core/events"
	"github.com/frahmantamala/access-audit-reports/internal/export"
	"github.com/frahmantamala/access-audit-reports/internal/pagination"
	"github.com/frahmantamala/access-audit-reports/internal/report"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Run one report and print it",
	Long:  `Run a report for the given category and filter nodes and print one page as a table, or the full report as CSV.`,
	RunE:  runReport,
}

var (
	reportCategory string
	reportFilters  []string
	reportPage     int
	reportPageSize int
	reportCSV      bool
)

func init() {
	reportCmd.Flags().StringVarP(&reportCategory, "category", "c", "", "Report category id")
	reportCmd.Flags().StringSliceVarP(&reportFilters, "filter", "f", nil, "Filter node id, repeatable")
	reportCmd.Flags().IntVar(&reportPage, "page", 1, "Page to print")
	reportCmd.Flags().IntVar(&reportPageSize, "page-size", pagination.DefaultPageSize, "Rows per page")
	reportCmd.Flags().BoolVar(&reportCSV, "csv", false, "Print the full report as CSV")
	_ = reportCmd.MarkFlagRequired("category")
}

func runReport(cmd *cobra.Command, _ []string) error {
	if !reportCSV {
		if err := validation.ValidatePaging(reportPage, reportPageSize, pagination.MaxPageSize); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	session, cleanup, err := newCLISession(ctx, reportCategory, reportFilters, "")
	if err != nil {
		return err
	}
	defer cleanup()

	if _, err := session.Run(ctx); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if reportCSV {
		artifact, err := session.ExportCSV(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(artifact.Content))
		return err
	}

	view, err := session.Page(reportPage, reportPageSize)
	if err != nil {
		return err
	}
	return printPage(out, view)
}

// newCLISession builds a one-off console session with the given nodes
// selected. Leaves are toggled under their catalog parent.
func newCLISession(ctx context.Context, category string, nodes []string, outDir string) (*console.Session, func(), error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	lg := setupLogger(cfg)

	cat, err := catalog.Default()
	if err != nil {
		return nil, nil, err
	}
	reportCat, ok := cat.Category(category)
	if !ok {
		return nil, nil, internal.ErrUnknownCategory
	}

	provider, _, closeCache, err := buildProvider(cfg, lg)
	if err != nil {
		return nil, nil, err
	}

	if outDir == "" {
		outDir = cfg.Export.OutputDir
	}

	bus := events.NewEventBus(lg)
	bus.Subscribe(events.EventTypeNotification, console.LogNotifications(lg))

	registry := console.NewRegistry(console.Deps{
		Catalog:  cat,
		Provider: provider,
		Exporter: export.NewExporter(provider, export.Config{
			Timeout:      cfg.Export.Timeout,
			FieldAliases: cfg.Export.FieldAliases,
		}, lg),
		Sink:   export.NewFileSink(outDir),
		Logger: lg,
	}, bus)

	cleanup := func() {
		bus.Wait()
		if closeCache != nil {
			if err := closeCache(); err != nil {
				lg.Error("failed to close cache", "error", err)
			}
		}
	}

	session, err := registry.Create(category)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if err := selectNodes(session, reportCat, nodes, lg); err != nil {
		cleanup()
		return nil, nil, err
	}
	return session, cleanup, nil
}

func selectNodes(session *console.Session, cat *catalog.Category, nodes []string, lg *slog.Logger) error {
	for _, id := range nodes {
		if !cat.Has(id) {
			return internal.NewValidationError(fmt.Sprintf("Unknown filter %q for category %s", id, cat.ID), internal.ErrCodeSelectionInvalid)
		}
		session.Toggle(id, cat.ParentOf(id), true)
	}
	lg.Debug("cli selection applied", "category", cat.ID, "selected", session.Render().Selected)
	return nil
}

func printPage(w io.Writer, view pagination.PageView) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	switch view.Kind {
	case report.KindSectioned:
		for i, section := range view.Sections {
			if i > 0 {
				fmt.Fprintln(tw)
			}
			fmt.Fprintf(tw, "== %s ==\n", section.Title)
			writeTable(tw, section.Headers, section.Rows)
		}
	default:
		writeTable(tw, view.Headers, view.Rows)
	}

	fmt.Fprintf(tw, "\npage %d/%d, %d records\n", view.CurrentPage, max(view.TotalPages, 1), view.TotalRecords)
	return tw.Flush()
}

func writeTable(w io.Writer, headers []report.Header, rows []report.Row) {
	labels := make([]string, len(headers))
	for i, h := range headers {
		labels[i] = h.Label
	}
	fmt.Fprintln(w, strings.Join(labels, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row.Values(), "\t"))
	}
}
