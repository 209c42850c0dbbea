package service

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/gosimple/slug"
	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/churnlens/internal/clock"
	customerdomain "github.com/smallbiznis/churnlens/internal/customer/domain"
	"github.com/smallbiznis/churnlens/internal/dashboard/domain"
	"github.com/smallbiznis/churnlens/internal/providers/pdf"
	"github.com/smallbiznis/churnlens/internal/taxonomy"
	"github.com/smallbiznis/churnlens/pkg/db/pagination"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const reportTitle = "Customer analytics summary"

type Params struct {
	fx.In

	Customers customerdomain.Service
	PDF       pdf.Provider
	Clock     clock.Clock
	Log       *zap.Logger
}

type Service struct {
	customers customerdomain.Service
	pdf       pdf.Provider
	clock     clock.Clock
	log       *zap.Logger
}

func New(p Params) domain.Service {
	return &Service{
		customers: p.Customers,
		pdf:       p.PDF,
		clock:     p.Clock,
		log:       p.Log.Named("dashboard.service"),
	}
}

var tracer = otel.Tracer("churnlens/dashboard")

func (s *Service) Summary(ctx context.Context) (domain.Summary, error) {
	_, span := tracer.Start(ctx, "dashboard.Summary")
	defer span.End()

	summary := summarize(s.customers.All(ctx))
	summary.GeneratedAt = s.clock.Now()
	span.SetAttributes(attribute.Int("customers", summary.Summary.TotalCustomers))
	return summary, nil
}

func (s *Service) ListCustomers(ctx context.Context, req domain.ListCustomersRequest) (domain.ListCustomersResponse, error) {
	_, span := tracer.Start(ctx, "dashboard.ListCustomers")
	defer span.End()

	if req.Segment != "" && !taxonomy.IsSegment(req.Segment) {
		return domain.ListCustomersResponse{}, domain.ErrInvalidSegment
	}
	if req.Risk != "" && !taxonomy.IsRisk(req.Risk) {
		return domain.ListCustomersResponse{}, domain.ErrInvalidRisk
	}

	all := s.customers.All(ctx)
	filtered := make([]customerdomain.Customer, 0, len(all))
	for _, c := range all {
		if req.Segment != "" && c.Segment != req.Segment {
			continue
		}
		if req.Risk != "" && c.ChurnRisk != req.Risk {
			continue
		}
		filtered = append(filtered, c)
	}
	sortForListing(filtered)

	page, info, err := pagination.Page(filtered, req.Pagination)
	if err != nil {
		return domain.ListCustomersResponse{}, err
	}

	return domain.ListCustomersResponse{
		Customers: page,
		PageInfo:  *info,
	}, nil
}

// ExportSummary renders the current summary as a PDF document.
func (s *Service) ExportSummary(ctx context.Context) (domain.Report, error) {
	ctx, span := tracer.Start(ctx, "dashboard.ExportSummary")
	defer span.End()

	summary, err := s.Summary(ctx)
	if err != nil {
		return domain.Report{}, err
	}

	reportID := ulid.MustNew(ulid.Timestamp(summary.GeneratedAt), ulid.DefaultEntropy()).String()
	out, err := s.pdf.GenerateSummaryReport(ctx, reportData(reportID, summary))
	if err != nil {
		s.log.Error("failed to render summary report", zap.String("report_id", reportID), zap.Error(err))
		return domain.Report{}, fmt.Errorf("render summary report: %w", err)
	}
	body, err := io.ReadAll(out)
	if err != nil {
		return domain.Report{}, err
	}

	name := slug.Make(reportTitle+" "+summary.GeneratedAt.Format("2006-01-02")) + ".pdf"
	return domain.Report{
		ID:          reportID,
		FileName:    name,
		ContentType: "application/pdf",
		Body:        body,
	}, nil
}

func reportData(id string, summary domain.Summary) pdf.SummaryReportData {
	data := pdf.SummaryReportData{
		Title:                reportTitle,
		ReportID:             id,
		GeneratedAt:          summary.GeneratedAt.UTC().Format("2006-01-02 15:04 UTC"),
		TotalCustomers:       strconv.Itoa(summary.Summary.TotalCustomers),
		TotalExpectedRevenue: money(summary.Summary.TotalExpectedRevenue),
		AvgCLV:               money(summary.Summary.AvgCLV),
		HighRiskCount:        strconv.Itoa(summary.Summary.HighRiskCount),
		RiskLabels:           summary.RiskLabels,
	}
	for _, seg := range summary.Segments {
		counts := make([]string, 0, len(summary.RiskLabels))
		for _, r := range summary.RiskLabels {
			counts = append(counts, strconv.Itoa(seg.RiskCounts[r]))
		}
		data.Segments = append(data.Segments, pdf.SegmentRow{
			Segment:         seg.Segment,
			Customers:       strconv.Itoa(seg.Customers),
			AvgCLV:          money(seg.AvgCLV),
			ExpectedRevenue: money(seg.ExpectedRevenue30D),
			RiskCounts:      counts,
		})
	}
	return data
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
