package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/smallbiznis/churnlens/internal/clock"
	customerdomain "github.com/smallbiznis/churnlens/internal/customer/domain"
	customerservice "github.com/smallbiznis/churnlens/internal/customer/service"
	"github.com/smallbiznis/churnlens/internal/dashboard/domain"
	"github.com/smallbiznis/churnlens/internal/providers/pdf"
	"github.com/smallbiznis/churnlens/internal/taxonomy"
	"github.com/smallbiznis/churnlens/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func fixture() []customerdomain.Customer {
	return []customerdomain.Customer{
		{ID: 1, Segment: taxonomy.SegmentChampion, ChurnRisk: taxonomy.RiskLow, CLV6M: 100, ExpectedRevenue30D: 10},
		{ID: 2, Segment: taxonomy.SegmentChampion, ChurnRisk: taxonomy.RiskHigh, CLV6M: 300, ExpectedRevenue30D: 30},
		{ID: 3, Segment: taxonomy.SegmentLost, ChurnRisk: taxonomy.RiskHigh, CLV6M: 50, ExpectedRevenue30D: 5},
		{ID: 4, Segment: taxonomy.SegmentLost, ChurnRisk: taxonomy.RiskMedium, CLV6M: 50, ExpectedRevenue30D: 2.5},
		{ID: 5, Segment: taxonomy.SegmentAtRisk, ChurnRisk: taxonomy.RiskHigh, CLV6M: 300, ExpectedRevenue30D: 0.34},
	}
}

type failingPDF struct{}

func (failingPDF) GenerateSummaryReport(context.Context, pdf.SummaryReportData) (io.Reader, error) {
	return nil, errors.New("renderer unavailable")
}

type capturingPDF struct {
	got pdf.SummaryReportData
}

func (c *capturingPDF) GenerateSummaryReport(_ context.Context, data pdf.SummaryReportData) (io.Reader, error) {
	c.got = data
	return bytes.NewReader([]byte("%PDF-1.3 stub")), nil
}

func newTestService(customers []customerdomain.Customer, renderer pdf.Provider) domain.Service {
	return New(Params{
		Customers: customerservice.NewFromCustomers(customers),
		PDF:       renderer,
		Clock:     clock.NewFakeClock(fixedNow),
		Log:       zap.NewNop(),
	})
}

func TestSummaryAggregates(t *testing.T) {
	svc := newTestService(fixture(), pdf.New())

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, fixedNow, summary.GeneratedAt)
	assert.Equal(t, 5, summary.Summary.TotalCustomers)
	assert.Equal(t, 3, summary.Summary.HighRiskCount)
	assert.Equal(t, 160.0, summary.Summary.AvgCLV)
	assert.Equal(t, 47.84, summary.Summary.TotalExpectedRevenue)

	assert.Equal(t, []string{taxonomy.RiskHigh, taxonomy.RiskMedium, taxonomy.RiskLow}, summary.RiskLabels)
	assert.Equal(t, map[string]int{
		taxonomy.RiskHigh:   1,
		taxonomy.RiskMedium: 0,
		taxonomy.RiskLow:    1,
	}, summary.ChurnCounts[taxonomy.SegmentChampion])

	assert.InDelta(t, 200.0, summary.AvgCLVBySegment[taxonomy.SegmentChampion], 1e-9)
	assert.InDelta(t, 7.5, summary.RevenueBySegment[taxonomy.SegmentLost], 1e-9)

	segments := make([]string, 0, len(summary.Segments))
	for _, s := range summary.Segments {
		segments = append(segments, s.Segment)
	}
	assert.Equal(t, []string{taxonomy.SegmentChampion, taxonomy.SegmentAtRisk, taxonomy.SegmentLost}, segments)
}

func TestSummaryCountsCoverEveryCustomer(t *testing.T) {
	summary, err := newTestService(fixture(), pdf.New()).Summary(context.Background())
	require.NoError(t, err)

	total := 0
	for _, counts := range summary.ChurnCounts {
		for _, n := range counts {
			total += n
		}
	}
	assert.Equal(t, summary.Summary.TotalCustomers, total)

	weighted := 0.0
	for _, s := range summary.Segments {
		weighted += s.AvgCLV * float64(s.Customers)
	}
	assert.InDelta(t, summary.Summary.AvgCLV*float64(summary.Summary.TotalCustomers), weighted, 0.01)
}

func TestSummaryEmptyTable(t *testing.T) {
	summary, err := newTestService(nil, pdf.New()).Summary(context.Background())
	require.NoError(t, err)

	assert.Zero(t, summary.Summary.TotalCustomers)
	assert.Zero(t, summary.Summary.AvgCLV)
	assert.Zero(t, summary.Summary.HighRiskCount)
	assert.Empty(t, summary.ChurnCounts)
	assert.Empty(t, summary.Segments)
}

func TestSummaryKeepsUnknownSegmentsLast(t *testing.T) {
	customers := append(fixture(), customerdomain.Customer{ID: 9, Segment: "Dormant", ChurnRisk: taxonomy.RiskLow})
	summary, err := newTestService(customers, pdf.New()).Summary(context.Background())
	require.NoError(t, err)

	last := summary.Segments[len(summary.Segments)-1]
	assert.Equal(t, "Dormant", last.Segment)
}

func TestListCustomersOrdering(t *testing.T) {
	resp, err := newTestService(fixture(), pdf.New()).ListCustomers(context.Background(), domain.ListCustomersRequest{})
	require.NoError(t, err)

	ids := make([]int64, 0, len(resp.Customers))
	for _, c := range resp.Customers {
		ids = append(ids, c.ID)
	}
	// High Risk by CLV then id, then Medium, then Low.
	assert.Equal(t, []int64{2, 5, 3, 4, 1}, ids)
	assert.Equal(t, 5, resp.PageInfo.Total)
	assert.False(t, resp.PageInfo.HasMore)
}

func TestListCustomersFilters(t *testing.T) {
	svc := newTestService(fixture(), pdf.New())

	resp, err := svc.ListCustomers(context.Background(), domain.ListCustomersRequest{
		Segment: taxonomy.SegmentLost,
		Risk:    taxonomy.RiskHigh,
	})
	require.NoError(t, err)
	require.Len(t, resp.Customers, 1)
	assert.Equal(t, int64(3), resp.Customers[0].ID)

	_, err = svc.ListCustomers(context.Background(), domain.ListCustomersRequest{Segment: "VIP"})
	assert.ErrorIs(t, err, domain.ErrInvalidSegment)

	_, err = svc.ListCustomers(context.Background(), domain.ListCustomersRequest{Risk: "Extreme"})
	assert.ErrorIs(t, err, domain.ErrInvalidRisk)
}

func TestListCustomersPaginates(t *testing.T) {
	svc := newTestService(fixture(), pdf.New())

	first, err := svc.ListCustomers(context.Background(), domain.ListCustomersRequest{
		Pagination: pagination.Pagination{PageSize: 2},
	})
	require.NoError(t, err)
	require.Len(t, first.Customers, 2)
	require.True(t, first.PageInfo.HasMore)
	require.NotEmpty(t, first.PageInfo.NextPageToken)

	second, err := svc.ListCustomers(context.Background(), domain.ListCustomersRequest{
		Pagination: pagination.Pagination{PageSize: 2, PageToken: first.PageInfo.NextPageToken},
	})
	require.NoError(t, err)
	require.Len(t, second.Customers, 2)
	assert.Equal(t, int64(3), second.Customers[0].ID)

	_, err = svc.ListCustomers(context.Background(), domain.ListCustomersRequest{
		Pagination: pagination.Pagination{PageToken: "!!"},
	})
	assert.ErrorIs(t, err, pagination.ErrInvalidPageToken)
}

func TestExportSummary(t *testing.T) {
	renderer := &capturingPDF{}
	report, err := newTestService(fixture(), renderer).ExportSummary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", report.ContentType)
	assert.Equal(t, "customer-analytics-summary-2026-03-14.pdf", report.FileName)
	assert.Len(t, report.ID, 26)
	assert.True(t, bytes.HasPrefix(report.Body, []byte("%PDF")))

	assert.Equal(t, report.ID, renderer.got.ReportID)
	assert.Equal(t, "5", renderer.got.TotalCustomers)
	assert.Equal(t, "160.00", renderer.got.AvgCLV)
	assert.Equal(t, "2026-03-14 09:30 UTC", renderer.got.GeneratedAt)
	require.Len(t, renderer.got.Segments, 3)
	assert.Equal(t, []string{"1", "0", "1"}, renderer.got.Segments[0].RiskCounts)
}

func TestExportSummaryRendersRealPDF(t *testing.T) {
	report, err := newTestService(fixture(), pdf.New()).ExportSummary(context.Background())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(report.Body, []byte("%PDF")))
}

func TestExportSummaryRendererFailure(t *testing.T) {
	_, err := newTestService(fixture(), failingPDF{}).ExportSummary(context.Background())
	assert.Error(t, err)
}
