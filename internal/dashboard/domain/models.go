package domain

import (
	"context"
	"errors"
	"time"

	customerdomain "github.com/smallbiznis/churnlens/internal/customer/domain"
	"github.com/smallbiznis/churnlens/pkg/db/pagination"
)

// Totals are the headline figures of the dashboard.
type Totals struct {
	TotalCustomers       int     `json:"total_customers"`
	TotalExpectedRevenue float64 `json:"total_expected_revenue"`
	AvgCLV               float64 `json:"avg_clv"`
	HighRiskCount        int     `json:"high_risk_count"`
}

// SegmentSummary is one segment's row of the dashboard.
type SegmentSummary struct {
	Segment            string         `json:"segment"`
	Customers          int            `json:"customers"`
	RiskCounts         map[string]int `json:"risk_counts"`
	AvgCLV             float64        `json:"avg_clv"`
	TotalCLV           float64        `json:"total_clv"`
	ExpectedRevenue30D float64        `json:"expected_revenue_30d"`
}

type Summary struct {
	ChurnCounts      map[string]map[string]int `json:"churn_counts"`
	AvgCLVBySegment  map[string]float64        `json:"avg_clv_segment"`
	RevenueBySegment map[string]float64        `json:"revenue_by_segment"`
	Summary          Totals                    `json:"summary"`

	// Segments and RiskLabels repeat the maps above in display order.
	Segments    []SegmentSummary `json:"segments"`
	RiskLabels  []string         `json:"risk_labels"`
	GeneratedAt time.Time        `json:"generated_at"`
}

type ListCustomersRequest struct {
	Segment string
	Risk    string
	pagination.Pagination
}

type ListCustomersResponse struct {
	Customers []customerdomain.Customer `json:"customers"`
	PageInfo  pagination.PageInfo       `json:"page_info"`
}

// Report is a rendered summary document.
type Report struct {
	ID          string
	FileName    string
	ContentType string
	Body        []byte
}

type Service interface {
	Summary(ctx context.Context) (Summary, error)
	ListCustomers(ctx context.Context, req ListCustomersRequest) (ListCustomersResponse, error)
	ExportSummary(ctx context.Context) (Report, error)
}

var (
	ErrInvalidSegment = errors.New("invalid_segment")
	ErrInvalidRisk    = errors.New("invalid_risk")
)
