package pdf

import (
	"bytes"
	"context"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// SummaryReportData is the pre-formatted content of a dashboard report.
type SummaryReportData struct {
	Title       string
	ReportID    string
	GeneratedAt string

	TotalCustomers       string
	TotalExpectedRevenue string
	AvgCLV               string
	HighRiskCount        string

	RiskLabels []string
	Segments   []SegmentRow
}

type SegmentRow struct {
	Segment         string
	Customers       string
	AvgCLV          string
	ExpectedRevenue string
	// RiskCounts follows the order of SummaryReportData.RiskLabels.
	RiskCounts []string
}

const riskColumnsWidth = 4

func (p *PDFProvider) GenerateSummaryReport(ctx context.Context, data SummaryReportData) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(8, data.Title, props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		col.New(4).Add(
			text.New("Report: "+data.ReportID, props.Text{Size: 8, Align: align.Right}),
			text.New("Generated: "+data.GeneratedAt, props.Text{Size: 8, Top: 4, Align: align.Right}),
		),
	)

	m.AddRow(10,
		text.NewCol(3, "Customers", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Expected revenue (30d)", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Average CLV", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "High risk", props.Text{Style: fontstyle.Bold, Size: 9}),
	)
	m.AddRow(12,
		text.NewCol(3, data.TotalCustomers, props.Text{Size: 12}),
		text.NewCol(3, data.TotalExpectedRevenue, props.Text{Size: 12}),
		text.NewCol(3, data.AvgCLV, props.Text{Size: 12}),
		text.NewCol(3, data.HighRiskCount, props.Text{Size: 12}),
	)

	riskWidth := riskColumnsWidth
	if n := len(data.RiskLabels); n > 0 {
		riskWidth = riskColumnsWidth / n
		if riskWidth < 1 {
			riskWidth = 1
		}
	}
	labels := data.RiskLabels
	if len(labels) > riskColumnsWidth {
		labels = labels[:riskColumnsWidth]
	}

	m.AddRow(10, segmentHeader(labels, riskWidth)...)
	for _, row := range data.Segments {
		m.AddRow(8, segmentRow(row, len(labels), riskWidth)...)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}

func segmentHeader(labels []string, riskWidth int) []core.Col {
	bold := props.Text{Style: fontstyle.Bold, Size: 9}
	boldRight := props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}

	cols := []core.Col{
		text.NewCol(3, "Segment", bold),
		text.NewCol(1, "Count", boldRight),
		text.NewCol(2, "Avg CLV", boldRight),
		text.NewCol(2, "Revenue 30d", boldRight),
	}
	for _, label := range labels {
		cols = append(cols, text.NewCol(riskWidth, label, boldRight))
	}
	return cols
}

func segmentRow(row SegmentRow, risks int, riskWidth int) []core.Col {
	cell := props.Text{Size: 9, Align: align.Right}

	cols := []core.Col{
		text.NewCol(3, row.Segment, props.Text{Size: 9}),
		text.NewCol(1, row.Customers, cell),
		text.NewCol(2, row.AvgCLV, cell),
		text.NewCol(2, row.ExpectedRevenue, cell),
	}
	for i := 0; i < risks; i++ {
		value := "0"
		if i < len(row.RiskCounts) {
			value = row.RiskCounts[i]
		}
		cols = append(cols, text.NewCol(riskWidth, value, cell))
	}
	return cols
}
