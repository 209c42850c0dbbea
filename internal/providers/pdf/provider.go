package pdf

import (
	"context"
	"io"

	"go.uber.org/fx"
)

type Provider interface {
	GenerateSummaryReport(ctx context.Context, data SummaryReportData) (io.Reader, error)
}

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

var Module = fx.Module("pdf",
	fx.Provide(New),
)
