package analyticsobs

import (
	"context"

	"mt4-journal/internal/interfaces"
	"mt4-journal/internal/logger"
	"mt4-journal/internal/models"
	"mt4-journal/internal/types"
)

type observableAnalyzer struct {
	analyzer interfaces.Analyzer
}

var _ interfaces.Analyzer = (*observableAnalyzer)(nil)

func Wrap(analyzer interfaces.Analyzer) interfaces.Analyzer {
	return &observableAnalyzer{
		analyzer: analyzer,
	}
}

func (oa *observableAnalyzer) Compute(ctx context.Context, trades []models.Trade, opts types.ReportOptions) *types.Report {
	timer := logger.StartOperation(ctx, "analytics.Compute",
		"trades", len(trades),
		"calendar_month", opts.CalendarMonth,
	)

	report := oa.analyzer.Compute(timer.GetContext(), trades, opts)

	timer.End(
		"days", len(report.Daily),
		"months", len(report.Monthly),
		"items", len(report.ItemWinRates),
	)
	return report
}
