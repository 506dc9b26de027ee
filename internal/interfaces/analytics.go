package interfaces

import (
	"context"

	"mt4-journal/internal/models"
	"mt4-journal/internal/types"
)

// Analyzer turns one filtered trade set into the report view model.
type Analyzer interface {
	Compute(ctx context.Context, trades []models.Trade, opts types.ReportOptions) *types.Report
}
