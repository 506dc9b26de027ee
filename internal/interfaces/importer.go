package interfaces

import (
	"context"
	"io"

	"mt4-journal/internal/types"
)

// Importer parses a statement document and persists it with its trades.
type Importer interface {
	Import(ctx context.Context, filename string, r io.Reader) (*types.ImportResult, error)
}
