package interfaces

import (
	"context"
	"io"

	"mt4-journal/internal/types"
)

type StatementParser interface {
	Parse(ctx context.Context, r io.Reader) (*types.ParsedStatement, error)
}
