package statementobs

import (
	"context"
	"io"

	"mt4-journal/internal/interfaces"
	"mt4-journal/internal/logger"
	"mt4-journal/internal/trace"
	"mt4-journal/internal/types"
)

type observableParser struct {
	parser interfaces.StatementParser
}

var _ interfaces.StatementParser = (*observableParser)(nil)

func Wrap(parser interfaces.StatementParser) interfaces.StatementParser {
	return &observableParser{
		parser: parser,
	}
}

func (op *observableParser) Parse(ctx context.Context, r io.Reader) (*types.ParsedStatement, error) {
	ctx, span := trace.StartSpan(ctx, "statement.Parse")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Parsing statement")

	out, err := op.parser.Parse(ctx, r)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Statement parsing failed", err)
		return nil, err
	}

	for _, w := range out.Warnings {
		fields := []any{"account", out.AccountNumber, "field", w.Field}
		// raw cell text only in detailed logs
		if logger.IsDebugEnabled() {
			fields = append(fields, "value", w.Value)
		}
		logger.ParseAnomaly(ctx, string(w.Kind), w.Row, fields...)
	}

	logger.InfoSkip(ctx, 1, "Statement parsed",
		"account", out.AccountNumber,
		"trades", len(out.Trades),
		"warnings", len(out.Warnings),
		"closed_pl", out.ClosedPL,
		"balance", out.Balance,
	)

	return out, nil
}
