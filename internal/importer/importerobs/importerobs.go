package importerobs

import (
	"context"
	"io"

	"mt4-journal/internal/interfaces"
	"mt4-journal/internal/logger"
	"mt4-journal/internal/trace"
	"mt4-journal/internal/types"
)

type observableImporter struct {
	importer interfaces.Importer
}

var _ interfaces.Importer = (*observableImporter)(nil)

func Wrap(importer interfaces.Importer) interfaces.Importer {
	return &observableImporter{
		importer: importer,
	}
}

func (oi *observableImporter) Import(ctx context.Context, filename string, r io.Reader) (*types.ImportResult, error) {
	ctx, span := trace.StartSpan(ctx, "importer.Import")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Starting statement import",
		"file_name", filename,
	)

	res, err := oi.importer.Import(ctx, filename, r)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Statement import failed", err,
			"file_name", filename,
		)
		return nil, err
	}

	logger.InfoSkip(ctx, 1, "Statement import completed",
		"file_name", filename,
		"account", res.AccountNumber,
		"statement_id", res.StatementID,
		"created", res.Created,
		"updated", res.Updated,
	)

	return res, nil
}
