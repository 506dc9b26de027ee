package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"mt4-journal/internal/attachment"
	"mt4-journal/internal/importer"
	"mt4-journal/internal/interfaces"
	"mt4-journal/internal/logger"
	"mt4-journal/internal/repository"
	"mt4-journal/internal/statement"
)

type StatementHandler struct {
	Importer       interfaces.Importer
	Repo           repository.Repository
	Files          *attachment.Store
	Limiter        *rate.Limiter
	MaxUploadBytes int64
}

func (h *StatementHandler) Register(r *gin.Engine) {
	g := r.Group("/api/statements")
	g.POST("", RateLimit(h.Limiter), h.upload)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.GET("/:id/file", h.file)
}

func (h *StatementHandler) upload(c *gin.Context) {
	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Error(c, http.StatusRequestEntityTooLarge, "statement file too large", nil)
			return
		}
		Error(c, http.StatusBadRequest, "multipart field 'file' is required", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	defer f.Close()

	ctx := importer.WithSource(c.Request.Context(), "upload")
	res, err := h.Importer.Import(ctx, fh.Filename, f)
	if err != nil {
		var me *statement.MetadataError
		switch {
		case errors.As(err, &me):
			Error(c, http.StatusUnprocessableEntity, err.Error(), map[string]any{"field": me.Field})
		case errors.Is(err, statement.ErrMetadataMissing):
			Error(c, http.StatusUnprocessableEntity, err.Error(), nil)
		default:
			logger.ErrorWithErr(ctx, "Upload import failed", err, "file_name", fh.Filename)
			Error(c, http.StatusInternalServerError, "import failed", nil)
		}
		return
	}
	Ok(c, res, map[string]any{"warnings": len(res.Warnings)})
}

func (h *StatementHandler) list(c *gin.Context) {
	params := repository.ListStatementsParams{
		Limit:  intQuery(c, "limit", 50),
		Offset: intQuery(c, "offset", 0),
	}
	if v := intQuery(c, "account_id", 0); v > 0 {
		id := uint64(v)
		params.AccountID = &id
	}
	items, err := h.Repo.ListStatements(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, items, map[string]any{"limit": params.Limit, "offset": params.Offset})
}

func (h *StatementHandler) get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	item, err := h.Repo.GetStatement(c.Request.Context(), id)
	if err != nil {
		notFoundOrError(c, err)
		return
	}
	Ok(c, item, nil)
}

func (h *StatementHandler) file(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	item, err := h.Repo.GetStatement(c.Request.Context(), id)
	if err != nil {
		notFoundOrError(c, err)
		return
	}
	rs, err := h.Files.Open(item.FileKey)
	if err != nil {
		Error(c, http.StatusNotFound, "statement file not found", nil)
		return
	}
	defer rs.Close()

	number := ""
	if item.Account != nil {
		number = item.Account.Number
	}
	name := attachment.DownloadName(number)
	c.Header("Content-Type", attachment.ContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeContent(c.Writer, c.Request, name, item.CreatedAt, rs)
}

func notFoundOrError(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		Error(c, http.StatusNotFound, "not found", nil)
		return
	}
	Error(c, http.StatusInternalServerError, err.Error(), nil)
}
