package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"mt4-journal/internal/export"
	"mt4-journal/internal/report"
	"mt4-journal/internal/repository"
)

type AccountHandler struct {
	Repo    repository.Repository
	Reports *report.Service
}

func (h *AccountHandler) Register(r *gin.Engine) {
	g := r.Group("/api/accounts")
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.GET("/:id/daily.csv", h.dailyCSV)
	g.GET("/:id/monthly.csv", h.monthlyCSV)
}

func (h *AccountHandler) list(c *gin.Context) {
	items, err := h.Repo.ListAccounts(c.Request.Context())
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, items, map[string]any{"total": len(items)})
}

func (h *AccountHandler) get(c *gin.Context) {
	rep, ok := h.report(c)
	if !ok {
		return
	}
	Ok(c, rep, map[string]any{
		"page":        rep.Pagination.Page,
		"per_page":    rep.Pagination.PerPage,
		"total":       rep.Pagination.Total,
		"total_pages": rep.Pagination.TotalPages,
	})
}

func (h *AccountHandler) dailyCSV(c *gin.Context) {
	rep, ok := h.report(c)
	if !ok {
		return
	}
	h.csv(c, fmt.Sprintf("daily_%s.csv", rep.Account.Number), func(w io.Writer) error {
		return export.WriteDaily(w, rep.Report.Daily)
	})
}

func (h *AccountHandler) monthlyCSV(c *gin.Context) {
	rep, ok := h.report(c)
	if !ok {
		return
	}
	h.csv(c, fmt.Sprintf("monthly_%s.csv", rep.Account.Number), func(w io.Writer) error {
		return export.WriteMonthly(w, rep.Report.Monthly)
	})
}

func (h *AccountHandler) report(c *gin.Context) (*report.AccountReport, bool) {
	id, ok := idParam(c)
	if !ok {
		return nil, false
	}
	rep, err := h.Reports.AccountReport(c.Request.Context(), report.Query{
		AccountID:     id,
		From:          c.Query("from"),
		To:            c.Query("to"),
		Type:          c.Query("type"),
		Item:          c.Query("item"),
		Page:          intQuery(c, "page", 1),
		PerPage:       intQuery(c, "per_page", 0),
		CalendarMonth: c.Query("calendar_month"),
	})
	if err != nil {
		notFoundOrError(c, err)
		return nil, false
	}
	return rep, true
}

func (h *AccountHandler) csv(c *gin.Context, name string, write func(io.Writer) error) {
	c.Header("Content-Type", export.ContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Status(http.StatusOK)
	if err := write(c.Writer); err != nil {
		_ = c.Error(err)
	}
}
