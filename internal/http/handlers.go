package http

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"budget/internal/codec"
	"budget/internal/core"
	"budget/internal/export"
	"budget/internal/log"
	"budget/internal/services"
)

type nameRequest struct {
	Name string `json:"name" binding:"required"`
}

type summaryResponse struct {
	AccountID   string  `json:"account_id"`
	AccountName string  `json:"account_name"`
	Owner       string  `json:"owner"`
	Type        string  `json:"type"`
	Before      float64 `json:"before"`
	After       float64 `json:"after"`
}

type balancesResponse struct {
	Expenses  map[string]float64 `json:"expenses"`
	Incomes   map[string]float64 `json:"incomes"`
	Transfers map[string]float64 `json:"transfers"`
	Accounts  []summaryResponse  `json:"accounts"`
}

type projectionResponse struct {
	Account      string                 `json:"account"`
	Expenses     services.MonthlySeries `json:"expenses"`
	Incomes      services.MonthlySeries `json:"incomes"`
	Saldo        services.MonthlySeries `json:"saldo"`
	BufferNeeded float64                `json:"buffer_needed"`
}

type monthMovements struct {
	Month   int                   `json:"month"`
	Total   float64               `json:"total"`
	Entries []codec.EntryDocument `json:"entries"`
}

type periodOption struct {
	Months int    `json:"months"`
	Label  string `json:"label"`
}

type optionsResponse struct {
	PaymentPeriods []periodOption `json:"payment_periods"`
	PaymentMethods []string       `json:"payment_methods"`
	AccountTypes   []string       `json:"account_types"`
}

func (s *Server) registerRoutes(api *gin.RouterGroup) {
	api.GET("/options", s.getOptions)

	budgets := api.Group("/budgets")
	{
		budgets.GET("", s.listBudgets)
		budgets.POST("", s.createBudget)
		budgets.GET("/:id", s.getBudget)
		budgets.PUT("/:id", s.replaceBudget)
		budgets.DELETE("/:id", s.deleteBudget)
		budgets.POST("/:id/copy", s.copyBudget)
		budgets.PATCH("/:id/entries/:entryID", s.updateEntry)
		budgets.GET("/:id/balances", s.getBalances)
		budgets.GET("/:id/accounts/:account/projection", s.getProjection)
		budgets.GET("/:id/accounts/:account/movements", s.getMovements)
		budgets.GET("/:id/export", s.exportBudget)
	}
}

// getOptions lists the values offered when editing entries and accounts.
func (s *Server) getOptions(c *gin.Context) {
	resp := optionsResponse{PaymentMethods: core.PaymentMethods}
	for _, p := range core.Periods() {
		resp.PaymentPeriods = append(resp.PaymentPeriods, periodOption{Months: p, Label: core.PeriodLabel(p)})
	}
	for _, t := range core.AccountTypes() {
		resp.AccountTypes = append(resp.AccountTypes, t.String())
	}
	Success(c, resp)
}

func (s *Server) listBudgets(c *gin.Context) {
	Success(c, s.svc.List(c.Request.Context()))
}

func (s *Server) createBudget(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "name is required")
		return
	}
	info, err := s.svc.Create(c.Request.Context(), strings.TrimSpace(req.Name))
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, info)
}

func (s *Server) getBudget(c *gin.Context) {
	d, err := s.svc.Document(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, d)
}

func (s *Server) replaceBudget(c *gin.Context) {
	var d codec.Document
	if err := c.ShouldBindJSON(&d); err != nil {
		BadRequest(c, "body is not a budget document")
		return
	}
	info, err := s.svc.Replace(c.Request.Context(), c.Param("id"), d)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, info)
}

func (s *Server) deleteBudget(c *gin.Context) {
	purge, _ := strconv.ParseBool(c.DefaultQuery("purge", "false"))
	if err := s.svc.Delete(c.Request.Context(), c.Param("id"), purge); err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"id": c.Param("id"), "purged": purge})
}

func (s *Server) copyBudget(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "name is required")
		return
	}
	info, err := s.svc.Copy(c.Request.Context(), c.Param("id"), strings.TrimSpace(req.Name))
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, info)
}

func (s *Server) updateEntry(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil || len(fields) == 0 {
		BadRequest(c, "body must be an object of entry fields")
		return
	}
	attrs, err := s.svc.UpdateEntry(c.Request.Context(), c.Param("id"), c.Param("entryID"), fields)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, codec.EntryToDocument(attrs))
}

func (s *Server) getBalances(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	bal, err := s.svc.Balances(ctx, id)
	if err != nil {
		Fail(c, err)
		return
	}
	sums, err := s.svc.Summaries(ctx, id)
	if err != nil {
		Fail(c, err)
		return
	}

	resp := balancesResponse{
		Expenses:  bal.Expenses,
		Incomes:   bal.Incomes,
		Transfers: bal.Transfers,
		Accounts:  make([]summaryResponse, 0, len(sums)),
	}
	for _, sum := range sums {
		resp.Accounts = append(resp.Accounts, summaryResponse{
			AccountID:   sum.Account.ID(),
			AccountName: sum.Account.Name(),
			Owner:       sum.Account.Owner(),
			Type:        sum.Account.Type().String(),
			Before:      sum.Before,
			After:       sum.After,
		})
	}
	Success(c, resp)
}

func (s *Server) getProjection(c *gin.Context) {
	p, err := s.svc.Projection(c.Request.Context(), c.Param("id"), c.Param("account"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, projectionResponse{
		Account:      p.Account,
		Expenses:     p.Expenses,
		Incomes:      p.Incomes,
		Saldo:        p.Saldo,
		BufferNeeded: p.BufferNeeded,
	})
}

func (s *Server) getMovements(c *gin.Context) {
	months, err := parseMonths(c.Query("months"))
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	moves, err := s.svc.Movements(c.Request.Context(), c.Param("id"), c.Param("account"), months)
	if err != nil {
		Fail(c, err)
		return
	}

	out := make([]monthMovements, 0, len(moves))
	for month, entries := range moves {
		m := monthMovements{Month: month, Entries: make([]codec.EntryDocument, 0, len(entries))}
		for _, e := range entries {
			m.Entries = append(m.Entries, codec.EntryToDocument(e))
			m.Total += e.PaymentSize + e.PaymentFee
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	Success(c, out)
}

func (s *Server) exportBudget(c *gin.Context) {
	account := c.Query("account")
	var (
		buf  bytes.Buffer
		name string
	)
	err := s.svc.View(c.Request.Context(), c.Param("id"), func(b *core.Budget) error {
		name = export.FileName(b, time.Now())
		return export.Write(&buf, b, account)
	})
	if err != nil {
		Fail(c, err)
		return
	}

	log.FromGin(c).InfoContext(c.Request.Context(), "Budget exported",
		log.FieldBudgetID, c.Param("id"), log.FieldAccount, account)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

// parseMonths reads a comma separated month list. Empty means every month.
func parseMonths(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var months []int
	for _, part := range strings.Split(raw, ",") {
		m, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || m < 1 || m > core.MonthsPerCycle {
			return nil, fmt.Errorf("invalid month %q", part)
		}
		months = append(months, m)
	}
	return months, nil
}
