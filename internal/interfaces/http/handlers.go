package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/finops/budget-approval/internal/application/port"
	"github.com/finops/budget-approval/internal/application/service"
	"github.com/finops/budget-approval/internal/domain/entity"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	services Services
	logger   Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, logger Logger) *Handlers {
	return &Handlers{
		services: services,
		logger:   logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// listQuery holds common pagination query parameters
type listQuery struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

func (q *listQuery) normalize() {
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
}

// respondError maps domain and service errors onto HTTP status codes
func (h *Handlers) respondError(c *gin.Context, err error) {
	var (
		validationErr *service.ValidationError
		authErr       *service.AuthorizationError
		notFoundErr   *service.NotFoundError
		stateErr      *service.InvalidStateError
		balanceErr    *entity.InsufficientBalanceError
		limitErr      *service.LimitExceededError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
	case errors.As(err, &authErr):
		status = http.StatusForbidden
	case errors.As(err, &notFoundErr):
		status = http.StatusNotFound
	case errors.As(err, &stateErr):
		status = http.StatusConflict
	case errors.As(err, &balanceErr), errors.As(err, &limitErr):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		h.logger.Errorw("Request failed", "error", err, "path", c.Request.URL.Path)
		c.JSON(status, Response{Success: false, Error: "internal error"})
		return
	}

	c.JSON(status, Response{Success: false, Error: err.Error()})
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	respondOK(c, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	})
}

// CreateBudget handles POST /api/budgets
func (h *Handlers) CreateBudget(c *gin.Context) {
	var in service.CreateBudgetInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	budget, err := h.services.Budgets.Create(c.Request.Context(), in, currentActor(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: budget})
}

// ListBudgets handles GET /api/budgets
func (h *Handlers) ListBudgets(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid query parameters"})
		return
	}
	q.normalize()

	budgets, err := h.services.Budgets.List(c.Request.Context(),
		c.Query("department_id"), q.Limit, q.Offset, currentActor(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	respondOK(c, budgets)
}

// GetBudget handles GET /api/budgets/:id
func (h *Handlers) GetBudget(c *gin.Context) {
	budget, err := h.services.Budgets.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, budget)
}

// ArchiveBudget handles POST /api/budgets/:id/archive
func (h *Handlers) ArchiveBudget(c *gin.Context) {
	budget, err := h.services.Budgets.Archive(c.Request.Context(), c.Param("id"), currentActor(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, budget)
}

// SubmitRequest handles POST /api/requests
func (h *Handlers) SubmitRequest(c *gin.Context) {
	var in service.SubmitRequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	request, err := h.services.Requests.Submit(c.Request.Context(), in, currentActor(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: request})
}

// ListRequests handles GET /api/requests
func (h *Handlers) ListRequests(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid query parameters"})
		return
	}
	q.normalize()

	filter := port.RequestFilter{
		Status:       c.Query("status"),
		DepartmentID: c.Query("department_id"),
		BudgetID:     c.Query("budget_id"),
		Limit:        q.Limit,
		Offset:       q.Offset,
	}

	requests, err := h.services.Requests.List(c.Request.Context(), filter, currentActor(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	respondOK(c, requests)
}

// GetRequest handles GET /api/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	request, err := h.services.Requests.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, request)
}

// EditRequest handles PUT /api/requests/:id
func (h *Handlers) EditRequest(c *gin.Context) {
	var in service.EditRequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	request, err := h.services.Requests.Edit(c.Request.Context(), c.Param("id"), in, currentActor(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	respondOK(c, request)
}

// decisionBody carries the approve/reject parameters
type decisionBody struct {
	ApprovedAmount int64  `json:"approved_amount"`
	Notes          string `json:"notes"`
}

// ApproveRequest handles POST /api/requests/:id/approve
func (h *Handlers) ApproveRequest(c *gin.Context) {
	var body decisionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	request, err := h.services.Requests.Approve(c.Request.Context(),
		c.Param("id"), body.ApprovedAmount, body.Notes, currentActor(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	respondOK(c, request)
}

// RejectRequest handles POST /api/requests/:id/reject
func (h *Handlers) RejectRequest(c *gin.Context) {
	var body decisionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	request, err := h.services.Requests.Reject(c.Request.Context(),
		c.Param("id"), body.Notes, currentActor(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	respondOK(c, request)
}

// RevertRequest handles POST /api/requests/:id/revert
func (h *Handlers) RevertRequest(c *gin.Context) {
	request, err := h.services.Requests.Revert(c.Request.Context(), c.Param("id"), currentActor(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, request)
}

// StopExpenses handles POST /api/requests/:id/stop-expenses
func (h *Handlers) StopExpenses(c *gin.Context) {
	request, err := h.services.Expenses.Stop(c.Request.Context(), c.Param("id"), currentActor(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, request)
}

// RecordExpense handles POST /api/requests/:id/expenses
func (h *Handlers) RecordExpense(c *gin.Context) {
	var in service.RecordExpenseInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	expense, err := h.services.Expenses.Record(c.Request.Context(), c.Param("id"), in, currentActor(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: expense})
}

// ListExpenses handles GET /api/requests/:id/expenses
func (h *Handlers) ListExpenses(c *gin.Context) {
	expenses, err := h.services.Expenses.ListByRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, expenses)
}

// RequestHistory handles GET /api/requests/:id/history
func (h *Handlers) RequestHistory(c *gin.Context) {
	records, err := h.services.History.ForRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, records)
}

// QueryHistory handles GET /api/history
func (h *Handlers) QueryHistory(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid query parameters"})
		return
	}
	q.normalize()

	filter := port.HistoryFilter{
		RequestID:  c.Query("request_id"),
		Action:     c.Query("action"),
		Role:       entity.Role(c.Query("role")),
		SearchTerm: c.Query("search"),
		Limit:      q.Limit,
		Offset:     q.Offset,
	}

	records, err := h.services.History.Query(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respondOK(c, records)
}

// ListDepartments handles GET /api/catalog/departments
func (h *Handlers) ListDepartments(c *gin.Context) {
	departments, err := h.services.Catalog.ListDepartments(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, departments)
}

// ListBudgetHeads handles GET /api/catalog/budget-heads
func (h *Handlers) ListBudgetHeads(c *gin.Context) {
	heads, err := h.services.Catalog.ListBudgetHeads(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, heads)
}

// DepartmentSummaries handles GET /api/reports/summary
func (h *Handlers) DepartmentSummaries(c *gin.Context) {
	summaries, err := h.services.Reports.DepartmentSummaries(c.Request.Context(), currentActor(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, summaries)
}
