package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/finops/budget-approval/internal/application/port"
	"github.com/finops/budget-approval/internal/domain/entity"
)

// In-memory repositories backing the service tests. They copy entities on
// read and write so a service mutation only becomes visible after Update,
// the same as a real database round trip.

type memTxManager struct{}

func (m *memTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memBudgetRepo struct {
	budgets map[string]*entity.Budget
}

func newMemBudgetRepo() *memBudgetRepo {
	return &memBudgetRepo{budgets: make(map[string]*entity.Budget)}
}

func (r *memBudgetRepo) Create(_ context.Context, budget *entity.Budget) error {
	c := *budget
	r.budgets[budget.ID] = &c
	return nil
}

func (r *memBudgetRepo) GetByID(_ context.Context, id string) (*entity.Budget, error) {
	b, ok := r.budgets[id]
	if !ok {
		return nil, nil
	}
	c := *b
	return &c, nil
}

func (r *memBudgetRepo) Update(_ context.Context, budget *entity.Budget) error {
	c := *budget
	r.budgets[budget.ID] = &c
	return nil
}

func (r *memBudgetRepo) List(_ context.Context, departmentID string, _, _ int) ([]*entity.Budget, error) {
	var out []*entity.Budget
	for _, b := range r.budgets {
		if departmentID != "" && b.DepartmentID != departmentID {
			continue
		}
		c := *b
		out = append(out, &c)
	}
	return out, nil
}

func (r *memBudgetRepo) SummarizeByDepartment(_ context.Context) ([]*port.BudgetSummary, error) {
	byDept := make(map[string]*port.BudgetSummary)
	for _, b := range r.budgets {
		s, ok := byDept[b.DepartmentID]
		if !ok {
			s = &port.BudgetSummary{DepartmentID: b.DepartmentID}
			byDept[b.DepartmentID] = s
		}
		s.BudgetCount++
		s.TotalAmount += b.Amount
		s.TotalAllocated += b.AllocatedAmount
		s.TotalRemaining += b.RemainingAmount
	}
	var out []*port.BudgetSummary
	for _, s := range byDept {
		out = append(out, s)
	}
	return out, nil
}

type memRequestRepo struct {
	requests map[string]*entity.ExpenditureRequest
}

func newMemRequestRepo() *memRequestRepo {
	return &memRequestRepo{requests: make(map[string]*entity.ExpenditureRequest)}
}

func (r *memRequestRepo) Create(_ context.Context, request *entity.ExpenditureRequest) error {
	c := *request
	r.requests[request.ID] = &c
	return nil
}

func (r *memRequestRepo) GetByID(_ context.Context, id string) (*entity.ExpenditureRequest, error) {
	req, ok := r.requests[id]
	if !ok {
		return nil, nil
	}
	c := *req
	return &c, nil
}

func (r *memRequestRepo) Update(_ context.Context, request *entity.ExpenditureRequest) error {
	c := *request
	r.requests[request.ID] = &c
	return nil
}

func (r *memRequestRepo) List(_ context.Context, filter port.RequestFilter) ([]*entity.ExpenditureRequest, error) {
	var out []*entity.ExpenditureRequest
	for _, req := range r.requests {
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		if filter.DepartmentID != "" && req.DepartmentID != filter.DepartmentID {
			continue
		}
		if filter.BudgetID != "" && req.BudgetID != filter.BudgetID {
			continue
		}
		c := *req
		out = append(out, &c)
	}
	return out, nil
}

func (r *memRequestRepo) CountOpenByBudgetID(_ context.Context, budgetID string) (int, error) {
	count := 0
	for _, req := range r.requests {
		if req.BudgetID != budgetID {
			continue
		}
		if req.Status == entity.RequestStatusPending || req.Status == entity.RequestStatusApproved {
			count++
		}
	}
	return count, nil
}

func (r *memRequestRepo) CountByStatus(_ context.Context, departmentID string) (map[string]int, error) {
	counts := make(map[string]int)
	for _, req := range r.requests {
		if departmentID != "" && req.DepartmentID != departmentID {
			continue
		}
		counts[req.Status]++
	}
	return counts, nil
}

type memExpenseRepo struct {
	expenses []*entity.Expense
}

func newMemExpenseRepo() *memExpenseRepo {
	return &memExpenseRepo{}
}

func (r *memExpenseRepo) Create(_ context.Context, expense *entity.Expense) error {
	c := *expense
	r.expenses = append(r.expenses, &c)
	return nil
}

func (r *memExpenseRepo) GetByRequestID(_ context.Context, requestID string) ([]*entity.Expense, error) {
	var out []*entity.Expense
	for _, e := range r.expenses {
		if e.RequestID == requestID {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *memExpenseRepo) SumByRequestID(_ context.Context, requestID string) (int64, error) {
	var sum int64
	for _, e := range r.expenses {
		if e.RequestID == requestID {
			sum += e.Amount
		}
	}
	return sum, nil
}

type memHistoryRepo struct {
	records []*entity.HistoryRecord
}

func newMemHistoryRepo() *memHistoryRepo {
	return &memHistoryRepo{}
}

func (r *memHistoryRepo) Create(_ context.Context, record *entity.HistoryRecord) error {
	c := *record
	r.records = append(r.records, &c)
	return nil
}

func (r *memHistoryRepo) GetByRequestID(_ context.Context, requestID string) ([]*entity.HistoryRecord, error) {
	var out []*entity.HistoryRecord
	for _, rec := range r.records {
		if rec.RequestID == requestID {
			c := *rec
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *memHistoryRepo) Query(_ context.Context, filter port.HistoryFilter) ([]*entity.HistoryRecord, error) {
	var out []*entity.HistoryRecord
	for _, rec := range r.records {
		if filter.RequestID != "" && rec.RequestID != filter.RequestID {
			continue
		}
		if filter.Action != "" && rec.Action != filter.Action {
			continue
		}
		if filter.Role != "" && rec.PerformedByRole != filter.Role {
			continue
		}
		if filter.SearchTerm != "" &&
			!strings.Contains(rec.Notes, filter.SearchTerm) &&
			!strings.Contains(rec.PerformedBy, filter.SearchTerm) {
			continue
		}
		c := *rec
		out = append(out, &c)
	}
	return out, nil
}

type memCatalogRepo struct {
	departments    map[string]*entity.Department
	subDepartments map[string]*entity.SubDepartment
	budgetHeads    map[string]*entity.BudgetHead
	subBudgetHeads map[string]*entity.SubBudgetHead
}

func newMemCatalogRepo() *memCatalogRepo {
	return &memCatalogRepo{
		departments: map[string]*entity.Department{
			"dept-1": {ID: "dept-1", Name: "Engineering"},
			"dept-2": {ID: "dept-2", Name: "Marketing"},
		},
		subDepartments: map[string]*entity.SubDepartment{
			"sub-dept-1": {ID: "sub-dept-1", Name: "Software Development", DepartmentID: "dept-1"},
			"sub-dept-3": {ID: "sub-dept-3", Name: "Digital Marketing", DepartmentID: "dept-2"},
		},
		budgetHeads: map[string]*entity.BudgetHead{
			"bh-1": {ID: "bh-1", Name: "Operational Expenses"},
			"bh-2": {ID: "bh-2", Name: "Capital Expenses"},
		},
		subBudgetHeads: map[string]*entity.SubBudgetHead{
			"sbh-1": {ID: "sbh-1", Name: "Office Supplies", BudgetHeadID: "bh-1"},
			"sbh-3": {ID: "sbh-3", Name: "Equipment", BudgetHeadID: "bh-2"},
		},
	}
}

func (r *memCatalogRepo) GetDepartment(_ context.Context, id string) (*entity.Department, error) {
	return r.departments[id], nil
}

func (r *memCatalogRepo) GetSubDepartment(_ context.Context, id string) (*entity.SubDepartment, error) {
	return r.subDepartments[id], nil
}

func (r *memCatalogRepo) GetBudgetHead(_ context.Context, id string) (*entity.BudgetHead, error) {
	return r.budgetHeads[id], nil
}

func (r *memCatalogRepo) GetSubBudgetHead(_ context.Context, id string) (*entity.SubBudgetHead, error) {
	return r.subBudgetHeads[id], nil
}

func (r *memCatalogRepo) ListDepartments(_ context.Context) ([]*entity.Department, error) {
	var out []*entity.Department
	for _, d := range r.departments {
		out = append(out, d)
	}
	return out, nil
}

func (r *memCatalogRepo) ListBudgetHeads(_ context.Context) ([]*entity.BudgetHead, error) {
	var out []*entity.BudgetHead
	for _, h := range r.budgetHeads {
		out = append(out, h)
	}
	return out, nil
}

// fixture wires the full service stack onto in-memory repositories with one
// seeded active budget and the three standard actors.
type fixture struct {
	budgetRepo  *memBudgetRepo
	requestRepo *memRequestRepo
	expenseRepo *memExpenseRepo
	historyRepo *memHistoryRepo
	catalogRepo *memCatalogRepo

	budgets  BudgetService
	requests RequestService
	expenses ExpenseService
	history  HistoryService
	reports  ReportService

	finance *entity.Actor
	hod     *entity.Actor
	clerk   *entity.Actor

	budget *entity.Budget
}

func newFixture() *fixture {
	f := &fixture{
		budgetRepo:  newMemBudgetRepo(),
		requestRepo: newMemRequestRepo(),
		expenseRepo: newMemExpenseRepo(),
		historyRepo: newMemHistoryRepo(),
		catalogRepo: newMemCatalogRepo(),
	}

	logger := zap.NewNop().Sugar()
	tx := &memTxManager{}

	f.budgets = NewBudgetService(f.budgetRepo, f.requestRepo, f.catalogRepo, tx, logger)
	f.requests = NewRequestService(f.budgetRepo, f.requestRepo, f.expenseRepo, f.historyRepo, tx, logger)
	f.expenses = NewExpenseService(f.budgetRepo, f.requestRepo, f.expenseRepo, tx, logger)
	f.history = NewHistoryService(f.historyRepo, logger)
	f.reports = NewReportService(f.budgetRepo, f.requestRepo, f.catalogRepo, logger)

	f.finance = &entity.Actor{ID: "1", Name: "Finance Admin", Role: entity.RoleFinance}
	f.hod = &entity.Actor{ID: "2", Name: "Department Head", Role: entity.RoleHOD, Department: "dept-1"}
	f.clerk = &entity.Actor{ID: "3", Name: "Clerk User", Role: entity.RoleClerk, Department: "dept-1"}

	now := time.Now()
	f.budget = &entity.Budget{
		ID:              "budget-1",
		DepartmentID:    "dept-1",
		SubDepartmentID: "sub-dept-1",
		BudgetHeadID:    "bh-1",
		SubBudgetHeadID: "sbh-1",
		FinancialYear:   "2023-2024",
		Amount:          500000,
		AllocatedAmount: 120000,
		RemainingAmount: 380000,
		Status:          entity.BudgetStatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	f.budgetRepo.budgets[f.budget.ID] = f.budget

	return f
}

// currentBudget re-reads the seeded budget so assertions see persisted state
func (f *fixture) currentBudget() *entity.Budget {
	b, _ := f.budgetRepo.GetByID(context.Background(), f.budget.ID)
	return b
}
