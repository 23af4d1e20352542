package port

import (
	"context"

	"github.com/finops/budget-approval/internal/domain/entity"
)

// BudgetRepository defines persistence operations for Budget
type BudgetRepository interface {
	Create(ctx context.Context, budget *entity.Budget) error
	GetByID(ctx context.Context, id string) (*entity.Budget, error)
	Update(ctx context.Context, budget *entity.Budget) error
	List(ctx context.Context, departmentID string, limit, offset int) ([]*entity.Budget, error)
	SummarizeByDepartment(ctx context.Context) ([]*BudgetSummary, error)
}

// BudgetSummary is an aggregated per-department view of budget balances
type BudgetSummary struct {
	DepartmentID   string `json:"department_id"`
	BudgetCount    int    `json:"budget_count"`
	TotalAmount    int64  `json:"total_amount"`
	TotalAllocated int64  `json:"total_allocated"`
	TotalRemaining int64  `json:"total_remaining"`
}

// RequestRepository defines persistence operations for ExpenditureRequest
type RequestRepository interface {
	Create(ctx context.Context, request *entity.ExpenditureRequest) error
	GetByID(ctx context.Context, id string) (*entity.ExpenditureRequest, error)
	Update(ctx context.Context, request *entity.ExpenditureRequest) error
	List(ctx context.Context, filter RequestFilter) ([]*entity.ExpenditureRequest, error)
	CountOpenByBudgetID(ctx context.Context, budgetID string) (int, error)
	CountByStatus(ctx context.Context, departmentID string) (map[string]int, error)
}

// RequestFilter narrows request listings. Zero values mean "no filter".
type RequestFilter struct {
	Status       string
	DepartmentID string
	BudgetID     string
	Limit        int
	Offset       int
}

// ExpenseRepository defines persistence operations for Expense. Expenses are
// immutable once recorded; there is deliberately no update or delete.
type ExpenseRepository interface {
	Create(ctx context.Context, expense *entity.Expense) error
	GetByRequestID(ctx context.Context, requestID string) ([]*entity.Expense, error)
	SumByRequestID(ctx context.Context, requestID string) (int64, error)
}

// HistoryRepository defines persistence operations for HistoryRecord.
// The log is append-only: Create is the only write.
type HistoryRepository interface {
	Create(ctx context.Context, record *entity.HistoryRecord) error
	GetByRequestID(ctx context.Context, requestID string) ([]*entity.HistoryRecord, error)
	Query(ctx context.Context, filter HistoryFilter) ([]*entity.HistoryRecord, error)
}

// HistoryFilter narrows history queries. Zero values mean "no filter".
// SearchTerm matches notes and performer id with a substring scan.
type HistoryFilter struct {
	RequestID  string
	Action     string
	Role       entity.Role
	SearchTerm string
	Limit      int
	Offset     int
}

// CatalogRepository resolves the static department / budget-head hierarchy
type CatalogRepository interface {
	GetDepartment(ctx context.Context, id string) (*entity.Department, error)
	GetSubDepartment(ctx context.Context, id string) (*entity.SubDepartment, error)
	GetBudgetHead(ctx context.Context, id string) (*entity.BudgetHead, error)
	GetSubBudgetHead(ctx context.Context, id string) (*entity.SubBudgetHead, error)
	ListDepartments(ctx context.Context) ([]*entity.Department, error)
	ListBudgetHeads(ctx context.Context) ([]*entity.BudgetHead, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
