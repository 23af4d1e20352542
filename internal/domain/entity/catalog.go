package entity

// Reference catalog types. The catalog is static lookup data seeded by
// migration; the workflow consults it for name resolution and for validating
// the hierarchy on budget creation.

// Department is a top-level organizational unit
type Department struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SubDepartment belongs to a department
type SubDepartment struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	DepartmentID string `json:"department_id"`
}

// BudgetHead is a top-level spending category
type BudgetHead struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SubBudgetHead belongs to a budget head
type SubBudgetHead struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	BudgetHeadID string `json:"budget_head_id"`
}
